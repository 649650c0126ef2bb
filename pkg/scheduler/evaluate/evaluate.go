// Package evaluate 为完整班次集合计算标量质量分
// 分值越高越好，用于比较同一输入下不同排班方案的优劣
package evaluate

import (
	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/engine"
)

// 适应度权重
const (
	weightHoursFit      = 1000.0 // 工时贴合度
	weightWeekendSpread = 200.0  // 周末分布公平性
	weightPeriodSpread  = 150.0  // 班段分布均衡性
	weightHolidaySpread = 200.0  // 节假日分布公平性
)

// Evaluator 排班质量评估器
// 应工作时长等静态基线在创建时固定，单次评估只扫描班次列表一遍
type Evaluator struct {
	required    map[uuid.UUID]float64
	saturdays   map[string]bool
	sundays     map[string]bool
	holidays    map[string]bool
	employeeIDs []uuid.UUID
}

// NewEvaluator 基于排班上下文创建评估器
func NewEvaluator(ctx *engine.SchedulerContext) *Evaluator {
	e := &Evaluator{
		required:  make(map[uuid.UUID]float64),
		saturdays: make(map[string]bool),
		sundays:   make(map[string]bool),
		holidays:  make(map[string]bool),
	}
	for _, st := range ctx.SortedStates() {
		e.required[st.Employee.ID] = st.RequiredHours
		e.employeeIDs = append(e.employeeIDs, st.Employee.ID)
	}
	for _, d := range ctx.Input.Saturdays {
		e.saturdays[d] = true
	}
	for _, d := range ctx.Input.TradingSundays {
		e.sundays[d] = true
	}
	for _, d := range ctx.Input.Holidays {
		e.holidays[d] = true
	}
	return e
}

// employeeTally 单次扫描积累的员工统计
type employeeTally struct {
	hours     float64
	weekend   int
	holiday   int
	morning   int
	afternoon int
	evening   int
}

// tally 单遍扫描班次列表
func (e *Evaluator) tally(shifts []*model.GeneratedShift) map[uuid.UUID]*employeeTally {
	tallies := make(map[uuid.UUID]*employeeTally, len(e.employeeIDs))
	for _, id := range e.employeeIDs {
		tallies[id] = &employeeTally{}
	}

	for _, s := range shifts {
		t := tallies[s.EmployeeID]
		if t == nil {
			continue
		}
		t.hours += s.Hours()
		if model.IsWeekendDate(s.Date) || e.saturdays[s.Date] || e.sundays[s.Date] {
			t.weekend++
		}
		if e.holidays[s.Date] {
			t.holiday++
		}
		switch s.Period() {
		case model.PeriodMorning:
			t.morning++
		case model.PeriodAfternoon:
			t.afternoon++
		default:
			t.evening++
		}
	}
	return tallies
}

// Fitness 计算完整适应度：
// 工时贴合度、周末与节假日分布公平性、班段分布均衡性
func (e *Evaluator) Fitness(shifts []*model.GeneratedShift) float64 {
	tallies := e.tally(shifts)

	score := e.hoursFitScore(tallies)
	score -= weightWeekendSpread * varianceOf(tallies, func(t *employeeTally) float64 { return float64(t.weekend) })
	score -= weightHolidaySpread * varianceOf(tallies, func(t *employeeTally) float64 { return float64(t.holiday) })
	score -= weightPeriodSpread * e.periodSpread(tallies)
	return score
}

// QuickFitness 廉价变体：只计算工时贴合度与周末公平性
// 遗传优化器的内层循环按代数×种群规模的量级调用
func (e *Evaluator) QuickFitness(shifts []*model.GeneratedShift) float64 {
	tallies := e.tally(shifts)
	return e.hoursFitScore(tallies) -
		weightWeekendSpread*varianceOf(tallies, func(t *employeeTally) float64 { return float64(t.weekend) })
}

// hoursFitScore 工时贴合度：每名员工的相对偏差越小越好
func (e *Evaluator) hoursFitScore(tallies map[uuid.UUID]*employeeTally) float64 {
	if len(e.employeeIDs) == 0 {
		return 0
	}

	total := 0.0
	for _, id := range e.employeeIDs {
		required := e.required[id]
		if required <= 0 {
			total += 1
			continue
		}
		deviation := tallies[id].hours - required
		if deviation < 0 {
			deviation = -deviation
		}
		fit := 1 - deviation/required
		if fit < 0 {
			fit = 0
		}
		total += fit
	}
	return weightHoursFit * total / float64(len(e.employeeIDs))
}

// periodSpread 全体员工的班段占比方差均值
// 用占比而不是绝对次数，避免班次总量大的员工被系统性压低
func (e *Evaluator) periodSpread(tallies map[uuid.UUID]*employeeTally) float64 {
	if len(e.employeeIDs) == 0 {
		return 0
	}

	total := 0.0
	for _, id := range e.employeeIDs {
		t := tallies[id]
		sum := float64(t.morning + t.afternoon + t.evening)
		if sum == 0 {
			continue
		}
		shares := []float64{float64(t.morning) / sum, float64(t.afternoon) / sum, float64(t.evening) / sum}
		mean := 1.0 / 3.0
		v := 0.0
		for _, s := range shares {
			v += (s - mean) * (s - mean)
		}
		total += v / 3
	}
	return total / float64(len(e.employeeIDs))
}

// varianceOf 员工间某个计数的方差
func varianceOf(tallies map[uuid.UUID]*employeeTally, f func(*employeeTally) float64) float64 {
	if len(tallies) == 0 {
		return 0
	}

	mean := 0.0
	for _, t := range tallies {
		mean += f(t)
	}
	mean /= float64(len(tallies))

	variance := 0.0
	for _, t := range tallies {
		d := f(t) - mean
		variance += d * d
	}
	return variance / float64(len(tallies))
}
