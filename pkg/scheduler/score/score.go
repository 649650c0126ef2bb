// Package score 计算候选员工的软约束期望度得分
// 各项启发式独立计算后求和，权重为可调常量
package score

import (
	"math"

	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/engine"
)

// 可调权重常量
const (
	// TopCandidates 严格策略下参与随机抽取的最高分候选数
	TopCandidates = 5
	// ScoreGap 与最高分差距超过该值的候选被剔除
	// 阈值沿用既有调参结果，未重新推导
	ScoreGap = 2500.0

	weightAssignedPriority = 3000.0 // 专属员工优先
	penaltyNotAssignee     = 1500.0 // 模板有专属员工而候选不在列表中
	weightAssignedBalance  = 800.0  // 专属员工的模板均衡
	specialistTemplateCap  = 4      // 视为“专人”的最大可承担模板数

	weightHoursMatch = 1000.0 // 工时接近目标
	bonusExactFit    = 400.0  // 未来存在恰好补齐缺口的模板
	penaltyOvertime  = 1200.0 // 分配将导致加班

	penaltyWeekendExcess = 350.0 // 周末/周六/营业星期日负担超过可用候选最低值
	bonusPreferredDay    = 500.0 // 偏好工作日

	weightPeriodBalance = 600.0 // 早/午/晚班段均衡
	weightStartTime     = 200.0 // 精确开始时间均衡

	penaltyStartRepeat  = 150.0 // 相同开始时间重复度惩罚
	startRepeatLimit    = 6     // 当月相同开始时间的免罚次数
	weightQuarterly     = 900.0 // 季度历史赤字补偿
	weightDayStaffing   = 250.0 // 每日人员均衡
	bonusContinuity     = 120.0 // 模板连续性
	continuityCapDays   = 4     // 连续性奖励的最大连续天数
	weightTemplateShare = 1.0
)

// Scorer 候选评分器
type Scorer struct {
	ctx *engine.SchedulerContext
}

// NewScorer 创建候选评分器
func NewScorer(ctx *engine.SchedulerContext) *Scorer {
	return &Scorer{ctx: ctx}
}

// Score 计算 (员工, 日期, 模板) 三元组的期望度得分
// available 为当前槽位的全部合法候选，用于相对均衡项
func (sc *Scorer) Score(st *engine.EmployeeScheduleState, date string, tmpl *model.ShiftTemplate, available []*engine.EmployeeScheduleState) float64 {
	total := 0.0
	total += sc.assignedTemplateScore(st, tmpl)
	total += sc.assignedBalanceScore(st, tmpl)
	total += sc.hoursMatchScore(st, tmpl)
	total += sc.weekendBalanceScore(st, date, available)
	total += sc.preferredDayScore(st, date)
	total += sc.periodBalanceScore(st, tmpl)
	total += sc.startTimeScore(st, tmpl)
	total += sc.quarterlyBalanceScore(st, tmpl)
	total += sc.dayStaffingScore(date)
	total += sc.continuityScore(st, date, tmpl)
	return total
}

// assignedTemplateScore 专属员工优先
// 专人模板的专属员工获得大额奖励，奖励随其可承担模板数递减；
// 模板存在其他专属员工而候选不在列表中则受罚
func (sc *Scorer) assignedTemplateScore(st *engine.EmployeeScheduleState, tmpl *model.ShiftTemplate) float64 {
	if !tmpl.HasAssignees() {
		return 0
	}
	if tmpl.IsAssignedTo(st.Employee.ID) {
		eligible := len(st.Employee.TemplateIDs)
		if eligible < 1 {
			eligible = 1
		}
		return weightAssignedPriority / float64(eligible)
	}
	return -penaltyNotAssignee
}

// assignedBalanceScore 专人模板均衡
// 可承担模板数不超过上限的员工，按该模板在其自身班次中的占比
// 与理想均匀占比的偏差给予奖励或惩罚
func (sc *Scorer) assignedBalanceScore(st *engine.EmployeeScheduleState, tmpl *model.ShiftTemplate) float64 {
	eligible := len(st.Employee.TemplateIDs)
	if eligible == 0 || eligible > specialistTemplateCap {
		return 0
	}
	if len(st.Shifts) == 0 {
		return 0
	}

	ideal := 1.0 / float64(eligible)
	share := float64(st.TemplateShiftCount(tmpl.ID)) / float64(len(st.Shifts))
	return weightAssignedBalance * (ideal - share) * weightTemplateShare
}

// hoursMatchScore 工时接近目标
func (sc *Scorer) hoursMatchScore(st *engine.EmployeeScheduleState, tmpl *model.ShiftTemplate) float64 {
	if st.RequiredHours <= 0 {
		return 0
	}

	hours := tmpl.DurationHours()
	after := st.CurrentHours + hours

	// 已达标或将产生加班：按加班量惩罚
	if over := after - st.RequiredHours; over > 0.5 {
		return -penaltyOvertime * over / st.RequiredHours
	}

	// 越接近目标越好
	progress := after / st.RequiredHours
	score := weightHoursMatch * progress

	// 剩余缺口可被某个未来可用模板恰好补齐则加分
	remaining := st.RequiredHours - after
	if remaining > 0 && sc.gapClosable(st, remaining) {
		score += bonusExactFit
	}
	return score
}

// gapClosable 检查员工可承担的模板中是否存在与缺口近似相等的时长
func (sc *Scorer) gapClosable(st *engine.EmployeeScheduleState, gap float64) bool {
	for _, id := range st.Employee.TemplateIDs {
		t := sc.ctx.Template(id)
		if t == nil || t.DurationHours() <= 0 {
			continue
		}
		if math.Abs(math.Mod(gap, t.DurationHours())) < 0.25 {
			return true
		}
	}
	return false
}

// weekendBalanceScore 周末/周六/营业星期日负担均衡
// 已承担次数高于当前可用候选最低值的员工受罚
func (sc *Scorer) weekendBalanceScore(st *engine.EmployeeScheduleState, date string, available []*engine.EmployeeScheduleState) float64 {
	if len(available) == 0 {
		return 0
	}

	score := 0.0
	if sc.ctx.IsSaturday(date) {
		min := minOf(available, func(s *engine.EmployeeScheduleState) int { return s.SaturdayShifts })
		if diff := st.SaturdayShifts - min; diff > 0 {
			score -= penaltyWeekendExcess * float64(diff)
		}
	}
	if sc.ctx.IsTradingSunday(date) {
		min := minOf(available, func(s *engine.EmployeeScheduleState) int { return s.SundayShifts })
		if diff := st.SundayShifts - min; diff > 0 {
			score -= penaltyWeekendExcess * float64(diff)
		}
	}
	if model.IsWeekendDate(date) {
		min := minOf(available, func(s *engine.EmployeeScheduleState) int { return s.WeekendShifts })
		if diff := st.WeekendShifts - min; diff > 0 {
			score -= penaltyWeekendExcess * float64(diff)
		}
	}
	return score
}

// preferredDayScore 偏好工作日奖励
func (sc *Scorer) preferredDayScore(st *engine.EmployeeScheduleState, date string) float64 {
	if st.Employee.PrefersWeekday(model.WeekdayOfDate(date)) {
		return bonusPreferredDay
	}
	return 0
}

// periodBalanceScore 班段均衡
// 比较员工个人班段占比与全体员工的全局占比，
// 个人占比已偏高的班段继续增加会受罚，反之获得奖励
func (sc *Scorer) periodBalanceScore(st *engine.EmployeeScheduleState, tmpl *model.ShiftTemplate) float64 {
	period := tmpl.Period()

	personalTotal := len(st.Shifts)
	globalTotal := 0
	globalPeriod := 0
	for _, other := range sc.ctx.States {
		globalTotal += len(other.Shifts)
		globalPeriod += other.PeriodCount(period)
	}
	if personalTotal == 0 || globalTotal == 0 {
		return 0
	}

	globalShare := float64(globalPeriod) / float64(globalTotal)
	personalShare := float64(st.PeriodCount(period)) / float64(personalTotal)
	return weightPeriodBalance * (globalShare - personalShare)
}

// startTimeScore 精确开始时间均衡与重复度惩罚
func (sc *Scorer) startTimeScore(st *engine.EmployeeScheduleState, tmpl *model.ShiftTemplate) float64 {
	personalTotal := len(st.Shifts)
	globalTotal := 0
	globalStart := 0
	for _, other := range sc.ctx.States {
		globalTotal += len(other.Shifts)
		globalStart += other.StartTimeCounts[tmpl.StartTime]
	}

	score := 0.0
	if personalTotal > 0 && globalTotal > 0 {
		globalShare := float64(globalStart) / float64(globalTotal)
		personalShare := float64(st.StartTimeCounts[tmpl.StartTime]) / float64(personalTotal)
		score += weightStartTime * (globalShare - personalShare)
	}

	// 绝对重复度惩罚
	if count := st.StartTimeCounts[tmpl.StartTime]; count >= startRepeatLimit {
		score -= penaltyStartRepeat * float64(count-startRepeatLimit+1)
	}
	return score
}

// quarterlyBalanceScore 季度历史均衡
// 存在季度历史时，补偿班次数/工时/班段分布的赤字，抑制已有盈余
func (sc *Scorer) quarterlyBalanceScore(st *engine.EmployeeScheduleState, tmpl *model.ShiftTemplate) float64 {
	if st.History == nil {
		return 0
	}

	// 以全体有历史员工的均值为基线
	var sumHours float64
	var sumCount int
	n := 0
	for _, other := range sc.ctx.States {
		if other.History == nil {
			continue
		}
		sumHours += other.History.Hours
		sumCount += other.History.ShiftCount
		n++
	}
	if n == 0 {
		return 0
	}

	meanHours := sumHours / float64(n)
	meanCount := float64(sumCount) / float64(n)

	score := 0.0
	if meanHours > 0 {
		// 赤字为正时奖励接班，盈余为负时惩罚
		score += weightQuarterly * (meanHours - st.History.Hours) / meanHours
	}
	if meanCount > 0 {
		score += weightQuarterly * 0.5 * (meanCount - float64(st.History.ShiftCount)) / meanCount
	}

	// 班段历史赤字
	if st.History.PeriodCounts != nil {
		period := tmpl.Period()
		totalPeriods := 0
		for _, c := range st.History.PeriodCounts {
			totalPeriods += c
		}
		if totalPeriods > 0 {
			share := float64(st.History.PeriodCounts[period]) / float64(totalPeriods)
			// 三个班段的均匀占比为 1/3
			score += weightQuarterly * 0.5 * (1.0/3.0 - share)
		}
	}
	return score
}

// dayStaffingScore 每日人员均衡：在岗人数高于工作日均值的日期受罚
func (sc *Scorer) dayStaffingScore(date string) float64 {
	if len(sc.ctx.WorkingDays) == 0 {
		return 0
	}

	total := 0
	for _, d := range sc.ctx.WorkingDays {
		total += sc.ctx.DayStaffingCount(d)
	}
	avg := float64(total) / float64(len(sc.ctx.WorkingDays))
	return weightDayStaffing * (avg - float64(sc.ctx.DayStaffingCount(date)))
}

// continuityScore 模板连续性：延续前一天的模板可读性更好，连续过长则不再奖励
func (sc *Scorer) continuityScore(st *engine.EmployeeScheduleState, date string, tmpl *model.ShiftTemplate) float64 {
	if st.LastTemplateID == nil || *st.LastTemplateID != tmpl.ID {
		return 0
	}
	if model.NextDate(st.LastShiftDate) != date {
		return 0
	}
	if st.TemplateRepeat >= continuityCapDays {
		return 0
	}
	return bonusContinuity
}

func minOf(states []*engine.EmployeeScheduleState, f func(*engine.EmployeeScheduleState) int) int {
	min := f(states[0])
	for _, s := range states[1:] {
		if v := f(s); v < min {
			min = v
		}
	}
	return min
}
