// Package stats 提供排班结果的统计分析
package stats

import (
	"math"
	"sort"

	"github.com/yuepai/yuepai/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 工时公平性
	WorkloadGini        float64 `json:"workloadGini"` // 基尼系数 (0=完全公平)
	WorkloadVariance    float64 `json:"workloadVariance"`
	WorkloadStdDev      float64 `json:"workloadStdDev"`
	AvgHoursPerEmployee float64 `json:"avgHoursPerEmployee"`
	MaxHours            float64 `json:"maxHours"`
	MinHours            float64 `json:"minHours"`

	// 班段与周末公平性
	PeriodDistribution map[model.ShiftPeriod]float64 `json:"periodDistribution"` // 全局班段占比
	EveningShiftGini   float64                       `json:"eveningShiftGini"`
	WeekendShiftGini   float64                       `json:"weekendShiftGini"`

	EmployeeStats []EmployeeStat `json:"employeeStats"`

	// 综合评分 (0-100)
	OverallFairnessScore float64 `json:"overallFairnessScore"`
}

// EmployeeStat 员工级统计
type EmployeeStat struct {
	EmployeeID    string  `json:"employeeId"`
	EmployeeName  string  `json:"employeeName"`
	TotalHours    float64 `json:"totalHours"`
	RequiredHours float64 `json:"requiredHours"`
	ShiftCount    int     `json:"shiftCount"`
	EveningShifts int     `json:"eveningShifts"`
	WeekendShifts int     `json:"weekendShifts"`
	// Deviation 与人均工时的偏差百分比
	Deviation float64 `json:"deviation"`
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析一份排班结果的公平性
// requiredHours 为每名员工的应工作时长（键为员工ID字符串），可为 nil
func (f *FairnessAnalyzer) Analyze(shifts []*model.GeneratedShift, employees []*model.Employee, requiredHours map[string]float64) *FairnessMetrics {
	if len(shifts) == 0 || len(employees) == 0 {
		return &FairnessMetrics{
			PeriodDistribution:   make(map[model.ShiftPeriod]float64),
			OverallFairnessScore: 100,
		}
	}

	employeeStats := f.employeeStats(shifts, employees, requiredHours)

	hours := make([]float64, len(employeeStats))
	evenings := make([]float64, len(employeeStats))
	weekends := make([]float64, len(employeeStats))
	for i, stat := range employeeStats {
		hours[i] = stat.TotalHours
		evenings[i] = float64(stat.EveningShifts)
		weekends[i] = float64(stat.WeekendShifts)
	}

	avg := mean(hours)
	variance := varianceAround(hours, avg)
	stdDev := math.Sqrt(variance)
	maxHours, minHours := extremes(hours)

	for i := range employeeStats {
		if avg > 0 {
			employeeStats[i].Deviation = (employeeStats[i].TotalHours - avg) / avg * 100
		}
	}

	workloadGini := gini(hours)
	eveningGini := gini(evenings)
	weekendGini := gini(weekends)

	return &FairnessMetrics{
		WorkloadGini:         workloadGini,
		WorkloadVariance:     variance,
		WorkloadStdDev:       stdDev,
		AvgHoursPerEmployee:  avg,
		MaxHours:             maxHours,
		MinHours:             minHours,
		PeriodDistribution:   periodDistribution(shifts),
		EveningShiftGini:     eveningGini,
		WeekendShiftGini:     weekendGini,
		EmployeeStats:        employeeStats,
		OverallFairnessScore: overallScore(workloadGini, eveningGini, weekendGini, stdDev, avg),
	}
}

// employeeStats 汇总每名员工的班次数据（含零班次员工）
func (f *FairnessAnalyzer) employeeStats(shifts []*model.GeneratedShift, employees []*model.Employee, requiredHours map[string]float64) []EmployeeStat {
	statMap := make(map[string]*EmployeeStat, len(employees))
	for _, e := range employees {
		id := e.ID.String()
		statMap[id] = &EmployeeStat{
			EmployeeID:    id,
			EmployeeName:  e.Name,
			RequiredHours: requiredHours[id],
		}
	}

	for _, s := range shifts {
		stat := statMap[s.EmployeeID.String()]
		if stat == nil {
			continue
		}
		stat.TotalHours += s.Hours()
		stat.ShiftCount++
		if s.Period() == model.PeriodEvening {
			stat.EveningShifts++
		}
		if model.IsWeekendDate(s.Date) {
			stat.WeekendShifts++
		}
	}

	result := make([]EmployeeStat, 0, len(statMap))
	for _, stat := range statMap {
		result = append(result, *stat)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalHours != result[j].TotalHours {
			return result[i].TotalHours > result[j].TotalHours
		}
		return result[i].EmployeeID < result[j].EmployeeID
	})
	return result
}

// periodDistribution 全局早/午/晚班占比
func periodDistribution(shifts []*model.GeneratedShift) map[model.ShiftPeriod]float64 {
	counts := make(map[model.ShiftPeriod]int)
	for _, s := range shifts {
		counts[s.Period()]++
	}

	dist := make(map[model.ShiftPeriod]float64, len(counts))
	total := float64(len(shifts))
	for p, c := range counts {
		dist[p] = float64(c) / total
	}
	return dist
}

// overallScore 综合公平性评分：基尼系数与相对离散度的加权扣分
func overallScore(workloadGini, eveningGini, weekendGini, stdDev, avg float64) float64 {
	score := 100.0
	score -= workloadGini * 40
	score -= eveningGini * 20
	score -= weekendGini * 20
	if avg > 0 {
		score -= stdDev / avg * 20
	}
	if score < 0 {
		score = 0
	}
	return score
}

// gini 基尼系数（0=完全平均）
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	weighted := 0.0
	for i, v := range sorted {
		sum += v
		weighted += float64(i+1) * v
	}
	if sum == 0 {
		return 0
	}
	return (2*weighted - float64(n+1)*sum) / (float64(n) * sum)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func varianceAround(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return variance / float64(len(values))
}

func extremes(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return max, min
}
