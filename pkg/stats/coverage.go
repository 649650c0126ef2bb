package stats

import (
	"sort"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/model"
)

// CoverageMetrics 排班覆盖率指标
type CoverageMetrics struct {
	TotalSlots    int     `json:"totalSlots"`    // 应填充的槽位总数（按模板最低人数计）
	CoveredSlots  int     `json:"coveredSlots"`  // 已满足最低人数的槽位数
	CoverageRate  float64 `json:"coverageRate"`  // 覆盖率 (0-1)
	FullyCovered  int     `json:"fullyCovered"`  // 达到最大人数的槽位数
	OverCovered   int     `json:"overCovered"`   // 超出最大人数的槽位数（审计异常）
	CriticalGaps  int     `json:"criticalGaps"`  // 完全无人值守的槽位数
	AvgDailyStaff float64 `json:"avgDailyStaff"` // 日均在岗人数

	DayCoverage    map[string]*DayCoverage `json:"dayCoverage"`
	UncoveredSlots []UncoveredSlot         `json:"uncoveredSlots"`
}

// DayCoverage 单日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	Weekday      string  `json:"weekday"`
	SlotCount    int     `json:"slotCount"`
	CoveredCount int     `json:"coveredCount"`
	StaffCount   int     `json:"staffCount"`
	Rate         float64 `json:"rate"`
}

// UncoveredSlot 未达到最低人数的槽位
type UncoveredSlot struct {
	Date         string    `json:"date"`
	TemplateID   uuid.UUID `json:"templateId"`
	TemplateName string    `json:"templateName"`
	Staffed      int       `json:"staffed"`
	Required     int       `json:"required"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 根据输入快照与生成的班次计算覆盖率
// 槽位以 (工作日, 适用模板) 为粒度，与排班引擎的缺口统计口径一致
func (c *CoverageAnalyzer) Analyze(input *model.SchedulerInput, shifts []*model.GeneratedShift) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DayCoverage: make(map[string]*DayCoverage),
	}
	if input == nil {
		return metrics
	}

	staffing := make(map[string]map[uuid.UUID]int)
	dailyStaff := make(map[string]int)
	for _, s := range shifts {
		dailyStaff[s.Date]++
		if s.TemplateID == nil {
			continue
		}
		if staffing[s.Date] == nil {
			staffing[s.Date] = make(map[uuid.UUID]int)
		}
		staffing[s.Date][*s.TemplateID]++
	}

	for _, date := range input.WorkingDays {
		weekday := model.WeekdayOfDate(date)
		day := &DayCoverage{
			Date:       date,
			Weekday:    weekday.String(),
			StaffCount: dailyStaff[date],
		}
		metrics.DayCoverage[date] = day

		for _, tmpl := range input.Templates {
			if !tmpl.AppliesOn(weekday) {
				continue
			}
			metrics.TotalSlots++
			day.SlotCount++

			staffed := staffing[date][tmpl.ID]
			switch {
			case staffed >= tmpl.MinEmployees:
				metrics.CoveredSlots++
				day.CoveredCount++
				if staffed >= tmpl.MaxEmployees {
					metrics.FullyCovered++
				}
				if staffed > tmpl.MaxEmployees {
					metrics.OverCovered++
				}
			default:
				if staffed == 0 {
					metrics.CriticalGaps++
				}
				metrics.UncoveredSlots = append(metrics.UncoveredSlots, UncoveredSlot{
					Date:         date,
					TemplateID:   tmpl.ID,
					TemplateName: tmpl.Name,
					Staffed:      staffed,
					Required:     tmpl.MinEmployees,
				})
			}
		}
		if day.SlotCount > 0 {
			day.Rate = float64(day.CoveredCount) / float64(day.SlotCount)
		}
	}

	if metrics.TotalSlots > 0 {
		metrics.CoverageRate = float64(metrics.CoveredSlots) / float64(metrics.TotalSlots)
	}
	if len(input.WorkingDays) > 0 {
		metrics.AvgDailyStaff = float64(len(shifts)) / float64(len(input.WorkingDays))
	}

	sort.Slice(metrics.UncoveredSlots, func(i, j int) bool {
		if metrics.UncoveredSlots[i].Date != metrics.UncoveredSlots[j].Date {
			return metrics.UncoveredSlots[i].Date < metrics.UncoveredSlots[j].Date
		}
		return metrics.UncoveredSlots[i].TemplateName < metrics.UncoveredSlots[j].TemplateName
	})
	return metrics
}
