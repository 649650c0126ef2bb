package stats

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/model"
)

func statsEmployee(name string) *model.Employee {
	return &model.Employee{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		Name:       name,
		Status:     "active",
		Employment: model.EmploymentFull,
	}
}

func statsShift(empID uuid.UUID, tmplID *uuid.UUID, date, start, end string) *model.GeneratedShift {
	return &model.GeneratedShift{
		ID:         uuid.New(),
		EmployeeID: empID,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		TemplateID: tmplID,
	}
}

func TestFairness_BalancedRosterScoresHigh(t *testing.T) {
	a := statsEmployee("张伟")
	b := statsEmployee("李娜")

	var shifts []*model.GeneratedShift
	for _, d := range []string{"2025-03-03", "2025-03-04", "2025-03-05", "2025-03-06"} {
		shifts = append(shifts, statsShift(a.ID, nil, d, "08:00", "16:00"))
		shifts = append(shifts, statsShift(b.ID, nil, d, "08:00", "16:00"))
	}

	m := NewFairnessAnalyzer().Analyze(shifts, []*model.Employee{a, b}, nil)

	if m.WorkloadGini != 0 {
		t.Errorf("完全均衡的工时 Gini 应为 0, got %v", m.WorkloadGini)
	}
	if m.OverallFairnessScore != 100 {
		t.Errorf("完全均衡应得满分, got %v", m.OverallFairnessScore)
	}
	if m.AvgHoursPerEmployee != 32 {
		t.Errorf("人均工时 = %v, want 32", m.AvgHoursPerEmployee)
	}
}

func TestFairness_ImbalancePenalized(t *testing.T) {
	a := statsEmployee("张伟")
	b := statsEmployee("李娜")

	// 全部班次压给张伟
	var shifts []*model.GeneratedShift
	for _, d := range []string{"2025-03-03", "2025-03-04", "2025-03-05", "2025-03-06"} {
		shifts = append(shifts, statsShift(a.ID, nil, d, "08:00", "16:00"))
	}

	m := NewFairnessAnalyzer().Analyze(shifts, []*model.Employee{a, b}, nil)

	if m.WorkloadGini < 0.4 {
		t.Errorf("极端失衡的 Gini 应显著大于 0, got %v", m.WorkloadGini)
	}
	if m.OverallFairnessScore >= 100 {
		t.Error("失衡方案不应得满分")
	}
	if m.MaxHours != 32 || m.MinHours != 0 {
		t.Errorf("极值 = (%v, %v), want (32, 0)", m.MaxHours, m.MinHours)
	}
	if len(m.EmployeeStats) != 2 || m.EmployeeStats[0].EmployeeName != "张伟" {
		t.Error("员工统计应按工时降序且包含零班次员工")
	}
}

func TestFairness_WeekendAndEveningCounts(t *testing.T) {
	a := statsEmployee("张伟")

	shifts := []*model.GeneratedShift{
		statsShift(a.ID, nil, "2025-03-08", "08:00", "16:00"), // 周六
		statsShift(a.ID, nil, "2025-03-10", "18:00", "23:00"), // 周一晚班
		statsShift(a.ID, nil, "2025-03-11", "08:00", "16:00"),
	}

	m := NewFairnessAnalyzer().Analyze(shifts, []*model.Employee{a}, nil)

	stat := m.EmployeeStats[0]
	if stat.WeekendShifts != 1 {
		t.Errorf("周末班次数 = %d, want 1", stat.WeekendShifts)
	}
	if stat.EveningShifts != 1 {
		t.Errorf("晚班数 = %d, want 1", stat.EveningShifts)
	}
	if got := m.PeriodDistribution[model.PeriodEvening]; math.Abs(got-1.0/3) > 1e-9 {
		t.Errorf("晚班占比 = %v, want 1/3", got)
	}
}

func TestFairness_EmptyInput(t *testing.T) {
	m := NewFairnessAnalyzer().Analyze(nil, nil, nil)
	if m.OverallFairnessScore != 100 {
		t.Errorf("空输入应返回满分基线, got %v", m.OverallFairnessScore)
	}
}

func TestCoverage_FullAndMissingSlots(t *testing.T) {
	tmpl := &model.ShiftTemplate{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		Name:         "白班",
		StartTime:    "08:00",
		EndTime:      "16:00",
		MinEmployees: 1,
		MaxEmployees: 2,
	}
	a := statsEmployee("张伟")
	input := &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   []*model.Employee{a},
		Templates:   []*model.ShiftTemplate{tmpl},
		WorkingDays: []string{"2025-03-03", "2025-03-04", "2025-03-05"},
	}

	// 只覆盖前两天
	shifts := []*model.GeneratedShift{
		statsShift(a.ID, &tmpl.ID, "2025-03-03", "08:00", "16:00"),
		statsShift(a.ID, &tmpl.ID, "2025-03-04", "08:00", "16:00"),
	}

	m := NewCoverageAnalyzer().Analyze(input, shifts)

	if m.TotalSlots != 3 || m.CoveredSlots != 2 {
		t.Fatalf("槽位统计 = %d/%d, want 2/3", m.CoveredSlots, m.TotalSlots)
	}
	if math.Abs(m.CoverageRate-2.0/3) > 1e-9 {
		t.Errorf("覆盖率 = %v, want 2/3", m.CoverageRate)
	}
	if m.CriticalGaps != 1 {
		t.Errorf("无人值守槽位 = %d, want 1", m.CriticalGaps)
	}
	if len(m.UncoveredSlots) != 1 || m.UncoveredSlots[0].Date != "2025-03-05" {
		t.Fatalf("缺口列表 = %+v", m.UncoveredSlots)
	}
	if day := m.DayCoverage["2025-03-05"]; day == nil || day.Rate != 0 {
		t.Errorf("2025-03-05 的日覆盖率应为 0")
	}
}

func TestCoverage_TemplateWeekdayScoping(t *testing.T) {
	tmpl := &model.ShiftTemplate{
		BaseModel:      model.BaseModel{ID: uuid.New()},
		Name:           "周六班",
		StartTime:      "09:00",
		EndTime:        "15:00",
		MinEmployees:   1,
		MaxEmployees:   1,
		ApplicableDays: []time.Weekday{time.Saturday},
	}
	input := &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   []*model.Employee{statsEmployee("张伟")},
		Templates:   []*model.ShiftTemplate{tmpl},
		WorkingDays: []string{"2025-03-07", "2025-03-08"}, // 周五 + 周六
	}

	m := NewCoverageAnalyzer().Analyze(input, nil)

	// 周五不在模板适用日内，不计入槽位
	if m.TotalSlots != 1 {
		t.Errorf("槽位总数 = %d, want 1", m.TotalSlots)
	}
	if m.CriticalGaps != 1 {
		t.Errorf("周六槽位无人值守应计为关键缺口, got %d", m.CriticalGaps)
	}
}
