// Package engine 持有一次排班运行的共享可变状态
// 所有派生状态在运行开始时创建，结束后丢弃，不在多次运行间复用
package engine

import (
	"sort"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/model"
)

// EmployeeScheduleState 单个员工在本次运行中的派生可变状态
// 仅允许 ShiftManager 修改，保证计数器与班次列表不漂移
type EmployeeScheduleState struct {
	Employee *model.Employee

	CurrentHours  float64
	RequiredHours float64

	// 分类计数器
	WeekendShifts   int
	SaturdayShifts  int
	SundayShifts    int
	MorningShifts   int
	AfternoonShifts int
	EveningShifts   int

	OccupiedDates map[string]bool
	Shifts        []*model.GeneratedShift

	// 开始时间出现次数（用于重复度惩罚）
	StartTimeCounts map[string]int

	// 连续性标记
	LastShiftDate  string
	LastShiftEnd   string
	LastTemplateID *uuid.UUID
	TemplateRepeat int // 同一模板的连续天数

	// 季度历史基线（可选）
	History *model.QuarterlyHistory
}

// Deficit 返回与应工作时长的差额（正值表示欠班）
func (st *EmployeeScheduleState) Deficit() float64 {
	return st.RequiredHours - st.CurrentHours
}

// RelativeDeficit 返回相对差额（欠班占应工作时长的比例）
func (st *EmployeeScheduleState) RelativeDeficit() float64 {
	if st.RequiredHours <= 0 {
		return 0
	}
	return st.Deficit() / st.RequiredHours
}

// PlanCompletion 返回计划完成率
func (st *EmployeeScheduleState) PlanCompletion() float64 {
	if st.RequiredHours <= 0 {
		return 1
	}
	return st.CurrentHours / st.RequiredHours
}

// Overtime 返回分配指定时长后的加班量
func (st *EmployeeScheduleState) Overtime(extraHours float64) float64 {
	over := st.CurrentHours + extraHours - st.RequiredHours
	if over < 0 {
		return 0
	}
	return over
}

// PeriodCount 返回某班段的已有班次数
func (st *EmployeeScheduleState) PeriodCount(p model.ShiftPeriod) int {
	switch p {
	case model.PeriodMorning:
		return st.MorningShifts
	case model.PeriodAfternoon:
		return st.AfternoonShifts
	default:
		return st.EveningShifts
	}
}

// TemplateShiftCount 返回使用某模板的班次数
func (st *EmployeeScheduleState) TemplateShiftCount(templateID uuid.UUID) int {
	count := 0
	for _, s := range st.Shifts {
		if s.TemplateID != nil && *s.TemplateID == templateID {
			count++
		}
	}
	return count
}

// ShiftOn 返回某日期的班次（无则返回 nil）
func (st *EmployeeScheduleState) ShiftOn(date string) *model.GeneratedShift {
	for _, s := range st.Shifts {
		if s.Date == date {
			return s
		}
	}
	return nil
}

// sortShifts 按日期排序班次列表
func (st *EmployeeScheduleState) sortShifts() {
	sort.Slice(st.Shifts, func(i, j int) bool {
		return st.Shifts[i].Date < st.Shifts[j].Date
	})
}

// recalcContinuity 重新计算连续性标记（移除班次后调用）
func (st *EmployeeScheduleState) recalcContinuity() {
	st.LastShiftDate = ""
	st.LastShiftEnd = ""
	st.LastTemplateID = nil
	st.TemplateRepeat = 0

	if len(st.Shifts) == 0 {
		return
	}

	st.sortShifts()
	last := st.Shifts[len(st.Shifts)-1]
	st.LastShiftDate = last.Date
	st.LastShiftEnd = last.EndTime
	st.LastTemplateID = last.TemplateID

	if last.TemplateID == nil {
		return
	}

	// 从最后一天向前统计同模板的连续天数
	repeat := 1
	date := last.Date
	for i := len(st.Shifts) - 2; i >= 0; i-- {
		s := st.Shifts[i]
		if s.Date != model.PreviousDate(date) {
			break
		}
		if s.TemplateID == nil || *s.TemplateID != *last.TemplateID {
			break
		}
		repeat++
		date = s.Date
	}
	st.TemplateRepeat = repeat
}
