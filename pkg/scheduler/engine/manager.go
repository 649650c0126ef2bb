// Package engine 持有一次排班运行的共享可变状态
package engine

import (
	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/model"
)

// ShiftManager 班次变更的唯一入口
// 添加/移除班次时同步更新员工状态计数器与每日人员安排索引，
// 调用之间不会观察到部分更新
type ShiftManager struct {
	ctx *SchedulerContext
}

// NewShiftManager 创建班次管理器
func NewShiftManager(ctx *SchedulerContext) *ShiftManager {
	return &ShiftManager{ctx: ctx}
}

// AddShift 按模板为员工添加班次
func (m *ShiftManager) AddShift(empID uuid.UUID, date string, tmpl *model.ShiftTemplate) *model.GeneratedShift {
	tmplID := tmpl.ID
	s := &model.GeneratedShift{
		ID:           uuid.New(),
		EmployeeID:   empID,
		Date:         date,
		StartTime:    tmpl.StartTime,
		EndTime:      tmpl.EndTime,
		BreakMinutes: tmpl.BreakMinutes,
		TemplateID:   &tmplID,
	}
	m.apply(s)
	return s
}

// AddCustomShift 添加不基于模板的自定义班次
func (m *ShiftManager) AddCustomShift(empID uuid.UUID, date, startTime, endTime string, breakMinutes int) *model.GeneratedShift {
	s := &model.GeneratedShift{
		ID:           uuid.New(),
		EmployeeID:   empID,
		Date:         date,
		StartTime:    startTime,
		EndTime:      endTime,
		BreakMinutes: breakMinutes,
	}
	m.apply(s)
	return s
}

// RemoveShift 移除班次并回退全部派生计数
// 返回是否真正移除：传入的指针不在状态中（例如已被替换）时返回 false
// 且不做任何修改，调用方不得在 false 时执行后续的还原写入
func (m *ShiftManager) RemoveShift(s *model.GeneratedShift) bool {
	st := m.ctx.State(s.EmployeeID)
	if st == nil {
		return false
	}

	idx := -1
	for i, existing := range st.Shifts {
		if existing.ID == s.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	st.Shifts = append(st.Shifts[:idx], st.Shifts[idx+1:]...)
	st.CurrentHours -= s.Hours()
	delete(st.OccupiedDates, s.Date)
	st.StartTimeCounts[s.StartTime]--
	m.updateCategoryCounters(st, s, -1)
	st.recalcContinuity()

	m.removeFromStaffing(s)
	return true
}

// Restore 把刚移除的班次原样放回（同一对象、同一ID）
// 还原路径必须用本方法而不是 AddShift：AddShift 会生成新对象，
// 使调用方快照中的指针失效
func (m *ShiftManager) Restore(s *model.GeneratedShift) {
	m.apply(s)
}

// MoveShift 将班次移动到另一日期（同员工同模板），等价于移除后重新添加
// 传入失效指针时返回 nil 且不改变状态
func (m *ShiftManager) MoveShift(s *model.GeneratedShift, newDate string) *model.GeneratedShift {
	tmpl := m.templateOf(s)
	if !m.RemoveShift(s) {
		return nil
	}
	if tmpl != nil {
		return m.AddShift(s.EmployeeID, newDate, tmpl)
	}
	return m.AddCustomShift(s.EmployeeID, newDate, s.StartTime, s.EndTime, s.BreakMinutes)
}

// TransferShift 将班次转移给另一名员工（同日期同模板）
// 传入失效指针时返回 nil 且不改变状态
func (m *ShiftManager) TransferShift(s *model.GeneratedShift, toEmpID uuid.UUID) *model.GeneratedShift {
	tmpl := m.templateOf(s)
	if !m.RemoveShift(s) {
		return nil
	}
	if tmpl != nil {
		return m.AddShift(toEmpID, s.Date, tmpl)
	}
	return m.AddCustomShift(toEmpID, s.Date, s.StartTime, s.EndTime, s.BreakMinutes)
}

// apply 将班次写入员工状态与人员安排索引
func (m *ShiftManager) apply(s *model.GeneratedShift) {
	st := m.ctx.State(s.EmployeeID)
	if st == nil {
		return
	}

	st.Shifts = append(st.Shifts, s)
	st.CurrentHours += s.Hours()
	st.OccupiedDates[s.Date] = true
	st.StartTimeCounts[s.StartTime]++
	m.updateCategoryCounters(st, s, +1)

	// 连续性标记：只在追加的班次晚于当前末尾时增量更新，否则重算
	if st.LastShiftDate == "" || s.Date > st.LastShiftDate {
		sameTemplate := st.LastTemplateID != nil && s.TemplateID != nil && *st.LastTemplateID == *s.TemplateID
		if sameTemplate && s.Date == model.NextDate(st.LastShiftDate) {
			st.TemplateRepeat++
		} else {
			st.TemplateRepeat = 1
		}
		st.LastShiftDate = s.Date
		st.LastShiftEnd = s.EndTime
		st.LastTemplateID = s.TemplateID
	} else {
		st.recalcContinuity()
	}

	m.ctx.DailyStaffing[s.Date] = append(m.ctx.DailyStaffing[s.Date], s)
	if s.TemplateID != nil {
		byTemplate := m.ctx.DailyTemplateStaffing[s.Date]
		if byTemplate == nil {
			byTemplate = make(map[uuid.UUID][]*model.GeneratedShift)
			m.ctx.DailyTemplateStaffing[s.Date] = byTemplate
		}
		byTemplate[*s.TemplateID] = append(byTemplate[*s.TemplateID], s)
	}
}

// updateCategoryCounters 更新周末与班段计数器
func (m *ShiftManager) updateCategoryCounters(st *EmployeeScheduleState, s *model.GeneratedShift, delta int) {
	if model.IsWeekendDate(s.Date) {
		st.WeekendShifts += delta
	}
	if m.ctx.IsSaturday(s.Date) {
		st.SaturdayShifts += delta
	}
	if m.ctx.IsTradingSunday(s.Date) {
		st.SundayShifts += delta
	}

	switch s.Period() {
	case model.PeriodMorning:
		st.MorningShifts += delta
	case model.PeriodAfternoon:
		st.AfternoonShifts += delta
	default:
		st.EveningShifts += delta
	}
}

// removeFromStaffing 从每日人员安排索引中删除班次
func (m *ShiftManager) removeFromStaffing(s *model.GeneratedShift) {
	day := m.ctx.DailyStaffing[s.Date]
	for i, existing := range day {
		if existing.ID == s.ID {
			m.ctx.DailyStaffing[s.Date] = append(day[:i], day[i+1:]...)
			break
		}
	}

	if s.TemplateID == nil {
		return
	}
	byTemplate := m.ctx.DailyTemplateStaffing[s.Date]
	if byTemplate == nil {
		return
	}
	list := byTemplate[*s.TemplateID]
	for i, existing := range list {
		if existing.ID == s.ID {
			byTemplate[*s.TemplateID] = append(list[:i], list[i+1:]...)
			break
		}
	}
}

// templateOf 返回班次对应的模板（自定义班次返回 nil）
func (m *ShiftManager) templateOf(s *model.GeneratedShift) *model.ShiftTemplate {
	if s.TemplateID == nil {
		return nil
	}
	return m.ctx.Template(*s.TemplateID)
}
