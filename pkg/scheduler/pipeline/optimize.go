package pipeline

import (
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/engine"
	"github.com/yuepai/yuepai/pkg/scheduler/search"
)

// 盈余判定阈值：超过应工作时长1小时以上才视为盈余
const surplusThreshold = 1.0

// optimizeAssignments 阶段三：局部优化
// 四个子步骤依次执行：欠班升档、盈余转移、偏好迁移、班段互换
func (g *GreedyScheduler) optimizeAssignments() int {
	moves := 0
	moves += g.upgradeDeficitShifts()
	moves += g.transferSurplus()
	moves += g.relocateToPreferredDays()
	moves += g.swapForPeriodVariance()
	return moves
}

// upgradeDeficitShifts 欠班升档
// 仍欠班的员工优先尝试直接补一个可消化缺口的班次，
// 不行则把已有班次升级为更长的模板
func (g *GreedyScheduler) upgradeDeficitShifts() int {
	moves := 0
	for _, st := range g.ctx.SortedStates() {
		if st.Deficit() <= 0.5 {
			continue
		}

		if date, tmpl := g.leastStaffedSlot(st); tmpl != nil {
			g.mgr.AddShift(st.Employee.ID, date, tmpl)
			moves++
			continue
		}

		if g.upgradeOneShift(st) {
			moves++
		}
	}
	return moves
}

// upgradeOneShift 把员工的某个班次换成同日更长的模板
// 原模板移除后不得跌破最低人数，新模板不得超过最高人数
func (g *GreedyScheduler) upgradeOneShift(st *engine.EmployeeScheduleState) bool {
	for _, shift := range append([]*model.GeneratedShift(nil), st.Shifts...) {
		if shift.TemplateID == nil {
			continue
		}
		current := g.ctx.Template(*shift.TemplateID)
		if current == nil {
			continue
		}
		if g.ctx.StaffingCount(shift.Date, current.ID) <= current.MinEmployees {
			continue
		}

		for _, longer := range g.applicableTemplates(shift.Date) {
			if longer.ID == current.ID || longer.DurationHours() <= current.DurationHours() {
				continue
			}

			if !g.mgr.RemoveShift(shift) {
				break
			}
			if g.finder.CanTake(st, shift.Date, longer, search.Strict) {
				g.mgr.AddShift(st.Employee.ID, shift.Date, longer)
				return true
			}
			g.mgr.Restore(shift)
		}
	}
	return false
}

// transferSurplus 盈余转移：盈余员工的班次转给仍欠班的员工
func (g *GreedyScheduler) transferSurplus() int {
	moves := 0
	for _, over := range g.ctx.SortedStates() {
		if over.CurrentHours-over.RequiredHours <= surplusThreshold {
			continue
		}

		for _, shift := range append([]*model.GeneratedShift(nil), over.Shifts...) {
			if over.CurrentHours-over.RequiredHours <= surplusThreshold {
				break
			}
			if shift.TemplateID == nil {
				continue
			}
			tmpl := g.ctx.Template(*shift.TemplateID)
			if tmpl == nil {
				continue
			}

			if g.transferToDeficit(shift, tmpl) {
				moves++
			}
		}
	}
	return moves
}

// transferToDeficit 把班次转给欠班最严重且能合法接手的员工
// 转移不改变槽位占用，先移除再检查接手方
func (g *GreedyScheduler) transferToDeficit(shift *model.GeneratedShift, tmpl *model.ShiftTemplate) bool {
	from := shift.EmployeeID
	if !g.mgr.RemoveShift(shift) {
		return false
	}

	var best *engine.EmployeeScheduleState
	for _, under := range g.ctx.SortedStates() {
		if under.Employee.ID == from || under.Deficit() <= 0.5 {
			continue
		}
		if best != nil && under.RelativeDeficit() <= best.RelativeDeficit() {
			continue
		}
		if g.finder.CanTake(under, shift.Date, tmpl, search.Strict) {
			best = under
		}
	}
	if best == nil {
		g.mgr.Restore(shift)
		return false
	}

	g.mgr.AddShift(best.Employee.ID, shift.Date, tmpl)
	return true
}

// relocateToPreferredDays 偏好迁移
// 把班次从非偏好工作日挪到偏好工作日，人数占用保持中性：
// 原日期移除后不跌破最低人数，目标日期不超过最高人数
func (g *GreedyScheduler) relocateToPreferredDays() int {
	moves := 0
	for _, st := range g.ctx.SortedStates() {
		if len(st.Employee.PreferredDays) == 0 {
			continue
		}

		for _, shift := range append([]*model.GeneratedShift(nil), st.Shifts...) {
			if st.Employee.PrefersWeekday(model.WeekdayOfDate(shift.Date)) {
				continue
			}
			if shift.TemplateID == nil {
				continue
			}
			tmpl := g.ctx.Template(*shift.TemplateID)
			if tmpl == nil {
				continue
			}
			if g.ctx.StaffingCount(shift.Date, tmpl.ID) <= tmpl.MinEmployees {
				continue
			}

			if g.relocateShiftToPreferred(st, shift, tmpl) {
				moves++
			}
		}
	}
	return moves
}

// relocateShiftToPreferred 在偏好工作日中找一个可合法落位的日期
func (g *GreedyScheduler) relocateShiftToPreferred(st *engine.EmployeeScheduleState, shift *model.GeneratedShift, tmpl *model.ShiftTemplate) bool {
	if !g.mgr.RemoveShift(shift) {
		return false
	}
	for _, date := range g.ctx.WorkingDays {
		if date == shift.Date || !st.Employee.PrefersWeekday(model.WeekdayOfDate(date)) {
			continue
		}
		if !g.canRelocate(st, date, tmpl) {
			continue
		}
		g.mgr.AddShift(st.Employee.ID, date, tmpl)
		return true
	}
	g.mgr.Restore(shift)
	return false
}

// swapForPeriodVariance 班段互换
// 同一天两名员工互换不同班段的班次，仅当双方的早/午/晚
// 分布方差都严格下降时才保留
func (g *GreedyScheduler) swapForPeriodVariance() int {
	moves := 0
	for _, date := range g.ctx.WorkingDays {
		shifts := append([]*model.GeneratedShift(nil), g.ctx.DailyStaffing[date]...)
		for i := 0; i < len(shifts); i++ {
			for j := i + 1; j < len(shifts); j++ {
				if g.trySwapPeriods(shifts[i], shifts[j]) {
					moves++
				}
			}
		}
	}
	return moves
}

// trySwapPeriods 尝试互换两个班次的承担者
func (g *GreedyScheduler) trySwapPeriods(a, b *model.GeneratedShift) bool {
	if a.EmployeeID == b.EmployeeID || a.Period() == b.Period() {
		return false
	}
	if a.TemplateID == nil || b.TemplateID == nil {
		return false
	}
	tmplA := g.ctx.Template(*a.TemplateID)
	tmplB := g.ctx.Template(*b.TemplateID)
	if tmplA == nil || tmplB == nil {
		return false
	}

	stA := g.ctx.State(a.EmployeeID)
	stB := g.ctx.State(b.EmployeeID)
	beforeA := periodVariance(stA)
	beforeB := periodVariance(stB)

	date := a.Date
	if !g.mgr.RemoveShift(a) {
		return false
	}
	if !g.mgr.RemoveShift(b) {
		g.mgr.Restore(a)
		return false
	}

	if !g.finder.CanTake(stA, date, tmplB, search.EmergencyOvertime) ||
		!g.finder.CanTake(stB, date, tmplA, search.EmergencyOvertime) {
		g.mgr.Restore(a)
		g.mgr.Restore(b)
		return false
	}

	addedA := g.mgr.AddShift(stA.Employee.ID, date, tmplB)
	addedB := g.mgr.AddShift(stB.Employee.ID, date, tmplA)

	if periodVariance(stA) < beforeA && periodVariance(stB) < beforeB {
		return true
	}

	// 未同时改善：换回原样
	g.mgr.RemoveShift(addedA)
	g.mgr.RemoveShift(addedB)
	g.mgr.Restore(a)
	g.mgr.Restore(b)
	return false
}

// periodVariance 员工早/午/晚班次数的方差
func periodVariance(st *engine.EmployeeScheduleState) float64 {
	counts := []float64{
		float64(st.MorningShifts),
		float64(st.AfternoonShifts),
		float64(st.EveningShifts),
	}
	mean := (counts[0] + counts[1] + counts[2]) / 3
	variance := 0.0
	for _, c := range counts {
		variance += (c - mean) * (c - mean)
	}
	return variance / 3
}
