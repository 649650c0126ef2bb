package pipeline

import (
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/engine"
	"github.com/yuepai/yuepai/pkg/scheduler/search"
)

// 工时转移的迭代上限
const maxHourTransfers = 40

// normalize 阶段五：归一化
// 先把每个模板的每日占用压到最多相差1人，
// 再在最过劳与最欠班的员工之间做有限次的直接工时转移。
// 已归一化的上下文重跑本阶段产生零次移动
func (g *GreedyScheduler) normalize() int {
	moves := 0
	for _, tmpl := range g.ctx.Input.Templates {
		moves += g.flattenTemplateSpread(tmpl)
	}
	moves += g.transferHours()
	return moves
}

// flattenTemplateSpread 把模板的每日占用差压到 ≤1
func (g *GreedyScheduler) flattenTemplateSpread(tmpl *model.ShiftTemplate) int {
	moves := 0
	for {
		maxDate, minDate := g.spreadExtremes(tmpl)
		if maxDate == "" {
			return moves
		}
		if g.ctx.StaffingCount(maxDate, tmpl.ID)-g.ctx.StaffingCount(minDate, tmpl.ID) <= 1 {
			return moves
		}
		if !g.moveOneBetweenDays(tmpl, maxDate, minDate) {
			return moves
		}
		moves++
	}
}

// spreadExtremes 返回模板占用最多与最少的适用工作日
func (g *GreedyScheduler) spreadExtremes(tmpl *model.ShiftTemplate) (maxDate, minDate string) {
	for _, date := range g.ctx.WorkingDays {
		if !tmpl.AppliesOn(model.WeekdayOfDate(date)) {
			continue
		}
		count := g.ctx.StaffingCount(date, tmpl.ID)
		if maxDate == "" || count > g.ctx.StaffingCount(maxDate, tmpl.ID) {
			maxDate = date
		}
		if minDate == "" || count < g.ctx.StaffingCount(minDate, tmpl.ID) {
			minDate = date
		}
	}
	return maxDate, minDate
}

// moveOneBetweenDays 把一个班次从占用最多的日期挪到最少的日期
func (g *GreedyScheduler) moveOneBetweenDays(tmpl *model.ShiftTemplate, from, to string) bool {
	if tmpl.MaxEmployees > 0 && g.ctx.StaffingCount(to, tmpl.ID) >= tmpl.MaxEmployees {
		return false
	}

	shifts := append([]*model.GeneratedShift(nil), g.ctx.TemplateStaffing(from, tmpl.ID)...)
	for _, shift := range shifts {
		st := g.ctx.State(shift.EmployeeID)
		if st == nil {
			continue
		}
		if !g.mgr.RemoveShift(shift) {
			continue
		}
		if g.canRelocate(st, to, tmpl) {
			g.mgr.AddShift(st.Employee.ID, to, tmpl)
			return true
		}
		g.mgr.Restore(shift)
	}
	return false
}

// transferHours 在最过劳与最欠班的员工之间转移班次
func (g *GreedyScheduler) transferHours() int {
	moves := 0
	for i := 0; i < maxHourTransfers; i++ {
		over, under := g.hourExtremes()
		if over == nil || under == nil {
			return moves
		}
		if !g.transferOneShift(over, under) {
			return moves
		}
		moves++
	}
	return moves
}

// hourExtremes 返回盈余最大与欠班最大的员工（不满足阈值返回 nil）
func (g *GreedyScheduler) hourExtremes() (over, under *engine.EmployeeScheduleState) {
	for _, st := range g.ctx.SortedStates() {
		if st.CurrentHours-st.RequiredHours > surplusThreshold {
			if over == nil || st.CurrentHours-st.RequiredHours > over.CurrentHours-over.RequiredHours {
				over = st
			}
		}
		if st.Deficit() > surplusThreshold {
			if under == nil || st.Deficit() > under.Deficit() {
				under = st
			}
		}
	}
	return over, under
}

// transferOneShift 把过劳员工的一个班次转给欠班员工
func (g *GreedyScheduler) transferOneShift(over, under *engine.EmployeeScheduleState) bool {
	for _, shift := range append([]*model.GeneratedShift(nil), over.Shifts...) {
		if shift.TemplateID == nil {
			continue
		}
		tmpl := g.ctx.Template(*shift.TemplateID)
		if tmpl == nil {
			continue
		}
		// 转移不改变槽位占用，先移除再检查接手方
		if !g.mgr.RemoveShift(shift) {
			continue
		}
		if g.finder.CanTake(under, shift.Date, tmpl, search.Strict) {
			g.mgr.AddShift(under.Employee.ID, shift.Date, tmpl)
			return true
		}
		g.mgr.Restore(shift)
	}
	return false
}
