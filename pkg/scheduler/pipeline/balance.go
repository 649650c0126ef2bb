package pipeline

import (
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/search"
)

// balanceWithinDays 阶段六：日内均衡
// 同一天内把班次从占用偏多的模板换到占用偏少的模板，
// 直到任意两个适用模板的占用差 ≤1。
// 已均衡的上下文重跑本阶段产生零次移动
func (g *GreedyScheduler) balanceWithinDays() int {
	moves := 0
	for _, date := range g.ctx.WorkingDays {
		moves += g.balanceDay(date)
	}
	return moves
}

// balanceDay 均衡单日的模板占用
func (g *GreedyScheduler) balanceDay(date string) int {
	tmpls := g.applicableTemplates(date)
	if len(tmpls) < 2 {
		return 0
	}

	moves := 0
	for {
		over, under := g.dayExtremes(date, tmpls)
		if over == nil || under == nil {
			return moves
		}
		if g.ctx.StaffingCount(date, over.ID)-g.ctx.StaffingCount(date, under.ID) <= 1 {
			return moves
		}
		if !g.convertOneShift(date, over, under) {
			return moves
		}
		moves++
	}
}

// dayExtremes 返回当日占用最多与最少的模板
func (g *GreedyScheduler) dayExtremes(date string, tmpls []*model.ShiftTemplate) (over, under *model.ShiftTemplate) {
	for _, t := range tmpls {
		count := g.ctx.StaffingCount(date, t.ID)
		if over == nil || count > g.ctx.StaffingCount(date, over.ID) {
			over = t
		}
		if under == nil || count < g.ctx.StaffingCount(date, under.ID) {
			under = t
		}
	}
	return over, under
}

// convertOneShift 把一名员工当日的班次从偏多模板换成偏少模板
// 偏多模板移除后不得跌破最低人数，偏少模板不得超过最高人数
func (g *GreedyScheduler) convertOneShift(date string, over, under *model.ShiftTemplate) bool {
	if g.ctx.StaffingCount(date, over.ID) <= over.MinEmployees {
		return false
	}
	if under.MaxEmployees > 0 && g.ctx.StaffingCount(date, under.ID) >= under.MaxEmployees {
		return false
	}

	shifts := append([]*model.GeneratedShift(nil), g.ctx.TemplateStaffing(date, over.ID)...)
	for _, shift := range shifts {
		st := g.ctx.State(shift.EmployeeID)
		if st == nil {
			continue
		}
		if !g.mgr.RemoveShift(shift) {
			continue
		}
		if g.finder.CanTake(st, date, under, search.EmergencyOvertime) {
			g.mgr.AddShift(st.Employee.ID, date, under)
			return true
		}
		g.mgr.Restore(shift)
	}
	return false
}
