package pipeline

import (
	"github.com/yuepai/yuepai/pkg/model"
)

// 单个槽位的补员尝试上限
const maxSlotAttempts = 20

// initialStaffing 阶段一：初始排班
// 营业星期日和周六优先处理（候选最稀缺），普通工作日打乱顺序避免
// 月初日期总是优先被高分员工占据
func (g *GreedyScheduler) initialStaffing() int {
	ordinary := g.ctx.OrdinaryWorkingDays()
	g.ctx.ShuffleStrings(ordinary)

	var days []string
	days = append(days, g.ctx.TradingSundayWorkingDays()...)
	days = append(days, g.ctx.SaturdayWorkingDays()...)
	days = append(days, ordinary...)

	moves := 0
	for _, date := range days {
		tmpls := g.applicableTemplates(date)
		g.ctx.ShuffleTemplates(tmpls)

		for _, tmpl := range tmpls {
			moves += g.staffSlot(date, tmpl)
		}
	}
	return moves
}

// staffSlot 为单个 (日期, 模板) 槽位补员直到达到最低人数
func (g *GreedyScheduler) staffSlot(date string, tmpl *model.ShiftTemplate) int {
	moves := 0
	for attempts := 0; attempts < maxSlotAttempts; attempts++ {
		if g.ctx.StaffingCount(date, tmpl.ID) >= tmpl.MinEmployees {
			return moves
		}

		st, strat := g.finder.FindWithEscalation(date, tmpl)
		if st == nil {
			break
		}

		g.mgr.AddShift(st.Employee.ID, date, tmpl)
		g.ctx.Log.SlotFilled(date, tmpl.Name, st.Employee.Name, strat.Name)
		moves++
	}

	staffed := g.ctx.StaffingCount(date, tmpl.ID)
	if staffed < tmpl.MinEmployees {
		if g.finder.CountAvailableEmployeesForDay(date, tmpl) == 0 {
			g.ctx.Log.SlotCritical(date, tmpl.Name)
		} else {
			g.ctx.Log.SlotUnfilled(date, tmpl.Name, staffed, tmpl.MinEmployees)
		}
	}
	return moves
}
