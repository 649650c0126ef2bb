package pipeline

import (
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/engine"
	"github.com/yuepai/yuepai/pkg/scheduler/search"
)

// emergencyStaffing 阶段四：紧急补员
// 重新扫描仍低于最低人数的槽位，从放宽档位起逐级升级，
// 根据剩余合法候选数量区分告警与严重告警
func (g *GreedyScheduler) emergencyStaffing() int {
	moves := 0
	for _, date := range g.ctx.WorkingDays {
		for _, tmpl := range g.applicableTemplates(date) {
			moves += g.emergencyFillSlot(date, tmpl)
		}
	}
	return moves
}

// emergencyFillSlot 以放宽档位补员单个缺员槽位
func (g *GreedyScheduler) emergencyFillSlot(date string, tmpl *model.ShiftTemplate) int {
	moves := 0
	for attempts := 0; attempts < maxSlotAttempts; attempts++ {
		if g.ctx.StaffingCount(date, tmpl.ID) >= tmpl.MinEmployees {
			return moves
		}

		st, strat := g.findEmergencyCandidate(date, tmpl)
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

// findEmergencyCandidate 依次尝试放宽、竭力/紧急档位
// 可用员工不超过2人时直接使用紧急加班档位
func (g *GreedyScheduler) findEmergencyCandidate(date string, tmpl *model.ShiftTemplate) (*engine.EmployeeScheduleState, search.Strategy) {
	if st := g.finder.FindCandidate(date, tmpl, search.RelaxedHours); st != nil {
		return st, search.RelaxedHours
	}

	available := g.finder.CountAvailableEmployeesForDay(date, tmpl)
	if available <= 0 {
		return nil, search.RelaxedHours
	}

	if available <= 2 {
		return g.finder.FindCandidate(date, tmpl, search.EmergencyOvertime), search.EmergencyOvertime
	}
	return g.finder.FindCandidate(date, tmpl, search.Desperate), search.Desperate
}
