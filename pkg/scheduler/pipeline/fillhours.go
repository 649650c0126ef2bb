package pipeline

import (
	"sort"

	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/engine"
	"github.com/yuepai/yuepai/pkg/scheduler/search"
)

// 单个员工的补班尝试上限
const maxFillAttempts = 60

// fillMissingHours 阶段二：补足工时
// 相对欠班比例最大的员工优先，保证兼职员工不会被全职员工挤掉
func (g *GreedyScheduler) fillMissingHours() int {
	states := g.ctx.SortedStates()
	sort.SliceStable(states, func(i, j int) bool {
		return states[i].RelativeDeficit() > states[j].RelativeDeficit()
	})

	moves := 0
	for _, st := range states {
		moves += g.fillEmployee(st)
	}
	return moves
}

// fillEmployee 为单个欠班员工持续补班直到达标或尝试耗尽
func (g *GreedyScheduler) fillEmployee(st *engine.EmployeeScheduleState) int {
	moves := 0
	for attempts := 0; attempts < maxFillAttempts; attempts++ {
		if st.Deficit() <= 0.5 {
			return moves
		}

		if date, tmpl := g.leastStaffedSlot(st); tmpl != nil {
			g.mgr.AddShift(st.Employee.ID, date, tmpl)
			g.ctx.Log.SlotFilled(date, tmpl.Name, st.Employee.Name, "fill_hours")
			moves++
			continue
		}

		// 直接分配不可行：尝试腾挪满员槽位上的在岗员工
		if g.displaceForDeficit(st) {
			moves++
			continue
		}
		break
	}
	return moves
}

// leastStaffedSlot 在员工可合法承担的 (日期, 模板) 组合中选在岗人数最少的
func (g *GreedyScheduler) leastStaffedSlot(st *engine.EmployeeScheduleState) (string, *model.ShiftTemplate) {
	bestCount := -1
	var bestDate string
	var bestTmpl *model.ShiftTemplate

	for _, date := range g.ctx.WorkingDays {
		for _, tmpl := range g.applicableTemplates(date) {
			if !g.finder.CanTake(st, date, tmpl, search.Strict) {
				continue
			}
			count := g.ctx.StaffingCount(date, tmpl.ID)
			if bestCount < 0 || count < bestCount {
				bestCount = count
				bestDate = date
				bestTmpl = tmpl
			}
		}
	}
	return bestDate, bestTmpl
}

// displaceForDeficit 腾挪换位
// 找一个仅因满员而无法进入的槽位，把在岗员工挪到其他合法日期，
// 让欠班员工接替其位置。挪不动就全部还原
func (g *GreedyScheduler) displaceForDeficit(st *engine.EmployeeScheduleState) bool {
	for _, date := range g.ctx.WorkingDays {
		for _, tmpl := range g.applicableTemplates(date) {
			if tmpl.MaxEmployees <= 0 || g.ctx.StaffingCount(date, tmpl.ID) < tmpl.MaxEmployees {
				continue
			}

			incumbents := append([]*model.GeneratedShift(nil), g.ctx.TemplateStaffing(date, tmpl.ID)...)
			for _, shift := range incumbents {
				if shift.EmployeeID == st.Employee.ID {
					continue
				}
				if g.tryDisplace(st, shift, date, tmpl) {
					return true
				}
			}
		}
	}
	return false
}

// tryDisplace 尝试将在岗员工的班次挪到其他日期并让欠班员工补位
func (g *GreedyScheduler) tryDisplace(st *engine.EmployeeScheduleState, shift *model.GeneratedShift, date string, tmpl *model.ShiftTemplate) bool {
	incumbent := g.ctx.State(shift.EmployeeID)
	if incumbent == nil {
		return false
	}

	if !g.mgr.RemoveShift(shift) {
		return false
	}

	// 腾出位置后欠班员工必须能合法接替，否则还原
	if !g.finder.CanTake(st, date, tmpl, search.Strict) {
		g.mgr.Restore(shift)
		return false
	}

	for _, newDate := range g.ctx.WorkingDays {
		if newDate == date {
			continue
		}
		if !g.canRelocate(incumbent, newDate, tmpl) {
			continue
		}
		g.mgr.AddShift(incumbent.Employee.ID, newDate, tmpl)
		g.mgr.AddShift(st.Employee.ID, date, tmpl)
		return true
	}

	g.mgr.Restore(shift)
	return false
}
