// Package optimizer 提供贪心流水线之后的两层后处理优化
// 局部搜索在共享上下文上做严格改进的班次交换，
// 遗传优化器在独立的基因组副本上做种群进化
package optimizer

import (
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/engine"
	"github.com/yuepai/yuepai/pkg/scheduler/search"
)

// LocalSearchConfig 局部搜索配置
type LocalSearchConfig struct {
	// MaxIterations 迭代预算，每次迭代最多应用一个改进移动
	MaxIterations int `json:"maxIterations"`
}

// DefaultLocalSearchConfig 默认局部搜索配置
func DefaultLocalSearchConfig() *LocalSearchConfig {
	return &LocalSearchConfig{MaxIterations: 200}
}

// 目标函数中周末失衡的权重
const weekendImbalanceWeight = 8.0

// LocalSearch 局部搜索优化器
// 只接受使目标函数严格下降的移动，接受前用与贪心阶段相同的
// 硬约束检查复核合法性，找不到改进移动或预算耗尽即终止
type LocalSearch struct {
	config *LocalSearchConfig
	ctx    *engine.SchedulerContext
	mgr    *engine.ShiftManager
	finder *search.Finder
}

// NewLocalSearch 创建局部搜索优化器
func NewLocalSearch(config *LocalSearchConfig, ctx *engine.SchedulerContext) *LocalSearch {
	if config == nil {
		config = DefaultLocalSearchConfig()
	}
	return &LocalSearch{
		config: config,
		ctx:    ctx,
		mgr:    engine.NewShiftManager(ctx),
		finder: search.NewFinder(ctx),
	}
}

// Optimize 迭代应用改进移动，返回实际应用的移动数
func (o *LocalSearch) Optimize() int {
	moves := 0
	for i := 0; i < o.config.MaxIterations; i++ {
		if !o.applyOneImprovingMove() {
			break
		}
		moves++
		o.ctx.Log.OptimizerImproved("local_search", i, o.objective())
	}
	return moves
}

// objective 手工目标函数：工时偏差平方和 + 加权的周末失衡（越小越好）
// 平方惩罚使偏差在员工之间摊平优于集中在一人身上
func (o *LocalSearch) objective() float64 {
	states := o.ctx.SortedStates()

	hourImbalance := 0.0
	for _, st := range states {
		d := st.Deficit()
		hourImbalance += d * d
	}

	return hourImbalance + weekendImbalanceWeight*weekendVariance(states)
}

// weekendVariance 员工间周末班次数的方差
func weekendVariance(states []*engine.EmployeeScheduleState) float64 {
	if len(states) == 0 {
		return 0
	}

	mean := 0.0
	for _, st := range states {
		mean += float64(st.WeekendShifts)
	}
	mean /= float64(len(states))

	variance := 0.0
	for _, st := range states {
		d := float64(st.WeekendShifts) - mean
		variance += d * d
	}
	return variance / float64(len(states))
}

// applyOneImprovingMove 寻找并应用一个改进移动
func (o *LocalSearch) applyOneImprovingMove() bool {
	if o.tryTransferMove() {
		return true
	}
	return o.tryWeekendSwap()
}

// tryTransferMove 工时转移：把盈余员工的班次交给欠班员工
func (o *LocalSearch) tryTransferMove() bool {
	before := o.objective()
	states := o.ctx.SortedStates()

	for _, donor := range states {
		for _, shift := range append([]*model.GeneratedShift(nil), donor.Shifts...) {
			if shift.TemplateID == nil {
				continue
			}
			tmpl := o.ctx.Template(*shift.TemplateID)
			if tmpl == nil {
				continue
			}

			for _, recipient := range states {
				// 只考虑缺口比出让方更大的接收方
				if recipient.Employee.ID == donor.Employee.ID || recipient.Deficit() <= donor.Deficit() {
					continue
				}
				if o.acceptTransfer(shift, tmpl, donor, recipient, before) {
					return true
				}
			}
		}
	}
	return false
}

// acceptTransfer 模拟转移，仅在合法且目标函数严格下降时保留
// 被拒绝的分支用 Restore 原样放回，保证上层快照中的指针始终有效
func (o *LocalSearch) acceptTransfer(shift *model.GeneratedShift, tmpl *model.ShiftTemplate, donor, recipient *engine.EmployeeScheduleState, before float64) bool {
	date := shift.Date
	if !o.mgr.RemoveShift(shift) {
		return false
	}

	if !o.finder.CanTake(recipient, date, tmpl, search.RelaxedHours) {
		o.mgr.Restore(shift)
		return false
	}

	added := o.mgr.AddShift(recipient.Employee.ID, date, tmpl)
	if o.objective() < before {
		return true
	}

	o.mgr.RemoveShift(added)
	o.mgr.Restore(shift)
	return false
}

// tryWeekendSwap 周末互换：周末班多的员工与周末班少的员工
// 互换一个周末班与一个工作日班
func (o *LocalSearch) tryWeekendSwap() bool {
	before := o.objective()
	states := o.ctx.SortedStates()

	for _, a := range states {
		for _, b := range states {
			if a.Employee.ID == b.Employee.ID || a.WeekendShifts <= b.WeekendShifts+1 {
				continue
			}
			if o.trySwapBetween(a, b, before) {
				return true
			}
		}
	}
	return false
}

// trySwapBetween 在两名员工之间寻找可互换的 (周末班, 平日班) 对
func (o *LocalSearch) trySwapBetween(a, b *engine.EmployeeScheduleState, before float64) bool {
	for _, weekendShift := range append([]*model.GeneratedShift(nil), a.Shifts...) {
		if !model.IsWeekendDate(weekendShift.Date) || weekendShift.TemplateID == nil {
			continue
		}
		for _, weekdayShift := range append([]*model.GeneratedShift(nil), b.Shifts...) {
			if model.IsWeekendDate(weekdayShift.Date) || weekdayShift.TemplateID == nil {
				continue
			}
			if o.acceptSwap(a, b, weekendShift, weekdayShift, before) {
				return true
			}
		}
	}
	return false
}

// acceptSwap 模拟互换，仅在双向合法且目标函数严格下降时保留
// 被拒绝的分支用 Restore 原样放回，保证上层快照中的指针始终有效
func (o *LocalSearch) acceptSwap(a, b *engine.EmployeeScheduleState, sa, sb *model.GeneratedShift, before float64) bool {
	tmplA := o.ctx.Template(*sa.TemplateID)
	tmplB := o.ctx.Template(*sb.TemplateID)
	if tmplA == nil || tmplB == nil {
		return false
	}
	dateA, dateB := sa.Date, sb.Date

	if !o.mgr.RemoveShift(sa) {
		return false
	}
	if !o.mgr.RemoveShift(sb) {
		o.mgr.Restore(sa)
		return false
	}

	if !o.finder.CanTake(b, dateA, tmplA, search.EmergencyOvertime) ||
		!o.finder.CanTake(a, dateB, tmplB, search.EmergencyOvertime) {
		o.mgr.Restore(sa)
		o.mgr.Restore(sb)
		return false
	}

	addedA := o.mgr.AddShift(b.Employee.ID, dateA, tmplA)
	addedB := o.mgr.AddShift(a.Employee.ID, dateB, tmplB)

	if o.objective() < before {
		return true
	}

	o.mgr.RemoveShift(addedA)
	o.mgr.RemoveShift(addedB)
	o.mgr.Restore(sa)
	o.mgr.Restore(sb)
	return false
}
