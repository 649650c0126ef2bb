// Package pipeline 实现六阶段贪心排班流水线
// 各阶段严格按顺序执行，共享同一个排班上下文，
// 后续阶段不会破坏先前阶段已建立的硬约束
package pipeline

import (
	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/engine"
	"github.com/yuepai/yuepai/pkg/scheduler/search"
)

// SlotShortage 未达到最低人数的槽位
type SlotShortage struct {
	Date         string    `json:"date"`
	TemplateID   uuid.UUID `json:"templateId"`
	TemplateName string    `json:"templateName"`
	Staffed      int       `json:"staffed"`
	Required     int       `json:"required"`
	// Critical 表示该槽位的全部可承担员工当日均缺勤
	Critical bool `json:"critical"`
}

// Statistics 流水线执行统计
type Statistics struct {
	TotalShifts   int            `json:"totalShifts"`
	TotalSlots    int            `json:"totalSlots"`
	UnfilledSlots []SlotShortage `json:"unfilledSlots,omitempty"`
	CriticalSlots int            `json:"criticalSlots"`
	FillRate      float64        `json:"fillRate"`
	PhaseMoves    [6]int         `json:"phaseMoves"`
}

// GreedyScheduler 贪心排班器：按顺序驱动六个阶段
type GreedyScheduler struct {
	ctx    *engine.SchedulerContext
	mgr    *engine.ShiftManager
	finder *search.Finder
}

// NewGreedyScheduler 创建贪心排班器
func NewGreedyScheduler(ctx *engine.SchedulerContext) *GreedyScheduler {
	return &GreedyScheduler{
		ctx:    ctx,
		mgr:    engine.NewShiftManager(ctx),
		finder: search.NewFinder(ctx),
	}
}

// Run 执行全部六个阶段并返回统计信息
func (g *GreedyScheduler) Run() *Statistics {
	phases := []struct {
		name string
		fn   func() int
	}{
		{"初始排班", g.initialStaffing},
		{"补足工时", g.fillMissingHours},
		{"局部优化", g.optimizeAssignments},
		{"紧急补员", g.emergencyStaffing},
		{"归一化", g.normalize},
		{"日内均衡", g.balanceWithinDays},
	}

	stats := &Statistics{}
	for i, p := range phases {
		g.ctx.Log.Phase(i+1, p.name)
		moves := p.fn()
		stats.PhaseMoves[i] = moves
		g.ctx.Log.PhaseResult(i+1, moves)
	}

	g.collectShortages(stats)
	return stats
}

// collectShortages 终态扫描：统计仍未达到最低人数的槽位
func (g *GreedyScheduler) collectShortages(stats *Statistics) {
	stats.TotalShifts = len(g.ctx.AllShifts())

	for _, date := range g.ctx.WorkingDays {
		for _, tmpl := range g.applicableTemplates(date) {
			stats.TotalSlots++
			staffed := g.ctx.StaffingCount(date, tmpl.ID)
			if staffed >= tmpl.MinEmployees {
				continue
			}
			critical := g.finder.CountAvailableEmployeesForDay(date, tmpl) == 0
			if critical {
				stats.CriticalSlots++
			}
			stats.UnfilledSlots = append(stats.UnfilledSlots, SlotShortage{
				Date:         date,
				TemplateID:   tmpl.ID,
				TemplateName: tmpl.Name,
				Staffed:      staffed,
				Required:     tmpl.MinEmployees,
				Critical:     critical,
			})
		}
	}

	if stats.TotalSlots > 0 {
		stats.FillRate = 1 - float64(len(stats.UnfilledSlots))/float64(stats.TotalSlots)
	}
}

// applicableTemplates 返回适用于该日期的模板
func (g *GreedyScheduler) applicableTemplates(date string) []*model.ShiftTemplate {
	weekday := model.WeekdayOfDate(date)
	var tmpls []*model.ShiftTemplate
	for _, t := range g.ctx.Input.Templates {
		if t.AppliesOn(weekday) {
			tmpls = append(tmpls, t)
		}
	}
	return tmpls
}

// canRelocate 检查班次在移除后能否合法落到新 (日期, 模板)
// 搬移类操作不改变员工总工时，工时上限按最宽档位检查
func (g *GreedyScheduler) canRelocate(st *engine.EmployeeScheduleState, date string, tmpl *model.ShiftTemplate) bool {
	return g.finder.CanTake(st, date, tmpl, search.EmergencyOvertime)
}
