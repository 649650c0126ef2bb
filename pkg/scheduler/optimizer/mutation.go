package optimizer

import (
	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/rules"
)

// 变异算子
type mutationOp int

const (
	mutSwapEmployees  mutationOp = iota // 交换两个班次的承担者
	mutMoveDay                          // 把班次挪到另一天
	mutChangeTemplate                   // 更换班次的模板
)

// 单次变异的重试上限：产生非法个体时换一个随机目标重试
const maxMutationAttempts = 10

// mutate 对基因组应用一个随机变异算子
// 每次尝试后都做完整合法性审计，非法结果回退重试，
// 重试耗尽则原样返回（变异失败不是错误）
func (g *Genetic) mutate(genome Genome) Genome {
	if len(genome) == 0 {
		return genome
	}

	for attempt := 0; attempt < maxMutationAttempts; attempt++ {
		candidate := genome.Clone()

		var changed bool
		switch mutationOp(g.ctx.Rand.Intn(3)) {
		case mutSwapEmployees:
			changed = g.mutateSwapEmployees(candidate)
		case mutMoveDay:
			changed = g.mutateMoveDay(candidate)
		default:
			changed = g.mutateChangeTemplate(candidate)
		}

		if changed && g.legal(candidate) {
			return candidate
		}
	}
	return genome
}

// mutateSwapEmployees 交换两个不同日期班次的承担者
// 双方都必须有承担对方模板的资格
func (g *Genetic) mutateSwapEmployees(genome Genome) bool {
	if len(genome) < 2 {
		return false
	}

	i := g.ctx.Rand.Intn(len(genome))
	j := g.ctx.Rand.Intn(len(genome))
	a, b := genome[i], genome[j]

	if a.EmployeeID == b.EmployeeID || a.Date == b.Date {
		return false
	}
	if !g.eligible(a.EmployeeID, b.TemplateID) || !g.eligible(b.EmployeeID, a.TemplateID) {
		return false
	}

	a.EmployeeID, b.EmployeeID = b.EmployeeID, a.EmployeeID
	return true
}

// mutateMoveDay 把一个班次挪到另一个适用的工作日
func (g *Genetic) mutateMoveDay(genome Genome) bool {
	s := genome[g.ctx.Rand.Intn(len(genome))]

	newDate := g.ctx.WorkingDays[g.ctx.Rand.Intn(len(g.ctx.WorkingDays))]
	if newDate == s.Date {
		return false
	}
	if s.TemplateID != nil {
		tmpl := g.ctx.Template(*s.TemplateID)
		if tmpl == nil || !tmpl.AppliesOn(model.WeekdayOfDate(newDate)) {
			return false
		}
	}
	if st := g.ctx.State(s.EmployeeID); st != nil {
		if !rules.CanWorkOnDate(st.Employee, newDate, g.ctx.Holidays()) {
			return false
		}
	}

	s.Date = newDate
	return true
}

// mutateChangeTemplate 把班次换成员工有资格承担的另一个模板
func (g *Genetic) mutateChangeTemplate(genome Genome) bool {
	s := genome[g.ctx.Rand.Intn(len(genome))]
	if s.TemplateID == nil {
		return false
	}

	st := g.ctx.State(s.EmployeeID)
	if st == nil || len(st.Employee.TemplateIDs) < 2 {
		return false
	}

	newID := st.Employee.TemplateIDs[g.ctx.Rand.Intn(len(st.Employee.TemplateIDs))]
	if newID == *s.TemplateID {
		return false
	}
	tmpl := g.ctx.Template(newID)
	if tmpl == nil || !tmpl.AppliesOn(model.WeekdayOfDate(s.Date)) {
		return false
	}

	s.TemplateID = &newID
	s.StartTime = tmpl.StartTime
	s.EndTime = tmpl.EndTime
	s.BreakMinutes = tmpl.BreakMinutes
	return true
}

// eligible 员工是否有资格承担模板（自定义班次视为通过）
func (g *Genetic) eligible(empID uuid.UUID, tmplID *uuid.UUID) bool {
	if tmplID == nil {
		return true
	}
	st := g.ctx.State(empID)
	return st != nil && st.Employee.EligibleFor(*tmplID)
}
