// Package swap 提供换班/调班功能
// 在已生成的排班表上评估把某个班次转给另一名员工（或两人互换）的可行性，
// 可行性判定复用排班引擎的硬约束审计
package swap

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/validator"
)

// Evaluator 换班评估器
type Evaluator struct {
	input   *model.SchedulerInput
	auditor *validator.Auditor
}

// NewEvaluator 创建换班评估器
func NewEvaluator(input *model.SchedulerInput) *Evaluator {
	return &Evaluator{
		input:   input,
		auditor: validator.NewAuditor(input.Settings.MaxConsecutiveDays),
	}
}

// Request 换班请求
type Request struct {
	// SourceShift 要转出的班次
	SourceShift *model.GeneratedShift `json:"source_shift"`
	// TargetEmployeeID 接班员工
	TargetEmployeeID uuid.UUID `json:"target_employee_id"`
	// TargetShift 互换时目标员工转出的班次（接管换班为空）
	TargetShift *model.GeneratedShift `json:"target_shift,omitempty"`
}

// Evaluation 换班评估结果
type Evaluation struct {
	Feasible bool    `json:"feasible"`
	Score    float64 `json:"score"` // 0-100
	Issues   []Issue `json:"issues"`
	Impact   *Impact `json:"impact"`
}

// Issue 换班问题
type Issue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // error/warning
	Message  string `json:"message"`
}

// Impact 双方工时变化
type Impact struct {
	SourceHoursChange float64 `json:"source_hours_change"`
	TargetHoursChange float64 `json:"target_hours_change"`
}

// Evaluate 评估换班可行性
func (e *Evaluator) Evaluate(shifts []*model.GeneratedShift, req *Request) *Evaluation {
	result := &Evaluation{
		Feasible: true,
		Score:    100,
		Impact:   &Impact{},
	}

	if req == nil || req.SourceShift == nil {
		return infeasible(result, "invalid_request", "无效的换班请求")
	}

	target := e.input.EmployeeByID(req.TargetEmployeeID)
	if target == nil {
		return infeasible(result, "employee_not_found", "接班员工不存在")
	}
	if !target.IsActive() {
		return infeasible(result, "employee_inactive", "接班员工不在职")
	}

	// 模板资格与缺勤是最常见的拒绝原因，先于整表审计检查
	if req.SourceShift.TemplateID != nil && !target.EligibleFor(*req.SourceShift.TemplateID) {
		return infeasible(result, "template_mismatch", "接班员工不可承担该班次模板")
	}
	if target.AbsenceOn(req.SourceShift.Date) != nil {
		return infeasible(result, "absence_clash", "接班员工当日缺勤")
	}

	simulated := e.simulate(shifts, req)
	for _, v := range e.auditor.Audit(e.input, simulated) {
		if v.EmployeeID != req.TargetEmployeeID &&
			v.EmployeeID != req.SourceShift.EmployeeID {
			continue
		}
		result.Feasible = false
		result.Issues = append(result.Issues, Issue{
			Type:     string(v.Type),
			Severity: "error",
			Message:  v.Message,
		})
	}
	if !result.Feasible {
		result.Score = 0
		return result
	}

	e.scoreImpact(shifts, req, target, result)
	return result
}

// CanSwap 快速检查是否可换班
func (e *Evaluator) CanSwap(shifts []*model.GeneratedShift, req *Request) (bool, string) {
	result := e.Evaluate(shifts, req)
	if !result.Feasible {
		if len(result.Issues) > 0 {
			return false, result.Issues[0].Message
		}
		return false, "无法进行换班"
	}
	return true, ""
}

// simulate 模拟换班后的完整班次表
func (e *Evaluator) simulate(shifts []*model.GeneratedShift, req *Request) []*model.GeneratedShift {
	simulated := make([]*model.GeneratedShift, 0, len(shifts))
	for _, s := range shifts {
		switch {
		case s.ID == req.SourceShift.ID:
			c := s.Clone()
			c.EmployeeID = req.TargetEmployeeID
			simulated = append(simulated, c)
		case req.TargetShift != nil && s.ID == req.TargetShift.ID:
			c := s.Clone()
			c.EmployeeID = req.SourceShift.EmployeeID
			simulated = append(simulated, c)
		default:
			simulated = append(simulated, s)
		}
	}
	return simulated
}

// scoreImpact 计算双方工时变化并按偏离程度扣分
func (e *Evaluator) scoreImpact(shifts []*model.GeneratedShift, req *Request, target *model.Employee, result *Evaluation) {
	sourceHours := req.SourceShift.Hours()
	result.Impact.SourceHoursChange = -sourceHours
	result.Impact.TargetHoursChange = sourceHours
	if req.TargetShift != nil {
		targetHours := req.TargetShift.Hours()
		result.Impact.SourceHoursChange += targetHours
		result.Impact.TargetHoursChange -= targetHours
	}

	// 换班后接班员工偏离应工作时长越多，得分越低
	required := target.MonthlyRequiredHours(len(e.input.WorkingDays))
	if required <= 0 {
		return
	}

	current := 0.0
	for _, s := range shifts {
		if s.EmployeeID == req.TargetEmployeeID {
			current += s.Hours()
		}
	}
	after := current + result.Impact.TargetHoursChange
	deviation := after - required
	if deviation < 0 {
		deviation = -deviation
	}

	result.Score = 100 - deviation/required*100
	if result.Score < 0 {
		result.Score = 0
	}
	if after > required {
		result.Issues = append(result.Issues, Issue{
			Type:     "overtime",
			Severity: "warning",
			Message:  fmt.Sprintf("换班后接班员工工时超出应工作时长 %.1f 小时", after-required),
		})
	}
}

func infeasible(result *Evaluation, issueType, message string) *Evaluation {
	result.Feasible = false
	result.Score = 0
	result.Issues = append(result.Issues, Issue{
		Type:     issueType,
		Severity: "error",
		Message:  message,
	})
	return result
}
