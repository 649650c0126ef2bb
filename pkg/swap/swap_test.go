package swap

import (
	"testing"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/model"
)

func swapEmployee(name string, templateIDs ...uuid.UUID) *model.Employee {
	return &model.Employee{
		BaseModel:   model.BaseModel{ID: uuid.New()},
		Name:        name,
		Status:      "active",
		Employment:  model.EmploymentFull,
		TemplateIDs: templateIDs,
	}
}

func swapShift(empID uuid.UUID, templateID *uuid.UUID, date, start, end string) *model.GeneratedShift {
	return &model.GeneratedShift{
		ID:         uuid.New(),
		EmployeeID: empID,
		TemplateID: templateID,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
	}
}

func swapInput(emps ...*model.Employee) *model.SchedulerInput {
	return &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   emps,
		WorkingDays: []string{"2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13", "2025-03-14"},
	}
}

func TestEvaluator_FeasibleTakeover(t *testing.T) {
	tmplID := uuid.New()
	zhang := swapEmployee("张伟", tmplID)
	wang := swapEmployee("王芳", tmplID)
	input := swapInput(zhang, wang)

	shifts := []*model.GeneratedShift{
		swapShift(zhang.ID, &tmplID, "2025-03-10", "08:00", "16:00"),
	}

	eval := NewEvaluator(input).Evaluate(shifts, &Request{
		SourceShift:      shifts[0],
		TargetEmployeeID: wang.ID,
	})

	if !eval.Feasible {
		t.Fatalf("接管应可行, issues: %v", eval.Issues)
	}
	if eval.Impact.SourceHoursChange != -8 || eval.Impact.TargetHoursChange != 8 {
		t.Errorf("工时变化错误: source=%v target=%v",
			eval.Impact.SourceHoursChange, eval.Impact.TargetHoursChange)
	}
}

func TestEvaluator_RejectsInfeasible(t *testing.T) {
	tmplID := uuid.New()
	otherTmpl := uuid.New()
	zhang := swapEmployee("张伟", tmplID)

	tests := []struct {
		name      string
		target    func() *model.Employee
		extra     []*model.GeneratedShift
		issueType string
	}{
		{
			"模板不匹配",
			func() *model.Employee { return swapEmployee("王芳", otherTmpl) },
			nil,
			"template_mismatch",
		},
		{
			"当日缺勤",
			func() *model.Employee {
				e := swapEmployee("王芳", tmplID)
				e.Absences = []model.EmployeeAbsence{{StartDate: "2025-03-10", EndDate: "2025-03-12", Type: "vacation"}}
				return e
			},
			nil,
			"absence_clash",
		},
		{
			"员工不在职",
			func() *model.Employee {
				e := swapEmployee("王芳", tmplID)
				e.Status = "inactive"
				return e
			},
			nil,
			"employee_inactive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.target()
			input := swapInput(zhang, target)
			shifts := []*model.GeneratedShift{
				swapShift(zhang.ID, &tmplID, "2025-03-10", "08:00", "16:00"),
			}
			shifts = append(shifts, tt.extra...)

			eval := NewEvaluator(input).Evaluate(shifts, &Request{
				SourceShift:      shifts[0],
				TargetEmployeeID: target.ID,
			})

			if eval.Feasible {
				t.Fatal("换班不应可行")
			}
			if eval.Score != 0 {
				t.Errorf("不可行换班得分应为0, got %v", eval.Score)
			}
			found := false
			for _, issue := range eval.Issues {
				if issue.Type == tt.issueType {
					found = true
				}
			}
			if !found {
				t.Errorf("缺少问题类型 %s, got %v", tt.issueType, eval.Issues)
			}
		})
	}
}

func TestEvaluator_DetectsDoubleBooking(t *testing.T) {
	tmplID := uuid.New()
	zhang := swapEmployee("张伟", tmplID)
	wang := swapEmployee("王芳", tmplID)
	input := swapInput(zhang, wang)

	// 王芳当日已有班次，接管会造成同日双班
	shifts := []*model.GeneratedShift{
		swapShift(zhang.ID, &tmplID, "2025-03-10", "08:00", "16:00"),
		swapShift(wang.ID, &tmplID, "2025-03-10", "14:00", "22:00"),
	}

	eval := NewEvaluator(input).Evaluate(shifts, &Request{
		SourceShift:      shifts[0],
		TargetEmployeeID: wang.ID,
	})

	if eval.Feasible {
		t.Fatal("同日双班不应可行")
	}
}

func TestEvaluator_Exchange(t *testing.T) {
	tmplID := uuid.New()
	zhang := swapEmployee("张伟", tmplID)
	wang := swapEmployee("王芳", tmplID)
	input := swapInput(zhang, wang)

	shifts := []*model.GeneratedShift{
		swapShift(zhang.ID, &tmplID, "2025-03-10", "08:00", "16:00"),
		swapShift(wang.ID, &tmplID, "2025-03-11", "08:00", "16:00"),
	}

	eval := NewEvaluator(input).Evaluate(shifts, &Request{
		SourceShift:      shifts[0],
		TargetEmployeeID: wang.ID,
		TargetShift:      shifts[1],
	})

	if !eval.Feasible {
		t.Fatalf("互换应可行, issues: %v", eval.Issues)
	}
	// 等长班次互换不改变双方工时
	if eval.Impact.SourceHoursChange != 0 || eval.Impact.TargetHoursChange != 0 {
		t.Errorf("等长互换工时变化应为0: source=%v target=%v",
			eval.Impact.SourceHoursChange, eval.Impact.TargetHoursChange)
	}
}

func TestRecommender_TakeoverCandidates(t *testing.T) {
	tmplID := uuid.New()
	zhang := swapEmployee("张伟", tmplID)
	wang := swapEmployee("王芳", tmplID)
	li := swapEmployee("李娜", tmplID)
	li.Absences = []model.EmployeeAbsence{{StartDate: "2025-03-10", EndDate: "2025-03-10", Type: "sick"}}
	input := swapInput(zhang, wang, li)

	shifts := []*model.GeneratedShift{
		swapShift(zhang.ID, &tmplID, "2025-03-10", "08:00", "16:00"),
	}

	recs, err := NewRecommender(input).RecommendTakeover(shifts, shifts[0].ID, 0)
	if err != nil {
		t.Fatalf("RecommendTakeover failed: %v", err)
	}

	// 李娜缺勤被排除，只剩王芳
	if len(recs) != 1 {
		t.Fatalf("应有1个候选人, got %d", len(recs))
	}
	if recs[0].EmployeeID != wang.ID {
		t.Errorf("候选人应为王芳, got %s", recs[0].EmployeeName)
	}
}

func TestRecommender_ShiftNotFound(t *testing.T) {
	input := swapInput(swapEmployee("张伟"))

	if _, err := NewRecommender(input).RecommendTakeover(nil, uuid.New(), 0); err == nil {
		t.Error("不存在的班次应报错")
	}
}

func TestRecommender_Apply(t *testing.T) {
	tmplID := uuid.New()
	zhang := swapEmployee("张伟", tmplID)
	wang := swapEmployee("王芳", tmplID)
	input := swapInput(zhang, wang)

	shifts := []*model.GeneratedShift{
		swapShift(zhang.ID, &tmplID, "2025-03-10", "08:00", "16:00"),
	}

	result, err := NewRecommender(input).Apply(shifts, &Request{
		SourceShift:      shifts[0],
		TargetEmployeeID: wang.ID,
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if result[0].EmployeeID != wang.ID {
		t.Error("换班后班次应属于王芳")
	}
	// 原班次表不受影响
	if shifts[0].EmployeeID != zhang.ID {
		t.Error("原班次表不应被修改")
	}
}
