package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/model"
)

func auditInput(emps []*model.Employee, tmpls []*model.ShiftTemplate) *model.SchedulerInput {
	return &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees: emps,
		Templates: tmpls,
	}
}

func shiftOn(empID uuid.UUID, date, start, end string) *model.GeneratedShift {
	return &model.GeneratedShift{
		ID:         uuid.New(),
		EmployeeID: empID,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
	}
}

func hasViolation(violations []Violation, vt ViolationType) bool {
	for _, v := range violations {
		if v.Type == vt {
			return true
		}
	}
	return false
}

func TestAuditor_LegalRosterPasses(t *testing.T) {
	emp := &model.Employee{BaseModel: model.BaseModel{ID: uuid.New()}, Name: "张伟", Status: "active", Employment: model.EmploymentFull}
	input := auditInput([]*model.Employee{emp}, nil)

	// 周一到周五的常规白班
	shifts := []*model.GeneratedShift{
		shiftOn(emp.ID, "2025-03-10", "08:00", "16:00"),
		shiftOn(emp.ID, "2025-03-11", "08:00", "16:00"),
		shiftOn(emp.ID, "2025-03-12", "08:00", "16:00"),
		shiftOn(emp.ID, "2025-03-13", "08:00", "16:00"),
		shiftOn(emp.ID, "2025-03-14", "08:00", "16:00"),
	}

	if violations := NewAuditor(0).Audit(input, shifts); len(violations) != 0 {
		t.Errorf("合法排班不应有违规, got %v", violations)
	}
}

func TestAuditor_Violations(t *testing.T) {
	emp := &model.Employee{BaseModel: model.BaseModel{ID: uuid.New()}, Name: "张伟", Status: "active", Employment: model.EmploymentFull}

	tests := []struct {
		name   string
		shifts []*model.GeneratedShift
		want   ViolationType
	}{
		{
			"同日多班",
			[]*model.GeneratedShift{
				shiftOn(emp.ID, "2025-03-10", "08:00", "12:00"),
				shiftOn(emp.ID, "2025-03-10", "14:00", "18:00"),
			},
			ViolationDoubleBooking,
		},
		{
			"日休息不足",
			[]*model.GeneratedShift{
				shiftOn(emp.ID, "2025-03-10", "14:00", "23:00"),
				shiftOn(emp.ID, "2025-03-11", "06:00", "14:00"),
			},
			ViolationDailyRest,
		},
		{
			"周休息不足",
			[]*model.GeneratedShift{
				shiftOn(emp.ID, "2025-03-10", "08:00", "16:00"),
				shiftOn(emp.ID, "2025-03-11", "08:00", "16:00"),
				shiftOn(emp.ID, "2025-03-12", "08:00", "16:00"),
				shiftOn(emp.ID, "2025-03-13", "08:00", "16:00"),
				shiftOn(emp.ID, "2025-03-14", "08:00", "16:00"),
				shiftOn(emp.ID, "2025-03-15", "08:00", "14:00"),
				shiftOn(emp.ID, "2025-03-16", "08:00", "14:00"),
			},
			ViolationWeeklyRest,
		},
		{
			"连续工作超限",
			[]*model.GeneratedShift{
				shiftOn(emp.ID, "2025-03-10", "08:00", "14:00"),
				shiftOn(emp.ID, "2025-03-11", "08:00", "14:00"),
				shiftOn(emp.ID, "2025-03-12", "08:00", "14:00"),
				shiftOn(emp.ID, "2025-03-13", "08:00", "14:00"),
				shiftOn(emp.ID, "2025-03-14", "08:00", "14:00"),
				shiftOn(emp.ID, "2025-03-15", "08:00", "14:00"),
				shiftOn(emp.ID, "2025-03-16", "08:00", "14:00"),
				shiftOn(emp.ID, "2025-03-17", "08:00", "14:00"),
			},
			ViolationConsecutive,
		},
		{
			"周工时超限",
			[]*model.GeneratedShift{
				shiftOn(emp.ID, "2025-03-10", "08:00", "18:00"),
				shiftOn(emp.ID, "2025-03-11", "08:00", "18:00"),
				shiftOn(emp.ID, "2025-03-12", "08:00", "18:00"),
				shiftOn(emp.ID, "2025-03-13", "08:00", "18:00"),
				shiftOn(emp.ID, "2025-03-14", "08:00", "18:00"),
			},
			ViolationWeeklyHours,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := auditInput([]*model.Employee{emp}, nil)
			violations := NewAuditor(7).Audit(input, tt.shifts)
			if !hasViolation(violations, tt.want) {
				t.Errorf("应检出违规 %s, got %v", tt.want, violations)
			}
		})
	}
}

func TestAuditor_AbsenceClash(t *testing.T) {
	emp := &model.Employee{
		BaseModel: model.BaseModel{ID: uuid.New()}, Name: "张伟",
		Status: "active", Employment: model.EmploymentFull,
		Absences: []model.EmployeeAbsence{{StartDate: "2025-03-10", EndDate: "2025-03-12", Type: "vacation", Paid: true}},
	}
	input := auditInput([]*model.Employee{emp}, nil)

	violations := NewAuditor(0).Audit(input, []*model.GeneratedShift{
		shiftOn(emp.ID, "2025-03-11", "08:00", "16:00"),
	})
	if !hasViolation(violations, ViolationAbsenceClash) {
		t.Errorf("缺勤日排班应检出违规, got %v", violations)
	}
}

func TestAuditor_OverStaffed(t *testing.T) {
	tmpl := &model.ShiftTemplate{
		BaseModel: model.BaseModel{ID: uuid.New()}, Name: "白班",
		StartTime: "08:00", EndTime: "16:00",
		MinEmployees: 1, MaxEmployees: 1,
	}
	a := &model.Employee{BaseModel: model.BaseModel{ID: uuid.New()}, Name: "张伟", Status: "active", Employment: model.EmploymentFull}
	b := &model.Employee{BaseModel: model.BaseModel{ID: uuid.New()}, Name: "李娜", Status: "active", Employment: model.EmploymentFull}
	input := auditInput([]*model.Employee{a, b}, []*model.ShiftTemplate{tmpl})

	sa := shiftOn(a.ID, "2025-03-10", "08:00", "16:00")
	sb := shiftOn(b.ID, "2025-03-10", "08:00", "16:00")
	tmplID := tmpl.ID
	sa.TemplateID = &tmplID
	sb.TemplateID = &tmplID

	violations := NewAuditor(0).Audit(input, []*model.GeneratedShift{sa, sb})
	if !hasViolation(violations, ViolationOverStaffed) {
		t.Errorf("超过最高人数应检出违规, got %v", violations)
	}
}
