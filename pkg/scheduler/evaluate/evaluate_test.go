package evaluate

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/engine"
)

func evalContext(emps []*model.Employee) *engine.SchedulerContext {
	var days, saturdays []string
	first := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for d := first; d.Month() == 3; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Sunday {
			continue
		}
		date := d.Format(model.DateLayout)
		days = append(days, date)
		if d.Weekday() == time.Saturday {
			saturdays = append(saturdays, date)
		}
	}

	input := &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   emps,
		WorkingDays: days,
		Saturdays:   saturdays,
	}
	return engine.NewContext(input, 1, nil)
}

func evalEmployee(name string) *model.Employee {
	return &model.Employee{
		BaseModel:       model.BaseModel{ID: uuid.New()},
		Name:            name,
		Status:          "active",
		Employment:      model.EmploymentFull,
		CanWorkWeekends: true,
	}
}

func evalShift(empID uuid.UUID, date string) *model.GeneratedShift {
	return &model.GeneratedShift{
		ID:         uuid.New(),
		EmployeeID: empID,
		Date:       date,
		StartTime:  "08:00",
		EndTime:    "16:00",
	}
}

func TestEvaluator_CloserHoursScoreHigher(t *testing.T) {
	emp := evalEmployee("张伟")
	ctx := evalContext([]*model.Employee{emp})
	e := NewEvaluator(ctx)

	var fewShifts, moreShifts []*model.GeneratedShift
	for i, d := range ctx.WorkingDays {
		moreShifts = append(moreShifts, evalShift(emp.ID, d))
		if i < 5 {
			fewShifts = append(fewShifts, evalShift(emp.ID, d))
		}
	}

	if e.Fitness(moreShifts) <= e.Fitness(fewShifts) {
		t.Error("工时更接近目标的方案适应度应更高")
	}
}

func TestEvaluator_WeekendImbalancePenalized(t *testing.T) {
	a := evalEmployee("张伟")
	b := evalEmployee("李娜")
	ctx := evalContext([]*model.Employee{a, b})
	e := NewEvaluator(ctx)

	saturdays := ctx.SaturdayWorkingDays()
	if len(saturdays) < 2 {
		t.Fatal("测试月份应包含至少两个周六")
	}

	// 两个周六分摊 vs 全压在一人身上
	balanced := []*model.GeneratedShift{
		evalShift(a.ID, saturdays[0]),
		evalShift(b.ID, saturdays[1]),
	}
	lopsided := []*model.GeneratedShift{
		evalShift(a.ID, saturdays[0]),
		evalShift(a.ID, saturdays[1]),
	}

	if e.QuickFitness(balanced) <= e.QuickFitness(lopsided) {
		t.Error("周末分摊均衡的方案适应度应更高")
	}
}

func TestEvaluator_QuickFitnessTracksFullFitness(t *testing.T) {
	emp := evalEmployee("张伟")
	ctx := evalContext([]*model.Employee{emp})
	e := NewEvaluator(ctx)

	var shifts []*model.GeneratedShift
	for _, d := range ctx.WorkingDays {
		shifts = append(shifts, evalShift(emp.ID, d))
	}

	empty := []*model.GeneratedShift{}
	if (e.Fitness(shifts) > e.Fitness(empty)) != (e.QuickFitness(shifts) > e.QuickFitness(empty)) {
		t.Error("廉价变体与完整适应度的排序方向应一致")
	}
}
