package pipeline

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yuepai/yuepai/pkg/logger"
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/engine"
	"github.com/yuepai/yuepai/pkg/validator"
)

// marchWeekdays 2025年3月的全部工作日（周一至周五，共21天）
func marchWeekdays() []string {
	var days []string
	first := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for d := first; d.Month() == 3; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d.Format(model.DateLayout))
	}
	return days
}

func marchSaturdays() []string {
	var days []string
	first := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for d := first; d.Month() == 3; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday {
			days = append(days, d.Format(model.DateLayout))
		}
	}
	return days
}

func dayTemplate(name string, min, max int) *model.ShiftTemplate {
	return &model.ShiftTemplate{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		Name:         name,
		StartTime:    "08:00",
		EndTime:      "16:00",
		MinEmployees: min,
		MaxEmployees: max,
	}
}

func fullTimer(name string, tmplIDs ...uuid.UUID) *model.Employee {
	return &model.Employee{
		BaseModel:       model.BaseModel{ID: uuid.New()},
		Name:            name,
		Status:          "active",
		Employment:      model.EmploymentFull,
		TemplateIDs:     tmplIDs,
		CanWorkWeekends: true,
	}
}

// assertLegal 审计整个排班结果，任何硬约束违规都视为测试失败
func assertLegal(t *testing.T, input *model.SchedulerInput, ctx *engine.SchedulerContext) {
	t.Helper()
	violations := validator.NewAuditor(input.Settings.MaxConsecutiveDays).Audit(input, ctx.AllShifts())
	for _, v := range violations {
		t.Errorf("硬约束违规: %s", v.Message)
	}
}

func TestPipeline_SingleEmployeeFullMonth(t *testing.T) {
	tmpl := dayTemplate("白班", 1, 1)
	emp := fullTimer("张伟", tmpl.ID)

	input := &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   []*model.Employee{emp},
		Templates:   []*model.ShiftTemplate{tmpl},
		WorkingDays: marchWeekdays(),
	}
	ctx := engine.NewContext(input, 42, nil)
	stats := NewGreedyScheduler(ctx).Run()

	// 每个工作日恰好一人
	for _, date := range input.WorkingDays {
		if got := ctx.DayStaffingCount(date); got != 1 {
			t.Errorf("%s 在岗人数 = %d, want 1", date, got)
		}
	}

	st := ctx.State(emp.ID)
	if diff := st.CurrentHours - st.RequiredHours; diff > 0.5 || diff < -0.5 {
		t.Errorf("总工时 %.1f 与应工作时长 %.1f 偏差超过0.5小时", st.CurrentHours, st.RequiredHours)
	}
	if len(stats.UnfilledSlots) != 0 {
		t.Errorf("不应有缺员槽位, got %v", stats.UnfilledSlots)
	}
	assertLegal(t, input, ctx)
}

func TestPipeline_AbsenceReducesRequiredHours(t *testing.T) {
	tmpl := dayTemplate("白班", 1, 1)
	emp := fullTimer("张伟", tmpl.ID)
	// 覆盖3月10日到14日共5个工作日的带薪休假
	emp.Absences = []model.EmployeeAbsence{
		{StartDate: "2025-03-10", EndDate: "2025-03-14", Type: "vacation", Paid: true},
	}

	input := &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   []*model.Employee{emp},
		Templates:   []*model.ShiftTemplate{tmpl},
		WorkingDays: marchWeekdays(),
	}
	ctx := engine.NewContext(input, 42, nil)
	NewGreedyScheduler(ctx).Run()

	st := ctx.State(emp.ID)
	fullRequired := float64(len(input.WorkingDays)) * model.FullTimeDailyHours
	if want := fullRequired - 5*model.FullTimeDailyHours; st.RequiredHours != want {
		t.Errorf("缺勤后应工作时长 = %v, want %v", st.RequiredHours, want)
	}

	for _, date := range []string{"2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13", "2025-03-14"} {
		if st.OccupiedDates[date] {
			t.Errorf("缺勤日 %s 不应被排班", date)
		}
	}
	assertLegal(t, input, ctx)
}

func TestPipeline_TwoEmployeesExclusiveSlot(t *testing.T) {
	tmpl := dayTemplate("白班", 1, 1)
	full := fullTimer("张伟", tmpl.ID)
	half := fullTimer("李娜", tmpl.ID)
	half.Employment = model.EmploymentHalf

	input := &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   []*model.Employee{full, half},
		Templates:   []*model.ShiftTemplate{tmpl},
		WorkingDays: marchWeekdays(),
	}
	ctx := engine.NewContext(input, 42, nil)
	NewGreedyScheduler(ctx).Run()

	// 任何一天都不允许两人同时在岗
	for _, date := range input.WorkingDays {
		if got := ctx.DayStaffingCount(date); got > 1 {
			t.Errorf("%s 在岗人数 = %d, 超过槽位上限", date, got)
		}
	}

	fullDays := len(ctx.State(full.ID).Shifts)
	halfDays := len(ctx.State(half.ID).Shifts)
	if fullDays <= halfDays {
		t.Errorf("全职员工班次数(%d)应多于半职员工(%d)", fullDays, halfDays)
	}
	assertLegal(t, input, ctx)
}

func TestPipeline_SaturdayOnlyTemplate(t *testing.T) {
	weekTmpl := dayTemplate("白班", 1, 2)
	satTmpl := &model.ShiftTemplate{
		BaseModel:      model.BaseModel{ID: uuid.New()},
		Name:           "周六班",
		StartTime:      "09:00",
		EndTime:        "15:00",
		MinEmployees:   1,
		MaxEmployees:   1,
		ApplicableDays: []time.Weekday{time.Saturday},
	}

	a := fullTimer("张伟", weekTmpl.ID, satTmpl.ID)
	b := fullTimer("李娜", weekTmpl.ID, satTmpl.ID)

	days := append(marchWeekdays(), marchSaturdays()...)
	input := &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   []*model.Employee{a, b},
		Templates:   []*model.ShiftTemplate{weekTmpl, satTmpl},
		WorkingDays: days,
		Saturdays:   marchSaturdays(),
	}
	ctx := engine.NewContext(input, 42, nil)
	NewGreedyScheduler(ctx).Run()

	for _, s := range ctx.AllShifts() {
		if s.TemplateID == nil || *s.TemplateID != satTmpl.ID {
			continue
		}
		if model.WeekdayOfDate(s.Date) != time.Saturday {
			t.Errorf("周六班被安排在 %s（%s）", s.Date, model.WeekdayOfDate(s.Date))
		}
	}
	assertLegal(t, input, ctx)
}

func TestPipeline_AllEligibleAbsentIsCritical(t *testing.T) {
	tmpl := dayTemplate("白班", 1, 1)
	emp := fullTimer("张伟", tmpl.ID)
	emp.Absences = []model.EmployeeAbsence{
		{StartDate: "2025-03-01", EndDate: "2025-03-31", Type: "sick"},
	}

	input := &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   []*model.Employee{emp},
		Templates:   []*model.ShiftTemplate{tmpl},
		WorkingDays: marchWeekdays(),
	}

	var buf bytes.Buffer
	log := logger.NewEngineLoggerWith(zerolog.New(&buf))
	ctx := engine.NewContext(input, 42, log)
	stats := NewGreedyScheduler(ctx).Run()

	if stats.TotalShifts != 0 {
		t.Errorf("全员缺勤不应生成任何班次, got %d", stats.TotalShifts)
	}
	if stats.CriticalSlots != len(input.WorkingDays) {
		t.Errorf("严重缺员槽位 = %d, want %d", stats.CriticalSlots, len(input.WorkingDays))
	}
	if !strings.Contains(buf.String(), "critical") {
		t.Error("应产生严重缺员日志")
	}
	assertLegal(t, input, ctx)
}

func TestPipeline_NormalizeAndBalanceIdempotent(t *testing.T) {
	dayTmpl := dayTemplate("白班", 1, 2)
	lateTmpl := &model.ShiftTemplate{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		Name:         "晚班",
		StartTime:    "14:00",
		EndTime:      "22:00",
		MinEmployees: 1,
		MaxEmployees: 2,
	}

	emps := []*model.Employee{
		fullTimer("张伟", dayTmpl.ID, lateTmpl.ID),
		fullTimer("李娜", dayTmpl.ID, lateTmpl.ID),
		fullTimer("王芳", dayTmpl.ID, lateTmpl.ID),
	}

	input := &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   emps,
		Templates:   []*model.ShiftTemplate{dayTmpl, lateTmpl},
		WorkingDays: marchWeekdays(),
	}
	ctx := engine.NewContext(input, 42, nil)
	g := NewGreedyScheduler(ctx)
	g.Run()

	// 已归一化/已均衡的上下文重跑应产生零次移动
	if moves := g.normalize(); moves != 0 {
		t.Errorf("重跑归一化产生了 %d 次移动", moves)
	}
	if moves := g.balanceWithinDays(); moves != 0 {
		t.Errorf("重跑日内均衡产生了 %d 次移动", moves)
	}
	assertLegal(t, input, ctx)
}

func TestPipeline_PeriodSwapConservesShifts(t *testing.T) {
	morning := &model.ShiftTemplate{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		Name:         "早班",
		StartTime:    "06:00",
		EndTime:      "14:00",
		MinEmployees: 1,
		MaxEmployees: 1,
	}
	afternoonA := &model.ShiftTemplate{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		Name:         "午班A",
		StartTime:    "14:00",
		EndTime:      "22:00",
		MinEmployees: 1,
		MaxEmployees: 1,
	}
	afternoonB := &model.ShiftTemplate{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		Name:         "午班B",
		StartTime:    "13:00",
		EndTime:      "21:00",
		MinEmployees: 1,
		MaxEmployees: 1,
	}

	emps := []*model.Employee{
		fullTimer("张伟", morning.ID, afternoonA.ID, afternoonB.ID),
		fullTimer("李娜", morning.ID, afternoonA.ID, afternoonB.ID),
		fullTimer("王芳", morning.ID, afternoonA.ID, afternoonB.ID),
	}

	input := &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   emps,
		Templates:   []*model.ShiftTemplate{morning, afternoonA, afternoonB},
		WorkingDays: marchWeekdays(),
	}
	ctx := engine.NewContext(input, 42, nil)
	mgr := engine.NewShiftManager(ctx)

	// 同一天三个班次：一个早班加两个午班，所有互换尝试都会被拒绝还原
	mgr.AddShift(emps[0].ID, "2025-03-10", morning)
	mgr.AddShift(emps[1].ID, "2025-03-10", afternoonA)
	mgr.AddShift(emps[2].ID, "2025-03-10", afternoonB)

	g := NewGreedyScheduler(ctx)
	g.swapForPeriodVariance()

	if got := len(ctx.AllShifts()); got != 3 {
		t.Fatalf("班段互换后班次总数 = %d, want 3", got)
	}
	for _, emp := range emps {
		if n := len(ctx.State(emp.ID).Shifts); n != 1 {
			t.Errorf("%s 的班次数 = %d, want 1", emp.Name, n)
		}
	}

	violations := validator.NewAuditor(0).Audit(input, ctx.AllShifts())
	for _, v := range violations {
		t.Errorf("班段互换产生了硬约束违规: %s", v.Message)
	}
}

func TestPipeline_ReproducibleWithSameSeed(t *testing.T) {
	build := func() *engine.SchedulerContext {
		tmpl := dayTemplate("白班", 1, 2)
		emps := []*model.Employee{
			fullTimer("张伟", tmpl.ID),
			fullTimer("李娜", tmpl.ID),
		}
		input := &model.SchedulerInput{
			Year: 2025, Month: 3,
			Employees:   emps,
			Templates:   []*model.ShiftTemplate{tmpl},
			WorkingDays: marchWeekdays(),
		}
		return engine.NewContext(input, 99, nil)
	}

	a := build()
	NewGreedyScheduler(a).Run()
	b := build()
	NewGreedyScheduler(b).Run()

	shiftsA := a.AllShifts()
	shiftsB := b.AllShifts()
	if len(shiftsA) != len(shiftsB) {
		t.Fatalf("相同种子的两次运行班次数不同: %d vs %d", len(shiftsA), len(shiftsB))
	}
	for i := range shiftsA {
		if shiftsA[i].Date != shiftsB[i].Date || shiftsA[i].StartTime != shiftsB[i].StartTime {
			t.Fatalf("相同种子的两次运行在第 %d 个班次出现分歧", i)
		}
	}
}
