package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/errors"
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/optimizer"
	"github.com/yuepai/yuepai/pkg/validator"
)

func genWeekdays() []string {
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

func genInput() *model.SchedulerInput {
	tmpl := &model.ShiftTemplate{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		Name:         "白班",
		StartTime:    "08:00",
		EndTime:      "16:00",
		MinEmployees: 1,
		MaxEmployees: 2,
	}
	emps := []*model.Employee{}
	for _, name := range []string{"张伟", "李娜"} {
		emps = append(emps, &model.Employee{
			BaseModel:   model.BaseModel{ID: uuid.New()},
			Name:        name,
			Status:      "active",
			Employment:  model.EmploymentFull,
			TemplateIDs: []uuid.UUID{tmpl.ID},
		})
	}
	return &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   emps,
		Templates:   []*model.ShiftTemplate{tmpl},
		WorkingDays: genWeekdays(),
	}
}

func TestGenerator_GenerateFullRun(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 7
	input := genInput()
	result, err := NewGenerator(opts).Generate(input)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(result.Shifts) == 0 {
		t.Fatal("应生成班次")
	}
	if result.Seed != 7 {
		t.Errorf("Seed = %d, want 7", result.Seed)
	}
	if result.Statistics.TotalShifts != len(result.Shifts) {
		t.Errorf("统计班次数 %d 与实际 %d 不符", result.Statistics.TotalShifts, len(result.Shifts))
	}

	// 最终结果必须通过硬约束审计
	violations := validator.NewAuditor(0).Audit(input, result.Shifts)
	for _, v := range violations {
		t.Errorf("硬约束违规: %s", v.Message)
	}
}

func TestGenerator_OptimizersOnRealisticMonth(t *testing.T) {
	if testing.Short() {
		t.Skip("完整优化链路耗时较长")
	}

	early := &model.ShiftTemplate{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		Name:         "早班",
		StartTime:    "06:00",
		EndTime:      "14:00",
		MinEmployees: 1,
		MaxEmployees: 3,
	}
	mid := &model.ShiftTemplate{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		Name:         "白班",
		StartTime:    "08:00",
		EndTime:      "16:00",
		MinEmployees: 1,
		MaxEmployees: 3,
	}
	late := &model.ShiftTemplate{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		Name:         "午班",
		StartTime:    "14:00",
		EndTime:      "22:00",
		MinEmployees: 1,
		MaxEmployees: 3,
	}
	tmplIDs := []uuid.UUID{early.ID, mid.ID, late.ID}

	employments := []model.EmploymentType{
		model.EmploymentFull, model.EmploymentFull, model.EmploymentFull,
		model.EmploymentFull, model.EmploymentFull,
		model.EmploymentHalf, model.EmploymentHalf,
		model.EmploymentQuarter,
	}
	names := []string{"张伟", "李娜", "王芳", "刘洋", "陈静", "杨帆", "赵磊", "孙悦"}
	var emps []*model.Employee
	for i, name := range names {
		emps = append(emps, &model.Employee{
			BaseModel:       model.BaseModel{ID: uuid.New()},
			Name:            name,
			Status:          "active",
			Employment:      employments[i],
			TemplateIDs:     tmplIDs,
			CanWorkWeekends: true,
		})
	}

	var saturdays []string
	first := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for d := first; d.Month() == 3; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday {
			saturdays = append(saturdays, d.Format(model.DateLayout))
		}
	}

	input := &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   emps,
		Templates:   []*model.ShiftTemplate{early, mid, late},
		WorkingDays: append(genWeekdays(), saturdays...),
		Saturdays:   saturdays,
	}

	opts := DefaultOptions()
	opts.Seed = 19
	opts.LocalSearch = &optimizer.LocalSearchConfig{MaxIterations: 60}
	gen := optimizer.DefaultGeneticConfig()
	gen.PopulationSize = 8
	gen.Generations = 8
	gen.Workers = 2
	opts.Genetic = gen

	start := time.Now()
	result, err := NewGenerator(opts).Generate(input)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Minute {
		t.Errorf("完整优化链路耗时 %v, 超出预期上限", elapsed)
	}

	if len(result.Shifts) == 0 {
		t.Fatal("应生成班次")
	}
	if result.Statistics.TotalShifts != len(result.Shifts) {
		t.Errorf("统计班次数 %d 与实际 %d 不符", result.Statistics.TotalShifts, len(result.Shifts))
	}

	// 优化链路全开的最终结果仍须通过硬约束审计
	violations := validator.NewAuditor(0).Audit(input, result.Shifts)
	for _, v := range violations {
		t.Errorf("硬约束违规: %s", v.Message)
	}
}

func TestGenerator_GreedyOnly(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 7
	opts.SkipOptimizers = true

	result, err := NewGenerator(opts).Generate(genInput())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Statistics.FillRate != 1 {
		t.Errorf("两名全职员工应填满全部槽位, fillRate=%v", result.Statistics.FillRate)
	}
}

func TestGenerator_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input *model.SchedulerInput
		want  errors.Code
	}{
		{"空输入", nil, errors.CodeInvalidInput},
		{
			"缺少员工",
			&model.SchedulerInput{Year: 2025, Month: 3, Templates: genInput().Templates, WorkingDays: genWeekdays()},
			errors.CodeInvalidInput,
		},
		{
			"月份越界",
			func() *model.SchedulerInput { in := genInput(); in.Month = 13; return in }(),
			errors.CodeInvalidInput,
		},
		{
			"休息时间吞掉全部班次时长",
			func() *model.SchedulerInput {
				in := genInput()
				in.Templates[0].BreakMinutes = 10 * 60
				return in
			}(),
			errors.CodeInvalidTimeRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(DefaultOptions()).Generate(tt.input)
			if err == nil {
				t.Fatal("应返回错误")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("错误码 = %v, want %v", errors.GetCode(err), tt.want)
			}
		})
	}
}

func TestGenerator_ReproducibleWithSeed(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 11
	opts.SkipOptimizers = true

	a, err := NewGenerator(opts).Generate(genInput())
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewGenerator(opts).Generate(genInput())
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Shifts) != len(b.Shifts) {
		t.Fatalf("相同种子的两次运行班次数不同: %d vs %d", len(a.Shifts), len(b.Shifts))
	}
	for i := range a.Shifts {
		if a.Shifts[i].Date != b.Shifts[i].Date || a.Shifts[i].StartTime != b.Shifts[i].StartTime {
			t.Fatalf("相同种子的两次运行在第 %d 个班次出现分歧", i)
		}
	}
}
