// Package scheduler 是月度排班引擎的对外入口
// 一次 Generate 调用依次执行贪心流水线、局部搜索与遗传优化，
// 整个过程同步完成，调用之间不共享任何可变状态
package scheduler

import (
	"time"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/errors"
	"github.com/yuepai/yuepai/pkg/logger"
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/engine"
	"github.com/yuepai/yuepai/pkg/scheduler/evaluate"
	"github.com/yuepai/yuepai/pkg/scheduler/optimizer"
	"github.com/yuepai/yuepai/pkg/scheduler/pipeline"
)

// Options 一次排班运行的可调参数
type Options struct {
	// Seed 随机源种子，0 表示取当前时间（生产环境的默认行为）
	Seed int64 `json:"seed"`

	LocalSearch *optimizer.LocalSearchConfig `json:"localSearch,omitempty"`
	Genetic     *optimizer.GeneticConfig     `json:"genetic,omitempty"`

	// SkipOptimizers 只跑贪心流水线（调试用）
	SkipOptimizers bool `json:"skipOptimizers"`

	Log *logger.EngineLogger `json:"-"`
}

// DefaultOptions 默认运行参数
func DefaultOptions() *Options {
	return &Options{
		LocalSearch: optimizer.DefaultLocalSearchConfig(),
		Genetic:     optimizer.DefaultGeneticConfig(),
	}
}

// Result 排班运行结果
type Result struct {
	Shifts     []*model.GeneratedShift `json:"shifts"`
	Statistics *pipeline.Statistics    `json:"statistics"`
	Fitness    float64                 `json:"fitness"`
	Duration   time.Duration           `json:"duration"`
	Seed       int64                   `json:"seed"`
}

// Generator 月度排班生成器
type Generator struct {
	opts     *Options
	validate *govalidator.Validate
}

// NewGenerator 创建排班生成器
func NewGenerator(opts *Options) *Generator {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Generator{
		opts:     opts,
		validate: govalidator.New(),
	}
}

// Generate 为给定输入生成月度排班
// “找不到完美候选”不是错误，缺员体现在统计与日志中；
// 只有无效输入才返回错误
func (g *Generator) Generate(input *model.SchedulerInput) (*Result, error) {
	if err := g.validateInput(input); err != nil {
		return nil, err
	}

	seed := g.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	start := time.Now()
	ctx := engine.NewContext(input, seed, g.opts.Log)
	ctx.Log.StartRun(input.Year, input.Month, len(input.Employees), len(input.Templates), len(input.WorkingDays))

	greedy := pipeline.NewGreedyScheduler(ctx)
	stats := greedy.Run()

	shifts := ctx.AllShifts()
	if !g.opts.SkipOptimizers {
		optimizer.NewLocalSearch(g.opts.LocalSearch, ctx).Optimize()
		shifts = optimizer.NewGenetic(g.opts.Genetic, ctx).Optimize(ctx.AllShifts())
	}

	// 优化器可能移动了班次，槽位统计按最终结果重算
	recountShortages(input, shifts, stats)

	fitness := evaluate.NewEvaluator(ctx).Fitness(shifts)
	duration := time.Since(start)
	ctx.Log.RunComplete(len(shifts), duration, fitness)

	return &Result{
		Shifts:     shifts,
		Statistics: stats,
		Fitness:    fitness,
		Duration:   duration,
		Seed:       seed,
	}, nil
}

// validateInput 输入快照的结构校验
func (g *Generator) validateInput(input *model.SchedulerInput) error {
	if input == nil {
		return errors.New(errors.CodeInvalidInput, "排班输入不能为空")
	}
	if err := g.validate.Struct(input); err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "排班输入校验失败")
	}
	for _, t := range input.Templates {
		if t.DurationHours() <= 0 {
			return errors.New(errors.CodeInvalidTimeRange, "班次模板时长无效").
				WithField("template", t.Name)
		}
	}
	return nil
}

// recountShortages 按最终班次重算槽位统计
func recountShortages(input *model.SchedulerInput, shifts []*model.GeneratedShift, stats *pipeline.Statistics) {
	counts := make(map[string]map[uuid.UUID]int)
	for _, s := range shifts {
		if s.TemplateID == nil {
			continue
		}
		if counts[s.Date] == nil {
			counts[s.Date] = make(map[uuid.UUID]int)
		}
		counts[s.Date][*s.TemplateID]++
	}

	stats.TotalShifts = len(shifts)
	stats.TotalSlots = 0
	stats.CriticalSlots = 0
	previous := stats.UnfilledSlots
	stats.UnfilledSlots = nil

	critical := make(map[string]map[uuid.UUID]bool)
	for _, slot := range previous {
		if critical[slot.Date] == nil {
			critical[slot.Date] = make(map[uuid.UUID]bool)
		}
		critical[slot.Date][slot.TemplateID] = slot.Critical
	}

	for _, date := range input.WorkingDays {
		weekday := model.WeekdayOfDate(date)
		for _, tmpl := range input.Templates {
			if !tmpl.AppliesOn(weekday) {
				continue
			}
			stats.TotalSlots++
			staffed := counts[date][tmpl.ID]
			if staffed >= tmpl.MinEmployees {
				continue
			}
			isCritical := critical[date][tmpl.ID]
			if isCritical {
				stats.CriticalSlots++
			}
			stats.UnfilledSlots = append(stats.UnfilledSlots, pipeline.SlotShortage{
				Date:         date,
				TemplateID:   tmpl.ID,
				TemplateName: tmpl.Name,
				Staffed:      staffed,
				Required:     tmpl.MinEmployees,
				Critical:     isCritical,
			})
		}
	}

	if stats.TotalSlots > 0 {
		stats.FillRate = 1 - float64(len(stats.UnfilledSlots))/float64(stats.TotalSlots)
	}
}
