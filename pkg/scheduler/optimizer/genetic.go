package optimizer

import (
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/engine"
	"github.com/yuepai/yuepai/pkg/scheduler/evaluate"
	"github.com/yuepai/yuepai/pkg/validator"
)

// GeneticConfig 遗传优化配置
type GeneticConfig struct {
	PopulationSize int     `json:"populationSize"`
	Generations    int     `json:"generations"`
	TournamentSize int     `json:"tournamentSize"`
	MutationRate   float64 `json:"mutationRate"`
	// ConvergeAfter 连续多少代没有改进即判定收敛
	ConvergeAfter int `json:"convergeAfter"`
	// Workers 适应度评估的并行度（1为串行）
	Workers int `json:"workers"`
}

// DefaultGeneticConfig 默认遗传优化配置
func DefaultGeneticConfig() *GeneticConfig {
	return &GeneticConfig{
		PopulationSize: 20,
		Generations:    60,
		TournamentSize: 3,
		MutationRate:   0.3,
		ConvergeAfter:  15,
		Workers:        4,
	}
}

// Genome 基因组：一份完整排班方案的班次列表
type Genome []*model.GeneratedShift

// Clone 深拷贝基因组
func (g Genome) Clone() Genome {
	return Genome(model.CloneShifts(g))
}

// Genetic 遗传优化器
// 锦标赛选择 + 单点交叉 + 三种变异算子，
// 非法后代直接弃用并退回父代，保证种群内全部个体合法
type Genetic struct {
	config  *GeneticConfig
	ctx     *engine.SchedulerContext
	eval    *evaluate.Evaluator
	auditor *validator.Auditor
}

// NewGenetic 创建遗传优化器
func NewGenetic(config *GeneticConfig, ctx *engine.SchedulerContext) *Genetic {
	if config == nil {
		config = DefaultGeneticConfig()
	}
	return &Genetic{
		config:  config,
		ctx:     ctx,
		eval:    evaluate.NewEvaluator(ctx),
		auditor: validator.NewAuditor(ctx.MaxConsecutiveDays()),
	}
}

// Optimize 以初始方案为种子进化，返回见过的最优基因组
func (g *Genetic) Optimize(initial []*model.GeneratedShift) []*model.GeneratedShift {
	if len(initial) == 0 || g.config.Generations <= 0 {
		return initial
	}

	population := g.seedPopulation(Genome(initial))
	fitness := g.evaluatePopulation(population)

	bestIdx := argmax(fitness)
	best := population[bestIdx].Clone()
	bestFitness := fitness[bestIdx]

	stale := 0
	for gen := 0; gen < g.config.Generations && stale < g.config.ConvergeAfter; gen++ {
		population = g.nextGeneration(population, fitness, best)
		fitness = g.evaluatePopulation(population)

		idx := argmax(fitness)
		if fitness[idx] > bestFitness {
			best = population[idx].Clone()
			bestFitness = fitness[idx]
			stale = 0
			g.ctx.Log.OptimizerImproved("genetic", gen, bestFitness)
		} else {
			stale++
		}
	}

	return best
}

// seedPopulation 初始种群：种子个体加上若干合法变异体
func (g *Genetic) seedPopulation(seed Genome) []Genome {
	population := make([]Genome, 0, g.config.PopulationSize)
	population = append(population, seed.Clone())

	for len(population) < g.config.PopulationSize {
		mutant := g.mutate(seed.Clone())
		population = append(population, mutant)
	}
	return population
}

// nextGeneration 产生下一代种群（精英保留）
func (g *Genetic) nextGeneration(population []Genome, fitness []float64, best Genome) []Genome {
	next := make([]Genome, 0, g.config.PopulationSize)
	next = append(next, best.Clone())

	for len(next) < g.config.PopulationSize {
		a := g.tournament(population, fitness)
		b := g.tournament(population, fitness)

		child := g.crossover(a, b)
		if g.ctx.Rand.Float64() < g.config.MutationRate {
			child = g.mutate(child)
		}

		// 交叉可能产生非法组合：弃用并退回父代
		if !g.legal(child) {
			child = a.Clone()
		}
		next = append(next, child)
	}
	return next
}

// tournament 锦标赛选择：随机抽取若干个体，返回其中适应度最高的
func (g *Genetic) tournament(population []Genome, fitness []float64) Genome {
	bestIdx := g.ctx.Rand.Intn(len(population))
	for i := 1; i < g.config.TournamentSize; i++ {
		idx := g.ctx.Rand.Intn(len(population))
		if fitness[idx] > fitness[bestIdx] {
			bestIdx = idx
		}
	}
	return population[bestIdx]
}

// crossover 单点交叉：以随机工作日为切点，
// 切点之前取自一方，之后取自另一方
func (g *Genetic) crossover(a, b Genome) Genome {
	if len(g.ctx.WorkingDays) < 2 {
		return a.Clone()
	}
	cut := g.ctx.WorkingDays[g.ctx.Rand.Intn(len(g.ctx.WorkingDays))]

	child := make(Genome, 0, len(a))
	for _, s := range a {
		if s.Date < cut {
			child = append(child, s.Clone())
		}
	}
	for _, s := range b {
		if s.Date >= cut {
			child = append(child, s.Clone())
		}
	}
	return child
}

// legal 基因组必须通过全部硬约束审计
func (g *Genetic) legal(genome Genome) bool {
	return len(g.auditor.Audit(g.ctx.Input, genome)) == 0
}

// evaluatePopulation 评估整个种群的适应度
func (g *Genetic) evaluatePopulation(population []Genome) []float64 {
	if g.config.Workers > 1 {
		return NewParallelEvaluator(g.config.Workers, g.eval).EvaluateBatch(population)
	}

	fitness := make([]float64, len(population))
	for i, genome := range population {
		fitness[i] = g.eval.QuickFitness(genome)
	}
	return fitness
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
