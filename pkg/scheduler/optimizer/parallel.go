package optimizer

import (
	"sync"

	"github.com/yuepai/yuepai/pkg/scheduler/evaluate"
)

// ParallelEvaluator 种群适应度的并行评估器
// 适应度计算是对不可变基因组的纯函数，评估期间不触碰排班上下文，
// 可以安全并行；所有变异仍在单协程内进行
type ParallelEvaluator struct {
	workers int
	eval    *evaluate.Evaluator
}

// NewParallelEvaluator 创建并行评估器
func NewParallelEvaluator(workers int, eval *evaluate.Evaluator) *ParallelEvaluator {
	if workers <= 0 {
		workers = 4
	}
	return &ParallelEvaluator{workers: workers, eval: eval}
}

// EvaluateBatch 并行评估一批基因组，结果顺序与输入一致
func (p *ParallelEvaluator) EvaluateBatch(population []Genome) []float64 {
	fitness := make([]float64, len(population))
	if len(population) == 0 {
		return fitness
	}

	jobs := make(chan int, len(population))

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fitness[i] = p.eval.QuickFitness(population[i])
			}
		}()
	}

	for i := range population {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return fitness
}
