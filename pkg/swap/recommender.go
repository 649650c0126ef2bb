package swap

import (
	"sort"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/errors"
	"github.com/yuepai/yuepai/pkg/model"
)

// Recommender 换班推荐器
// 为想转出某个班次的员工推荐可接班的同事，按评估得分排序
type Recommender struct {
	input     *model.SchedulerInput
	evaluator *Evaluator
}

// NewRecommender 创建换班推荐器
func NewRecommender(input *model.SchedulerInput) *Recommender {
	return &Recommender{
		input:     input,
		evaluator: NewEvaluator(input),
	}
}

// Recommendation 换班推荐
type Recommendation struct {
	EmployeeID   uuid.UUID   `json:"employee_id"`
	EmployeeName string      `json:"employee_name"`
	Score        float64     `json:"score"`
	Evaluation   *Evaluation `json:"evaluation"`
	// ExchangeShift 非空表示双向互换该班次，否则为单向接管
	ExchangeShift *model.GeneratedShift `json:"exchange_shift,omitempty"`
}

// RecommendTakeover 推荐接管班次的候选人
// 对转出员工以外的每名在职员工模拟单向接管并评估，只保留可行的候选
func (r *Recommender) RecommendTakeover(shifts []*model.GeneratedShift, shiftID uuid.UUID, limit int) ([]*Recommendation, error) {
	source := findShift(shifts, shiftID)
	if source == nil {
		return nil, errors.New(errors.CodeNotFound, "班次不存在")
	}

	var recommendations []*Recommendation
	for _, emp := range r.input.Employees {
		if emp.ID == source.EmployeeID || !emp.IsActive() {
			continue
		}

		eval := r.evaluator.Evaluate(shifts, &Request{
			SourceShift:      source,
			TargetEmployeeID: emp.ID,
		})
		if !eval.Feasible {
			continue
		}

		recommendations = append(recommendations, &Recommendation{
			EmployeeID:   emp.ID,
			EmployeeName: emp.Name,
			Score:        eval.Score,
			Evaluation:   eval,
		})
	}

	sortRecommendations(recommendations)
	if limit > 0 && len(recommendations) > limit {
		recommendations = recommendations[:limit]
	}
	return recommendations, nil
}

// RecommendExchange 推荐双向互换的候选班次
// 在其他员工的班次中寻找可以与源班次互换的组合
func (r *Recommender) RecommendExchange(shifts []*model.GeneratedShift, shiftID uuid.UUID, limit int) ([]*Recommendation, error) {
	source := findShift(shifts, shiftID)
	if source == nil {
		return nil, errors.New(errors.CodeNotFound, "班次不存在")
	}

	var recommendations []*Recommendation
	for _, other := range shifts {
		if other.EmployeeID == source.EmployeeID {
			continue
		}
		emp := r.input.EmployeeByID(other.EmployeeID)
		if emp == nil || !emp.IsActive() {
			continue
		}

		eval := r.evaluator.Evaluate(shifts, &Request{
			SourceShift:      source,
			TargetEmployeeID: other.EmployeeID,
			TargetShift:      other,
		})
		if !eval.Feasible {
			continue
		}

		recommendations = append(recommendations, &Recommendation{
			EmployeeID:    emp.ID,
			EmployeeName:  emp.Name,
			Score:         eval.Score,
			Evaluation:    eval,
			ExchangeShift: other,
		})
	}

	sortRecommendations(recommendations)
	if limit > 0 && len(recommendations) > limit {
		recommendations = recommendations[:limit]
	}
	return recommendations, nil
}

// BestMatch 返回得分最高的接管候选人（无可行候选返回 nil）
func (r *Recommender) BestMatch(shifts []*model.GeneratedShift, shiftID uuid.UUID) (*Recommendation, error) {
	recommendations, err := r.RecommendTakeover(shifts, shiftID, 1)
	if err != nil {
		return nil, err
	}
	if len(recommendations) == 0 {
		return nil, nil
	}
	return recommendations[0], nil
}

// Apply 执行换班并返回新的班次表（不修改原表）
func (r *Recommender) Apply(shifts []*model.GeneratedShift, req *Request) ([]*model.GeneratedShift, error) {
	if ok, reason := r.evaluator.CanSwap(shifts, req); !ok {
		return nil, errors.New(errors.CodeInvalidInput, reason)
	}
	return r.evaluator.simulate(shifts, req), nil
}

func findShift(shifts []*model.GeneratedShift, id uuid.UUID) *model.GeneratedShift {
	for _, s := range shifts {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// 得分相同时按员工ID字典序保证结果稳定
func sortRecommendations(recommendations []*Recommendation) {
	sort.Slice(recommendations, func(i, j int) bool {
		if recommendations[i].Score != recommendations[j].Score {
			return recommendations[i].Score > recommendations[j].Score
		}
		return recommendations[i].EmployeeID.String() < recommendations[j].EmployeeID.String()
	})
}
