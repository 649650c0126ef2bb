package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/errors"
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/swap"
)

// SwapHandler 换班处理器
type SwapHandler struct{}

// NewSwapHandler 创建换班处理器
func NewSwapHandler() *SwapHandler {
	return &SwapHandler{}
}

// RecommendRequest 换班推荐请求
type RecommendRequest struct {
	Input   *model.SchedulerInput   `json:"input"`
	Shifts  []*model.GeneratedShift `json:"shifts"`
	ShiftID uuid.UUID               `json:"shift_id"`
	Mode    string                  `json:"mode,omitempty"` // takeover（默认）/exchange
	Limit   int                     `json:"limit,omitempty"`
}

// Recommend 推荐换班候选人
func (h *SwapHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Input == nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "缺少排班输入快照"))
		return
	}

	recommender := swap.NewRecommender(req.Input)

	var (
		recs []*swap.Recommendation
		err  error
	)
	switch req.Mode {
	case "", "takeover":
		recs, err = recommender.RecommendTakeover(req.Shifts, req.ShiftID, req.Limit)
	case "exchange":
		recs, err = recommender.RecommendExchange(req.Shifts, req.ShiftID, req.Limit)
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "无效的推荐模式"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"recommendations": recs,
	})
}

// EvaluateRequest 换班评估请求
type EvaluateRequest struct {
	Input  *model.SchedulerInput   `json:"input"`
	Shifts []*model.GeneratedShift `json:"shifts"`
	Swap   *swap.Request           `json:"swap"`
}

// Evaluate 评估一次换班
func (h *SwapHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Input == nil || req.Swap == nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "缺少排班输入快照或换班请求"))
		return
	}

	eval := swap.NewEvaluator(req.Input).Evaluate(req.Shifts, req.Swap)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"evaluation": eval,
	})
}
