// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/yuepai/yuepai/internal/metrics"
	"github.com/yuepai/yuepai/pkg/errors"
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/stats"
)

// StatsHandler 统计分析处理器
type StatsHandler struct {
	fairness *stats.FairnessAnalyzer
	coverage *stats.CoverageAnalyzer
}

// NewStatsHandler 创建统计分析处理器
func NewStatsHandler() *StatsHandler {
	return &StatsHandler{
		fairness: stats.NewFairnessAnalyzer(),
		coverage: stats.NewCoverageAnalyzer(),
	}
}

// StatsRequest 统计分析请求
type StatsRequest struct {
	OrgID  string                  `json:"org_id,omitempty"`
	Input  *model.SchedulerInput   `json:"input"`
	Shifts []*model.GeneratedShift `json:"shifts"`
}

// Fairness 公平性分析
func (h *StatsHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Input == nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "缺少排班输入快照"))
		return
	}

	required := make(map[string]float64, len(req.Input.Employees))
	for _, e := range req.Input.Employees {
		required[e.ID.String()] = e.MonthlyRequiredHours(len(req.Input.WorkingDays))
	}

	m := h.fairness.Analyze(req.Shifts, req.Input.Employees, required)
	metrics.SetFairnessGini(req.OrgID, "workload", m.WorkloadGini)
	metrics.SetFairnessGini(req.OrgID, "weekend", m.WeekendShiftGini)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    m,
	})
}

// Coverage 覆盖率分析
func (h *StatsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Input == nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "缺少排班输入快照"))
		return
	}

	m := h.coverage.Analyze(req.Input, req.Shifts)
	metrics.SetFillRate(req.OrgID, m.CoverageRate)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    m,
	})
}
