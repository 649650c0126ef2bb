// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yuepai/yuepai/internal/config"
	"github.com/yuepai/yuepai/internal/metrics"
	"github.com/yuepai/yuepai/internal/repository"
	"github.com/yuepai/yuepai/pkg/errors"
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler"
	"github.com/yuepai/yuepai/pkg/scheduler/optimizer"
	"github.com/yuepai/yuepai/pkg/scheduler/pipeline"
	"github.com/yuepai/yuepai/pkg/validator"
)

// RosterHandler 排班表处理器
type RosterHandler struct {
	cfg     *config.SchedulerConfig
	rosters *repository.RosterRepository
}

// NewRosterHandler 创建排班表处理器
func NewRosterHandler(cfg *config.SchedulerConfig, rosters *repository.RosterRepository) *RosterHandler {
	return &RosterHandler{cfg: cfg, rosters: rosters}
}

// GenerateRequest 排班生成请求
type GenerateRequest struct {
	OrgID string                `json:"org_id,omitempty"`
	Input *model.SchedulerInput `json:"input"`

	// 运行参数（缺省取服务配置）
	Seed           int64 `json:"seed,omitempty"`
	SkipOptimizers bool  `json:"skip_optimizers,omitempty"`

	// Persist 为真时将结果写入数据库并返回 roster_id
	Persist bool `json:"persist,omitempty"`
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success    bool                    `json:"success"`
	RosterID   string                  `json:"roster_id,omitempty"`
	Shifts     []*model.GeneratedShift `json:"shifts"`
	Statistics *pipeline.Statistics    `json:"statistics"`
	Violations []validator.Violation   `json:"violations,omitempty"`
	Fitness    float64                 `json:"fitness"`
	Seed       int64                   `json:"seed"`
	Duration   string                  `json:"duration"`
}

// Generate 生成月度排班
func (h *RosterHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Input == nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "缺少排班输入快照"))
		return
	}

	opts := h.buildOptions(&req)
	result, err := scheduler.NewGenerator(opts).Generate(req.Input)
	metrics.RecordRosterGeneration(err == nil, elapsed(result))
	if err != nil {
		respondError(w, err)
		return
	}

	metrics.SetRosterFitness(req.OrgID, result.Fitness)
	metrics.SetFillRate(req.OrgID, result.Statistics.FillRate)

	// 生成结果始终复核一遍硬约束，违规清单随响应返回
	violations := validator.NewAuditor(req.Input.Settings.MaxConsecutiveDays).Audit(req.Input, result.Shifts)

	resp := GenerateResponse{
		Success:    true,
		Shifts:     result.Shifts,
		Statistics: result.Statistics,
		Violations: violations,
		Fitness:    result.Fitness,
		Seed:       result.Seed,
		Duration:   result.Duration.String(),
	}

	if req.Persist {
		rosterID, err := h.persist(r, &req, result)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存排班表失败"))
			return
		}
		resp.RosterID = rosterID.String()
	}

	respondJSON(w, http.StatusOK, resp)
}

// buildOptions 合并请求参数与服务配置
func (h *RosterHandler) buildOptions(req *GenerateRequest) *scheduler.Options {
	opts := scheduler.DefaultOptions()
	opts.Seed = h.cfg.Seed
	if req.Seed != 0 {
		opts.Seed = req.Seed
	}
	opts.SkipOptimizers = h.cfg.SkipOptimizers || req.SkipOptimizers
	opts.LocalSearch = &optimizer.LocalSearchConfig{MaxIterations: h.cfg.LocalSearchIterations}

	genetic := optimizer.DefaultGeneticConfig()
	genetic.PopulationSize = h.cfg.GAPopulation
	genetic.Generations = h.cfg.GAGenerations
	genetic.Workers = h.cfg.GAWorkers
	opts.Genetic = genetic

	return opts
}

// errNoDatabase 数据库未配置时持久化类操作统一返回
func errNoDatabase() error {
	return errors.New(errors.CodeDatabaseError, "数据库未配置，无法执行该操作")
}

// persist 保存排班结果
func (h *RosterHandler) persist(r *http.Request, req *GenerateRequest, result *scheduler.Result) (uuid.UUID, error) {
	if h.rosters == nil {
		return uuid.Nil, errNoDatabase()
	}
	orgID := uuid.Nil
	if req.OrgID != "" {
		parsed, err := uuid.Parse(req.OrgID)
		if err != nil {
			return uuid.Nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式")
		}
		orgID = parsed
	}

	roster := &repository.Roster{
		OrgID:         orgID,
		Year:          req.Input.Year,
		Month:         req.Input.Month,
		Status:        "draft",
		Seed:          result.Seed,
		Fitness:       result.Fitness,
		TotalShifts:   result.Statistics.TotalShifts,
		TotalSlots:    result.Statistics.TotalSlots,
		UnfilledSlots: len(result.Statistics.UnfilledSlots),
		FillRate:      result.Statistics.FillRate,
		GeneratedAt:   time.Now(),
	}

	ctx := r.Context()
	if err := h.rosters.Create(ctx, roster); err != nil {
		return uuid.Nil, err
	}
	if err := h.rosters.SaveShifts(ctx, roster.ID, result.Shifts); err != nil {
		return uuid.Nil, err
	}
	return roster.ID, nil
}

// Get 获取排班表及其班次
func (h *RosterHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.rosters == nil {
		respondError(w, errNoDatabase())
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的排班表ID"))
		return
	}

	roster, err := h.rosters.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询排班表失败"))
		return
	}
	if roster == nil {
		respondError(w, errors.New(errors.CodeNotFound, "排班表不存在"))
		return
	}

	shifts, err := h.rosters.GetShifts(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询排班班次失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"roster": roster,
		"shifts": shifts,
	})
}

// List 列出排班表
func (h *RosterHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.rosters == nil {
		respondError(w, errNoDatabase())
		return
	}
	filter := repository.DefaultListFilter()
	q := r.URL.Query()

	if orgID := q.Get("org_id"); orgID != "" {
		parsed, err := uuid.Parse(orgID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
			return
		}
		filter = filter.WithOrgID(parsed)
	}
	if status := q.Get("status"); status != "" {
		filter = filter.WithStatus(status)
	}

	rosters, total, err := h.rosters.List(r.Context(), filter)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询排班表列表失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rosters": rosters,
		"total":   total,
	})
}

// Publish 发布排班表
func (h *RosterHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if h.rosters == nil {
		respondError(w, errNoDatabase())
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的排班表ID"))
		return
	}

	if err := h.rosters.UpdateStatus(r.Context(), id, "published"); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "发布排班表失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// AuditRequest 排班审计请求
type AuditRequest struct {
	Input  *model.SchedulerInput   `json:"input"`
	Shifts []*model.GeneratedShift `json:"shifts"`
}

// Audit 审计一份排班方案的硬约束
func (h *RosterHandler) Audit(w http.ResponseWriter, r *http.Request) {
	var req AuditRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Input == nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "缺少排班输入快照"))
		return
	}

	violations := validator.NewAuditor(req.Input.Settings.MaxConsecutiveDays).Audit(req.Input, req.Shifts)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"valid":      len(violations) == 0,
		"violations": violations,
	})
}

func elapsed(result *scheduler.Result) time.Duration {
	if result == nil {
		return 0
	}
	return result.Duration
}
