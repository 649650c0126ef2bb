// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/model"
)

// Roster 一次排班运行的持久化记录
type Roster struct {
	ID    uuid.UUID `json:"id"`
	OrgID uuid.UUID `json:"org_id"`
	Year  int       `json:"year"`
	Month int       `json:"month"`

	Status string `json:"status"` // draft/published/archived

	// 生成参数与结果摘要
	Seed          int64   `json:"seed"`
	Fitness       float64 `json:"fitness"`
	TotalShifts   int     `json:"total_shifts"`
	TotalSlots    int     `json:"total_slots"`
	UnfilledSlots int     `json:"unfilled_slots"`
	FillRate      float64 `json:"fill_rate"`

	Metadata map[string]any `json:"metadata,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RosterRepository 排班表仓储
type RosterRepository struct {
	db DB
}

// NewRosterRepository 创建排班表仓储
func NewRosterRepository(db DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// Create 创建排班表记录（不含班次行，班次由 SaveShifts 批量写入）
func (r *RosterRepository) Create(ctx context.Context, roster *Roster) error {
	if roster.ID == uuid.Nil {
		roster.ID = uuid.New()
	}
	now := time.Now()
	roster.CreatedAt = now
	roster.UpdatedAt = now
	if roster.Status == "" {
		roster.Status = "draft"
	}

	metadataJSON, _ := json.Marshal(roster.Metadata)

	query := `
		INSERT INTO rosters (
			id, org_id, year, month, status, seed, fitness,
			total_shifts, total_slots, unfilled_slots, fill_rate,
			metadata, generated_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		roster.ID, roster.OrgID, roster.Year, roster.Month, roster.Status, roster.Seed, roster.Fitness,
		roster.TotalShifts, roster.TotalSlots, roster.UnfilledSlots, roster.FillRate,
		metadataJSON, roster.GeneratedAt, roster.CreatedAt, roster.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建排班表失败: %w", err)
	}

	return nil
}

// SaveShifts 批量写入排班班次
func (r *RosterRepository) SaveShifts(ctx context.Context, rosterID uuid.UUID, shifts []*model.GeneratedShift) error {
	query := `
		INSERT INTO roster_shifts (
			id, roster_id, employee_id, template_id, date, start_time, end_time, break_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, s := range shifts {
		id := s.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err := r.db.ExecContext(ctx, query,
			id, rosterID, s.EmployeeID, s.TemplateID, s.Date, s.StartTime, s.EndTime, s.BreakMinutes,
		)
		if err != nil {
			return fmt.Errorf("写入排班班次失败: %w", err)
		}
	}

	return nil
}

// GetByID 根据ID获取排班表
func (r *RosterRepository) GetByID(ctx context.Context, id uuid.UUID) (*Roster, error) {
	query := rosterSelect + ` WHERE id = $1`

	roster, err := scanRosterFields(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return roster, err
}

// GetLatest 获取组织某月最近一次生成的排班表
func (r *RosterRepository) GetLatest(ctx context.Context, orgID uuid.UUID, year, month int) (*Roster, error) {
	query := rosterSelect + `
		WHERE org_id = $1 AND year = $2 AND month = $3
		ORDER BY generated_at DESC
		LIMIT 1
	`

	roster, err := scanRosterFields(r.db.QueryRowContext(ctx, query, orgID, year, month))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return roster, err
}

// GetShifts 获取排班表的全部班次
func (r *RosterRepository) GetShifts(ctx context.Context, rosterID uuid.UUID) ([]*model.GeneratedShift, error) {
	query := `
		SELECT id, employee_id, template_id, date, start_time, end_time, break_minutes
		FROM roster_shifts
		WHERE roster_id = $1
		ORDER BY date, start_time, employee_id
	`

	rows, err := r.db.QueryContext(ctx, query, rosterID)
	if err != nil {
		return nil, fmt.Errorf("查询排班班次失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.GeneratedShift
	for rows.Next() {
		s := &model.GeneratedShift{}
		if err := rows.Scan(
			&s.ID, &s.EmployeeID, &s.TemplateID, &s.Date, &s.StartTime, &s.EndTime, &s.BreakMinutes,
		); err != nil {
			return nil, fmt.Errorf("扫描排班班次失败: %w", err)
		}
		shifts = append(shifts, s)
	}

	return shifts, nil
}

// GetEmployeeShifts 获取员工在日期范围内的班次
func (r *RosterRepository) GetEmployeeShifts(ctx context.Context, employeeID uuid.UUID, startDate, endDate string) ([]*model.GeneratedShift, error) {
	query := `
		SELECT rs.id, rs.employee_id, rs.template_id, rs.date, rs.start_time, rs.end_time, rs.break_minutes
		FROM roster_shifts rs
		JOIN rosters r ON r.id = rs.roster_id
		WHERE rs.employee_id = $1 AND rs.date >= $2 AND rs.date <= $3 AND r.status = 'published'
		ORDER BY rs.date, rs.start_time
	`

	rows, err := r.db.QueryContext(ctx, query, employeeID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询员工班次失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.GeneratedShift
	for rows.Next() {
		s := &model.GeneratedShift{}
		if err := rows.Scan(
			&s.ID, &s.EmployeeID, &s.TemplateID, &s.Date, &s.StartTime, &s.EndTime, &s.BreakMinutes,
		); err != nil {
			return nil, fmt.Errorf("扫描排班班次失败: %w", err)
		}
		shifts = append(shifts, s)
	}

	return shifts, nil
}

// UpdateStatus 更新排班表状态
// 发布排班表时会归档同组织同月的其他已发布排班表
func (r *RosterRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if status == "published" {
		archive := `
			UPDATE rosters SET status = 'archived', updated_at = $2
			WHERE status = 'published'
			  AND org_id = (SELECT org_id FROM rosters WHERE id = $1)
			  AND year = (SELECT year FROM rosters WHERE id = $1)
			  AND month = (SELECT month FROM rosters WHERE id = $1)
		`
		if _, err := r.db.ExecContext(ctx, archive, id, time.Now()); err != nil {
			return fmt.Errorf("归档旧排班表失败: %w", err)
		}
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE rosters SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("更新排班表状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("排班表不存在")
	}

	return nil
}

// Delete 删除排班表及其班次
func (r *RosterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM roster_shifts WHERE roster_id = $1`, id); err != nil {
		return fmt.Errorf("删除排班班次失败: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rosters WHERE id = $1`, id); err != nil {
		return fmt.Errorf("删除排班表失败: %w", err)
	}
	return nil
}

// List 列出排班表
func (r *RosterRepository) List(ctx context.Context, filter ListFilter) ([]*Roster, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.OrgID != nil {
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", argIndex))
		args = append(args, *filter.OrgID)
		argIndex++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", argIndex))
		args = append(args, filter.Year)
		argIndex++
	}

	if filter.Month != 0 {
		conditions = append(conditions, fmt.Sprintf("month = $%d", argIndex))
		args = append(args, filter.Month)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM rosters %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计排班表数量失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`%s %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		rosterSelect, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询排班表列表失败: %w", err)
	}
	defer rows.Close()

	var rosters []*Roster
	for rows.Next() {
		roster, err := scanRosterFields(rows)
		if err != nil {
			return nil, 0, err
		}
		rosters = append(rosters, roster)
	}

	return rosters, total, nil
}

const rosterSelect = `
	SELECT id, org_id, year, month, status, seed, fitness,
		total_shifts, total_slots, unfilled_slots, fill_rate,
		metadata, generated_at, created_at, updated_at
	FROM rosters
`

func scanRosterFields(s Scanner) (*Roster, error) {
	roster := &Roster{}
	var metadataJSON []byte

	err := s.Scan(
		&roster.ID, &roster.OrgID, &roster.Year, &roster.Month, &roster.Status, &roster.Seed, &roster.Fitness,
		&roster.TotalShifts, &roster.TotalSlots, &roster.UnfilledSlots, &roster.FillRate,
		&metadataJSON, &roster.GeneratedAt, &roster.CreatedAt, &roster.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("扫描排班表失败: %w", err)
	}

	if len(metadataJSON) > 0 {
		json.Unmarshal(metadataJSON, &roster.Metadata)
	}

	return roster, nil
}
