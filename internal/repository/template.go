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

// TemplateRepository 班次模板仓储
type TemplateRepository struct {
	db DB
}

// NewTemplateRepository 创建班次模板仓储
func NewTemplateRepository(db DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create 创建班次模板
func (r *TemplateRepository) Create(ctx context.Context, tmpl *model.ShiftTemplate) error {
	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	now := time.Now()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	daysJSON, _ := json.Marshal(tmpl.ApplicableDays)
	assigneesJSON, _ := json.Marshal(tmpl.AssignedEmployeeIDs)

	query := `
		INSERT INTO shift_templates (
			id, org_id, name, label, color, start_time, end_time, break_minutes,
			min_employees, max_employees, applicable_days, assigned_employee_ids,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		tmpl.ID, tmpl.OrgID, tmpl.Name, tmpl.Label, tmpl.Color, tmpl.StartTime, tmpl.EndTime, tmpl.BreakMinutes,
		tmpl.MinEmployees, tmpl.MaxEmployees, daysJSON, assigneesJSON,
		tmpl.CreatedAt, tmpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建班次模板失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取班次模板
func (r *TemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ShiftTemplate, error) {
	query := `
		SELECT id, org_id, name, label, color, start_time, end_time, break_minutes,
			min_employees, max_employees, applicable_days, assigned_employee_ids,
			created_at, updated_at
		FROM shift_templates
		WHERE id = $1 AND deleted_at IS NULL
	`

	tmpl, err := scanTemplateFields(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return tmpl, err
}

// Update 更新班次模板
func (r *TemplateRepository) Update(ctx context.Context, tmpl *model.ShiftTemplate) error {
	tmpl.UpdatedAt = time.Now()

	daysJSON, _ := json.Marshal(tmpl.ApplicableDays)
	assigneesJSON, _ := json.Marshal(tmpl.AssignedEmployeeIDs)

	query := `
		UPDATE shift_templates SET
			name = $2, label = $3, color = $4, start_time = $5, end_time = $6,
			break_minutes = $7, min_employees = $8, max_employees = $9,
			applicable_days = $10, assigned_employee_ids = $11, updated_at = $12
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		tmpl.ID, tmpl.Name, tmpl.Label, tmpl.Color, tmpl.StartTime, tmpl.EndTime,
		tmpl.BreakMinutes, tmpl.MinEmployees, tmpl.MaxEmployees,
		daysJSON, assigneesJSON, tmpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新班次模板失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班次模板不存在")
	}

	return nil
}

// Delete 软删除班次模板
func (r *TemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE shift_templates SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除班次模板失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班次模板不存在")
	}

	return nil
}

// ListByOrg 获取组织下的全部班次模板
func (r *TemplateRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*model.ShiftTemplate, error) {
	query := `
		SELECT id, org_id, name, label, color, start_time, end_time, break_minutes,
			min_employees, max_employees, applicable_days, assigned_employee_ids,
			created_at, updated_at
		FROM shift_templates
		WHERE org_id = $1 AND deleted_at IS NULL
		ORDER BY start_time, name
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("查询班次模板失败: %w", err)
	}
	defer rows.Close()

	var templates []*model.ShiftTemplate
	for rows.Next() {
		tmpl, err := scanTemplateFields(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}

	return templates, nil
}

// ListByIDs 根据ID列表获取班次模板
func (r *TemplateRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.ShiftTemplate, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, org_id, name, label, color, start_time, end_time, break_minutes,
			min_employees, max_employees, applicable_days, assigned_employee_ids,
			created_at, updated_at
		FROM shift_templates
		WHERE id IN (%s) AND deleted_at IS NULL
	`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询班次模板失败: %w", err)
	}
	defer rows.Close()

	var templates []*model.ShiftTemplate
	for rows.Next() {
		tmpl, err := scanTemplateFields(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}

	return templates, nil
}

func scanTemplateFields(s Scanner) (*model.ShiftTemplate, error) {
	tmpl := &model.ShiftTemplate{}
	var daysJSON, assigneesJSON []byte

	err := s.Scan(
		&tmpl.ID, &tmpl.OrgID, &tmpl.Name, &tmpl.Label, &tmpl.Color,
		&tmpl.StartTime, &tmpl.EndTime, &tmpl.BreakMinutes,
		&tmpl.MinEmployees, &tmpl.MaxEmployees, &daysJSON, &assigneesJSON,
		&tmpl.CreatedAt, &tmpl.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("扫描班次模板失败: %w", err)
	}

	json.Unmarshal(daysJSON, &tmpl.ApplicableDays)
	json.Unmarshal(assigneesJSON, &tmpl.AssignedEmployeeIDs)

	return tmpl, nil
}
