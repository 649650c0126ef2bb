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

// EmployeeRepository 员工仓储
type EmployeeRepository struct {
	db DB
}

// NewEmployeeRepository 创建员工仓储
func NewEmployeeRepository(db DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create 创建员工
func (r *EmployeeRepository) Create(ctx context.Context, emp *model.Employee) error {
	if emp.ID == uuid.Nil {
		emp.ID = uuid.New()
	}
	now := time.Now()
	emp.CreatedAt = now
	emp.UpdatedAt = now

	templatesJSON, _ := json.Marshal(emp.TemplateIDs)
	preferredJSON, _ := json.Marshal(emp.PreferredDays)
	unavailableJSON, _ := json.Marshal(emp.UnavailableDays)

	query := `
		INSERT INTO employees (
			id, org_id, name, code, status, employment, custom_monthly_hours,
			template_ids, preferred_days, unavailable_days,
			can_work_weekends, can_work_holidays, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.OrgID, emp.Name, emp.Code, emp.Status, emp.Employment, emp.CustomMonthlyHours,
		templatesJSON, preferredJSON, unavailableJSON,
		emp.CanWorkWeekends, emp.CanWorkHolidays, emp.CreatedAt, emp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建员工失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取员工（含缺勤记录）
func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	query := `
		SELECT id, org_id, name, code, status, employment, custom_monthly_hours,
			template_ids, preferred_days, unavailable_days,
			can_work_weekends, can_work_holidays, created_at, updated_at
		FROM employees
		WHERE id = $1 AND deleted_at IS NULL
	`

	emp, err := r.scanEmployee(r.db.QueryRowContext(ctx, query, id))
	if err != nil || emp == nil {
		return emp, err
	}
	if err := r.loadAbsences(ctx, []*model.Employee{emp}); err != nil {
		return nil, err
	}
	return emp, nil
}

// Update 更新员工
func (r *EmployeeRepository) Update(ctx context.Context, emp *model.Employee) error {
	emp.UpdatedAt = time.Now()

	templatesJSON, _ := json.Marshal(emp.TemplateIDs)
	preferredJSON, _ := json.Marshal(emp.PreferredDays)
	unavailableJSON, _ := json.Marshal(emp.UnavailableDays)

	query := `
		UPDATE employees SET
			name = $2, code = $3, status = $4, employment = $5, custom_monthly_hours = $6,
			template_ids = $7, preferred_days = $8, unavailable_days = $9,
			can_work_weekends = $10, can_work_holidays = $11, updated_at = $12
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Code, emp.Status, emp.Employment, emp.CustomMonthlyHours,
		templatesJSON, preferredJSON, unavailableJSON,
		emp.CanWorkWeekends, emp.CanWorkHolidays, emp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新员工失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("员工不存在")
	}

	return nil
}

// Delete 软删除员工
func (r *EmployeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE employees SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除员工失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("员工不存在")
	}

	return nil
}

// List 查询员工列表
func (r *EmployeeRepository) List(ctx context.Context, filter ListFilter) ([]*model.Employee, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

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

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM employees WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`
		SELECT id, org_id, name, code, status, employment, custom_monthly_hours,
			template_ids, preferred_days, unavailable_days,
			can_work_weekends, can_work_holidays, created_at, updated_at
		FROM employees
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var employees []*model.Employee
	for rows.Next() {
		emp, err := r.scanEmployeeRow(rows)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, emp)
	}

	return employees, total, nil
}

// ListActive 获取组织下所有在职员工（含指定月份范围内的缺勤）
func (r *EmployeeRepository) ListActive(ctx context.Context, orgID uuid.UUID) ([]*model.Employee, error) {
	filter := DefaultListFilter().WithOrgID(orgID).WithStatus("active").WithLimit(10000)
	employees, _, err := r.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := r.loadAbsences(ctx, employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// AddAbsence 登记员工缺勤
func (r *EmployeeRepository) AddAbsence(ctx context.Context, employeeID uuid.UUID, absence model.EmployeeAbsence) error {
	query := `
		INSERT INTO employee_absences (id, employee_id, start_date, end_date, paid, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		uuid.New(), employeeID, absence.StartDate, absence.EndDate, absence.Paid, absence.Type, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("登记缺勤失败: %w", err)
	}
	return nil
}

// loadAbsences 批量加载员工缺勤记录
func (r *EmployeeRepository) loadAbsences(ctx context.Context, employees []*model.Employee) error {
	if len(employees) == 0 {
		return nil
	}

	placeholders := make([]string, len(employees))
	args := make([]interface{}, len(employees))
	index := make(map[uuid.UUID]*model.Employee, len(employees))
	for i, emp := range employees {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = emp.ID
		index[emp.ID] = emp
	}

	query := fmt.Sprintf(`
		SELECT employee_id, start_date, end_date, paid, type
		FROM employee_absences
		WHERE employee_id IN (%s)
		ORDER BY start_date
	`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("查询缺勤记录失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var empID uuid.UUID
		var a model.EmployeeAbsence
		if err := rows.Scan(&empID, &a.StartDate, &a.EndDate, &a.Paid, &a.Type); err != nil {
			return fmt.Errorf("扫描缺勤记录失败: %w", err)
		}
		if emp := index[empID]; emp != nil {
			emp.Absences = append(emp.Absences, a)
		}
	}

	return nil
}

// scanEmployee 扫描单行员工数据
func (r *EmployeeRepository) scanEmployee(row *sql.Row) (*model.Employee, error) {
	emp, err := scanEmployeeFields(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return emp, err
}

// scanEmployeeRow 扫描Rows中的员工数据
func (r *EmployeeRepository) scanEmployeeRow(rows *sql.Rows) (*model.Employee, error) {
	return scanEmployeeFields(rows)
}

func scanEmployeeFields(s Scanner) (*model.Employee, error) {
	emp := &model.Employee{}
	var templatesJSON, preferredJSON, unavailableJSON []byte

	err := s.Scan(
		&emp.ID, &emp.OrgID, &emp.Name, &emp.Code, &emp.Status, &emp.Employment, &emp.CustomMonthlyHours,
		&templatesJSON, &preferredJSON, &unavailableJSON,
		&emp.CanWorkWeekends, &emp.CanWorkHolidays, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("扫描员工数据失败: %w", err)
	}

	json.Unmarshal(templatesJSON, &emp.TemplateIDs)
	json.Unmarshal(preferredJSON, &emp.PreferredDays)
	json.Unmarshal(unavailableJSON, &emp.UnavailableDays)

	return emp, nil
}
