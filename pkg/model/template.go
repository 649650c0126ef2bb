// Package model 定义月度排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// ShiftTemplate 班次模板
type ShiftTemplate struct {
	BaseModel
	OrgID uuid.UUID `json:"org_id" db:"org_id"`
	Name  string    `json:"name" db:"name"`
	Label string    `json:"label,omitempty" db:"label"`
	Color string    `json:"color,omitempty" db:"color"`

	StartTime    string `json:"start_time" db:"start_time"` // HH:MM
	EndTime      string `json:"end_time" db:"end_time"`     // HH:MM（早于开始时间表示跨日）
	BreakMinutes int    `json:"break_minutes" db:"break_minutes"`

	// 每日人数边界
	MinEmployees int `json:"min_employees" db:"min_employees"`
	MaxEmployees int `json:"max_employees" db:"max_employees"`

	// 适用星期（空表示每天适用）
	ApplicableDays []time.Weekday `json:"applicable_days,omitempty" db:"applicable_days"`

	// 显式指定的专属员工（专人班次）
	AssignedEmployeeIDs []uuid.UUID `json:"assigned_employee_ids,omitempty" db:"assigned_employee_ids"`
}

// DurationHours 返回班次净时长（小时，扣除休息时间，跨日班次自动顺延）
func (t *ShiftTemplate) DurationHours() float64 {
	start, end := ShiftInterval("2000-01-01", t.StartTime, t.EndTime)
	return end.Sub(start).Hours() - float64(t.BreakMinutes)/60.0
}

// AppliesOn 检查模板是否适用于某星期
func (t *ShiftTemplate) AppliesOn(wd time.Weekday) bool {
	if len(t.ApplicableDays) == 0 {
		return true
	}
	for _, d := range t.ApplicableDays {
		if d == wd {
			return true
		}
	}
	return false
}

// Period 返回模板的班段类型
func (t *ShiftTemplate) Period() ShiftPeriod {
	return PeriodOfStartTime(t.StartTime)
}

// IsAssignedTo 检查员工是否在模板的专属员工列表中
func (t *ShiftTemplate) IsAssignedTo(empID uuid.UUID) bool {
	for _, id := range t.AssignedEmployeeIDs {
		if id == empID {
			return true
		}
	}
	return false
}

// HasAssignees 检查模板是否存在专属员工列表
func (t *ShiftTemplate) HasAssignees() bool {
	return len(t.AssignedEmployeeIDs) > 0
}
