// Package model 定义月度排班引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// OrgSettings 组织级排班设置
type OrgSettings struct {
	OpeningTime        string `json:"opening_time,omitempty"` // HH:MM
	ClosingTime        string `json:"closing_time,omitempty"` // HH:MM
	DefaultMinStaffing int    `json:"default_min_staffing"`
	MaxConsecutiveDays int    `json:"max_consecutive_days"` // 0 表示使用默认策略值
}

// QuarterlyHistory 季度历史基线（用于更长周期的公平性）
type QuarterlyHistory struct {
	ShiftCount   int                 `json:"shift_count"`
	Hours        float64             `json:"hours"`
	PeriodCounts map[ShiftPeriod]int `json:"period_counts,omitempty"`
}

// SchedulerInput 一次排班运行的完整输入快照
// 由外部的持久化/界面层准备，引擎本身不做任何 I/O
type SchedulerInput struct {
	Year  int `json:"year" validate:"required,min=2000,max=2100"`
	Month int `json:"month" validate:"required,min=1,max=12"`

	Employees []*Employee      `json:"employees" validate:"required,min=1"`
	Templates []*ShiftTemplate `json:"templates" validate:"required,min=1"`
	Settings  OrgSettings      `json:"settings"`

	// 预计算的日历（均为 YYYY-MM-DD）
	Holidays       []string `json:"holidays,omitempty"`
	WorkingDays    []string `json:"working_days" validate:"required,min=1"`
	Saturdays      []string `json:"saturdays,omitempty"`
	TradingSundays []string `json:"trading_sundays,omitempty"` // 允许营业的星期日

	// 季度历史（可选）
	History map[uuid.UUID]*QuarterlyHistory `json:"history,omitempty"`
}

// TemplateByID 按 ID 查找模板
func (in *SchedulerInput) TemplateByID(id uuid.UUID) *ShiftTemplate {
	for _, t := range in.Templates {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// EmployeeByID 按 ID 查找员工
func (in *SchedulerInput) EmployeeByID(id uuid.UUID) *Employee {
	for _, e := range in.Employees {
		if e.ID == id {
			return e
		}
	}
	return nil
}
