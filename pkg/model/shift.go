// Package model 定义月度排班引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// GeneratedShift 排班输出的最小单元
type GeneratedShift struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	EmployeeID   uuid.UUID  `json:"employee_id" db:"employee_id"`
	Date         string     `json:"date" db:"date"`             // YYYY-MM-DD
	StartTime    string     `json:"start_time" db:"start_time"` // HH:MM
	EndTime      string     `json:"end_time" db:"end_time"`     // HH:MM
	BreakMinutes int        `json:"break_minutes" db:"break_minutes"`
	TemplateID   *uuid.UUID `json:"template_id,omitempty" db:"template_id"`
}

// Hours 返回班次净时长（小时，扣除休息时间）
func (s *GeneratedShift) Hours() float64 {
	start, end := ShiftInterval(s.Date, s.StartTime, s.EndTime)
	return end.Sub(start).Hours() - float64(s.BreakMinutes)/60.0
}

// Period 返回班次所属班段
func (s *GeneratedShift) Period() ShiftPeriod {
	return PeriodOfStartTime(s.StartTime)
}

// Clone 深拷贝班次
func (s *GeneratedShift) Clone() *GeneratedShift {
	c := *s
	if s.TemplateID != nil {
		id := *s.TemplateID
		c.TemplateID = &id
	}
	return &c
}

// CloneShifts 深拷贝班次列表
func CloneShifts(shifts []*GeneratedShift) []*GeneratedShift {
	out := make([]*GeneratedShift, len(shifts))
	for i, s := range shifts {
		out[i] = s.Clone()
	}
	return out
}
