// Package model 定义月度排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// EmploymentType 用工类型（决定月度应工作时长占全职的比例）
type EmploymentType string

const (
	EmploymentFull         EmploymentType = "full"          // 全职
	EmploymentThreeQuarter EmploymentType = "three_quarter" // 3/4 工时
	EmploymentHalf         EmploymentType = "half"          // 半职
	EmploymentQuarter      EmploymentType = "quarter"       // 1/4 工时
	EmploymentEighth       EmploymentType = "eighth"        // 1/8 工时
	EmploymentCustom       EmploymentType = "custom"        // 自定义月度工时
)

// Fraction 返回用工类型对应的全职比例
func (t EmploymentType) Fraction() float64 {
	switch t {
	case EmploymentFull:
		return 1.0
	case EmploymentThreeQuarter:
		return 0.75
	case EmploymentHalf:
		return 0.5
	case EmploymentQuarter:
		return 0.25
	case EmploymentEighth:
		return 0.125
	default:
		return 1.0
	}
}

// Employee 员工（排班运行期间只读）
type Employee struct {
	BaseModel
	OrgID  uuid.UUID `json:"org_id" db:"org_id"`
	Name   string    `json:"name" db:"name"`
	Code   string    `json:"code" db:"code"`
	Status string    `json:"status" db:"status"` // active/inactive/leave

	// 用工与工时
	Employment         EmploymentType `json:"employment" db:"employment"`
	CustomMonthlyHours float64        `json:"custom_monthly_hours,omitempty" db:"custom_monthly_hours"`

	// 可承担的班次模板
	TemplateIDs []uuid.UUID `json:"template_ids" db:"template_ids"`

	// 工作偏好
	PreferredDays   []time.Weekday `json:"preferred_days,omitempty" db:"preferred_days"`
	UnavailableDays []time.Weekday `json:"unavailable_days,omitempty" db:"unavailable_days"`
	CanWorkWeekends bool           `json:"can_work_weekends" db:"can_work_weekends"`
	CanWorkHolidays bool           `json:"can_work_holidays" db:"can_work_holidays"`

	// 缺勤记录
	Absences []EmployeeAbsence `json:"absences,omitempty" db:"-"`
}

// EmployeeAbsence 员工缺勤（休假、病假等）
type EmployeeAbsence struct {
	StartDate string `json:"start_date" db:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date" db:"end_date"`     // YYYY-MM-DD（含）
	Paid      bool   `json:"paid" db:"paid"`
	Type      string `json:"type" db:"type"` // vacation/sick/personal/...
}

// Covers 检查缺勤是否覆盖某日期
func (a *EmployeeAbsence) Covers(date string) bool {
	return date >= a.StartDate && date <= a.EndDate
}

// IsActive 检查员工是否在职
func (e *Employee) IsActive() bool {
	return e.Status == "active"
}

// EligibleFor 检查员工是否可承担某班次模板
func (e *Employee) EligibleFor(templateID uuid.UUID) bool {
	for _, id := range e.TemplateIDs {
		if id == templateID {
			return true
		}
	}
	return false
}

// AbsenceOn 返回覆盖某日期的缺勤记录（无则返回 nil）
func (e *Employee) AbsenceOn(date string) *EmployeeAbsence {
	for i := range e.Absences {
		if e.Absences[i].Covers(date) {
			return &e.Absences[i]
		}
	}
	return nil
}

// PrefersWeekday 检查某星期是否为员工偏好工作日
func (e *Employee) PrefersWeekday(wd time.Weekday) bool {
	for _, d := range e.PreferredDays {
		if d == wd {
			return true
		}
	}
	return false
}

// UnavailableOn 检查员工是否在某星期不可用
func (e *Employee) UnavailableOn(wd time.Weekday) bool {
	for _, d := range e.UnavailableDays {
		if d == wd {
			return true
		}
	}
	return false
}

// MonthlyRequiredHours 计算员工的月度应工作时长
// workingDays 为当月工作日数，自定义用工直接使用指定月度工时
func (e *Employee) MonthlyRequiredHours(workingDays int) float64 {
	if e.Employment == EmploymentCustom {
		return e.CustomMonthlyHours
	}
	return float64(workingDays) * FullTimeDailyHours * e.Employment.Fraction()
}

// DailyQuotaHours 员工单个工作日的标准工时（用于缺勤扣减）
func (e *Employee) DailyQuotaHours() float64 {
	if e.Employment == EmploymentCustom {
		return FullTimeDailyHours
	}
	return FullTimeDailyHours * e.Employment.Fraction()
}

// FullTimeDailyHours 全职员工单个工作日的标准工时
const FullTimeDailyHours = 8.0
