// Package model 定义月度排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// 日期与时间的统一格式
const (
	DateLayout = "2006-01-02" // YYYY-MM-DD
	TimeLayout = "15:04"      // HH:MM
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ShiftPeriod 班段类型（按开始时间划分）
type ShiftPeriod string

const (
	PeriodMorning   ShiftPeriod = "morning"   // 早班（开始时间 < 12:00）
	PeriodAfternoon ShiftPeriod = "afternoon" // 午班（12:00 <= 开始时间 < 18:00）
	PeriodEvening   ShiftPeriod = "evening"   // 晚班（开始时间 >= 18:00）
)

// PeriodOfStartTime 根据开始时间判断班段
func PeriodOfStartTime(startTime string) ShiftPeriod {
	t, err := time.Parse(TimeLayout, startTime)
	if err != nil {
		return PeriodMorning
	}
	switch {
	case t.Hour() < 12:
		return PeriodMorning
	case t.Hour() < 18:
		return PeriodAfternoon
	default:
		return PeriodEvening
	}
}

// ParseDate 解析日期字符串
func ParseDate(date string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// WeekdayOfDate 返回日期对应的星期
func WeekdayOfDate(date string) time.Weekday {
	t, ok := ParseDate(date)
	if !ok {
		return time.Monday
	}
	return t.Weekday()
}

// IsWeekendDate 检查日期是否为周末（周六或周日）
func IsWeekendDate(date string) bool {
	wd := WeekdayOfDate(date)
	return wd == time.Saturday || wd == time.Sunday
}

// NextDate 获取后一天日期
func NextDate(date string) string {
	t, ok := ParseDate(date)
	if !ok {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(DateLayout)
}

// PreviousDate 获取前一天日期
func PreviousDate(date string) string {
	t, ok := ParseDate(date)
	if !ok {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}

// ShiftInterval 将 (日期, 开始时间, 结束时间) 展开为绝对时间区间
// 结束时间早于等于开始时间视为跨日班次，结束时间顺延到次日
func ShiftInterval(date, startTime, endTime string) (time.Time, time.Time) {
	day, _ := ParseDate(date)
	st, _ := time.Parse(TimeLayout, startTime)
	et, _ := time.Parse(TimeLayout, endTime)

	start := time.Date(day.Year(), day.Month(), day.Day(), st.Hour(), st.Minute(), 0, 0, time.UTC)
	end := time.Date(day.Year(), day.Month(), day.Day(), et.Hour(), et.Minute(), 0, 0, time.UTC)
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return start, end
}
