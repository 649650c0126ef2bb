package rules

import (
	"testing"
	"time"

	"github.com/yuepai/yuepai/pkg/model"
)

func shift(date, start, end string) *model.GeneratedShift {
	return &model.GeneratedShift{Date: date, StartTime: start, EndTime: end}
}

func TestCanWorkOnDate(t *testing.T) {
	holidays := map[string]bool{"2025-03-21": true}

	tests := []struct {
		name string
		emp  *model.Employee
		date string
		want bool
	}{
		{
			name: "普通工作日可工作",
			emp:  &model.Employee{CanWorkWeekends: true, CanWorkHolidays: true},
			date: "2025-03-10", // 周一
			want: true,
		},
		{
			name: "缺勤覆盖日期不可工作",
			emp: &model.Employee{
				Absences: []model.EmployeeAbsence{{StartDate: "2025-03-10", EndDate: "2025-03-12"}},
			},
			date: "2025-03-11",
			want: false,
		},
		{
			name: "不可用星期不可工作",
			emp:  &model.Employee{UnavailableDays: []time.Weekday{time.Wednesday}},
			date: "2025-03-12", // 周三
			want: false,
		},
		{
			name: "不接受周末工作",
			emp:  &model.Employee{CanWorkWeekends: false},
			date: "2025-03-15", // 周六
			want: false,
		},
		{
			name: "接受周末工作",
			emp:  &model.Employee{CanWorkWeekends: true},
			date: "2025-03-15",
			want: true,
		},
		{
			name: "不接受节假日工作",
			emp:  &model.Employee{CanWorkHolidays: false},
			date: "2025-03-21",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanWorkOnDate(tt.emp, tt.date, holidays); got != tt.want {
				t.Errorf("CanWorkOnDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckDailyRest(t *testing.T) {
	day := &model.ShiftTemplate{StartTime: "08:00", EndTime: "16:00"}
	night := &model.ShiftTemplate{StartTime: "22:00", EndTime: "06:00"}

	tests := []struct {
		name     string
		existing []*model.GeneratedShift
		date     string
		tmpl     *model.ShiftTemplate
		want     bool
	}{
		{
			name:     "无已有班次",
			existing: nil,
			date:     "2025-03-11",
			tmpl:     day,
			want:     true,
		},
		{
			name:     "前一天白班后休息16小时",
			existing: []*model.GeneratedShift{shift("2025-03-10", "08:00", "16:00")},
			date:     "2025-03-11",
			tmpl:     day,
			want:     true,
		},
		{
			name:     "前一天晚班结束到次日早班只有9小时",
			existing: []*model.GeneratedShift{shift("2025-03-10", "15:00", "23:00")},
			date:     "2025-03-11",
			tmpl:     day,
			want:     false,
		},
		{
			name:     "前一天跨日夜班结束到当天夜班有16小时",
			existing: []*model.GeneratedShift{shift("2025-03-10", "22:00", "06:00")},
			date:     "2025-03-11",
			tmpl:     night,
			want:     true,
		},
		{
			name:     "跨日夜班结束到次日白班只有2小时",
			existing: []*model.GeneratedShift{shift("2025-03-10", "22:00", "06:00")},
			date:     "2025-03-11",
			tmpl:     day,
			want:     false,
		},
		{
			name:     "非相邻日不检查",
			existing: []*model.GeneratedShift{shift("2025-03-08", "22:00", "06:00")},
			date:     "2025-03-11",
			tmpl:     day,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckDailyRest(tt.existing, tt.date, tt.tmpl); got != tt.want {
				t.Errorf("CheckDailyRest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckWeeklyRest(t *testing.T) {
	day := &model.ShiftTemplate{StartTime: "08:00", EndTime: "16:00"}

	// 周一到周五每天白班：周五16:00到周日24:00有56小时休息
	var weekdays []*model.GeneratedShift
	for d := 10; d <= 14; d++ { // 2025-03-10 为周一
		weekdays = append(weekdays, shift(time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC).Format(model.DateLayout), "08:00", "16:00"))
	}

	if !CheckWeeklyRest(weekdays[:4], "2025-03-14", day) {
		t.Error("周一到周五白班应满足35小时周休息")
	}

	// 周一到周六每天白班：最大间隔为周六16:00到周日24:00 = 32小时，不满足
	sixDays := append(append([]*model.GeneratedShift{}, weekdays...), shift("2025-03-15", "08:00", "16:00"))
	if CheckWeeklyRest(sixDays, "2025-03-16", day) {
		t.Error("连续七天白班不应满足35小时周休息")
	}

	// 空周，只加一个班次
	if !CheckWeeklyRest(nil, "2025-03-12", day) {
		t.Error("单个班次必然满足周休息")
	}
}

func TestCheckConsecutiveDays(t *testing.T) {
	occupied := map[string]bool{
		"2025-03-10": true,
		"2025-03-11": true,
		"2025-03-12": true,
		"2025-03-14": true,
		"2025-03-15": true,
	}

	tests := []struct {
		name  string
		date  string
		limit int
		want  bool
	}{
		{"填补空档形成6连续天等于上限", "2025-03-13", 6, true},
		{"填补空档形成6连续天超过上限5", "2025-03-13", 5, false},
		{"向后延伸形成3连续天", "2025-03-16", 6, true},
		{"孤立日期", "2025-03-20", 6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckConsecutiveDays(occupied, tt.date, tt.limit); got != tt.want {
				t.Errorf("CheckConsecutiveDays(%s, %d) = %v, want %v", tt.date, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCheckWeeklyLimit(t *testing.T) {
	// 周一到周五每天8小时 = 40小时
	var existing []*model.GeneratedShift
	for d := 10; d <= 14; d++ {
		existing = append(existing, shift(time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC).Format(model.DateLayout), "08:00", "16:00"))
	}

	if !CheckWeeklyLimit(existing, "2025-03-15", 8) {
		t.Error("40+8=48小时应恰好满足周工时上限")
	}
	if CheckWeeklyLimit(existing, "2025-03-15", 8.5) {
		t.Error("40+8.5=48.5小时应超过周工时上限")
	}
	// 下一周不受本周工时影响
	if !CheckWeeklyLimit(existing, "2025-03-17", 12) {
		t.Error("跨周班次不应计入本周工时")
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2025-03-10", "2025-03-10"}, // 周一
		{"2025-03-12", "2025-03-10"}, // 周三
		{"2025-03-16", "2025-03-10"}, // 周日
		{"2025-03-17", "2025-03-17"}, // 下周一
	}

	for _, tt := range tests {
		if got := WeekStart(tt.date).Format(model.DateLayout); got != tt.want {
			t.Errorf("WeekStart(%s) = %s, want %s", tt.date, got, tt.want)
		}
	}
}
