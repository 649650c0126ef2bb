// Package rules 提供劳动法规硬约束的纯谓词实现
// 所有函数无隐藏状态，只依赖显式传入的参数，供候选搜索与优化阶段复用
package rules

import (
	"sort"
	"time"

	"github.com/yuepai/yuepai/pkg/model"
)

// 劳动法规常量
const (
	MinDailyRestHours  = 11.0 // 相邻日班次之间的最小休息时长
	MinWeeklyRestHours = 35.0 // 每个自然周（周一至周日）内至少一次的连续休息时长
	MaxWeeklyHours     = 48.0 // 法定周工时上限（含加班）

	DefaultMaxConsecutiveDays = 6 // 默认最大连续工作天数
	AbsoluteConsecutiveCap    = 7 // 紧急模式下也不可突破的连续工作天数硬上限
)

// CanWorkOnDate 检查员工在某日期是否可以工作
// 缺勤覆盖、星期不可用、不接受周末/节假日工作均返回 false
func CanWorkOnDate(emp *model.Employee, date string, holidays map[string]bool) bool {
	if emp.AbsenceOn(date) != nil {
		return false
	}

	wd := model.WeekdayOfDate(date)
	if emp.UnavailableOn(wd) {
		return false
	}

	if (wd == time.Saturday || wd == time.Sunday) && !emp.CanWorkWeekends {
		return false
	}

	if holidays[date] && !emp.CanWorkHolidays {
		return false
	}

	return true
}

// CheckDailyRest 检查新班次与相邻日已有班次之间的休息时长
// 对每个相邻日班次计算较早结束到较晚开始的间隔，间隔落在 (0, 11) 小时内则失败
func CheckDailyRest(existing []*model.GeneratedShift, date string, tmpl *model.ShiftTemplate) bool {
	newStart, newEnd := model.ShiftInterval(date, tmpl.StartTime, tmpl.EndTime)

	for _, s := range existing {
		if !isAdjacentDate(s.Date, date) {
			continue
		}

		start, end := model.ShiftInterval(s.Date, s.StartTime, s.EndTime)

		var rest float64
		if start.Before(newStart) {
			rest = newStart.Sub(end).Hours()
		} else {
			rest = start.Sub(newEnd).Hours()
		}

		if rest > 0 && rest < MinDailyRestHours {
			return false
		}
	}

	return true
}

// CheckWeeklyRest 检查加入新班次后，该自然周内是否仍存在 >= 35 小时的连续休息
// 计算周起点到首个班次、班次间、末个班次到周终点的最大间隔
func CheckWeeklyRest(existing []*model.GeneratedShift, date string, tmpl *model.ShiftTemplate) bool {
	weekStart := WeekStart(date)
	weekEnd := weekStart.AddDate(0, 0, 7)

	type interval struct{ start, end time.Time }
	var intervals []interval

	for _, s := range existing {
		if WeekStart(s.Date) != weekStart {
			continue
		}
		st, et := model.ShiftInterval(s.Date, s.StartTime, s.EndTime)
		intervals = append(intervals, interval{st, et})
	}

	st, et := model.ShiftInterval(date, tmpl.StartTime, tmpl.EndTime)
	intervals = append(intervals, interval{st, et})

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start.Before(intervals[j].start)
	})

	weekStartTime := weekStart
	maxGap := intervals[0].start.Sub(weekStartTime).Hours()

	lastEnd := intervals[0].end
	for _, iv := range intervals[1:] {
		if gap := iv.start.Sub(lastEnd).Hours(); gap > maxGap {
			maxGap = gap
		}
		if iv.end.After(lastEnd) {
			lastEnd = iv.end
		}
	}

	if gap := weekEnd.Sub(lastEnd).Hours(); gap > maxGap {
		maxGap = gap
	}

	return maxGap >= MinWeeklyRestHours
}

// CheckConsecutiveDays 检查加入新日期后的连续工作天数是否超限
// 从新日期向前后两个方向统计已占用日期
func CheckConsecutiveDays(occupied map[string]bool, date string, limit int) bool {
	if limit <= 0 {
		limit = DefaultMaxConsecutiveDays
	}

	count := 1

	d := model.PreviousDate(date)
	for occupied[d] {
		count++
		d = model.PreviousDate(d)
		if count > 31 {
			break
		}
	}

	d = model.NextDate(date)
	for occupied[d] {
		count++
		d = model.NextDate(d)
		if count > 31 {
			break
		}
	}

	return count <= limit
}

// CheckWeeklyLimit 检查加入新班次后，该自然周的总工时是否超过法定上限
func CheckWeeklyLimit(existing []*model.GeneratedShift, date string, newHours float64) bool {
	weekStart := WeekStart(date)

	total := newHours
	for _, s := range existing {
		if WeekStart(s.Date) == weekStart {
			total += s.Hours()
		}
	}

	return total <= MaxWeeklyHours
}

// WeekStart 返回日期所在自然周的周一零点
func WeekStart(date string) time.Time {
	t, ok := model.ParseDate(date)
	if !ok {
		return time.Time{}
	}
	offset := (int(t.Weekday()) + 6) % 7 // 周一为0
	day := t.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// isAdjacentDate 检查两个日期是否为相邻自然日
func isAdjacentDate(a, b string) bool {
	return model.NextDate(a) == b || model.NextDate(b) == a
}
