// Package validator 对完整排班结果做硬约束审计
// 审计独立于引擎内部状态，只依赖输入与生成的班次列表，
// 可用于引擎自检、优化器合法性复核以及对外接口的结果校验
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/rules"
)

// ViolationType 违规类型
type ViolationType string

const (
	ViolationDoubleBooking ViolationType = "double_booking" // 同日多班
	ViolationDailyRest     ViolationType = "daily_rest"     // 日休息不足11小时
	ViolationWeeklyRest    ViolationType = "weekly_rest"    // 周休息不足35小时
	ViolationConsecutive   ViolationType = "consecutive"    // 连续工作天数超限
	ViolationWeeklyHours   ViolationType = "weekly_hours"   // 周工时超过48小时
	ViolationOverStaffed   ViolationType = "over_staffed"   // 槽位超过最高人数
	ViolationAbsenceClash  ViolationType = "absence_clash"  // 缺勤日被排班
)

// Violation 单条违规记录
type Violation struct {
	Type       ViolationType `json:"type"`
	EmployeeID uuid.UUID     `json:"employeeId,omitempty"`
	Date       string        `json:"date"`
	Message    string        `json:"message"`
}

// Auditor 排班审计器
type Auditor struct {
	maxConsecutiveDays int
}

// NewAuditor 创建审计器（maxConsecutiveDays 为0时使用规则默认值）
func NewAuditor(maxConsecutiveDays int) *Auditor {
	if maxConsecutiveDays <= 0 {
		maxConsecutiveDays = rules.DefaultMaxConsecutiveDays
	}
	// 即便策略配置更宽也不突破绝对上限
	if maxConsecutiveDays > rules.AbsoluteConsecutiveCap {
		maxConsecutiveDays = rules.AbsoluteConsecutiveCap
	}
	return &Auditor{maxConsecutiveDays: maxConsecutiveDays}
}

// Audit 审计完整班次集合，返回全部违规（空切片表示合法）
func (a *Auditor) Audit(input *model.SchedulerInput, shifts []*model.GeneratedShift) []Violation {
	var violations []Violation

	byEmployee := make(map[uuid.UUID][]*model.GeneratedShift)
	for _, s := range shifts {
		byEmployee[s.EmployeeID] = append(byEmployee[s.EmployeeID], s)
	}

	for _, emp := range input.Employees {
		violations = append(violations, a.auditEmployee(emp, byEmployee[emp.ID])...)
	}
	violations = append(violations, a.auditStaffing(input, shifts)...)
	return violations
}

// auditEmployee 审计单个员工的全部班次
func (a *Auditor) auditEmployee(emp *model.Employee, shifts []*model.GeneratedShift) []Violation {
	if len(shifts) == 0 {
		return nil
	}

	sorted := append([]*model.GeneratedShift(nil), shifts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	var violations []Violation
	violations = append(violations, a.checkDoubleBooking(emp, sorted)...)
	violations = append(violations, a.checkAbsences(emp, sorted)...)
	violations = append(violations, a.checkDailyRest(emp, sorted)...)
	violations = append(violations, a.checkWeeklyRest(emp, sorted)...)
	violations = append(violations, a.checkConsecutive(emp, sorted)...)
	violations = append(violations, a.checkWeeklyHours(emp, sorted)...)
	return violations
}

// checkDoubleBooking 同一天不允许出现两个班次
func (a *Auditor) checkDoubleBooking(emp *model.Employee, sorted []*model.GeneratedShift) []Violation {
	var violations []Violation
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date == sorted[i-1].Date {
			violations = append(violations, Violation{
				Type:       ViolationDoubleBooking,
				EmployeeID: emp.ID,
				Date:       sorted[i].Date,
				Message:    fmt.Sprintf("%s 在 %s 被安排了多个班次", emp.Name, sorted[i].Date),
			})
		}
	}
	return violations
}

// checkAbsences 缺勤覆盖的日期不允许排班
func (a *Auditor) checkAbsences(emp *model.Employee, sorted []*model.GeneratedShift) []Violation {
	var violations []Violation
	for _, s := range sorted {
		if emp.AbsenceOn(s.Date) != nil {
			violations = append(violations, Violation{
				Type:       ViolationAbsenceClash,
				EmployeeID: emp.ID,
				Date:       s.Date,
				Message:    fmt.Sprintf("%s 在缺勤日 %s 被排班", emp.Name, s.Date),
			})
		}
	}
	return violations
}

// checkDailyRest 相邻日历日的班次间休息不得少于11小时
func (a *Auditor) checkDailyRest(emp *model.Employee, sorted []*model.GeneratedShift) []Violation {
	var violations []Violation
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if model.NextDate(prev.Date) != cur.Date {
			continue
		}
		_, prevEnd := model.ShiftInterval(prev.Date, prev.StartTime, prev.EndTime)
		curStart, _ := model.ShiftInterval(cur.Date, cur.StartTime, cur.EndTime)
		rest := curStart.Sub(prevEnd).Hours()
		if rest > 0 && rest < rules.MinDailyRestHours {
			violations = append(violations, Violation{
				Type:       ViolationDailyRest,
				EmployeeID: emp.ID,
				Date:       cur.Date,
				Message:    fmt.Sprintf("%s 在 %s 前仅休息 %.1f 小时", emp.Name, cur.Date, rest),
			})
		}
	}
	return violations
}

// checkWeeklyRest 每个自然周（周一起算）必须存在至少35小时的连续休息
func (a *Auditor) checkWeeklyRest(emp *model.Employee, sorted []*model.GeneratedShift) []Violation {
	byWeek := make(map[string][]*model.GeneratedShift)
	for _, s := range sorted {
		week := rules.WeekStart(s.Date).Format(model.DateLayout)
		byWeek[week] = append(byWeek[week], s)
	}

	var violations []Violation
	for week, weekShifts := range byWeek {
		weekStart := rules.WeekStart(week)
		weekEnd := weekStart.AddDate(0, 0, 7)

		longest := 0.0
		cursor := weekStart
		for _, s := range weekShifts {
			start, end := model.ShiftInterval(s.Date, s.StartTime, s.EndTime)
			if gap := start.Sub(cursor).Hours(); gap > longest {
				longest = gap
			}
			if end.After(cursor) {
				cursor = end
			}
		}
		if gap := weekEnd.Sub(cursor).Hours(); gap > longest {
			longest = gap
		}

		if longest < rules.MinWeeklyRestHours {
			violations = append(violations, Violation{
				Type:       ViolationWeeklyRest,
				EmployeeID: emp.ID,
				Date:       week,
				Message:    fmt.Sprintf("%s 在 %s 起的一周内最长休息仅 %.1f 小时", emp.Name, week, longest),
			})
		}
	}
	return violations
}

// checkConsecutive 连续工作天数不得超过上限
func (a *Auditor) checkConsecutive(emp *model.Employee, sorted []*model.GeneratedShift) []Violation {
	var violations []Violation
	run := 1
	for i := 1; i < len(sorted); i++ {
		if model.NextDate(sorted[i-1].Date) == sorted[i].Date {
			run++
			if run == a.maxConsecutiveDays+1 {
				violations = append(violations, Violation{
					Type:       ViolationConsecutive,
					EmployeeID: emp.ID,
					Date:       sorted[i].Date,
					Message:    fmt.Sprintf("%s 截至 %s 已连续工作 %d 天", emp.Name, sorted[i].Date, run),
				})
			}
		} else if sorted[i].Date != sorted[i-1].Date {
			run = 1
		}
	}
	return violations
}

// checkWeeklyHours 每个自然周的总工时不得超过48小时
func (a *Auditor) checkWeeklyHours(emp *model.Employee, sorted []*model.GeneratedShift) []Violation {
	hoursByWeek := make(map[string]float64)
	for _, s := range sorted {
		week := rules.WeekStart(s.Date).Format(model.DateLayout)
		hoursByWeek[week] += s.Hours()
	}

	var violations []Violation
	for week, hours := range hoursByWeek {
		if hours > rules.MaxWeeklyHours {
			violations = append(violations, Violation{
				Type:       ViolationWeeklyHours,
				EmployeeID: emp.ID,
				Date:       week,
				Message:    fmt.Sprintf("%s 在 %s 起的一周工时达 %.1f 小时", emp.Name, week, hours),
			})
		}
	}
	return violations
}

// auditStaffing 每个 (日期, 模板) 槽位的人数不得超过最高人数
func (a *Auditor) auditStaffing(input *model.SchedulerInput, shifts []*model.GeneratedShift) []Violation {
	counts := make(map[string]map[uuid.UUID]int)
	for _, s := range shifts {
		if s.TemplateID == nil {
			continue
		}
		if counts[s.Date] == nil {
			counts[s.Date] = make(map[uuid.UUID]int)
		}
		counts[s.Date][*s.TemplateID]++
	}

	var violations []Violation
	for date, byTemplate := range counts {
		for tmplID, count := range byTemplate {
			tmpl := input.TemplateByID(tmplID)
			if tmpl == nil || tmpl.MaxEmployees <= 0 {
				continue
			}
			if count > tmpl.MaxEmployees {
				violations = append(violations, Violation{
					Type:    ViolationOverStaffed,
					Date:    date,
					Message: fmt.Sprintf("%s 的模板 %s 安排了 %d 人，上限 %d", date, tmpl.Name, count, tmpl.MaxEmployees),
				})
			}
		}
	}
	return violations
}
