// Package engine 持有一次排班运行的共享可变状态
package engine

import (
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/pkg/logger"
	"github.com/yuepai/yuepai/pkg/model"
)

// SchedulerContext 一次排班运行的共享上下文
// 各阶段借用同一个上下文，所有变更经由 ShiftManager 进行
type SchedulerContext struct {
	Input *model.SchedulerInput

	States map[uuid.UUID]*EmployeeScheduleState

	// 每日人员安排：日期 -> 班次列表
	DailyStaffing map[string][]*model.GeneratedShift
	// 每日模板人员安排：日期 -> 模板ID -> 班次列表
	DailyTemplateStaffing map[string]map[uuid.UUID][]*model.GeneratedShift

	WorkingDays []string

	workingSet       map[string]bool
	saturdaySet      map[string]bool
	tradingSundaySet map[string]bool
	holidaySet       map[string]bool

	templateMap map[uuid.UUID]*model.ShiftTemplate

	// 可注入的随机源，保证测试可复现
	Rand *rand.Rand
	Log  *logger.EngineLogger
}

// NewContext 创建新的排班上下文并计算全部派生状态
func NewContext(input *model.SchedulerInput, seed int64, log *logger.EngineLogger) *SchedulerContext {
	if log == nil {
		log = logger.NewEngineLogger()
	}

	ctx := &SchedulerContext{
		Input:                 input,
		States:                make(map[uuid.UUID]*EmployeeScheduleState),
		DailyStaffing:         make(map[string][]*model.GeneratedShift),
		DailyTemplateStaffing: make(map[string]map[uuid.UUID][]*model.GeneratedShift),
		WorkingDays:           append([]string(nil), input.WorkingDays...),
		workingSet:            toSet(input.WorkingDays),
		saturdaySet:           toSet(input.Saturdays),
		tradingSundaySet:      toSet(input.TradingSundays),
		holidaySet:            toSet(input.Holidays),
		templateMap:           make(map[uuid.UUID]*model.ShiftTemplate),
		Rand:                  rand.New(rand.NewSource(seed)),
		Log:                   log,
	}

	sort.Strings(ctx.WorkingDays)

	for _, t := range input.Templates {
		ctx.templateMap[t.ID] = t
	}

	for _, emp := range input.Employees {
		ctx.States[emp.ID] = newEmployeeState(emp, ctx)
	}

	return ctx
}

// newEmployeeState 初始化员工状态，计算缺勤扣减后的应工作时长
func newEmployeeState(emp *model.Employee, ctx *SchedulerContext) *EmployeeScheduleState {
	required := emp.MonthlyRequiredHours(len(ctx.WorkingDays))

	// 缺勤覆盖的工作日按日标准工时扣减
	for _, day := range ctx.WorkingDays {
		if emp.AbsenceOn(day) != nil {
			required -= emp.DailyQuotaHours()
		}
	}
	if required < 0 {
		required = 0
	}

	var history *model.QuarterlyHistory
	if ctx.Input.History != nil {
		history = ctx.Input.History[emp.ID]
	}

	return &EmployeeScheduleState{
		Employee:        emp,
		RequiredHours:   required,
		OccupiedDates:   make(map[string]bool),
		StartTimeCounts: make(map[string]int),
		History:         history,
	}
}

// State 获取员工状态
func (c *SchedulerContext) State(empID uuid.UUID) *EmployeeScheduleState {
	return c.States[empID]
}

// Template 获取班次模板
func (c *SchedulerContext) Template(id uuid.UUID) *model.ShiftTemplate {
	return c.templateMap[id]
}

// TemplateStaffing 获取某日期某模板的班次列表
func (c *SchedulerContext) TemplateStaffing(date string, templateID uuid.UUID) []*model.GeneratedShift {
	byTemplate := c.DailyTemplateStaffing[date]
	if byTemplate == nil {
		return nil
	}
	return byTemplate[templateID]
}

// StaffingCount 获取某日期某模板的在岗人数
func (c *SchedulerContext) StaffingCount(date string, templateID uuid.UUID) int {
	return len(c.TemplateStaffing(date, templateID))
}

// DayStaffingCount 获取某日期的总在岗人数
func (c *SchedulerContext) DayStaffingCount(date string) int {
	return len(c.DailyStaffing[date])
}

// IsWorkingDay 检查日期是否为工作日
func (c *SchedulerContext) IsWorkingDay(date string) bool {
	return c.workingSet[date]
}

// IsSaturday 检查日期是否为周六
func (c *SchedulerContext) IsSaturday(date string) bool {
	return c.saturdaySet[date]
}

// IsTradingSunday 检查日期是否为营业星期日
func (c *SchedulerContext) IsTradingSunday(date string) bool {
	return c.tradingSundaySet[date]
}

// IsHoliday 检查日期是否为节假日
func (c *SchedulerContext) IsHoliday(date string) bool {
	return c.holidaySet[date]
}

// Holidays 返回节假日集合（供纯谓词使用）
func (c *SchedulerContext) Holidays() map[string]bool {
	return c.holidaySet
}

// MaxConsecutiveDays 返回策略允许的最大连续工作天数
func (c *SchedulerContext) MaxConsecutiveDays() int {
	if c.Input.Settings.MaxConsecutiveDays > 0 {
		return c.Input.Settings.MaxConsecutiveDays
	}
	return 0 // 由规则层落到默认值
}

// OrdinaryWorkingDays 返回既非周六也非营业星期日的工作日
func (c *SchedulerContext) OrdinaryWorkingDays() []string {
	var days []string
	for _, d := range c.WorkingDays {
		if c.saturdaySet[d] || c.tradingSundaySet[d] {
			continue
		}
		days = append(days, d)
	}
	return days
}

// SaturdayWorkingDays 返回属于工作日的周六
func (c *SchedulerContext) SaturdayWorkingDays() []string {
	var days []string
	for _, d := range c.WorkingDays {
		if c.saturdaySet[d] {
			days = append(days, d)
		}
	}
	return days
}

// TradingSundayWorkingDays 返回属于工作日的营业星期日
func (c *SchedulerContext) TradingSundayWorkingDays() []string {
	var days []string
	for _, d := range c.WorkingDays {
		if c.tradingSundaySet[d] {
			days = append(days, d)
		}
	}
	return days
}

// ShuffleStrings 使用注入的随机源打乱字符串切片（Fisher-Yates）
func (c *SchedulerContext) ShuffleStrings(items []string) {
	c.Rand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// ShuffleTemplates 使用注入的随机源打乱模板切片
func (c *SchedulerContext) ShuffleTemplates(items []*model.ShiftTemplate) {
	c.Rand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// AllShifts 返回全部已生成班次（按日期、开始时间、员工排序，保证输出稳定）
func (c *SchedulerContext) AllShifts() []*model.GeneratedShift {
	var shifts []*model.GeneratedShift
	for _, st := range c.States {
		shifts = append(shifts, st.Shifts...)
	}
	sort.Slice(shifts, func(i, j int) bool {
		if shifts[i].Date != shifts[j].Date {
			return shifts[i].Date < shifts[j].Date
		}
		if shifts[i].StartTime != shifts[j].StartTime {
			return shifts[i].StartTime < shifts[j].StartTime
		}
		return shifts[i].EmployeeID.String() < shifts[j].EmployeeID.String()
	})
	return shifts
}

// SortedStates 返回按员工编号排序的状态列表（保证遍历顺序稳定）
func (c *SchedulerContext) SortedStates() []*EmployeeScheduleState {
	states := make([]*EmployeeScheduleState, 0, len(c.States))
	for _, st := range c.States {
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].Employee.ID.String() < states[j].Employee.ID.String()
	})
	return states
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
