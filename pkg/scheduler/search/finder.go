// Package search 在员工中搜索可以合法且合意地承担班次的候选
package search

import (
	"sort"

	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler/engine"
	"github.com/yuepai/yuepai/pkg/scheduler/rules"
	"github.com/yuepai/yuepai/pkg/scheduler/score"
)

// Finder 候选搜索器
type Finder struct {
	ctx    *engine.SchedulerContext
	scorer *score.Scorer
}

// NewFinder 创建候选搜索器
func NewFinder(ctx *engine.SchedulerContext) *Finder {
	return &Finder{
		ctx:    ctx,
		scorer: score.NewScorer(ctx),
	}
}

// CanTake 检查员工在指定档位下能否合法承担 (日期, 模板)
func (f *Finder) CanTake(st *engine.EmployeeScheduleState, date string, tmpl *model.ShiftTemplate, strat Strategy) bool {
	emp := st.Employee

	if !emp.IsActive() || !emp.EligibleFor(tmpl.ID) {
		return false
	}
	if !tmpl.AppliesOn(model.WeekdayOfDate(date)) {
		return false
	}
	if st.OccupiedDates[date] {
		return false
	}
	if !rules.CanWorkOnDate(emp, date, f.ctx.Holidays()) {
		return false
	}
	if tmpl.MaxEmployees > 0 && f.ctx.StaffingCount(date, tmpl.ID) >= tmpl.MaxEmployees {
		return false
	}

	hours := tmpl.DurationHours()
	if st.CurrentHours+hours > strat.HoursCeiling(st.RequiredHours) {
		return false
	}

	// 连续天数上限不随档位松弛，始终与结果审计使用同一配置值
	limit := f.ctx.MaxConsecutiveDays()
	if limit > rules.AbsoluteConsecutiveCap {
		limit = rules.AbsoluteConsecutiveCap
	}

	if !rules.CheckConsecutiveDays(st.OccupiedDates, date, limit) {
		return false
	}
	if !rules.CheckDailyRest(st.Shifts, date, tmpl) {
		return false
	}
	if !rules.CheckWeeklyRest(st.Shifts, date, tmpl) {
		return false
	}
	if !rules.CheckWeeklyLimit(st.Shifts, date, hours) {
		return false
	}

	return true
}

// FindCandidate 按指定档位搜索候选员工（无候选返回 nil，属预期结果）
func (f *Finder) FindCandidate(date string, tmpl *model.ShiftTemplate, strat Strategy) *engine.EmployeeScheduleState {
	var candidates []*engine.EmployeeScheduleState
	for _, st := range f.ctx.SortedStates() {
		if f.CanTake(st, date, tmpl, strat) {
			candidates = append(candidates, st)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	if strat.Randomize {
		return f.pickByScore(candidates, date, tmpl)
	}
	return f.pickDeterministic(candidates, tmpl)
}

// pickByScore 严格档位的选择：
// 评分后保留最高的若干候选，剔除与最高分差距过大者，再均匀随机抽取。
// 随机抽取避免单个“最佳”员工垄断靠前的槽位
func (f *Finder) pickByScore(candidates []*engine.EmployeeScheduleState, date string, tmpl *model.ShiftTemplate) *engine.EmployeeScheduleState {
	type scored struct {
		st *engine.EmployeeScheduleState
		sc float64
	}

	scoredCandidates := make([]scored, len(candidates))
	for i, st := range candidates {
		scoredCandidates[i] = scored{st, f.scorer.Score(st, date, tmpl, candidates)}
	}
	sort.SliceStable(scoredCandidates, func(i, j int) bool {
		return scoredCandidates[i].sc > scoredCandidates[j].sc
	})

	top := scoredCandidates
	if len(top) > score.TopCandidates {
		top = top[:score.TopCandidates]
	}

	best := top[0].sc
	cut := len(top)
	for i, c := range top {
		if best-c.sc > score.ScoreGap {
			cut = i
			break
		}
	}
	top = top[:cut]

	return top[f.ctx.Rand.Intn(len(top))].st
}

// pickDeterministic 非严格档位的选择：
// 按加班量、周末负担、班段负担、完成率、班次数依次升序，取第一个。
// 偏好候选耗尽后确定性选择便于排查
func (f *Finder) pickDeterministic(candidates []*engine.EmployeeScheduleState, tmpl *model.ShiftTemplate) *engine.EmployeeScheduleState {
	hours := tmpl.DurationHours()
	period := tmpl.Period()

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if oa, ob := a.Overtime(hours), b.Overtime(hours); oa != ob {
			return oa < ob
		}
		if a.WeekendShifts != b.WeekendShifts {
			return a.WeekendShifts < b.WeekendShifts
		}
		if pa, pb := a.PeriodCount(period), b.PeriodCount(period); pa != pb {
			return pa < pb
		}
		if ca, cb := a.PlanCompletion(), b.PlanCompletion(); ca != cb {
			return ca < cb
		}
		return len(a.Shifts) < len(b.Shifts)
	})

	return candidates[0]
}

// CountAvailableEmployeesForDay 统计某日期某模板的可用员工数
// 返回 -1 表示模板不适用于该星期（与“零候选”区分，避免误报），
// 返回 0 表示全部可承担员工当日缺勤（继续升级搜索档位没有意义）
func (f *Finder) CountAvailableEmployeesForDay(date string, tmpl *model.ShiftTemplate) int {
	if !tmpl.AppliesOn(model.WeekdayOfDate(date)) {
		return -1
	}

	eligible := 0
	available := 0
	for _, st := range f.ctx.States {
		if !st.Employee.IsActive() || !st.Employee.EligibleFor(tmpl.ID) {
			continue
		}
		eligible++
		if st.Employee.AbsenceOn(date) == nil {
			available++
		}
	}

	if eligible > 0 && available == 0 {
		return 0
	}
	return available
}

// FindWithEscalation 依次尝试松弛档位直至找到候选
// 可用员工不超过2人时跳到紧急加班档位，否则使用竭力档位
func (f *Finder) FindWithEscalation(date string, tmpl *model.ShiftTemplate) (*engine.EmployeeScheduleState, Strategy) {
	if st := f.FindCandidate(date, tmpl, Strict); st != nil {
		return st, Strict
	}
	if st := f.FindCandidate(date, tmpl, RelaxedHours); st != nil {
		return st, RelaxedHours
	}

	available := f.CountAvailableEmployeesForDay(date, tmpl)
	if available <= 0 {
		return nil, Strict
	}

	if available <= 2 {
		if st := f.FindCandidate(date, tmpl, EmergencyOvertime); st != nil {
			return st, EmergencyOvertime
		}
		return nil, EmergencyOvertime
	}

	if st := f.FindCandidate(date, tmpl, Desperate); st != nil {
		return st, Desperate
	}
	return nil, Desperate
}
