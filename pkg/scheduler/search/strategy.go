// Package search 在员工中搜索可以合法且合意地承担班次的候选
package search

// Strategy 候选搜索的松弛档位
// 四个档位共用同一套硬约束检查，仅工时上限不同，
// 连续天数上限在任何档位下都沿用排班配置值，
// 避免引擎排出审计会拒绝的班次
type Strategy struct {
	Name string

	// HoursFactor/HoursExtra 组合出工时上限：required*factor + extra
	HoursFactor float64
	HoursExtra  float64

	// AbsoluteCeiling 月度工时的绝对安全上限（0 表示不限制）
	AbsoluteCeiling float64

	// Randomize 严格档位在最高分候选中随机抽取，其余档位确定性排序
	Randomize bool
}

// 月度工时的绝对安全上限
const absoluteMonthlyCeiling = 200.0

// 松弛档位（按升级顺序排列）
var (
	// Strict 严格：工时不超过应工作时长 + 0.5 小时
	Strict = Strategy{
		Name:        "strict",
		HoursFactor: 1.0,
		HoursExtra:  0.5,
		Randomize:   true,
	}

	// RelaxedHours 放宽工时：上限提高到应工作时长的1.5倍，受绝对上限约束
	RelaxedHours = Strategy{
		Name:            "relaxed_hours",
		HoursFactor:     1.5,
		AbsoluteCeiling: absoluteMonthlyCeiling,
	}

	// Desperate 竭力：加班上限为应工作时长 + 8 小时
	Desperate = Strategy{
		Name:        "desperate",
		HoursFactor: 1.0,
		HoursExtra:  8,
	}

	// EmergencyOvertime 紧急加班：仅在可用员工不超过2人时使用，
	// 加班上限提高到应工作时长 + 16 小时，其余硬约束不放宽
	EmergencyOvertime = Strategy{
		Name:        "emergency_overtime",
		HoursFactor: 1.0,
		HoursExtra:  16,
	}
)

// HoursCeiling 计算该档位下的工时上限
func (s Strategy) HoursCeiling(required float64) float64 {
	ceiling := required*s.HoursFactor + s.HoursExtra
	if s.AbsoluteCeiling > 0 && ceiling > s.AbsoluteCeiling {
		ceiling = s.AbsoluteCeiling
	}
	return ceiling
}
