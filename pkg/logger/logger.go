// Package logger 提供统一的日志框架
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Level 日志级别
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化日志器
func Init(cfg Config) {
	once.Do(func() {
		level := parseLevel(cfg.Level)
		zerolog.SetGlobalLevel(level)

		var output io.Writer
		switch cfg.Output {
		case "stderr":
			output = os.Stderr
		case "file":
			if cfg.FilePath != "" {
				f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err == nil {
					output = f
				} else {
					output = os.Stdout
				}
			} else {
				output = os.Stdout
			}
		default:
			output = os.Stdout
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{
				Out:        output,
				TimeFormat: cfg.TimeFormat,
			}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

// parseLevel 解析日志级别
func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器（未显式 Init 时按默认配置初始化）
func Get() *zerolog.Logger {
	Init(DefaultConfig())
	return &logger
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// Fatal 记录致命错误日志
func Fatal() *zerolog.Event {
	return Get().Fatal()
}

// WithError 添加错误信息
func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

// EngineLogger 排班引擎专用日志器
// 引擎通过注入的实例输出结构化进度信息，算法正确性不依赖日志
type EngineLogger struct {
	base *zerolog.Logger
}

// NewEngineLogger 创建排班引擎日志器
func NewEngineLogger() *EngineLogger {
	l := Get().With().Str("component", "engine").Logger()
	return &EngineLogger{base: &l}
}

// NewEngineLoggerWith 基于自定义日志器创建（测试中用于捕获日志事件）
func NewEngineLoggerWith(l zerolog.Logger) *EngineLogger {
	scoped := l.With().Str("component", "engine").Logger()
	return &EngineLogger{base: &scoped}
}

// StartRun 记录排班运行开始
func (l *EngineLogger) StartRun(year, month, employees, templates, workingDays int) {
	l.base.Info().
		Int("year", year).
		Int("month", month).
		Int("employees", employees).
		Int("templates", templates).
		Int("working_days", workingDays).
		Msg("开始生成月度排班")
}

// Phase 记录阶段开始
func (l *EngineLogger) Phase(number int, name string) {
	l.base.Info().
		Int("phase", number).
		Str("name", name).
		Msg("进入排班阶段")
}

// SlotFilled 记录某个班次槽位的填充决策
func (l *EngineLogger) SlotFilled(date, template, employee, strategy string) {
	l.base.Debug().
		Str("date", date).
		Str("template", template).
		Str("employee", employee).
		Str("strategy", strategy).
		Msg("槽位已填充")
}

// SlotUnfilled 记录无法填满的槽位（预期内的常见结果）
func (l *EngineLogger) SlotUnfilled(date, template string, staffed, min int) {
	l.base.Warn().
		Str("date", date).
		Str("template", template).
		Int("staffed", staffed).
		Int("min", min).
		Msg("槽位未达到最低人数")
}

// SlotCritical 记录严重缺员（所有可承担员工均缺勤）
func (l *EngineLogger) SlotCritical(date, template string) {
	l.base.Error().
		Str("date", date).
		Str("template", template).
		Str("severity", "critical").
		Msg("槽位所有可承担员工均不可用")
}

// PhaseResult 记录阶段结果
func (l *EngineLogger) PhaseResult(number int, moves int) {
	l.base.Info().
		Int("phase", number).
		Int("moves", moves).
		Msg("排班阶段完成")
}

// RunComplete 记录排班运行完成
func (l *EngineLogger) RunComplete(shifts int, duration time.Duration, fitness float64) {
	l.base.Info().
		Int("shifts", shifts).
		Dur("duration", duration).
		Float64("fitness", fitness).
		Msg("排班生成完成")
}

// OptimizerImproved 记录优化器改进
func (l *EngineLogger) OptimizerImproved(optimizer string, iteration int, objective float64) {
	l.base.Debug().
		Str("optimizer", optimizer).
		Int("iteration", iteration).
		Float64("objective", objective).
		Msg("发现更优解")
}
