// Package config 提供配置管理
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Database  DatabaseConfig  `envPrefix:"DB_"`
	API       APIConfig       `envPrefix:"API_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	Scheduler SchedulerConfig `envPrefix:"SCHEDULER_"`
	Metrics   MetricsConfig   `envPrefix:"METRICS_"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `env:"NAME" envDefault:"yuepai"`
	Env      string `env:"ENV" envDefault:"development"`
	Port     int    `env:"PORT" envDefault:"7012"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	Name            string        `env:"NAME" envDefault:"yuepai"`
	User            string        `env:"USER" envDefault:"yuepai"`
	Password        string        `env:"PASSWORD" envDefault:"yuepai123"`
	SSLMode         string        `env:"SSL_MODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	Timeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	RequestBodyMax int64         `env:"REQUEST_BODY_MAX" envDefault:"4194304"` // 4MB
	CORSEnabled    bool          `env:"CORS_ENABLED" envDefault:"true"`
}

// AuthConfig 认证配置
// 启用后所有业务端点要求API密钥，StaticKey 为部署时下发的预共享密钥
type AuthConfig struct {
	Enabled    bool          `env:"ENABLED" envDefault:"false"`
	StaticKey  string        `env:"STATIC_KEY"`
	RateLimit  int           `env:"RATE_LIMIT" envDefault:"120"`
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
}

// SchedulerConfig 排班引擎配置
type SchedulerConfig struct {
	// Seed 固定随机种子，0 表示每次运行取当前时间
	Seed int64 `env:"SEED" envDefault:"0"`

	// LocalSearchIterations 局部搜索迭代预算
	LocalSearchIterations int `env:"LOCAL_SEARCH_ITERATIONS" envDefault:"200"`

	// 遗传优化参数
	GAPopulation  int `env:"GA_POPULATION" envDefault:"20"`
	GAGenerations int `env:"GA_GENERATIONS" envDefault:"60"`
	GAWorkers     int `env:"GA_WORKERS" envDefault:"4"`

	// SkipOptimizers 只跑贪心流水线（调试用）
	SkipOptimizers bool `env:"SKIP_OPTIMIZERS" envDefault:"false"`

	Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("解析环境变量配置失败: %w", err)
	}
	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}
