package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"graphsink/internal/dlq"
	"graphsink/internal/loader"
	"graphsink/internal/strategy"
)

type Neo4j struct {
	URI                  string `yaml:"uri"`
	Username             string `yaml:"username"`
	Password             string `yaml:"password"`
	Database             string `yaml:"database"`
	MaxConnectionPool    int    `yaml:"max_connections"`
	ConnectTimeoutSecond int    `yaml:"connect_timeout_second"`
}

type HTTP struct {
	Listen string `yaml:"listen"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Retry struct {
	Attempts       int `yaml:"attempts"`
	BackoffSeconds int `yaml:"backoff_seconds"`
}

// Sink 描述策略选择以及缓冲、分批、调度参数。
type Sink struct {
	strategy.Config `yaml:",inline"`

	BatchSize     int    `yaml:"batch_size"`
	BufferSize    int    `yaml:"buffer_size"`
	FlushCron     string `yaml:"flush_cron"`
	StatsCron     string `yaml:"stats_cron"`
	EnsureIndexes bool   `yaml:"ensure_indexes"`
	Retry         Retry  `yaml:"retry"`
	// MaxFlushAttempts 是同一批次的 flush 次数上限，超过后转入死信。
	MaxFlushAttempts int `yaml:"max_flush_attempts"`
}

type Config struct {
	Neo4j Neo4j      `yaml:"neo4j"`
	HTTP  HTTP       `yaml:"http"`
	Log   Log        `yaml:"log"`
	Sink  Sink       `yaml:"sink"`
	DLQ   dlq.Config `yaml:"dlq"`
}

// 默认值。
const (
	DefaultListen     = ":8080"
	DefaultBatchSize  = 1000
	DefaultBufferSize = 10000
	DefaultFlushCron  = "@every 5s"
	DefaultStatsCron  = "@hourly"

	DefaultMaxFlushAttempts = 5
)

// LoadConfig 从文件加载配置，补全默认值并校验。
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig 解析 YAML 配置，补全默认值并校验。
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyDefaults 为未填写的字段设置默认值。
func (c *Config) ApplyDefaults() {
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = DefaultListen
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Sink.Strategy == "" {
		c.Sink.Strategy = strategy.KindCUD
	}
	if c.Sink.BatchSize <= 0 {
		c.Sink.BatchSize = DefaultBatchSize
	}
	if c.Sink.BufferSize <= 0 {
		c.Sink.BufferSize = DefaultBufferSize
	}
	if strings.TrimSpace(c.Sink.FlushCron) == "" {
		c.Sink.FlushCron = DefaultFlushCron
	}
	if strings.TrimSpace(c.Sink.StatsCron) == "" {
		c.Sink.StatsCron = DefaultStatsCron
	}
	if c.Sink.MaxFlushAttempts <= 0 {
		c.Sink.MaxFlushAttempts = DefaultMaxFlushAttempts
	}
	if c.Sink.Retry.Attempts <= 0 {
		c.Sink.Retry.Attempts = 3
	}
	if c.Sink.Retry.BackoffSeconds <= 0 {
		c.Sink.Retry.BackoffSeconds = 1
	}
}

// Validate 校验策略配置与 cron 表达式；pattern 在这里即被解析。
func (c Config) Validate() error {
	if _, err := strategy.FromConfig(c.Sink.Config); err != nil {
		return fmt.Errorf("invalid sink config: %w", err)
	}
	for name, spec := range map[string]string{"flush_cron": c.Sink.FlushCron, "stats_cron": c.Sink.StatsCron} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid sink.%s %q: %w", name, spec, err)
		}
	}
	return nil
}

// LoaderConfig 转换为 loader 的连接参数。
func (c Config) LoaderConfig() loader.Config {
	return loader.Config{
		URI:                  c.Neo4j.URI,
		Username:             c.Neo4j.Username,
		Password:             c.Neo4j.Password,
		Database:             c.Neo4j.Database,
		MaxConnectionPool:    c.Neo4j.MaxConnectionPool,
		ConnectionTimeoutSec: c.Neo4j.ConnectTimeoutSecond,
	}
}

// DLQEnabled 判断是否配置了死信存储。
func (c Config) DLQEnabled() bool {
	return c.DLQ.InMemory || c.DLQ.Dir != ""
}
