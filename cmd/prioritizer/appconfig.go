package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// AppConfig 是命令行与服务的配置，来源优先级：命令行参数 > 环境变量 > 配置文件 > 默认值。
type AppConfig struct {
	Addr    string `yaml:"addr"`
	Actions string `yaml:"actions"`
	Cities  string `yaml:"cities"`

	Comparator map[string]any `yaml:"comparator"`
	// CacheComparisons 为 true 时缓存比较结果（有 Redis 时写入 Redis，否则在内存中）
	CacheComparisons bool           `yaml:"cache_comparisons"`
	Explain          map[string]any `yaml:"explain"`

	Rank   RankSection   `yaml:"rank"`
	Redis  RedisSection  `yaml:"redis"`
	Feast  FeastSection  `yaml:"feast"`
	Server ServerSection `yaml:"server"`
}

type RankSection struct {
	TopK               int           `yaml:"top_k"`
	Languages          []string      `yaml:"languages"`
	BulkConcurrency    int           `yaml:"bulk_concurrency"`
	CityTimeout        time.Duration `yaml:"city_timeout"`
	ExplainConcurrency int           `yaml:"explain_concurrency"`
}

type RedisSection struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type FeastSection struct {
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	Project   string            `yaml:"project"`
	EntityKey string            `yaml:"entity_key"`
	Token     string            `yaml:"token"`
	TLS       bool              `yaml:"tls"`
	Timeout   time.Duration     `yaml:"timeout"`
	Mapping   map[string]string `yaml:"mapping"`
	CacheSize int               `yaml:"cache_size"`
	CacheTTL  time.Duration     `yaml:"cache_ttl"`
}

type ServerSection struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBulkCities  int           `yaml:"max_bulk_cities"`
	TaskTTL        time.Duration `yaml:"task_ttl"`
}

// DefaultAppConfig 返回默认配置。
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Addr:       ":8080",
		Actions:    "data/actions.json",
		Comparator: map[string]any{"type": "linear"},
		Redis:      RedisSection{KeyPrefix: "prioritizer:"},
		Feast: FeastSection{
			Port:      6566,
			EntityKey: "locode",
			CacheSize: 1024,
			CacheTTL:  10 * time.Minute,
		},
		Server: ServerSection{
			RequestTimeout: 2 * time.Minute,
			MaxBulkCities:  500,
			TaskTTL:        24 * time.Hour,
		},
	}
}

// LoadAppConfig 读取配置文件（path 为空时跳过）并应用 PRIORITIZER_* 环境变量。
func LoadAppConfig(path string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() error {
	setString(&c.Addr, "PRIORITIZER_ADDR")
	setString(&c.Actions, "PRIORITIZER_ACTIONS")
	setString(&c.Cities, "PRIORITIZER_CITIES")
	setString(&c.Redis.Addr, "PRIORITIZER_REDIS_ADDR")
	setString(&c.Redis.Password, "PRIORITIZER_REDIS_PASSWORD")
	setString(&c.Feast.Host, "PRIORITIZER_FEAST_HOST")
	setString(&c.Feast.Project, "PRIORITIZER_FEAST_PROJECT")
	setString(&c.Feast.Token, "PRIORITIZER_FEAST_TOKEN")

	if err := setInt(&c.Redis.DB, "PRIORITIZER_REDIS_DB"); err != nil {
		return err
	}
	if err := setInt(&c.Feast.Port, "PRIORITIZER_FEAST_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Rank.TopK, "PRIORITIZER_TOP_K"); err != nil {
		return err
	}
	if err := setDuration(&c.Rank.CityTimeout, "PRIORITIZER_CITY_TIMEOUT"); err != nil {
		return err
	}
	if v := os.Getenv("PRIORITIZER_COMPARATOR"); v != "" {
		c.Comparator = map[string]any{"type": v}
	}
	return nil
}

// Validate 检查配置是否有效。
func (c *AppConfig) Validate() error {
	if c.Rank.TopK < 0 {
		return fmt.Errorf("rank.top_k must not be negative")
	}
	if c.Feast.Host != "" && c.Feast.Port <= 0 {
		return fmt.Errorf("feast.port must be positive")
	}
	if c.Feast.Host != "" && c.Feast.Project == "" {
		return fmt.Errorf("feast.project required when feast.host is set")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s format: %w", key, err)
	}
	*dst = d
	return nil
}

// rankConfig 以 RankSection 覆盖 core.DefaultRankConfig。
type rankConfig struct {
	core.DefaultRankConfig
	section RankSection
}

var _ core.RankConfig = (*rankConfig)(nil)

func (r *rankConfig) DefaultTopK() int {
	if r.section.TopK > 0 {
		return r.section.TopK
	}
	return r.DefaultRankConfig.DefaultTopK()
}

func (r *rankConfig) DefaultLanguages() []string {
	if len(r.section.Languages) > 0 {
		return r.section.Languages
	}
	return r.DefaultRankConfig.DefaultLanguages()
}

func (r *rankConfig) DefaultBulkConcurrency() int {
	if r.section.BulkConcurrency > 0 {
		return r.section.BulkConcurrency
	}
	return r.DefaultRankConfig.DefaultBulkConcurrency()
}

func (r *rankConfig) DefaultCityTimeout() time.Duration {
	if r.section.CityTimeout > 0 {
		return r.section.CityTimeout
	}
	return r.DefaultRankConfig.DefaultCityTimeout()
}
