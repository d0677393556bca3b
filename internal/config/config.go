// 包 config 负责加载与校验应用配置（settings.yaml + .env + 环境变量），
// 对外提供结构体 Config 及默认值/合法性校验。
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAPIURL 为未配置分析接口时使用的本地默认地址。
const DefaultAPIURL = "http://localhost:5000/api"

// 运行模式。
const (
	ModeRemote = "remote" // 调用上游 /dashboard-data
	ModeLocal  = "local"  // 基于本地帖子数据自行组装
)

// 环境变量名。DASHBOARD_API_URL 优先于 ANALYTICS_API_URL。
const (
	EnvAPIURL       = "DASHBOARD_API_URL"
	EnvAnalyticsURL = "ANALYTICS_API_URL"
	EnvInsightURL   = "INSIGHT_API_URL"
	EnvMode         = "DASHBOARD_MODE"
	EnvTopic        = "DEFAULT_TOPIC"
	EnvLogLevel     = "LOG_LEVEL"
)

type Config struct {
	Mode                 string      `yaml:"MODE"`
	AnalyticsAPIURL      string      `yaml:"ANALYTICS_API_URL"`
	InsightAPIURL        string      `yaml:"INSIGHT_API_URL"`
	DefaultTopic         string      `yaml:"DEFAULT_TOPIC"`
	PageSize             int         `yaml:"PAGE_SIZE"`
	Granularity          string      `yaml:"GRANULARITY"` // hour|day|week|month
	Timezone             string      `yaml:"TIMEZONE"`    // 为空时按 UTC 分桶
	RequestTimeout       int         `yaml:"REQUEST_TIMEOUT"`
	StaleWhileRevalidate bool        `yaml:"STALE_WHILE_REVALIDATE"`
	Sources              []Source    `yaml:"SOURCES"`
	MaxPostsNum          int         `yaml:"MAX_POSTS_NUM"`
	OutdateCleanDays     int         `yaml:"OUTDATE_CLEAN"`
	CollectionInterval   int         `yaml:"COLLECTION_INTERVAL"` // 分钟，0 表示不定时采集
	SimpleMode           bool        `yaml:"SIMPLE_MODE"`
	ResetOnStart         bool        `yaml:"RESET_ON_START"`
	Database             Database    `yaml:"DATABASE"`
	Concurrency          Concurrency `yaml:"CONCURRENCY"`
	Proxy                Proxy       `yaml:"PROXY"`
	LogLevel             string      `yaml:"LOG_LEVEL"`
	LogFormat            string      `yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale            string      `yaml:"LOG_LOCALE"` // zh-CN|en
	LogColor             string      `yaml:"LOG_COLOR"`  // auto|always|never

	loc *time.Location
}

// Source 为一个帖子采集来源。
type Source struct {
	// Type：feed 为 RSS/Atom/JSON Feed，page 为按选择器解析的帖子列表页
	Type     string `yaml:"type"`
	URL      string `yaml:"url"`
	Name     string `yaml:"name"`
	Platform string `yaml:"platform"`
	// Theme：page 类型使用的规则预设名
	Theme string `yaml:"theme"`
	// FeedSuffix：可选订阅后缀（如 /atom.xml /feed），用于提升发现命中率
	FeedSuffix string `yaml:"feed_suffix"`
}

type Database struct {
	Type string `yaml:"type"` // sqlite (default)
	DSN  string `yaml:"dsn"`  // ./data.db
}

type Concurrency struct {
	Fetch int `yaml:"fetch"`
	Retry int `yaml:"retry"`
}

type Proxy struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

// LoadEnv 加载 .env 文件到进程环境（不覆盖已存在的变量），文件不存在时忽略。
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load env %s: %w", p, err)
		}
	}
	return nil
}

// Load 从文件读取 YAML 并反序列化为 Config；文件不存在时使用默认值。
// 随后应用环境变量覆盖并校验。
func Load(path string) (*Config, error) {
	var c Config
	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("open config %s: %w", path, err)
	default:
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// applyEnv 用环境变量覆盖文件中的值。
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAnalyticsURL); v != "" {
		c.AnalyticsAPIURL = v
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.AnalyticsAPIURL = v
	}
	if v := os.Getenv(EnvInsightURL); v != "" {
		c.InsightAPIURL = v
	}
	if v := os.Getenv(EnvMode); v != "" {
		c.Mode = v
	}
	if v := os.Getenv(EnvTopic); v != "" {
		c.DefaultTopic = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate 负责合法性检查与默认值设置，避免在业务层分散判空逻辑。
func (c *Config) Validate() error {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	if c.Mode == "" {
		c.Mode = ModeRemote
	}
	if c.Mode != ModeRemote && c.Mode != ModeLocal {
		return fmt.Errorf("unsupported MODE: %s", c.Mode)
	}
	c.AnalyticsAPIURL = strings.TrimRight(strings.TrimSpace(c.AnalyticsAPIURL), "/")
	if c.AnalyticsAPIURL == "" {
		c.AnalyticsAPIURL = DefaultAPIURL
	}
	c.InsightAPIURL = strings.TrimRight(strings.TrimSpace(c.InsightAPIURL), "/")
	if c.InsightAPIURL == "" {
		c.InsightAPIURL = c.AnalyticsAPIURL
	}
	if c.DefaultTopic == "" {
		c.DefaultTopic = "AI trends"
	}
	if c.PageSize <= 0 {
		c.PageSize = 5
	}
	c.Granularity = strings.ToLower(strings.TrimSpace(c.Granularity))
	switch c.Granularity {
	case "":
		c.Granularity = "day"
	case "hour", "day", "week", "month":
	default:
		return fmt.Errorf("unsupported GRANULARITY: %s", c.Granularity)
	}
	c.loc = time.UTC
	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
		}
		c.loc = loc
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30
	}
	if c.MaxPostsNum < 0 {
		return errors.New("MAX_POSTS_NUM must be >= 0")
	}
	if c.OutdateCleanDays < 0 {
		return errors.New("OUTDATE_CLEAN must be >= 0")
	}
	if c.CollectionInterval < 0 {
		return errors.New("COLLECTION_INTERVAL must be >= 0")
	}
	for i := range c.Sources {
		s := &c.Sources[i]
		s.Type = strings.ToLower(strings.TrimSpace(s.Type))
		if s.Type == "" {
			s.Type = "feed"
		}
		if s.Type != "feed" && s.Type != "page" {
			return fmt.Errorf("SOURCES[%d]: unsupported type %s", i, s.Type)
		}
		if s.URL == "" {
			return fmt.Errorf("SOURCES[%d]: url is required", i)
		}
		s.Platform = strings.ToLower(strings.TrimSpace(s.Platform))
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type != "sqlite" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "./data.db"
	}
	if c.Concurrency.Fetch <= 0 {
		c.Concurrency.Fetch = 8
	}
	if c.Concurrency.Retry < 0 {
		c.Concurrency.Retry = 2
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "zh-CN"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}

// Location 返回分桶所用时区，默认 UTC。
func (c *Config) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Timeout 返回单次上游请求超时。
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Interval 返回定时采集间隔；0 表示关闭。
func (c *Config) Interval() time.Duration {
	return time.Duration(c.CollectionInterval) * time.Minute
}
