package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// 中文说明：
// 启动时读取一次 TOML 配置，之后只读。字段缺省值在 withDefaults 中补齐，
// 明显损坏的配置（如空 symbol 列表）视为程序员错误，直接返回 error 让入口退出。

type Config struct {
	Symbols    []string         `toml:"symbols"`
	Timeframes TimeframesConfig `toml:"timeframes"`
	Analysis   AnalysisConfig   `toml:"analysis"`
	Indicators IndicatorsConfig `toml:"indicators"`
	Trend      TrendConfig      `toml:"trend"`
	OpenAI     OpenAIConfig     `toml:"openai"`
	Alerts     AlertsConfig     `toml:"alerts"`
	Monitor    MonitorConfig    `toml:"monitor"`
	HTTP       HTTPConfig       `toml:"http"`
	Database   DatabaseConfig   `toml:"database"`
	Logging    LoggingConfig    `toml:"logging"`
}

type TimeframesConfig struct {
	Default   string   `toml:"default"`
	Available []string `toml:"available"`
}

type AnalysisConfig struct {
	DefaultDays int `toml:"default_days"`
	MaxDays     int `toml:"max_days"`
}

type IndicatorsConfig struct {
	MA        MAConfig        `toml:"ma"`
	RSI       RSIConfig       `toml:"rsi"`
	Bollinger BollingerConfig `toml:"bollinger"`
}

type MAConfig struct {
	Periods       []int `toml:"periods"`
	DefaultPeriod int   `toml:"default_period"`
}

type RSIConfig struct {
	Period     int     `toml:"period"`
	Overbought float64 `toml:"overbought"`
	Oversold   float64 `toml:"oversold"`
}

type BollingerConfig struct {
	Period int     `toml:"period"`
	StdDev float64 `toml:"std_dev"`
}

type TrendConfig struct {
	MinPoints           int     `toml:"min_points"`
	BreakoutThreshold   float64 `toml:"breakout_threshold"`
	ConfirmationPeriods int     `toml:"confirmation_periods"`
}

type OpenAIConfig struct {
	APIURL      string  `toml:"api_url"`
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	TimeoutSecs int     `toml:"timeout_secs"`
}

func (c OpenAIConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSecs) * time.Second }

type AlertsConfig struct {
	Enabled               bool    `toml:"enabled"`
	PriceChangeThreshold  float64 `toml:"price_change_threshold"`
	VolumeSpikeMultiplier float64 `toml:"volume_spike_multiplier"`
	RSIOverbought         float64 `toml:"rsi_overbought"`
	RSIOversold           float64 `toml:"rsi_oversold"`
}

type MonitorConfig struct {
	PriceRefreshSecs     int `toml:"price_refresh_secs"`
	AnalysisIntervalSecs int `toml:"analysis_interval_secs"`
}

func (c MonitorConfig) PriceRefresh() time.Duration {
	return time.Duration(c.PriceRefreshSecs) * time.Second
}

func (c MonitorConfig) AnalysisInterval() time.Duration {
	return time.Duration(c.AnalysisIntervalSecs) * time.Second
}

type HTTPConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

type DatabaseConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// Load 读取并校验配置文件；path 为空时使用 ./config.toml。
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = "config.toml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.withDefaults()
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) withDefaults() {
	if len(c.Symbols) == 0 {
		c.Symbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	}
	if c.Timeframes.Default == "" {
		c.Timeframes.Default = "1d"
	}
	if len(c.Timeframes.Available) == 0 {
		c.Timeframes.Available = []string{
			"1m", "3m", "5m", "15m", "30m",
			"1h", "2h", "4h", "6h", "8h", "12h",
			"1d", "3d", "1w", "1M",
		}
	}
	if c.Analysis.DefaultDays <= 0 {
		c.Analysis.DefaultDays = 30
	}
	if c.Analysis.MaxDays <= 0 {
		c.Analysis.MaxDays = 365
	}
	if len(c.Indicators.MA.Periods) == 0 {
		c.Indicators.MA.Periods = []int{5, 10, 20, 50, 100, 200}
	}
	if c.Indicators.MA.DefaultPeriod <= 0 {
		c.Indicators.MA.DefaultPeriod = 20
	}
	if c.Indicators.RSI.Period <= 0 {
		c.Indicators.RSI.Period = 14
	}
	if c.Indicators.RSI.Overbought <= 0 {
		c.Indicators.RSI.Overbought = 70
	}
	if c.Indicators.RSI.Oversold <= 0 {
		c.Indicators.RSI.Oversold = 30
	}
	if c.Indicators.Bollinger.Period <= 0 {
		c.Indicators.Bollinger.Period = 20
	}
	if c.Indicators.Bollinger.StdDev <= 0 {
		c.Indicators.Bollinger.StdDev = 2
	}
	if c.Trend.MinPoints <= 0 {
		c.Trend.MinPoints = 5
	}
	if c.Trend.BreakoutThreshold <= 0 {
		c.Trend.BreakoutThreshold = 0.02
	}
	if c.Trend.ConfirmationPeriods <= 0 {
		c.Trend.ConfirmationPeriods = 3
	}
	if c.OpenAI.APIURL == "" {
		c.OpenAI.APIURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4"
	}
	if c.OpenAI.Temperature <= 0 {
		c.OpenAI.Temperature = 0.7
	}
	if c.OpenAI.MaxTokens <= 0 {
		c.OpenAI.MaxTokens = 1000
	}
	if c.OpenAI.TimeoutSecs <= 0 {
		c.OpenAI.TimeoutSecs = 60
	}
	if c.Alerts.PriceChangeThreshold <= 0 {
		c.Alerts.PriceChangeThreshold = 0.05
	}
	if c.Alerts.VolumeSpikeMultiplier <= 0 {
		c.Alerts.VolumeSpikeMultiplier = 2
	}
	if c.Alerts.RSIOverbought <= 0 {
		c.Alerts.RSIOverbought = 70
	}
	if c.Alerts.RSIOversold <= 0 {
		c.Alerts.RSIOversold = 30
	}
	if c.Monitor.PriceRefreshSecs <= 0 {
		c.Monitor.PriceRefreshSecs = 10
	}
	if c.Monitor.AnalysisIntervalSecs <= 0 {
		c.Monitor.AnalysisIntervalSecs = 300
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":9980"
	}
	if c.Database.Path == "" {
		c.Database.Path = "alerts.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate 拦截无法运行的配置组合。
func (c *Config) Validate() error {
	for _, s := range c.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("symbols 含空白项")
		}
	}
	if !contains(c.Timeframes.Available, c.Timeframes.Default) {
		return fmt.Errorf("默认时间框架 %q 不在可用列表中", c.Timeframes.Default)
	}
	if c.Analysis.DefaultDays > c.Analysis.MaxDays {
		return fmt.Errorf("analysis.default_days(%d) 超过 max_days(%d)", c.Analysis.DefaultDays, c.Analysis.MaxDays)
	}
	if !containsInt(c.Indicators.MA.Periods, c.Indicators.MA.DefaultPeriod) {
		return fmt.Errorf("ma.default_period(%d) 不在 ma.periods 中", c.Indicators.MA.DefaultPeriod)
	}
	return nil
}

// IsValidSymbol 判断交易对是否在监控名单内（大小写敏感，与交易所符号一致）。
func (c *Config) IsValidSymbol(symbol string) bool {
	return contains(c.Symbols, symbol)
}

// ResolveInterval 返回有效时间框架：不在可用列表内时替换为默认值。
func (c *Config) ResolveInterval(interval string) string {
	if contains(c.Timeframes.Available, interval) {
		return interval
	}
	return c.Timeframes.Default
}

// ClampDays 把分析天数收敛到 (0, max_days]；非正数取默认天数。
func (c *Config) ClampDays(days int) int {
	if days <= 0 {
		days = c.Analysis.DefaultDays
	}
	if days > c.Analysis.MaxDays {
		days = c.Analysis.MaxDays
	}
	return days
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
