package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := writeConfig(t, `symbols = ["BTCUSDT"]`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeframes.Default != "1d" {
		t.Errorf("默认时间框架 = %q", cfg.Timeframes.Default)
	}
	if cfg.Analysis.DefaultDays != 30 || cfg.Analysis.MaxDays != 365 {
		t.Errorf("analysis 缺省值: %+v", cfg.Analysis)
	}
	if cfg.Indicators.RSI.Period != 14 || cfg.Indicators.RSI.Overbought != 70 {
		t.Errorf("rsi 缺省值: %+v", cfg.Indicators.RSI)
	}
	if cfg.Trend.BreakoutThreshold != 0.02 {
		t.Errorf("突破阈值 = %v", cfg.Trend.BreakoutThreshold)
	}
	if cfg.Monitor.PriceRefreshSecs != 10 || cfg.Monitor.AnalysisIntervalSecs != 300 {
		t.Errorf("monitor 缺省值: %+v", cfg.Monitor)
	}
	if cfg.Alerts.VolumeSpikeMultiplier != 2 {
		t.Errorf("放量倍数 = %v", cfg.Alerts.VolumeSpikeMultiplier)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := writeConfig(t, `
symbols = ["ETHUSDT"]

[timeframes]
default = "4h"
available = ["1h", "4h", "1d"]

[analysis]
default_days = 7
max_days = 90

[trend]
breakout_threshold = 0.05
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeframes.Default != "4h" {
		t.Errorf("默认时间框架 = %q", cfg.Timeframes.Default)
	}
	if cfg.Analysis.DefaultDays != 7 || cfg.Analysis.MaxDays != 90 {
		t.Errorf("analysis: %+v", cfg.Analysis)
	}
	if cfg.Trend.BreakoutThreshold != 0.05 {
		t.Errorf("突破阈值 = %v", cfg.Trend.BreakoutThreshold)
	}
}

func TestLoadEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	path := writeConfig(t, `
symbols = ["BTCUSDT"]

[openai]
api_key = "sk-from-file"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-from-env" {
		t.Errorf("api key = %q, 环境变量应覆盖文件", cfg.OpenAI.APIKey)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cases := map[string]string{
		"默认时间框架不在可用列表": `
symbols = ["BTCUSDT"]

[timeframes]
default = "42h"
available = ["1h", "1d"]
`,
		"默认天数超过上限": `
symbols = ["BTCUSDT"]

[analysis]
default_days = 400
max_days = 90
`,
		"默认均线周期不在列表": `
symbols = ["BTCUSDT"]

[indicators.ma]
periods = [5, 10]
default_period = 20
`,
		"symbols 含空白项": `symbols = ["BTCUSDT", " "]`,
	}
	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Errorf("%s: 应返回错误", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("文件不存在应返回错误")
	}
}

func TestIsValidSymbol(t *testing.T) {
	cfg := &Config{Symbols: []string{"BTCUSDT", "ETHUSDT"}}
	if !cfg.IsValidSymbol("BTCUSDT") {
		t.Errorf("BTCUSDT 应在名单内")
	}
	// 与交易所符号保持一致，大小写敏感。
	if cfg.IsValidSymbol("btcusdt") || cfg.IsValidSymbol("DOGEUSDT") {
		t.Errorf("名单外的 symbol 不应通过")
	}
}

func TestResolveInterval(t *testing.T) {
	cfg := &Config{Timeframes: TimeframesConfig{Default: "1d", Available: []string{"1h", "1d"}}}
	if got := cfg.ResolveInterval("1h"); got != "1h" {
		t.Errorf("ResolveInterval(1h) = %q", got)
	}
	if got := cfg.ResolveInterval("7m"); got != "1d" {
		t.Errorf("ResolveInterval(7m) = %q, want 默认值", got)
	}
	if got := cfg.ResolveInterval(""); got != "1d" {
		t.Errorf("ResolveInterval(\"\") = %q, want 默认值", got)
	}
}

func TestClampDays(t *testing.T) {
	cfg := &Config{Analysis: AnalysisConfig{DefaultDays: 30, MaxDays: 365}}
	cases := []struct{ in, want int }{
		{0, 30},
		{-5, 30},
		{30, 30},
		{365, 365},
		{1000, 365},
	}
	for _, tc := range cases {
		if got := cfg.ClampDays(tc.in); got != tc.want {
			t.Errorf("ClampDays(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
