package decision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/WeiHenSu/analyize-coin/internal/config"
	"github.com/WeiHenSu/analyize-coin/internal/market"
)

type fakeFetcher struct {
	series market.Series
	err    error
	calls  int
}

func (f *fakeFetcher) Fetch(ctx context.Context, symbol, interval string, days int) (market.Series, error) {
	f.calls++
	if f.err != nil {
		return market.Series{}, f.err
	}
	return f.series, nil
}

type fakeGenerator struct {
	text     string
	err      error
	calls    int
	lastUser string
}

func (g *fakeGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	g.calls++
	g.lastUser = user
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func serviceConfig() *config.Config {
	return &config.Config{
		Symbols:    []string{"BTCUSDT"},
		Timeframes: config.TimeframesConfig{Default: "1d", Available: []string{"1d"}},
		Analysis:   config.AnalysisConfig{DefaultDays: 30, MaxDays: 365},
		Indicators: config.IndicatorsConfig{
			MA:        config.MAConfig{Periods: []int{5, 20}, DefaultPeriod: 20},
			RSI:       config.RSIConfig{Period: 14, Overbought: 70, Oversold: 30},
			Bollinger: config.BollingerConfig{Period: 20, StdDev: 2},
		},
		Trend:  config.TrendConfig{MinPoints: 5, BreakoutThreshold: 0.02, ConfirmationPeriods: 3},
		Alerts: config.AlertsConfig{VolumeSpikeMultiplier: 2},
	}
}

// criticalSeries 单调上涨 30 根：RSI 收敛到 100，必然触发超买条件。
func criticalSeries() market.Series {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return buildSeries(closes, 1000)
}

// quietSeries 对称震荡 33 根：趋势走平、RSI 居中、无放量无突破。
func quietSeries() market.Series {
	pattern := []float64{100, 103, 100, 97}
	closes := make([]float64, 33)
	for i := range closes {
		closes[i] = pattern[i%4]
	}
	return buildSeries(closes, 1000)
}

func TestAnalyzeFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: market.ErrDataUnavailable}
	gen := &fakeGenerator{text: "不应被调用"}
	svc := NewService(serviceConfig(), fetcher, gen)

	result := svc.Analyze(context.Background(), "BTCUSDT")
	if result.Snapshot.BreakoutSummary != "N/A" {
		t.Errorf("summary = %q, want N/A", result.Snapshot.BreakoutSummary)
	}
	if result.Narrative != "无法获取市场数据" {
		t.Errorf("narrative = %q", result.Narrative)
	}
	if result.Snapshot.IsCritical {
		t.Errorf("降级结果不应标记为重要时刻")
	}
	if result.Snapshot.CurrentPrice != nil || result.Snapshot.RSI != nil {
		t.Errorf("降级结果的读数应为 nil")
	}
	if result.TraceID == "" {
		t.Errorf("降级结果也应带 trace id")
	}
	if gen.calls != 0 {
		t.Errorf("降级路径不应调用生成方")
	}
}

func TestAnalyzeEmptySeries(t *testing.T) {
	fetcher := &fakeFetcher{series: market.Series{Symbol: "BTCUSDT", Interval: "1d"}}
	svc := NewService(serviceConfig(), fetcher, nil)

	result := svc.Analyze(context.Background(), "BTCUSDT")
	if result.Snapshot.BreakoutSummary != "Error" {
		t.Errorf("summary = %q, want Error", result.Snapshot.BreakoutSummary)
	}
	if !strings.HasPrefix(result.Narrative, "分析错误: ") {
		t.Errorf("narrative = %q", result.Narrative)
	}
}

func TestAnalyzeCriticalUsesGenerator(t *testing.T) {
	fetcher := &fakeFetcher{series: criticalSeries()}
	gen := &fakeGenerator{text: "AI 给出的深度分析"}
	svc := NewService(serviceConfig(), fetcher, gen)

	result := svc.Analyze(context.Background(), "BTCUSDT")
	if !result.Snapshot.IsCritical {
		t.Fatalf("单调上涨序列应触发超买判定")
	}
	if !result.UsedAI || result.Narrative != "AI 给出的深度分析" {
		t.Errorf("UsedAI=%v narrative=%q", result.UsedAI, result.Narrative)
	}
	if gen.calls != 1 {
		t.Errorf("生成方调用 %d 次, want 1", gen.calls)
	}
	if !strings.Contains(gen.lastUser, "BTCUSDT") {
		t.Errorf("提示词未包含交易对: %q", gen.lastUser)
	}
	if result.Snapshot.CurrentPrice == nil || *result.Snapshot.CurrentPrice != 129 {
		t.Errorf("CurrentPrice = %v, want 129", result.Snapshot.CurrentPrice)
	}
	if result.Snapshot.RSI == nil || *result.Snapshot.RSI != 100 {
		t.Errorf("RSI = %v, want 100", result.Snapshot.RSI)
	}
	if result.Snapshot.Support == nil || result.Snapshot.Resistance == nil {
		t.Errorf("窗口已填满，支撑/阻力应已定义")
	}
}

func TestAnalyzeGeneratorFailureFallsBack(t *testing.T) {
	fetcher := &fakeFetcher{series: criticalSeries()}
	gen := &fakeGenerator{err: errors.New("upstream 503")}
	svc := NewService(serviceConfig(), fetcher, gen)

	result := svc.Analyze(context.Background(), "BTCUSDT")
	if !result.Snapshot.IsCritical {
		t.Fatalf("应仍判定为重要时刻")
	}
	if result.UsedAI {
		t.Errorf("生成失败后不应标记 UsedAI")
	}
	if !strings.HasPrefix(result.Narrative, "当前趋势: ") {
		t.Errorf("应回退到模板文本: %q", result.Narrative)
	}
	if !strings.Contains(result.Narrative, "超买") {
		t.Errorf("RSI 100 的模板文本应提示超买: %q", result.Narrative)
	}
}

func TestAnalyzeQuietSkipsGenerator(t *testing.T) {
	fetcher := &fakeFetcher{series: quietSeries()}
	gen := &fakeGenerator{text: "不应被调用"}
	svc := NewService(serviceConfig(), fetcher, gen)

	result := svc.Analyze(context.Background(), "BTCUSDT")
	if result.Snapshot.IsCritical {
		t.Fatalf("震荡序列不应判定为重要时刻")
	}
	if gen.calls != 0 {
		t.Errorf("非重要时刻不应调用生成方")
	}
	if result.UsedAI {
		t.Errorf("模板路径不应标记 UsedAI")
	}
	if !strings.Contains(result.Narrative, "无明显突破") {
		t.Errorf("narrative = %q", result.Narrative)
	}
	if !strings.Contains(result.Narrative, "RSI") {
		t.Errorf("模板文本应包含 RSI 行: %q", result.Narrative)
	}
}

func TestAnalyzeNilGenerator(t *testing.T) {
	fetcher := &fakeFetcher{series: criticalSeries()}
	svc := NewService(serviceConfig(), fetcher, nil)

	result := svc.Analyze(context.Background(), "BTCUSDT")
	if !result.Snapshot.IsCritical {
		t.Fatalf("应判定为重要时刻")
	}
	if result.UsedAI {
		t.Errorf("未配置生成方时不应标记 UsedAI")
	}
	if !strings.HasPrefix(result.Narrative, "当前趋势: ") {
		t.Errorf("应使用模板文本: %q", result.Narrative)
	}
}

func TestAnalyzeTraceIDsUnique(t *testing.T) {
	fetcher := &fakeFetcher{series: quietSeries()}
	svc := NewService(serviceConfig(), fetcher, nil)

	a := svc.Analyze(context.Background(), "BTCUSDT")
	b := svc.Analyze(context.Background(), "BTCUSDT")
	if a.TraceID == b.TraceID {
		t.Errorf("两次分析的 trace id 不应相同")
	}
}
