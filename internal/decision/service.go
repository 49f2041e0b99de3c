package decision

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/WeiHenSu/analyize-coin/internal/analysis/breakout"
	"github.com/WeiHenSu/analyize-coin/internal/analysis/indicator"
	"github.com/WeiHenSu/analyize-coin/internal/config"
	"github.com/WeiHenSu/analyize-coin/internal/logger"
	"github.com/WeiHenSu/analyize-coin/internal/market"
)

// SeriesFetcher 编排层对序列仓库的最小依赖。
type SeriesFetcher interface {
	Fetch(ctx context.Context, symbol, interval string, days int) (market.Series, error)
}

// Service 分析编排器：拉取序列、计算指标、判定重要时刻、选择叙述路径。
// 每次 Analyze 相互独立，无共享可变状态，可并发调用。
type Service struct {
	cfg     *config.Config
	fetcher SeriesFetcher
	gen     NarrativeGenerator // 可为 nil，此时始终使用模板文本
	now     func() time.Time
}

func NewService(cfg *config.Config, fetcher SeriesFetcher, gen NarrativeGenerator) *Service {
	return &Service{cfg: cfg, fetcher: fetcher, gen: gen, now: time.Now}
}

const unavailableNarrative = "无法获取市场数据"

// Analyze 对单个 symbol 执行一轮完整分析。
// 任何失败都收敛为降级结果返回，绝不向调用方抛错：
// 一个 symbol 的失败不能中断批次里其它 symbol 的处理。
func (s *Service) Analyze(ctx context.Context, symbol string) AnalysisResult {
	traceID := uuid.NewString()
	series, err := s.fetcher.Fetch(ctx, symbol, s.cfg.Timeframes.Default, s.cfg.Analysis.DefaultDays)
	if err != nil {
		logger.Warnf("[analyze] %s 拉取序列失败 trace=%s: %v", symbol, traceID, err)
		return s.degraded(traceID, symbol, "N/A", unavailableNarrative)
	}
	if series.Len() == 0 {
		logger.Warnf("[analyze] %s 返回空序列 trace=%s: %v", symbol, traceID, ErrComputation)
		return s.degraded(traceID, symbol, "Error", fmt.Sprintf("分析错误: %v", ErrComputation))
	}

	ind, err := indicator.Compute(series, indicator.Settings{
		MAPeriods:       s.cfg.Indicators.MA.Periods,
		DefaultMAPeriod: s.cfg.Indicators.MA.DefaultPeriod,
		RSIPeriod:       s.cfg.Indicators.RSI.Period,
		BollingerPeriod: s.cfg.Indicators.Bollinger.Period,
		BollingerStdDev: s.cfg.Indicators.Bollinger.StdDev,
		TrendMinPoints:  s.cfg.Trend.MinPoints,
	})
	if err != nil {
		logger.Errorf("[analyze] %s 指标计算失败 trace=%s: %v", symbol, traceID, err)
		return s.degraded(traceID, symbol, "Error", fmt.Sprintf("分析错误: %v", err))
	}

	events := breakout.Detect(series, ind, s.cfg.Trend.BreakoutThreshold)
	fake := breakout.Fake(series, ind)
	isCritical, summary := Classify(series, ind, events, fake, ClassifierSettings{
		BreakoutThreshold:     s.cfg.Trend.BreakoutThreshold,
		RSIOverbought:         s.cfg.Indicators.RSI.Overbought,
		RSIOversold:           s.cfg.Indicators.RSI.Oversold,
		VolumeSpikeMultiplier: s.cfg.Alerts.VolumeSpikeMultiplier,
	})

	snap := s.buildSnapshot(symbol, series, ind, summary, isCritical)
	narrative, usedAI := s.narrate(ctx, traceID, snap)
	return AnalysisResult{TraceID: traceID, Snapshot: snap, Narrative: narrative, UsedAI: usedAI}
}

// buildSnapshot 取最后一根 K 线位置的各项读数；未定义的保持为 nil。
func (s *Service) buildSnapshot(symbol string, series market.Series, ind indicator.Set, summary string, isCritical bool) TechnicalSnapshot {
	last := series.Len() - 1
	snap := TechnicalSnapshot{
		Symbol:          symbol,
		CurrentPrice:    ptr(series.Candles[last].Close),
		BreakoutSummary: summary,
		IsCritical:      isCritical,
		GeneratedAt:     s.now(),
	}
	if v, ok := indicator.At(ind.TrendLine, last); ok {
		snap.TrendLine = ptr(v)
	}
	if v, ok := indicator.At(ind.Support, last); ok {
		snap.Support = ptr(v)
	}
	if v, ok := indicator.At(ind.Resistance, last); ok {
		snap.Resistance = ptr(v)
	}
	if v, ok := indicator.At(ind.RSI, last); ok {
		snap.RSI = ptr(v)
	}
	return snap
}

// narrate 选择叙述路径：重要时刻才调用生成方（成本控制），失败回退模板。
func (s *Service) narrate(ctx context.Context, traceID string, snap TechnicalSnapshot) (string, bool) {
	settings := NarrativeSettings{
		RSIOverbought: s.cfg.Indicators.RSI.Overbought,
		RSIOversold:   s.cfg.Indicators.RSI.Oversold,
	}
	if !snap.IsCritical || s.gen == nil {
		return basicNarrative(snap, settings), false
	}
	text, err := s.gen.Generate(ctx, analystSystemRole, criticalPrompt(snap))
	if err != nil {
		logger.Warnf("[analyze] %s AI 叙述失败，回退模板 trace=%s: %v", snap.Symbol, traceID, err)
		return basicNarrative(snap, settings), false
	}
	return text, true
}

func (s *Service) degraded(traceID, symbol, summary, narrative string) AnalysisResult {
	return AnalysisResult{
		TraceID: traceID,
		Snapshot: TechnicalSnapshot{
			Symbol:          symbol,
			BreakoutSummary: summary,
			IsCritical:      false,
			GeneratedAt:     s.now(),
		},
		Narrative: narrative,
	}
}
