package agent

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/WeiHenSu/analyize-coin/internal/config"
	"github.com/WeiHenSu/analyize-coin/internal/decision"
	"github.com/WeiHenSu/analyize-coin/internal/gateway/database"
	"github.com/WeiHenSu/analyize-coin/internal/logger"
	"github.com/WeiHenSu/analyize-coin/internal/store"
)

// 单轮批次内并发分析的 symbol 上限。
const maxConcurrentAnalyses = 4

// Monitor 监控循环：两条独立节奏——价格刷新与完整分析。
// 它是 DashboardState 的唯一写入方。
type Monitor struct {
	cfg      *config.Config
	store    *store.SeriesStore
	svc      *decision.Service
	state    *DashboardState
	alertLog *database.AlertLogStore
}

func NewMonitor(cfg *config.Config, st *store.SeriesStore, svc *decision.Service, alertLog *database.AlertLogStore) *Monitor {
	return &Monitor{
		cfg:      cfg,
		store:    st,
		svc:      svc,
		state:    NewDashboardState(cfg.Symbols),
		alertLog: alertLog,
	}
}

func (m *Monitor) State() *DashboardState { return m.state }

// Run 先跑一轮完整分析让首帧有数据，随后按两个节奏循环，直到 ctx 取消。
func (m *Monitor) Run(ctx context.Context) error {
	logger.Infof("监控循环启动: symbols=%v 价格刷新=%s 分析间隔=%s",
		m.cfg.Symbols, m.cfg.Monitor.PriceRefresh(), m.cfg.Monitor.AnalysisInterval())
	m.performAnalysis(ctx)

	priceTicker := time.NewTicker(m.cfg.Monitor.PriceRefresh())
	defer priceTicker.Stop()
	analysisTicker := time.NewTicker(m.cfg.Monitor.AnalysisInterval())
	defer analysisTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Infof("监控循环退出")
			return ctx.Err()
		case <-priceTicker.C:
			m.updatePrices(ctx)
		case <-analysisTicker.C:
			m.performAnalysis(ctx)
		}
	}
}

// performAnalysis 对全部监控 symbol 并发执行分析。
// Analyze 自身永不返回错误，errgroup 只用于限流与等待。
func (m *Monitor) performAnalysis(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAnalyses)
	for _, symbol := range m.cfg.Symbols {
		symbol := symbol
		g.Go(func() error {
			res := m.svc.Analyze(gctx, symbol)
			m.state.SetAnalysis(symbol, res)
			if res.Snapshot.IsCritical {
				id := fmt.Sprintf("%s_critical_%s", symbol, time.Now().Format("20060102_1504"))
				msg := fmt.Sprintf("⚠️ %s 出现重要信号！\n%s", symbol, res.Narrative)
				m.emitAlert(gctx, id, msg, res.TraceID, symbol)
				logger.Infof("%s 出现重要信号 trace=%s", symbol, res.TraceID)
			}
			logger.Infof("完成 %s 的分析更新 trace=%s", symbol, res.TraceID)
			return nil
		})
	}
	_ = g.Wait()
}

// updatePrices 逐个刷新最新价；失败只记日志并保留上一次有效价格。
func (m *Monitor) updatePrices(ctx context.Context) {
	for _, symbol := range m.cfg.Symbols {
		price, err := m.store.FetchLastPrice(ctx, symbol)
		if err != nil {
			logger.Warnf("更新 %s 价格失败: %v", symbol, err)
			m.state.MarkPriceFailed(symbol)
			continue
		}
		m.state.UpdatePrice(symbol, price)
		logger.Debugf("%s 价格更新: $%.2f", symbol, price)
		m.checkPriceAlerts(ctx, symbol, price)
	}
}

// checkPriceAlerts 非重要时刻的基础警报：现价穿越趋势线阈值时提醒。
// 重要时刻的警报由分析批次发出，这里不重复。
func (m *Monitor) checkPriceAlerts(ctx context.Context, symbol string, price float64) {
	if !m.cfg.Alerts.Enabled {
		return
	}
	res, ok := m.state.LastAnalysis(symbol)
	if !ok || res.Snapshot.IsCritical || res.Snapshot.TrendLine == nil {
		return
	}
	trend := *res.Snapshot.TrendLine
	threshold := m.cfg.Trend.BreakoutThreshold
	id := fmt.Sprintf("%s_%s", symbol, time.Now().Format("20060102_1504"))
	switch {
	case price > trend*(1+threshold):
		m.emitAlert(ctx, id, fmt.Sprintf("🔔 %s 向上突破趋势线！当前价格: $%.2f", symbol, price), res.TraceID, symbol)
	case price < trend*(1-threshold):
		m.emitAlert(ctx, id, fmt.Sprintf("⚠️ %s 向下突破趋势线！当前价格: $%.2f", symbol, price), res.TraceID, symbol)
	}
}

func (m *Monitor) emitAlert(ctx context.Context, id, message, traceID, symbol string) {
	if !m.state.AddAlert(id, message) {
		return
	}
	logger.Infof("新警报: %s", message)
	if err := m.alertLog.Insert(ctx, decision.Alert{ID: id, Message: message, Timestamp: time.Now()}, traceID, symbol); err != nil {
		logger.Warnf("警报落库失败: %v", err)
	}
}
