package agent

import (
	"sync"
	"time"

	"github.com/WeiHenSu/analyize-coin/internal/decision"
)

// 中文说明：
// DashboardState 是监控循环唯一持有的跨周期可变状态：价格缓存、
// 最近分析结果与警报账本。所有读写经由本结构的互斥锁，
// 分析核心自身不共享任何可变状态。

const (
	// 警报账本只保留最近 5 条。
	maxAlerts = 5
	// 已处理 ID 集合超过 1000 时收缩为当前留存警报的 ID。
	maxSeenIDs = 1000
)

// PricePoint 某个 symbol 的最新报价；Price 为 nil 表示从未成功取价。
type PricePoint struct {
	Price      *float64
	ChangePct  *float64
	UpdatedAt  time.Time
	LastFailed bool
}

// SymbolStatus 展示层每次刷新拿到的只读视图。
type SymbolStatus struct {
	Symbol          string     `json:"symbol"`
	Price           *float64   `json:"price"`
	PriceChangePct  *float64   `json:"price_change_pct"`
	BreakoutSummary string     `json:"breakout_summary"`
	IsCritical      bool       `json:"is_critical"`
	RSI             *float64   `json:"rsi"`
	Narrative       string     `json:"narrative"`
	HasAnalysis     bool       `json:"has_analysis"`
	PriceFailed     bool       `json:"price_failed"`
	LastUpdate      time.Time  `json:"last_update"`
}

type DashboardState struct {
	mu       sync.RWMutex
	symbols  []string
	prices   map[string]PricePoint
	analyses map[string]decision.AnalysisResult
	alerts   []decision.Alert
	seenIDs  map[string]struct{}
	now      func() time.Time
}

func NewDashboardState(symbols []string) *DashboardState {
	return &DashboardState{
		symbols:  append([]string(nil), symbols...),
		prices:   make(map[string]PricePoint),
		analyses: make(map[string]decision.AnalysisResult),
		seenIDs:  make(map[string]struct{}),
		now:      time.Now,
	}
}

// UpdatePrice 记录新报价并换算相对上一次的变化百分比。
func (s *DashboardState) UpdatePrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	point := PricePoint{Price: &price, UpdatedAt: s.now()}
	if old, ok := s.prices[symbol]; ok && old.Price != nil && *old.Price > 0 {
		change := (price - *old.Price) / *old.Price * 100
		point.ChangePct = &change
	} else {
		zero := 0.0
		point.ChangePct = &zero
	}
	s.prices[symbol] = point
}

// MarkPriceFailed 标记取价失败；保留最后一次有效价格，不覆盖为零值。
func (s *DashboardState) MarkPriceFailed(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	point := s.prices[symbol]
	point.LastFailed = true
	if point.UpdatedAt.IsZero() {
		point.UpdatedAt = s.now()
	}
	s.prices[symbol] = point
}

// SetAnalysis 记录某个 symbol 最近一次分析结果，覆盖上一周期。
func (s *DashboardState) SetAnalysis(symbol string, res decision.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[symbol] = res
}

// LastAnalysis 返回最近一次分析结果。
func (s *DashboardState) LastAnalysis(symbol string) (decision.AnalysisResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.analyses[symbol]
	return res, ok
}

// AddAlert 按 ID 去重后追加警报；返回是否为新警报。
// 账本收敛到最近 maxAlerts 条；seen 集合超限时收缩为留存警报的 ID。
func (s *DashboardState) AddAlert(id, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seenIDs[id]; dup {
		return false
	}
	s.alerts = append(s.alerts, decision.Alert{ID: id, Message: message, Timestamp: s.now()})
	s.seenIDs[id] = struct{}{}
	if len(s.alerts) > maxAlerts {
		s.alerts = s.alerts[len(s.alerts)-maxAlerts:]
	}
	if len(s.seenIDs) > maxSeenIDs {
		trimmed := make(map[string]struct{}, len(s.alerts))
		for _, a := range s.alerts {
			trimmed[a.ID] = struct{}{}
		}
		s.seenIDs = trimmed
	}
	return true
}

// Alerts 返回账本拷贝，按到达顺序排列。
func (s *DashboardState) Alerts() []decision.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]decision.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Snapshot 汇总每个监控 symbol 的展示视图，顺序与配置一致。
func (s *DashboardState) Snapshot() []SymbolStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SymbolStatus, 0, len(s.symbols))
	for _, symbol := range s.symbols {
		status := SymbolStatus{Symbol: symbol}
		if point, ok := s.prices[symbol]; ok {
			status.Price = point.Price
			status.PriceChangePct = point.ChangePct
			status.PriceFailed = point.LastFailed
			status.LastUpdate = point.UpdatedAt
		}
		if res, ok := s.analyses[symbol]; ok {
			status.HasAnalysis = true
			status.BreakoutSummary = res.Snapshot.BreakoutSummary
			status.IsCritical = res.Snapshot.IsCritical
			status.RSI = res.Snapshot.RSI
			status.Narrative = res.Narrative
			if status.LastUpdate.IsZero() {
				status.LastUpdate = res.Snapshot.GeneratedAt
			}
		}
		out = append(out, status)
	}
	return out
}
