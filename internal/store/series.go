package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/WeiHenSu/analyize-coin/internal/config"
	"github.com/WeiHenSu/analyize-coin/internal/market"
)

// SeriesStore 按 symbol+interval+天数 拉取一段不可变的 K 线序列。
// 白名单校验发生在任何网络请求之前；网络失败统一映射为 ErrDataUnavailable。
type SeriesStore struct {
	cfg    *config.Config
	source market.Source
	now    func() time.Time

	mu       sync.RWMutex
	lastGood map[string]market.Series
}

func NewSeriesStore(cfg *config.Config, source market.Source) *SeriesStore {
	return &SeriesStore{
		cfg:      cfg,
		source:   source,
		now:      time.Now,
		lastGood: make(map[string]market.Series),
	}
}

func key(symbol, interval string) string { return symbol + "@" + interval }

// Fetch 返回最近 days 天的序列。interval 不在可用列表时替换为默认值，
// days 超上限时收敛到上限。
func (s *SeriesStore) Fetch(ctx context.Context, symbol, interval string, days int) (market.Series, error) {
	if !s.cfg.IsValidSymbol(symbol) {
		return market.Series{}, fmt.Errorf("%w: %s", market.ErrInvalidSymbol, symbol)
	}
	interval = s.cfg.ResolveInterval(interval)
	days = s.cfg.ClampDays(days)
	startMillis := s.now().Add(-time.Duration(days) * 24 * time.Hour).UnixMilli()

	candles, err := s.source.FetchCandles(ctx, symbol, interval, startMillis)
	if err != nil {
		return market.Series{}, fmt.Errorf("%w: %v", market.ErrDataUnavailable, err)
	}
	series := market.Series{Symbol: symbol, Interval: interval, Candles: candles}
	if len(candles) > 0 {
		s.mu.Lock()
		s.lastGood[key(symbol, interval)] = series
		s.mu.Unlock()
	}
	return series, nil
}

// LastGood 返回最近一次成功拉取的序列，供图表等外围消费方在数据源抖动时兜底。
// 分析路径不读取它：拉取失败时按约定走降级快照。
func (s *SeriesStore) LastGood(symbol, interval string) (market.Series, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, ok := s.lastGood[key(symbol, interval)]
	return series, ok
}

// FetchLastPrice 查询最新成交价，白名单校验同样先于网络请求。
func (s *SeriesStore) FetchLastPrice(ctx context.Context, symbol string) (float64, error) {
	if !s.cfg.IsValidSymbol(symbol) {
		return 0, fmt.Errorf("%w: %s", market.ErrInvalidSymbol, symbol)
	}
	price, err := s.source.FetchLastPrice(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", market.ErrDataUnavailable, err)
	}
	return price, nil
}
