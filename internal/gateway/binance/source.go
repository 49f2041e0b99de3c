package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2"

	"github.com/WeiHenSu/analyize-coin/internal/logger"
	"github.com/WeiHenSu/analyize-coin/internal/market"
)

// 单次查询最多翻页次数，防止极端窗口把进程拖死。
const maxPages = 10

// Source 实现了 market.Source，基于官方 REST 接口的轮询接入。
type Source struct {
	cfg    Config
	client *binance.Client
}

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	client := binance.NewClient(final.APIKey, final.SecretKey)
	if final.BaseURL != "" {
		client.BaseURL = final.BaseURL
	}
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Source{cfg: final, client: client}
}

func (s *Source) FetchCandles(ctx context.Context, symbol, interval string, startMillis int64) ([]market.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol 不能为空")
	}
	interval = strings.TrimSpace(interval)
	if interval == "" {
		return nil, fmt.Errorf("interval 不能为空")
	}

	out := make([]market.Candle, 0, s.cfg.PageLimit)
	cursor := startMillis
	for page := 0; page < maxPages; page++ {
		logger.Debugf("[binance] klines %s %s start=%d", symbol, interval, cursor)
		klines, err := s.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(cursor).
			Limit(s.cfg.PageLimit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("拉取 %s K 线失败: %w", symbol, err)
		}
		for _, k := range klines {
			c, err := parseKline(k)
			if err != nil {
				return nil, fmt.Errorf("解析 %s K 线失败: %w", symbol, err)
			}
			// 丢弃与上一页末尾重复的 K 线，保证严格递增。
			if n := len(out); n > 0 && c.OpenTime <= out[n-1].OpenTime {
				continue
			}
			out = append(out, c)
		}
		if len(klines) < s.cfg.PageLimit {
			break
		}
		cursor = klines[len(klines)-1].OpenTime + 1
	}
	return out, nil
}

func (s *Source) FetchLastPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, fmt.Errorf("symbol 不能为空")
	}
	prices, err := s.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("查询 %s 最新价失败: %w", symbol, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("%s 无报价返回", symbol)
	}
	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("%s 报价非法: %q", symbol, prices[0].Price)
	}
	return price, nil
}

func (s *Source) Close() error { return nil }

// parseKline 校验并转换一根 K 线。任何字段无法解析或价格非正都视为脏数据，
// 宁可整次拉取失败也不让 0 价 K 线流进指标计算。
func parseKline(k *binance.Kline) (market.Candle, error) {
	c := market.Candle{OpenTime: k.OpenTime, CloseTime: k.CloseTime}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", k.Open, &c.Open},
		{"high", k.High, &c.High},
		{"low", k.Low, &c.Low},
		{"close", k.Close, &c.Close},
		{"volume", k.Volume, &c.Volume},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("%s 字段非法: %q", f.name, f.raw)
		}
		*f.dst = v
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return market.Candle{}, fmt.Errorf("价格字段非正: o=%q h=%q l=%q c=%q", k.Open, k.High, k.Low, k.Close)
	}
	if c.Volume < 0 {
		return market.Candle{}, fmt.Errorf("volume 字段非法: %q", k.Volume)
	}
	return c, nil
}
