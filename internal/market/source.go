package market

import "context"

// Source 统一对接外部行情供应商。实现方只负责网络与解码，
// 合法性校验（symbol 白名单、天数上限）由上层 store 完成。
type Source interface {
	// FetchCandles 拉取自 startMillis 起的 K 线并按时间升序返回。
	FetchCandles(ctx context.Context, symbol, interval string, startMillis int64) ([]Candle, error)
	// FetchLastPrice 返回 symbol 的最新成交价。
	FetchLastPrice(ctx context.Context, symbol string) (float64, error)
	// Close 释放底层资源。
	Close() error
}
