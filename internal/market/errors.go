package market

import "errors"

// 错误分类：调用方用 errors.Is 区分"调用方错误"与"数据源暂不可用"。
var (
	// ErrInvalidSymbol 表示 symbol 不在监控名单内，在任何网络请求之前返回。
	ErrInvalidSymbol = errors.New("symbol 不在监控名单")
	// ErrDataUnavailable 表示网络或解码失败，调用方应降级而非重试。
	ErrDataUnavailable = errors.New("行情数据不可用")
)
