package decision

import (
	"errors"
	"time"
)

// 中文说明：
// 本文件定义一次分析的输出结构。可选字段用指针表达"未定义"，
// 不用 0 或其它哨兵值混在数值里。

// ErrComputation 表示指标计算阶段的意外失败（如空序列走到了分类器）。
// 在编排层被捕获并映射为降级快照，不会外泄给调用方。
var ErrComputation = errors.New("指标计算失败")

// TechnicalSnapshot 某个 symbol 在分析时刻的最新技术面读数，构造后不再修改。
type TechnicalSnapshot struct {
	Symbol          string     `json:"symbol"`
	CurrentPrice    *float64   `json:"current_price"`
	TrendLine       *float64   `json:"trend_line"`
	Support         *float64   `json:"support"`
	Resistance      *float64   `json:"resistance"`
	RSI             *float64   `json:"rsi"`
	BreakoutSummary string     `json:"breakout_summary"`
	IsCritical      bool       `json:"is_critical"`
	GeneratedAt     time.Time  `json:"generated_at"`
}

// AnalysisResult 一次 Analyze 调用的完整输出，按值交给消费方。
type AnalysisResult struct {
	TraceID   string            `json:"trace_id"`
	Snapshot  TechnicalSnapshot `json:"snapshot"`
	Narrative string            `json:"narrative"`
	UsedAI    bool              `json:"used_ai"`
}

// Alert 展示/留存用的警报条目，按 ID 去重。
type Alert struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func ptr(v float64) *float64 { return &v }
