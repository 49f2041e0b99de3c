package decision

import (
	"math"

	"github.com/WeiHenSu/analyize-coin/internal/analysis/breakout"
	"github.com/WeiHenSu/analyize-coin/internal/analysis/indicator"
	"github.com/WeiHenSu/analyize-coin/internal/market"
)

// 支撑/阻力临近判定的缓冲比例，取区间宽度的 2%。
const srBufferRatio = 0.02

// 突破摘要只回看最近 5 次已发生的事件。
const recentBreakLimit = 5

const (
	summaryUpBreak   = "最近出现向上突破"
	summaryDownBreak = "最近出现向下突破"
	summaryNoBreak   = "无明显突破"
)

// ClassifierSettings 重要时刻判定所需的全部阈值。
type ClassifierSettings struct {
	BreakoutThreshold     float64
	RSIOverbought         float64
	RSIOversold           float64
	VolumeSpikeMultiplier float64
}

// Classify 综合五项条件判定是否为重要时刻，任一命中即为 true：
//  1. 现价偏离趋势线超过突破阈值；
//  2. 现价落在支撑/阻力的缓冲区内；
//  3. RSI 达到超买/超卖；
//  4. 当前成交量超过 20 周期均量的倍数阈值；
//  5. 假突破形态。
//
// 任一条件的输入未定义时该条件记为 false，绝不抛错。
// 突破摘要独立于判定结果，从最近事件推导。
func Classify(series market.Series, ind indicator.Set, events []breakout.Event, fake bool, cfg ClassifierSettings) (bool, string) {
	summary := breakoutSummary(events)
	last := series.Len() - 1
	if last < 0 {
		return false, summary
	}
	current := series.Candles[last].Close

	trendBreak := false
	if trend, ok := indicator.At(ind.TrendLine, last); ok && trend != 0 {
		if math.Abs(current-trend)/trend > cfg.BreakoutThreshold {
			trendBreak = true
		}
	}

	srBreak := false
	sup, okSup := indicator.At(ind.Support, last)
	res, okRes := indicator.At(ind.Resistance, last)
	if okSup && okRes {
		buffer := (res - sup) * srBufferRatio
		if math.Abs(current-sup) < buffer || math.Abs(current-res) < buffer {
			srBreak = true
		}
	}

	rsiExtreme := false
	if rsi, ok := indicator.At(ind.RSI, last); ok {
		if rsi >= cfg.RSIOverbought || rsi <= cfg.RSIOversold {
			rsiExtreme = true
		}
	}

	volumeSpike := false
	if avg, ok := indicator.At(ind.VolumeMA, last); ok {
		if series.Candles[last].Volume > avg*cfg.VolumeSpikeMultiplier {
			volumeSpike = true
		}
	}

	return trendBreak || srBreak || rsiExtreme || volumeSpike || fake, summary
}

// breakoutSummary 先查向上突破，再查向下突破。
func breakoutSummary(events []breakout.Event) string {
	recent := breakout.Recent(events, recentBreakLimit)
	for _, e := range recent {
		if e == breakout.Up {
			return summaryUpBreak
		}
	}
	for _, e := range recent {
		if e == breakout.Down {
			return summaryDownBreak
		}
	}
	return summaryNoBreak
}
