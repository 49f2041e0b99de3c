package breakout

import (
	"github.com/WeiHenSu/analyize-coin/internal/analysis/indicator"
	"github.com/WeiHenSu/analyize-coin/internal/market"
)

// Event 单根 K 线上的突破事件。
type Event int

const (
	None Event = iota
	Up
	Down
)

func (e Event) String() string {
	switch e {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "none"
	}
}

// Detect 逐根扫描突破事件，返回与源序列等长的事件序列。
// 仅在当前及前一根的支撑/阻力都已定义时判定；
// 上破条件：close[t] > resistance[t-1]*(1+threshold) 且 close[t-1] <= resistance[t-1]；
// 下破对称。约定同一根 K 线上破优先（严格的前一根条件下两者不会同时成立）。
func Detect(series market.Series, ind indicator.Set, threshold float64) []Event {
	n := series.Len()
	out := make([]Event, n)
	for t := 1; t < n; t++ {
		prevRes, okRes := indicator.At(ind.Resistance, t-1)
		prevSup, okSup := indicator.At(ind.Support, t-1)
		if _, ok := indicator.At(ind.Resistance, t); !ok {
			okRes = false
		}
		if _, ok := indicator.At(ind.Support, t); !ok {
			okSup = false
		}
		cur := series.Candles[t].Close
		prev := series.Candles[t-1].Close
		switch {
		case okRes && cur > prevRes*(1+threshold) && prev <= prevRes:
			out[t] = Up
		case okSup && cur < prevSup*(1-threshold) && prev >= prevSup:
			out[t] = Down
		}
	}
	return out
}

// Recent 返回已发生事件（非 None）中最近的 limit 个，按时间先后排列。
func Recent(events []Event, limit int) []Event {
	if limit <= 0 {
		return nil
	}
	occurred := make([]Event, 0, limit)
	for _, e := range events {
		if e == None {
			continue
		}
		occurred = append(occurred, e)
	}
	if len(occurred) > limit {
		occurred = occurred[len(occurred)-limit:]
	}
	return occurred
}

// Fake 检查最近三根 K 线是否构成假突破：
// 以 3 根之前的阻力为参照，第一根最高价突破、第二根收盘维持、第三根收盘回落；
// 支撑侧对称。与逐根突破序列相互独立。
func Fake(series market.Series, ind indicator.Set) bool {
	n := series.Len()
	if n < 3 {
		return false
	}
	bars := series.Candles[n-3:]

	if res, ok := indicator.At(ind.Resistance, n-3); ok {
		if bars[0].High > res && bars[1].Close > res && bars[2].Close < res {
			return true
		}
	}
	if sup, ok := indicator.At(ind.Support, n-3); ok {
		if bars[0].Low < sup && bars[1].Close < sup && bars[2].Close > sup {
			return true
		}
	}
	return false
}
