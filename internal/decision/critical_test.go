package decision

import (
	"math"
	"testing"

	"github.com/WeiHenSu/analyize-coin/internal/analysis/breakout"
	"github.com/WeiHenSu/analyize-coin/internal/analysis/indicator"
	"github.com/WeiHenSu/analyize-coin/internal/market"
)

func buildSeries(closes []float64, volume float64) market.Series {
	candles := make([]market.Candle, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		candles[i] = market.Candle{
			OpenTime:  int64(i) * 86_400_000,
			CloseTime: int64(i+1)*86_400_000 - 1,
			Open:      open,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    volume,
		}
	}
	return market.Series{Symbol: "BTCUSDT", Interval: "1d", Candles: candles}
}

func classifierSettings() ClassifierSettings {
	return ClassifierSettings{
		BreakoutThreshold:     0.02,
		RSIOverbought:         70,
		RSIOversold:           30,
		VolumeSpikeMultiplier: 2,
	}
}

// quietBar 构造一个任何条件都不命中的单根快照。
func quietBar() (market.Series, indicator.Set) {
	series := buildSeries([]float64{100}, 1000)
	ind := indicator.Set{
		TrendLine:  []float64{100},
		Support:    []float64{90},
		Resistance: []float64{120},
		RSI:        []float64{50},
		VolumeMA:   []float64{1000},
	}
	return series, ind
}

func TestClassifyQuietMarket(t *testing.T) {
	series, ind := quietBar()
	critical, summary := Classify(series, ind, nil, false, classifierSettings())
	if critical {
		t.Errorf("无条件命中时不应判定为重要时刻")
	}
	if summary != summaryNoBreak {
		t.Errorf("summary = %q, want %q", summary, summaryNoBreak)
	}
}

func TestClassifyTrendDeviation(t *testing.T) {
	series, ind := quietBar()
	ind.TrendLine = []float64{90} // 偏离 11%，超过 2% 阈值
	if critical, _ := Classify(series, ind, nil, false, classifierSettings()); !critical {
		t.Errorf("价格大幅偏离趋势线应为重要时刻")
	}
}

func TestClassifyNearSupport(t *testing.T) {
	series, ind := quietBar()
	ind.Support = []float64{99.9} // 缓冲区 (120-99.9)*2% ≈ 0.40
	if critical, _ := Classify(series, ind, nil, false, classifierSettings()); !critical {
		t.Errorf("贴近支撑位应为重要时刻")
	}
}

func TestClassifyNearResistance(t *testing.T) {
	series, ind := quietBar()
	ind.Resistance = []float64{100.1}
	if critical, _ := Classify(series, ind, nil, false, classifierSettings()); !critical {
		t.Errorf("贴近阻力位应为重要时刻")
	}
}

func TestClassifyRSIExtremes(t *testing.T) {
	cases := []struct {
		rsi  float64
		want bool
	}{
		{50, false},
		{69.9, false},
		{70, true}, // 阈值本身命中
		{71, true},
		{30, true},
		{29, true},
		{30.1, false},
	}
	for _, tc := range cases {
		series, ind := quietBar()
		ind.RSI = []float64{tc.rsi}
		critical, _ := Classify(series, ind, nil, false, classifierSettings())
		if critical != tc.want {
			t.Errorf("RSI=%v: critical=%v, want %v", tc.rsi, critical, tc.want)
		}
	}
}

func TestClassifyVolumeSpike(t *testing.T) {
	series, ind := quietBar()
	ind.VolumeMA = []float64{400} // 1000 > 400*2
	if critical, _ := Classify(series, ind, nil, false, classifierSettings()); !critical {
		t.Errorf("放量应为重要时刻")
	}
}

func TestClassifyFakeBreakout(t *testing.T) {
	series, ind := quietBar()
	if critical, _ := Classify(series, ind, nil, true, classifierSettings()); !critical {
		t.Errorf("假突破应为重要时刻")
	}
}

func TestClassifyUndefinedInputs(t *testing.T) {
	series := buildSeries([]float64{100}, 1000)
	nan := []float64{math.NaN()}
	ind := indicator.Set{
		TrendLine:  nan,
		Support:    nan,
		Resistance: nan,
		RSI:        nan,
		VolumeMA:   nan,
	}
	critical, summary := Classify(series, ind, nil, false, classifierSettings())
	if critical {
		t.Errorf("全部输入未定义时应为 false")
	}
	if summary != summaryNoBreak {
		t.Errorf("summary = %q, want %q", summary, summaryNoBreak)
	}
}

func TestClassifyEmptySeries(t *testing.T) {
	critical, summary := Classify(market.Series{}, indicator.Set{}, nil, false, classifierSettings())
	if critical {
		t.Errorf("空序列应为 false")
	}
	if summary != summaryNoBreak {
		t.Errorf("summary = %q, want %q", summary, summaryNoBreak)
	}
}

func TestBreakoutSummaryUpTakesPriority(t *testing.T) {
	events := []breakout.Event{breakout.Down, breakout.Up}
	if got := breakoutSummary(events); got != summaryUpBreak {
		t.Errorf("summary = %q, want %q", got, summaryUpBreak)
	}
}

func TestBreakoutSummaryDownOnly(t *testing.T) {
	events := []breakout.Event{breakout.None, breakout.Down}
	if got := breakoutSummary(events); got != summaryDownBreak {
		t.Errorf("summary = %q, want %q", got, summaryDownBreak)
	}
}

func TestBreakoutSummaryOnlyRecentWindow(t *testing.T) {
	// 向上突破早已被后续 5 次向下突破挤出窗口。
	events := []breakout.Event{breakout.Up}
	for i := 0; i < 5; i++ {
		events = append(events, breakout.Down)
	}
	if got := breakoutSummary(events); got != summaryDownBreak {
		t.Errorf("summary = %q, want %q", got, summaryDownBreak)
	}
}
