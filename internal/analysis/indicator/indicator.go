package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/WeiHenSu/analyize-coin/internal/market"
)

// 中文说明：
// 纯函数指标引擎：输入一段 K 线序列，输出与其索引一一对齐的衍生序列。
// 滚动窗口未填满的前缀一律置 NaN，表示"尚无数据"，与数值 0 严格区分；
// 重要时刻判定依赖这一区分。

type Settings struct {
	MAPeriods       []int
	DefaultMAPeriod int // 支撑/阻力窗口复用该周期
	RSIPeriod       int
	BollingerPeriod int
	BollingerStdDev float64
	TrendMinPoints  int
}

func (s Settings) withDefaults() Settings {
	out := s
	if len(out.MAPeriods) == 0 {
		out.MAPeriods = []int{5, 10, 20, 50, 100, 200}
	}
	if out.DefaultMAPeriod <= 0 {
		out.DefaultMAPeriod = 20
	}
	if out.RSIPeriod <= 0 {
		out.RSIPeriod = 14
	}
	if out.BollingerPeriod <= 0 {
		out.BollingerPeriod = 20
	}
	if out.BollingerStdDev <= 0 {
		out.BollingerStdDev = 2
	}
	if out.TrendMinPoints <= 0 {
		out.TrendMinPoints = 5
	}
	return out
}

// Set 各衍生序列均与源序列等长。
type Set struct {
	MA         map[int][]float64
	TrendLine  []float64
	TrendSlope float64 // 趋势线斜率；点数不足时为 NaN
	Support    []float64
	Resistance []float64
	BollUpper  []float64
	BollMiddle []float64
	BollLower  []float64
	RSI        []float64
	VolumeMA   []float64 // 20 周期成交量均线，供放量判定
}

// 成交量均线窗口固定 20，与原始实现保持一致。
const volumeMAPeriod = 20

// Compute 计算全部指标。确定性：同一输入重复调用输出一致。
func Compute(series market.Series, cfg Settings) (Set, error) {
	n := series.Len()
	if n == 0 {
		return Set{}, fmt.Errorf("序列为空")
	}
	cfg = cfg.withDefaults()

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()

	out := Set{MA: make(map[int][]float64, len(cfg.MAPeriods))}
	for _, period := range cfg.MAPeriods {
		out.MA[period] = rolling(n, period, func() []float64 { return talib.Sma(closes, period) })
	}

	out.TrendLine, out.TrendSlope = trendLine(closes, cfg.TrendMinPoints)

	srPeriod := cfg.DefaultMAPeriod
	out.Support = rolling(n, srPeriod, func() []float64 { return talib.Min(lows, srPeriod) })
	out.Resistance = rolling(n, srPeriod, func() []float64 { return talib.Max(highs, srPeriod) })

	bbPeriod := cfg.BollingerPeriod
	if n < bbPeriod {
		out.BollUpper = nanSlice(n)
		out.BollMiddle = nanSlice(n)
		out.BollLower = nanSlice(n)
	} else {
		upper, middle, lower := talib.BBands(closes, bbPeriod, cfg.BollingerStdDev, cfg.BollingerStdDev, talib.SMA)
		out.BollUpper = rollingPrefix(upper, bbPeriod-1)
		out.BollMiddle = rollingPrefix(middle, bbPeriod-1)
		out.BollLower = rollingPrefix(lower, bbPeriod-1)
	}

	out.RSI = rsi(closes, cfg.RSIPeriod)
	out.VolumeMA = rolling(n, volumeMAPeriod, func() []float64 { return talib.Sma(volumes, volumeMAPeriod) })
	return out, nil
}

// trendLine 对收盘价做整段最小二乘回归，返回逐点拟合值与斜率。
// 点数不足 minPoints 时整条序列未定义。
func trendLine(closes []float64, minPoints int) ([]float64, float64) {
	n := len(closes)
	out := nanSlice(n)
	if n < minPoints {
		return out, math.NaN()
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range closes {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return out, math.NaN()
	}
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn
	for i := range out {
		out[i] = slope*float64(i) + intercept
	}
	return out, slope
}

// rsi 使用简单滚动均值（非 Wilder 指数平滑）的相对强弱指数。
// 前 period 个位置未定义（首根 K 线无涨跌幅）。平均跌幅为 0 时收敛到 100，
// 窗口完全走平时取 50，避免 NaN 逃逸到分类器。
func rsi(closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n <= period {
		return out
	}
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}
	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		gainSum += gains[i]
		lossSum += losses[i]
	}
	for t := period; t < n; t++ {
		if t > period {
			gainSum += gains[t] - gains[t-period]
			lossSum += losses[t] - losses[t-period]
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)
		switch {
		case avgLoss == 0 && avgGain == 0:
			out[t] = 50
		case avgLoss == 0:
			out[t] = 100
		default:
			rs := avgGain / avgLoss
			out[t] = 100 - 100/(1+rs)
		}
	}
	return out
}

// rolling 序列长度不足一个窗口时整条未定义，不把短序列交给 talib。
func rolling(n, period int, f func() []float64) []float64 {
	if n < period {
		return nanSlice(n)
	}
	return rollingPrefix(f(), period-1)
}

// rollingPrefix 把滚动统计未填满的前缀置为 NaN。
// talib 对该区间返回 0，无法与真实 0 值区分，这里统一改写。
func rollingPrefix(series []float64, prefix int) []float64 {
	if prefix > len(series) {
		prefix = len(series)
	}
	for i := 0; i < prefix; i++ {
		series[i] = math.NaN()
	}
	return series
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Defined 判断某个衍生值是否已定义。
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// At 返回序列 idx 处的值；越界或未定义时 ok 为 false。
func At(series []float64, idx int) (float64, bool) {
	if idx < 0 || idx >= len(series) {
		return 0, false
	}
	v := series[idx]
	if !Defined(v) {
		return 0, false
	}
	return v, true
}
