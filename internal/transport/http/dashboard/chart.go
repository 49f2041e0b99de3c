package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/WeiHenSu/analyize-coin/internal/analysis/indicator"
	"github.com/WeiHenSu/analyize-coin/internal/market"
)

// handleChart 渲染某个 symbol 的 K 线 + 均线 + 趋势线叠加图。
// 优先使用最近一次成功拉取的序列，数据源抖动时图表依然可用。
func (s *HTTPServer) handleChart(c *gin.Context) {
	symbol := c.Param("symbol")
	if !s.cfg.IsValidSymbol(symbol) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("未监控的交易对: %s", symbol)})
		return
	}
	interval := s.cfg.ResolveInterval(c.Query("interval"))

	series, ok := s.series.LastGood(symbol, interval)
	if !ok {
		fetched, err := s.series.Fetch(c.Request.Context(), symbol, interval, s.cfg.Analysis.DefaultDays)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, market.ErrInvalidSymbol) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		series = fetched
	}
	if series.Len() == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "暂无 K 线数据"})
		return
	}

	chart, err := buildKlineChart(series, s.cfg.Indicators.MA.DefaultPeriod, s.cfg.Trend.MinPoints)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := chart.Render(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func buildKlineChart(series market.Series, maPeriod, trendMinPoints int) (*charts.Kline, error) {
	ind, err := indicator.Compute(series, indicator.Settings{
		MAPeriods:       []int{maPeriod},
		DefaultMAPeriod: maPeriod,
		TrendMinPoints:  trendMinPoints,
	})
	if err != nil {
		return nil, err
	}

	n := series.Len()
	xs := make([]string, n)
	klineData := make([]opts.KlineData, n)
	for i, candle := range series.Candles {
		xs[i] = time.UnixMilli(candle.OpenTime).Format("2006-01-02 15:04")
		klineData[i] = opts.KlineData{Value: [4]float64{candle.Open, candle.Close, candle.Low, candle.High}}
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s %s", series.Symbol, series.Interval)}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Start: 50, End: 100}),
	)
	kline.SetXAxis(xs).AddSeries("K线", klineData)

	ma := charts.NewLine()
	ma.SetXAxis(xs).AddSeries(fmt.Sprintf("MA%d", maPeriod), lineData(ind.MA[maPeriod]))
	kline.Overlap(ma)

	trend := charts.NewLine()
	trend.SetXAxis(xs).AddSeries("趋势线", lineData(ind.TrendLine))
	kline.Overlap(trend)
	return kline, nil
}

// lineData 未定义位置置为 "-"，ECharts 会断开而不是画到 0。
func lineData(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		if !indicator.Defined(v) {
			out[i] = opts.LineData{Value: "-"}
			continue
		}
		out[i] = opts.LineData{Value: v}
	}
	return out
}
