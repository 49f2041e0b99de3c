package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/WeiHenSu/analyize-coin/internal/agent"
	"github.com/WeiHenSu/analyize-coin/internal/decision"
)

const (
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func stateWithRSI(t *testing.T, rsi float64) *agent.DashboardState {
	t.Helper()
	state := agent.NewDashboardState([]string{"BTCUSDT"})
	state.SetAnalysis("BTCUSDT", decision.AnalysisResult{
		TraceID: "t1",
		Snapshot: decision.TechnicalSnapshot{
			Symbol:          "BTCUSDT",
			BreakoutSummary: "无明显突破",
			RSI:             &rsi,
			GeneratedAt:     time.Now(),
		},
		Narrative: "示例分析",
	})
	return state
}

func TestRenderUsesConfiguredRSIBounds(t *testing.T) {
	text.EnableColors()
	defer text.DisableColors()

	state := stateWithRSI(t, 65)
	// 收紧后的超买线把 65 标红；默认 70 不标。
	tight := Render(state, Thresholds{RSIOverbought: 60, RSIOversold: 30})
	if !strings.Contains(tight, ansiRed+"65.0") {
		t.Errorf("RSI 65 超过配置超买线 60，应标红:\n%s", tight)
	}
	def := Render(state, Thresholds{})
	if strings.Contains(def, ansiRed+"65.0") {
		t.Errorf("默认超买线 70 下 RSI 65 不应标红:\n%s", def)
	}
}

func TestRenderConfiguredOversold(t *testing.T) {
	text.EnableColors()
	defer text.DisableColors()

	state := stateWithRSI(t, 35)
	out := Render(state, Thresholds{RSIOverbought: 70, RSIOversold: 40})
	if !strings.Contains(out, ansiGreen+"35.0") {
		t.Errorf("RSI 35 低于配置超卖线 40，应标绿:\n%s", out)
	}
}

func TestRenderDegradedCells(t *testing.T) {
	state := agent.NewDashboardState([]string{"BTCUSDT"})
	state.MarkPriceFailed("BTCUSDT")

	out := Render(state, Thresholds{})
	if !strings.Contains(out, "BTCUSDT") {
		t.Errorf("面板缺少交易对行:\n%s", out)
	}
	if !strings.Contains(out, "N/A") {
		t.Errorf("无分析数据时应显示 N/A:\n%s", out)
	}
}

func TestThresholdsWithDefaults(t *testing.T) {
	th := Thresholds{}.withDefaults()
	if th.RSIOverbought != 70 || th.RSIOversold != 30 {
		t.Errorf("缺省阈值 = %+v, want 70/30", th)
	}
	th = Thresholds{RSIOverbought: 60, RSIOversold: 40}.withDefaults()
	if th.RSIOverbought != 60 || th.RSIOversold != 40 {
		t.Errorf("显式阈值被覆盖: %+v", th)
	}
}
