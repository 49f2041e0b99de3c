package dashboard

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/WeiHenSu/analyize-coin/internal/agent"
)

// 中文说明：
// 终端实时面板。只读取 DashboardState 的快照，不持有任何业务状态；
// 单个 symbol 渲染数据异常时显示降级单元格，整个面板不会崩。

const clearScreen = "\033[H\033[2J"

// Thresholds RSI 着色边界，与警报配置共用同一组阈值。
type Thresholds struct {
	RSIOverbought float64
	RSIOversold   float64
}

func (t Thresholds) withDefaults() Thresholds {
	if t.RSIOverbought <= 0 {
		t.RSIOverbought = 70
	}
	if t.RSIOversold <= 0 {
		t.RSIOversold = 30
	}
	return t
}

type Renderer struct {
	out     io.Writer
	refresh time.Duration
	th      Thresholds
}

func NewRenderer(refresh time.Duration, th Thresholds) *Renderer {
	if refresh <= 0 {
		refresh = time.Second
	}
	return &Renderer{out: os.Stdout, refresh: refresh, th: th.withDefaults()}
}

// Run 按固定节奏重绘面板，直到 ctx 取消。
func (r *Renderer) Run(ctx context.Context, state *agent.DashboardState) {
	ticker := time.NewTicker(r.refresh)
	defer ticker.Stop()
	r.draw(state)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.draw(state)
		}
	}
}

func (r *Renderer) draw(state *agent.DashboardState) {
	fmt.Fprint(r.out, clearScreen)
	fmt.Fprintln(r.out, Render(state, r.th))
}

// Render 生成完整面板文本：行情表 + 最近警报。
func Render(state *agent.DashboardState, th Thresholds) string {
	th = th.withDefaults()
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle("加密货币即时监控")
	t.AppendHeader(table.Row{"交易对", "当前价格", "变化", "趋势状态", "RSI", "最后更新"})
	for _, status := range state.Snapshot() {
		t.AppendRow(statusRow(status, th))
	}

	out := t.Render()
	alerts := state.Alerts()
	if len(alerts) > 0 {
		out += "\n最近警报:"
		for _, a := range alerts {
			out += fmt.Sprintf("\n  [%s] %s", a.Timestamp.Format("15:04:05"), a.Message)
		}
	}
	return out
}

func statusRow(s agent.SymbolStatus, th Thresholds) table.Row {
	price := "N/A"
	if s.Price != nil {
		price = fmt.Sprintf("$%.2f", *s.Price)
	} else if s.PriceFailed {
		price = text.FgRed.Sprint("Error")
	}

	change := "N/A"
	if s.PriceChangePct != nil {
		if *s.PriceChangePct >= 0 {
			change = text.FgGreen.Sprintf("+%.2f%%", *s.PriceChangePct)
		} else {
			change = text.FgRed.Sprintf("%.2f%%", *s.PriceChangePct)
		}
	}

	trend := "N/A"
	if s.HasAnalysis {
		trend = s.BreakoutSummary
		if s.IsCritical {
			trend = text.Colors{text.FgRed, text.Bold}.Sprintf("❗%s", trend)
		}
	}

	rsi := "N/A"
	if s.RSI != nil {
		switch {
		case *s.RSI >= th.RSIOverbought:
			rsi = text.FgRed.Sprintf("%.1f", *s.RSI)
		case *s.RSI <= th.RSIOversold:
			rsi = text.FgGreen.Sprintf("%.1f", *s.RSI)
		default:
			rsi = fmt.Sprintf("%.1f", *s.RSI)
		}
	}

	updated := "N/A"
	if !s.LastUpdate.IsZero() {
		updated = s.LastUpdate.Format("15:04:05")
	}
	return table.Row{s.Symbol, price, change, trend, rsi, updated}
}
