package decision

import (
	"context"
	"fmt"
	"strings"
)

// NarrativeGenerator 把结构化快照变成人类可读分析文本的外部协作方。
// 失败时编排层回退到模板文本，生成方的错误不会外泄。
type NarrativeGenerator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

const analystSystemRole = "你是一个专业的技术分析师，专注于加密货币市场的趋势分析和假突破判断。"

// NarrativeSettings 模板文本与提示词共用的阈值。
type NarrativeSettings struct {
	RSIOverbought float64
	RSIOversold   float64
}

// basicNarrative 模板化分析：趋势行 + RSI 区间行 + 支撑阻力行。
// 确定性拼接，不依赖任何外部服务。
func basicNarrative(snap TechnicalSnapshot, cfg NarrativeSettings) string {
	lines := []string{fmt.Sprintf("当前趋势: %s", snap.BreakoutSummary)}
	if snap.RSI != nil {
		rsi := *snap.RSI
		switch {
		case rsi >= cfg.RSIOverbought:
			lines = append(lines, fmt.Sprintf("RSI (%.1f) 显示市场处于超买状态", rsi))
		case rsi <= cfg.RSIOversold:
			lines = append(lines, fmt.Sprintf("RSI (%.1f) 显示市场处于超卖状态", rsi))
		default:
			lines = append(lines, fmt.Sprintf("RSI (%.1f) 处于正常区间", rsi))
		}
	}
	if snap.Support != nil && snap.Resistance != nil {
		lines = append(lines, fmt.Sprintf("支撑位: $%.2f", *snap.Support))
		lines = append(lines, fmt.Sprintf("阻力位: $%.2f", *snap.Resistance))
	}
	return strings.Join(lines, "\n")
}

// criticalPrompt 重要时刻发给模型的提示词，列出全部技术面读数与市场状况。
func criticalPrompt(snap TechnicalSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "请分析 %s 的重要市场信号：\n\n", snap.Symbol)
	b.WriteString("价格数据：\n")
	writeReading(&b, "当前价格", snap.CurrentPrice)
	writeReading(&b, "趋势线价格", snap.TrendLine)
	writeReading(&b, "支撑位", snap.Support)
	writeReading(&b, "阻力位", snap.Resistance)
	if snap.RSI != nil {
		fmt.Fprintf(&b, "- RSI: %.2f\n", *snap.RSI)
	} else {
		b.WriteString("- RSI: 暂无\n")
	}
	fmt.Fprintf(&b, "\n市场状况：\n%s\n\n", snap.BreakoutSummary)
	b.WriteString("请特别关注：\n")
	b.WriteString("1. 是否出现假突破\n")
	b.WriteString("2. 突破的有效性\n")
	b.WriteString("3. 建议的操作策略\n")
	b.WriteString("4. 风险提示\n\n")
	b.WriteString("请提供专业但易懂的分析。")
	return b.String()
}

func writeReading(b *strings.Builder, label string, v *float64) {
	if v != nil {
		fmt.Fprintf(b, "- %s: $%.2f\n", label, *v)
		return
	}
	fmt.Fprintf(b, "- %s: 暂无\n", label)
}
