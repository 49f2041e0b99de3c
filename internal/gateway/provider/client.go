package provider

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// 中文说明：
// 模型提供方的公共部分：请求载荷、错误分类与重试策略。
// 具体厂商客户端各自组装请求体，复用这里的退避与脱敏逻辑。

// ErrGeneration 表示叙述生成失败（网络、配额、解码等），
// 编排层据此回退到模板文本。
var ErrGeneration = errors.New("叙述生成失败")

// ChatPayload 单轮对话请求。
type ChatPayload struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

const defaultMaxRetries = 2

func ensureCtx(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func normalizeRetries(n int) int {
	if n < 0 {
		return 0
	}
	if n == 0 {
		return defaultMaxRetries
	}
	return n
}

// shouldRetry 仅对限流与服务端错误重试。
func shouldRetry(status int) bool {
	return status == 429 || status/100 == 5
}

// parseRetryAfter 优先采用服务端给出的等待时长，否则指数退避。
func parseRetryAfter(header string, attempt int) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// redactHeaders 日志用：遮蔽密钥类请求头的主体部分。
func redactHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "auth") || strings.Contains(lk, "key") || strings.Contains(lk, "token") {
			if len(v) > 4 {
				out[k] = "****" + v[len(v)-4:]
			} else {
				out[k] = "****"
			}
			continue
		}
		out[k] = v
	}
	return out
}
