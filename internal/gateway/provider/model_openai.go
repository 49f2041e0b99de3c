package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/WeiHenSu/analyize-coin/internal/logger"
)

// OpenAIChatClient 直接访问 chat/completions 兼容接口，不引入厂商 SDK。
type OpenAIChatClient struct {
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	ExtraHeaders map[string]string
}

func (c *OpenAIChatClient) Call(ctx context.Context, payload ChatPayload) (string, error) {
	ctx = ensureCtx(ctx)
	timeout := c.ensureTimeout()
	maxRetries := normalizeRetries(c.MaxRetries)
	url := c.completionsURL()

	bodyBytes := buildOpenAIBodyBytes(c.Model, payload)
	logger.LogLLMPayload(c.Model, string(bodyBytes))

	httpc := &http.Client{Timeout: timeout}
	return c.doCompletions(ctx, httpc, url, bodyBytes, maxRetries)
}

func (c *OpenAIChatClient) ensureTimeout() time.Duration {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return c.Timeout
}

func (c *OpenAIChatClient) completionsURL() string {
	url := strings.TrimRight(c.BaseURL, "/")
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

func buildOpenAIBodyBytes(model string, payload ChatPayload) []byte {
	msgs := make([]map[string]any, 0, 2)
	if strings.TrimSpace(payload.System) != "" {
		msgs = append(msgs, map[string]any{"role": "system", "content": payload.System})
	}
	msgs = append(msgs, map[string]any{"role": "user", "content": payload.User})
	maxTokens := payload.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	temperature := payload.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	body := map[string]any{
		"model":       model,
		"messages":    msgs,
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}
	b, _ := json.Marshal(body)
	return b
}

func (c *OpenAIChatClient) doCompletions(ctx context.Context, httpc *http.Client, url string, body []byte, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt == 0 {
			logger.Debugf("[AI] 请求: POST %s headers=%v", url, redactHeaders(c.headers()))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		for k, v := range c.headers() {
			req.Header.Set(k, v)
		}
		resp, err := httpc.Do(req)
		if err != nil {
			lastErr = err
			break
		}

		if resp.StatusCode/100 == 2 {
			content, err := decodeOpenAIContent(resp)
			if err != nil {
				lastErr = err
				break
			}
			return content, nil
		}

		msg := parseOpenAIError(resp)
		lastErr = fmt.Errorf("status=%d: %s", resp.StatusCode, msg)
		if shouldRetry(resp.StatusCode) && attempt < maxRetries {
			wait := parseRetryAfter(resp.Header.Get("Retry-After"), attempt)
			time.Sleep(wait)
			continue
		}
		break
	}
	return "", lastErr
}

func decodeOpenAIContent(resp *http.Response) (string, error) {
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Debugf("[AI] response body close failed: %v", cerr)
		}
	}()
	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	out := strings.TrimSpace(r.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("empty text content")
	}
	return out, nil
}

func parseOpenAIError(resp *http.Response) string {
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Debugf("[AI] response body close failed: %v", cerr)
		}
	}()
	var eresp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&eresp); err == nil && strings.TrimSpace(eresp.Error.Message) != "" {
		return eresp.Error.Message
	}
	return resp.Status
}

func (c *OpenAIChatClient) headers() map[string]string {
	out := map[string]string{"Content-Type": "application/json"}
	if c.APIKey != "" {
		out["Authorization"] = "Bearer " + c.APIKey
	}
	for k, v := range c.ExtraHeaders {
		out[k] = v
	}
	return out
}

// Narrator 把聊天客户端适配成叙述生成方，固化模型温度与 token 上限。
type Narrator struct {
	client interface {
		Call(ctx context.Context, payload ChatPayload) (string, error)
	}
	temperature float64
	maxTokens   int
}

func NewNarrator(client *OpenAIChatClient, temperature float64, maxTokens int) *Narrator {
	return &Narrator{client: client, temperature: temperature, maxTokens: maxTokens}
}

// Generate 失败时统一包装为 ErrGeneration，调用方据此降级。
func (n *Narrator) Generate(ctx context.Context, system, user string) (string, error) {
	text, err := n.client.Call(ctx, ChatPayload{
		System:      system,
		User:        user,
		Temperature: n.temperature,
		MaxTokens:   n.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return text, nil
}
