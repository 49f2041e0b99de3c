package binance

import "time"

// Config 描述 Binance 数据源运行所需的参数。
type Config struct {
	APIKey      string
	SecretKey   string
	BaseURL     string
	HTTPTimeout time.Duration
	PageLimit   int
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	if out.PageLimit <= 0 || out.PageLimit > 1000 {
		out.PageLimit = 1000
	}
	return out
}
