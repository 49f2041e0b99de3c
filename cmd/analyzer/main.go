package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WeiHenSu/analyize-coin/internal/agent"
	"github.com/WeiHenSu/analyize-coin/internal/config"
	"github.com/WeiHenSu/analyize-coin/internal/dashboard"
	"github.com/WeiHenSu/analyize-coin/internal/decision"
	"github.com/WeiHenSu/analyize-coin/internal/gateway/binance"
	"github.com/WeiHenSu/analyize-coin/internal/gateway/database"
	"github.com/WeiHenSu/analyize-coin/internal/gateway/provider"
	"github.com/WeiHenSu/analyize-coin/internal/logger"
	"github.com/WeiHenSu/analyize-coin/internal/store"
	httpdash "github.com/WeiHenSu/analyize-coin/internal/transport/http/dashboard"
)

func main() {
	configPath := flag.String("config", "config.toml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("加载配置失败: %v", err)
	}
	logger.Init(cfg.Logging.Level)
	logger.Infof("启动加密货币监控代理...")

	source := binance.New(binance.Config{})
	defer source.Close()
	seriesStore := store.NewSeriesStore(cfg, source)

	var gen decision.NarrativeGenerator
	if cfg.OpenAI.APIKey != "" {
		client := &provider.OpenAIChatClient{
			BaseURL: cfg.OpenAI.APIURL,
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.OpenAI.Timeout(),
		}
		gen = provider.NewNarrator(client, cfg.OpenAI.Temperature, cfg.OpenAI.MaxTokens)
	} else {
		logger.Warnf("未配置 OPENAI_API_KEY，重要时刻将使用模板分析")
	}
	svc := decision.NewService(cfg, seriesStore, gen)

	var alertLog *database.AlertLogStore
	if cfg.Database.Enabled {
		alertLog, err = database.OpenAlertLog(cfg.Database.Path)
		if err != nil {
			logger.Fatalf("初始化警报库失败: %v", err)
		}
		defer alertLog.Close()
	}

	monitor := agent.NewMonitor(cfg, seriesStore, svc, alertLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HTTP.Enabled {
		srv, err := httpdash.NewHTTPServer(httpdash.HTTPConfig{
			Addr:     cfg.HTTP.Addr,
			Config:   cfg,
			State:    monitor.State(),
			Series:   seriesStore,
			AlertLog: alertLog,
		})
		if err != nil {
			logger.Fatalf("初始化 HTTP 服务失败: %v", err)
		}
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Errorf("HTTP 服务异常退出: %v", err)
			}
		}()
		logger.Infof("HTTP 服务已启动: %s", cfg.HTTP.Addr)
	}

	renderer := dashboard.NewRenderer(time.Second, dashboard.Thresholds{
		RSIOverbought: cfg.Alerts.RSIOverbought,
		RSIOversold:   cfg.Alerts.RSIOversold,
	})
	go renderer.Run(ctx, monitor.State())

	if err := monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("监控循环异常退出: %v", err)
		os.Exit(1)
	}
	logger.Infof("正在关闭代理...")
}
