package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/WeiHenSu/analyize-coin/internal/agent"
	"github.com/WeiHenSu/analyize-coin/internal/config"
	"github.com/WeiHenSu/analyize-coin/internal/gateway/database"
	"github.com/WeiHenSu/analyize-coin/internal/store"
)

// HTTPServer 提供只读的 Gin 接口：面板状态、警报与 K 线图表。
type HTTPServer struct {
	addr     string
	cfg      *config.Config
	state    *agent.DashboardState
	series   *store.SeriesStore
	alertLog *database.AlertLogStore
	router   *gin.Engine
}

type HTTPConfig struct {
	Addr     string
	Config   *config.Config
	State    *agent.DashboardState
	Series   *store.SeriesStore
	AlertLog *database.AlertLogStore
}

func NewHTTPServer(cfg HTTPConfig) (*HTTPServer, error) {
	if cfg.Config == nil || cfg.State == nil || cfg.Series == nil {
		return nil, errors.New("config/state/series 不能为空")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &HTTPServer{
		addr:     cfg.Addr,
		cfg:      cfg.Config,
		state:    cfg.State,
		series:   cfg.Series,
		alertLog: cfg.AlertLog,
		router:   router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *HTTPServer) registerRoutes() {
	api := s.router.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/alerts", s.handleAlerts)
	api.GET("/alerts/history", s.handleAlertHistory)
	s.router.GET("/chart/:symbol", s.handleChart)
}

func (s *HTTPServer) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": s.state.Snapshot()})
}

func (s *HTTPServer) handleAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": s.state.Alerts()})
}

// handleAlertHistory 查询落库的历史警报；未启用持久化时返回空列表。
func (s *HTTPServer) handleAlertHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit 非法"})
		return
	}
	alerts, err := s.alertLog.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// Start 启动 HTTP 服务，阻塞直到 ctx 取消或出现错误。
func (s *HTTPServer) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
