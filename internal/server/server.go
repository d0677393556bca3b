// 包 server 提供本地分析接口（gin）：
// - /api/dashboard-data 返回与上游分析接口相同形状的数据，供前端或其它实例使用
// - /api/dashboard 返回完整视图（含面板状态）
// - /api/posts/top、/api/search、/api/system-stats 基于本地帖子
// - /healthz 与 /metrics（Prometheus）
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go-social-dashboard/internal/apperr"
	"go-social-dashboard/internal/collect"
	"go-social-dashboard/internal/dashboard"
	"go-social-dashboard/internal/export"
	"go-social-dashboard/internal/logx"
	"go-social-dashboard/internal/model"
)

// Collector 为可按需触发的采集器。
type Collector interface {
	Run(ctx context.Context) (collect.Report, error)
}

// Options 为服务参数。Data 与 Collector 可为空（远程模式）。
type Options struct {
	Dashboard *dashboard.Orchestrator
	Data      export.Data
	Collector Collector
	// RecentLimit 为 /api/dashboard-data 返回的最近帖子上限。
	RecentLimit int
	Now         func() time.Time
}

// Server 持有路由与依赖。
type Server struct {
	opts    Options
	metrics *Metrics
	engine  *gin.Engine
}

// New 创建服务并注册路由。
func New(opts Options) *Server {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 50
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{opts: opts, metrics: NewMetrics()}
	r := gin.New()
	r.Use(gin.Recovery(), s.metrics.Middleware())

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", s.metrics.Handler())

	api := r.Group("/api")
	api.GET("/dashboard-data", s.dashboardData)
	api.GET("/dashboard", s.dashboard)
	api.GET("/posts/top", s.topPosts)
	api.GET("/search", s.search)
	api.GET("/system-stats", s.systemStats)
	api.POST("/collect", s.collect)
	s.engine = r
	return s
}

// Handler 返回 http.Handler，便于测试与自定义监听。
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe 监听 addr，ctx 结束时优雅关闭。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logx.Infof("本地接口监听：%s", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": s.opts.Now().UTC()})
}

// load 组装一份独立视图，并记录各面板结果。
func (s *Server) load(c *gin.Context) (*model.DashboardViewModel, bool) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	vm, err := s.opts.Dashboard.Snapshot(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return nil, false
	}
	s.metrics.ObservePanels(vm)
	return vm, true
}

func (s *Server) dashboardData(c *gin.Context) {
	vm, ok := s.load(c)
	if !ok {
		return
	}
	recent := vm.RecentPosts.Items
	if s.opts.Data != nil {
		posts, err := s.recentPosts(c.Request.Context(), vm.Filter)
		if err != nil {
			logx.Warnf("读取最近帖子失败：%v", err)
		} else {
			recent = posts
		}
	}
	c.JSON(http.StatusOK, toWire(vm, recent))
}

func (s *Server) dashboard(c *gin.Context) {
	vm, ok := s.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, vm)
}

func (s *Server) collect(c *gin.Context) {
	if s.opts.Collector == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"status": "error", "message": "collection not configured"})
		return
	}
	rep, err := s.opts.Collector.Run(c.Request.Context())
	if err != nil {
		s.metrics.collectRuns.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	s.metrics.collectRuns.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"collected": rep.Posts,
		"sources":   rep.Sources,
		"failed":    rep.Failed,
		"invalid":   rep.Invalid,
		"cleaned":   rep.Cleaned,
	})
}

// parseFilter 读取 source/keyword/timeRange/sentiment/page 查询参数；未提供的取默认值。
func parseFilter(c *gin.Context) (model.FilterState, error) {
	f := model.DefaultFilterState()
	if v := strings.TrimSpace(c.Query("source")); v != "" {
		f.Source = v
	}
	f.Keyword = strings.TrimSpace(c.Query("keyword"))
	if v := strings.TrimSpace(c.Query("sentiment")); v != "" {
		f.Sentiment = v
	}
	var err error
	if f.TimeRangeDays, err = intQuery(c, "timeRange", f.TimeRangeDays); err != nil {
		return f, err
	}
	if f.Page, err = intQuery(c, "page", f.Page); err != nil {
		return f, err
	}
	return f.Clamped(), nil
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperr.Inputf(key, "expect non-negative integer, got %q", v)
	}
	return n, nil
}
