package admin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/common"
	middleware "github.com/nimeshabuddhika/fraud-stream-simulator/pkg/middlewares"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	checkTimeout    = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

// HealthCheck reports an unhealthy dependency by returning an error.
type HealthCheck func(ctx context.Context) error

// Server exposes /health and /metrics for a background service.
type Server struct {
	logger *zap.Logger
	engine *gin.Engine
	srv    *http.Server
	checks map[string]HealthCheck
}

func NewServer(addr string, logger *zap.Logger) *Server {
	s := &Server{logger: logger, engine: gin.New(), checks: map[string]HealthCheck{}}
	s.engine.Use(gin.Recovery(), middleware.TraceID(), middleware.Metrics(), middleware.AccessLog(logger))
	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.srv = &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}
	return s
}

// AddCheck registers a named dependency probe. Not safe to call after Start.
func (s *Server) AddCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	traceID := c.GetString(pkg.TraceId)
	results := map[string]any{}
	var failed []string
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			failed = append(failed, name)
			continue
		}
		results[name] = "ok"
	}
	if len(failed) > 0 {
		slices.Sort(failed)
		s.logger.Warn("health_check_failed", zap.String(pkg.TraceId, traceID), zap.Strings("checks", failed))
		c.JSON(http.StatusServiceUnavailable, common.ErrorResponse{
			Code:    pkg.ErrServerCode.Code,
			Message: "unhealthy: " + strings.Join(failed, ","),
			TraceID: traceID,
		})
		return
	}
	c.JSON(http.StatusOK, common.APIResponse{TraceID: traceID, Data: map[string]any{"status": "ok", "checks": results}})
}

// Start serves in the background and returns a closer that shuts the server down.
// An empty address disables the server.
func (s *Server) Start() (func(), error) {
	if s.srv.Addr == "" {
		s.logger.Info("admin_server_disabled")
		return func() {}, nil
	}
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return nil, err
	}
	go func() {
		s.logger.Info("admin_server_started", zap.String("addr", ln.Addr().String()))
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin_server_error", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(ctx); err != nil {
			s.logger.Warn("admin_server_shutdown_error", zap.Error(err))
		}
	}, nil
}
