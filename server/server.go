// Package server 通过 HTTP 暴露排序服务。
//
//	POST /v1/prioritize        单个城市排序，同步返回
//	POST /v1/prioritize/bulk   多城市排序，返回任务 ID
//	GET  /v1/tasks/:id         查询任务状态与结果
//	GET  /healthz              健康检查
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/service"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/task"
)

// Server 是 HTTP 服务。
type Server struct {
	echo        *echo.Echo
	prioritizer *service.Prioritizer
	tasks       *task.Registry
	logger      *zap.Logger

	requestTimeout time.Duration
	maxBulkCities  int
}

// Option Server 配置选项
type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRequestTimeout 限制同步排序请求的处理时间。
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.requestTimeout = d }
}

// WithMaxBulkCities 限制单个批量请求中的城市数量，0 表示不限制。
func WithMaxBulkCities(n int) Option {
	return func(s *Server) { s.maxBulkCities = n }
}

func New(p *service.Prioritizer, tasks *task.Registry, opts ...Option) *Server {
	s := &Server{
		prioritizer:    p,
		tasks:          tasks,
		logger:         zap.NewNop(),
		requestTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/healthz"
		},
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				s.logger.Error("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			s.logger.Info("request completed", fields...)
			return nil
		},
	}))

	e.GET("/healthz", s.health)
	v1 := e.Group("/v1")
	v1.POST("/prioritize", s.prioritize)
	v1.POST("/prioritize/bulk", s.prioritizeBulk)
	v1.GET("/tasks/:id", s.getTask)

	s.echo = e
	return s
}

// Handler 返回 http.Handler，便于测试或挂载到其它服务。
func (s *Server) Handler() http.Handler { return s.echo }

// Start 监听 addr，阻塞直到服务关闭。正常关闭时返回 nil。
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收请求并等待进行中的批量任务结束。
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.echo.Shutdown(ctx)
	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("shutdown before bulk tasks finished")
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}
