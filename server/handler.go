package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/service"
)

// BulkRequest 是批量排序请求体。
type BulkRequest struct {
	Requests           []service.Request `json:"requests"`
	Concurrency        int               `json:"concurrency,omitempty"`
	CityTimeoutSeconds int               `json:"city_timeout_seconds,omitempty"`
}

// BulkAccepted 是批量排序的受理响应。
type BulkAccepted struct {
	TaskID string `json:"task_id"`
	Cities int    `json:"cities"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"actions": len(s.prioritizer.Actions()),
	})
}

func (s *Server) prioritize(c echo.Context) error {
	var req service.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}
	res, err := s.prioritizer.Prioritize(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) prioritizeBulk(c echo.Context) error {
	var req BulkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Requests) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "requests must not be empty")
	}
	if s.maxBulkCities > 0 && len(req.Requests) > s.maxBulkCities {
		return echo.NewHTTPError(http.StatusBadRequest, "too many cities in one request")
	}

	opts := service.BulkOptions{
		Concurrency: req.Concurrency,
		CityTimeout: time.Duration(req.CityTimeoutSeconds) * time.Second,
	}
	t, err := s.tasks.Submit(c.Request().Context(), func(ctx context.Context) (any, error) {
		return s.prioritizer.PrioritizeBulk(ctx, req.Requests, opts)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, BulkAccepted{TaskID: t.ID, Cities: len(req.Requests)})
}

func (s *Server) getTask(c echo.Context) error {
	t, err := s.tasks.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}
