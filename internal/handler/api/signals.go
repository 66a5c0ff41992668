// Package api exposes the latest run's signals over HTTP for dashboards and
// spot checks. It reads the in-memory result set only; it never triggers a run.
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"RiskPulse/internal/domain/models"
	xlogger "RiskPulse/pkg/logger"
)

// ResultsSource is the read side of the run pipeline.
type ResultsSource interface {
	// Modules lists the module names with published results.
	Modules() []string
	// LatestResults returns the most recent results for a module.
	LatestResults(module string) ([]models.SeriesResult, bool)
}

type SignalsHandler struct {
	logger *xlogger.Logger
	source ResultsSource
}

func NewSignalsHandler(logger *xlogger.Logger, source ResultsSource) *SignalsHandler {
	return &SignalsHandler{logger: logger, source: source}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/modules", h.ListModules)
	g.GET("/modules/:module/signals", h.ModuleSignals)
}

func (h *SignalsHandler) ListModules(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"modules": h.source.Modules(),
	})
}

// ModuleSignals returns the latest classified signals for one module,
// optionally filtered by ?min_tier=WATCH.
func (h *SignalsHandler) ModuleSignals(c echo.Context) error {
	module := c.Param("module")
	results, ok := h.source.LatestResults(module)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "unknown module or no completed run yet",
		})
	}

	if raw := c.QueryParam("min_tier"); raw != "" {
		min := models.ParseTier(strings.ToUpper(raw))
		filtered := make([]models.SeriesResult, 0, len(results))
		for _, r := range results {
			if r.Tier >= min {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"module":  module,
		"count":   len(results),
		"signals": results,
	})
}
