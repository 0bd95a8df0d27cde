// Package httpapi serves the cached market data to the browser front end.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HTTPObserver records served requests. *metrics.Metrics implements it.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// RouterConfig holds the optional parts of the router.
type RouterConfig struct {
	Logger   *zap.Logger
	Observer HTTPObserver
	Gatherer prometheus.Gatherer
}

// NewRouter mounts the API on a gin engine.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(recovery(logger), requestLog(logger), cors())
	if cfg.Observer != nil {
		r.Use(observe(cfg.Observer))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.GET("/stocks", h.Stocks)
	api.GET("/stocks/:symbol", h.StockDetail)
	api.GET("/search", h.Search)
	api.GET("/time_series", h.TimeSeries)
	api.GET("/quote/:symbol", h.Quote)
	api.POST("/cache/invalidate", h.Invalidate)
	return r
}
