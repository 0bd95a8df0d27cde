package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lfarina18/metafar-challenge/internal/chart"
	"github.com/lfarina18/metafar-challenge/internal/market"
	"github.com/lfarina18/metafar-challenge/internal/notify"
	"github.com/lfarina18/metafar-challenge/internal/querycache"
	"github.com/lfarina18/metafar-challenge/internal/quotes"
)

// Handler serves the /api routes.
type Handler struct {
	svc     *quotes.Service
	logger  *zap.Logger
	timeout time.Duration
}

// NewHandler builds a Handler. A zero timeout leaves request contexts as
// they are.
func NewHandler(svc *quotes.Service, logger *zap.Logger, timeout time.Duration) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger, timeout: timeout}
}

type errorResponse struct {
	Error  string `json:"error"`
	NoData bool   `json:"no_data"`
}

type dataResponse[T any] struct {
	Data T `json:"data"`
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return c.Request.Context(), func() {}
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// fail renders err with the upstream status when it carries a usable one.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if s := notify.Status(err); s >= 400 && s <= 599 {
		status = s
	}
	switch {
	case errors.Is(err, quotes.ErrDisabled):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	h.logger.Debug("request failed", zap.String("request_id", c.GetString(requestIDKey)), zap.Int("status", status), zap.Error(err))
	c.JSON(status, errorResponse{Error: notify.PublicMessage(err), NoData: notify.IsNoData(err)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

type stocksQuery struct {
	Exchange string `form:"exchange"`
	Symbol   string `form:"symbol"`
	MICCode  string `form:"mic_code"`
}

// Stocks lists an exchange, or the records of one selected search match
// when symbol is given.
func (h *Handler) Stocks(c *gin.Context) {
	var q stocksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	var selected *market.SymbolMatch
	if q.Symbol != "" {
		selected = &market.SymbolMatch{Symbol: q.Symbol, Exchange: q.Exchange, MICCode: q.MICCode}
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()
	rows, err := h.svc.Instruments(ctx, q.Exchange, selected)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dataResponse[[]market.Instrument]{Data: rows})
}

func (h *Handler) StockDetail(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	res, err := h.svc.StockDetail(ctx, c.Param("symbol"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dataResponse[[]market.Instrument]{Data: res.Data})
}

type searchQuery struct {
	Q          string `form:"q"`
	OutputSize int    `form:"outputsize" binding:"omitempty,min=1,max=120"`
}

func (h *Handler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()
	matches, err := h.svc.SearchSymbols(ctx, q.Q, q.OutputSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	if matches == nil {
		matches = []market.SymbolMatch{}
	}
	c.JSON(http.StatusOK, dataResponse[[]market.SymbolMatch]{Data: matches})
}

type timeSeriesQuery struct {
	Symbol   string `form:"symbol" binding:"required"`
	Interval string `form:"interval"`
	Realtime *bool  `form:"realtime"`
	Paused   bool   `form:"paused"`
	Start    string `form:"start"`
	End      string `form:"end"`
	Points   int    `form:"points" binding:"omitempty,min=2,max=5000"`
}

type timeSeriesResponse struct {
	Meta        market.TimeSeriesMeta `json:"meta"`
	Values      []market.Point        `json:"values"`
	Chart       []chart.Point         `json:"chart"`
	Mode        quotes.Mode           `json:"mode"`
	Start       time.Time             `json:"start"`
	End         time.Time             `json:"end"`
	OutputSize  int                   `json:"outputsize"`
	PollEveryMS int64                 `json:"poll_every_ms"`
	NoData      bool                  `json:"no_data"`
}

var dateLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

func (h *Handler) parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	loc := h.svc.Hours().Location
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q", field, s)
}

func (q timeSeriesQuery) options(start, end time.Time) quotes.QuoteOptions {
	realtime := q.Realtime == nil || *q.Realtime
	return quotes.QuoteOptions{
		Symbol:   strings.ToUpper(strings.TrimSpace(q.Symbol)),
		Interval: market.Interval(q.Interval),
		Start:    start,
		End:      end,
		Realtime: realtime,
		Paused:   realtime && q.Paused,
	}
}

// TimeSeries returns the chart data for one detail view state. Real-time
// is the default; pass realtime=false with start and end for a historical
// range.
func (h *Handler) TimeSeries(c *gin.Context) {
	var q timeSeriesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if q.Interval != "" && !market.Interval(q.Interval).Valid() {
		badRequest(c, fmt.Errorf("unsupported interval %q", q.Interval))
		return
	}
	start, err := h.parseDate("start", q.Start)
	if err != nil {
		badRequest(c, err)
		return
	}
	end, err := h.parseDate("end", q.End)
	if err != nil {
		badRequest(c, err)
		return
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		badRequest(c, quotes.ErrInvalidRange)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()
	ts, plan, err := h.svc.TimeSeries(ctx, q.options(start, end))
	if err != nil {
		h.fail(c, err)
		return
	}

	points := q.Points
	if points == 0 {
		points = chart.MaxPoints
	}
	c.JSON(http.StatusOK, timeSeriesResponse{
		Meta:        ts.Meta,
		Values:      ts.Values,
		Chart:       chart.BuildSeries(ts.Values, points),
		Mode:        plan.Mode,
		Start:       plan.Params.Start,
		End:         plan.Params.End,
		OutputSize:  plan.Params.OutputSize,
		PollEveryMS: plan.PollEvery.Milliseconds(),
		NoData:      plan.Realtime && len(ts.Values) == 0,
	})
}

func (h *Handler) Quote(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	q, err := h.svc.QuoteSnapshot(ctx, strings.ToUpper(c.Param("symbol")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type invalidateQuery struct {
	Kind  string `form:"kind" binding:"required,oneof=stocks detail quotes search all"`
	Param string `form:"param"`
}

// Invalidate marks cache entries stale so the next read fetches again.
func (h *Handler) Invalidate(c *gin.Context) {
	var q invalidateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	var n int
	switch q.Kind {
	case "stocks":
		n = h.svc.InvalidateStockList(q.Param)
	case "detail":
		n = h.svc.InvalidateStockDetail(q.Param)
	case "quotes":
		n = h.svc.InvalidateQuotes(q.Param)
	case "search":
		n = h.svc.InvalidateSearch(q.Param)
	case "all":
		n = h.svc.Cache().Invalidate(querycache.All)
	}
	h.logger.Info("cache invalidated", zap.String("kind", q.Kind), zap.String("param", q.Param), zap.Int("entries", n))
	c.JSON(http.StatusOK, gin.H{"invalidated": n})
}
