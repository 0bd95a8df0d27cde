// Package quotes binds the market data API to the query cache: it computes
// request parameters, picks cache keys and policies, decides which failures
// reach the user and drives real-time polling for a detail view session.
package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lfarina18/metafar-challenge/internal/market"
	"github.com/lfarina18/metafar-challenge/internal/notify"
	"github.com/lfarina18/metafar-challenge/internal/querycache"
	"github.com/lfarina18/metafar-challenge/internal/twelvedata"
)

//go:generate mockgen -package=quotes_test -destination=mock_api_test.go -source=service.go API

// API is the upstream market data API. *twelvedata.Client implements it.
type API interface {
	StockList(ctx context.Context, exchange string) (*twelvedata.StockListResponse, error)
	StockDetail(ctx context.Context, symbol string) (*twelvedata.StockListResponse, error)
	TimeSeries(ctx context.Context, p twelvedata.TimeSeriesParams) (*market.TimeSeries, error)
	SymbolSearch(ctx context.Context, query string, outputSize int) (*twelvedata.SymbolSearchResponse, error)
	Quote(ctx context.Context, symbol string) (*market.QuoteSnapshot, error)
}

var _ API = (*twelvedata.Client)(nil)

// ErrDisabled is returned when a request lacks what it needs to be sent.
var ErrDisabled = errors.New("quotes: query disabled")

// Service reads market data through the cache.
type Service struct {
	api      API
	cache    *querycache.Cache
	hours    MarketHours
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time

	defaultExchange string
	prefetchLimit   int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithMarketHours(h MarketHours) ServiceOption {
	return func(s *Service) { s.hours = h }
}

func WithNotifier(n notify.Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func WithDefaultExchange(exchange string) ServiceOption {
	return func(s *Service) { s.defaultExchange = exchange }
}

// WithPrefetchLimit bounds concurrent list fetches in PrefetchLists.
func WithPrefetchLimit(n int) ServiceOption {
	return func(s *Service) { s.prefetchLimit = n }
}

// NewService builds a Service over api and cache.
func NewService(api API, cache *querycache.Cache, opts ...ServiceOption) *Service {
	s := &Service{
		api:             api,
		cache:           cache,
		hours:           DefaultMarketHours(),
		notifier:        notify.Discard,
		logger:          zap.NewNop(),
		now:             time.Now,
		defaultExchange: twelvedata.DefaultExchange,
		prefetchLimit:   4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache returns the underlying cache.
func (s *Service) Cache() *querycache.Cache { return s.cache }

// Hours returns the configured market hours.
func (s *Service) Hours() MarketHours { return s.hours }

// NewSession starts a detail view session for symbol.
func (s *Service) NewSession(symbol string) *Session {
	return NewSession(symbol, s.hours, s.now)
}

func (s *Service) toastError(err error) {
	s.notifier.Error(notify.PublicMessage(err))
}

func (s *Service) exchange(exchange string) string {
	if exchange == "" {
		return s.defaultExchange
	}
	return exchange
}

// StockList lists the instruments of exchange, or of the default exchange.
func (s *Service) StockList(ctx context.Context, exchange string) (*twelvedata.StockListResponse, error) {
	exchange = s.exchange(exchange)
	return querycache.Get(ctx, s.cache, querycache.Query[*twelvedata.StockListResponse]{
		Key: StockListKey(exchange),
		Fetch: func(ctx context.Context) (*twelvedata.StockListResponse, error) {
			return s.api.StockList(ctx, exchange)
		},
		OnError: s.toastError,
	})
}

// StockDetail returns the instrument records of symbol.
func (s *Service) StockDetail(ctx context.Context, symbol string) (*twelvedata.StockListResponse, error) {
	if symbol == "" {
		return nil, ErrDisabled
	}
	return querycache.Get(ctx, s.cache, querycache.Query[*twelvedata.StockListResponse]{
		Key: StockDetailKey(symbol),
		Fetch: func(ctx context.Context) (*twelvedata.StockListResponse, error) {
			return s.api.StockDetail(ctx, symbol)
		},
		OnError: s.toastError,
	})
}

// Instruments returns the table rows: the exchange listing, or, once a
// search match is selected, that symbol's records on the match's exchange
// and MIC.
func (s *Service) Instruments(ctx context.Context, exchange string, selected *market.SymbolMatch) ([]market.Instrument, error) {
	if selected == nil {
		res, err := s.StockList(ctx, exchange)
		if err != nil {
			return nil, err
		}
		return res.Data, nil
	}

	res, err := s.StockDetail(ctx, selected.Symbol)
	if err != nil {
		return nil, err
	}
	rows := make([]market.Instrument, 0, len(res.Data))
	for _, in := range res.Data {
		if in.Exchange == selected.Exchange && in.MICCode == selected.MICCode {
			rows = append(rows, in)
		}
	}
	return rows, nil
}

// SearchSymbols searches by free text. A blank query returns no matches
// without a request.
func (s *Service) SearchSymbols(ctx context.Context, query string, outputSize int) ([]market.SymbolMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	res, err := querycache.Get(ctx, s.cache, querycache.Query[*twelvedata.SymbolSearchResponse]{
		Key: SymbolSearchKey(query),
		Fetch: func(ctx context.Context) (*twelvedata.SymbolSearchResponse, error) {
			return s.api.SymbolSearch(ctx, query, outputSize)
		},
		OnError: func(error) { s.notifier.Error(notify.MsgSearchFailed) },
	})
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// TimeSeries reads the series opts selects and returns it sorted, together
// with the plan used. Real-time failures are not shown to the user.
func (s *Service) TimeSeries(ctx context.Context, opts QuoteOptions) (*market.TimeSeries, Plan, error) {
	plan := PlanQuote(opts, s.hours, s.now())
	ts, err := s.fetchPlan(ctx, plan)
	return ts, plan, err
}

func (s *Service) fetchPlan(ctx context.Context, plan Plan) (*market.TimeSeries, error) {
	if !plan.Enabled {
		return nil, ErrDisabled
	}
	onError := s.toastError
	if plan.Realtime {
		onError = func(err error) {
			s.logger.Debug("real-time fetch failed", zap.Stringer("key", plan.Key), zap.Error(err))
		}
	}
	ts, err := querycache.Get(ctx, s.cache, querycache.Query[*market.TimeSeries]{
		Key: plan.Key,
		Fetch: func(ctx context.Context) (*market.TimeSeries, error) {
			return s.api.TimeSeries(ctx, plan.Params)
		},
		OnError: onError,
	})
	if err != nil {
		return nil, err
	}
	return ts.Sorted(), nil
}

// QuoteSnapshot returns the latest quote of symbol.
func (s *Service) QuoteSnapshot(ctx context.Context, symbol string) (*market.QuoteSnapshot, error) {
	if symbol == "" {
		return nil, ErrDisabled
	}
	return querycache.Get(ctx, s.cache, querycache.Query[*market.QuoteSnapshot]{
		Key: QuoteSnapshotKey(symbol),
		Fetch: func(ctx context.Context) (*market.QuoteSnapshot, error) {
			return s.api.Quote(ctx, symbol)
		},
	})
}

// PrefetchLists loads the listings of exchanges concurrently and stops at
// the first failure.
func (s *Service) PrefetchLists(ctx context.Context, exchanges []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.prefetchLimit, 1))
	for _, ex := range exchanges {
		g.Go(func() error {
			res, err := s.StockList(ctx, ex)
			if err != nil {
				return fmt.Errorf("prefetch %s: %w", ex, err)
			}
			s.logger.Debug("stock list ready", zap.String("exchange", ex), zap.Int("instruments", len(res.Data)))
			return nil
		})
	}
	return g.Wait()
}

// RefreshLists marks the listings stale and loads them again.
func (s *Service) RefreshLists(ctx context.Context, exchanges []string) error {
	for _, ex := range exchanges {
		s.InvalidateStockList(ex)
	}
	return s.PrefetchLists(ctx, exchanges)
}

func (s *Service) InvalidateStockList(exchange string) int {
	return s.cache.Invalidate(querycache.Match(KindStockList, s.exchange(exchange)))
}

// InvalidateStockDetail marks the records of symbol stale, or all of them
// when symbol is empty.
func (s *Service) InvalidateStockDetail(symbol string) int {
	return s.cache.Invalidate(querycache.Match(KindStockDetail, optional(symbol)...))
}

// InvalidateQuotes marks every cached series of symbol stale, historical and
// real-time. An empty symbol selects all of them.
func (s *Service) InvalidateQuotes(symbol string) int {
	params := optional(symbol)
	return s.cache.Invalidate(querycache.Match(KindQuote, params...)) +
		s.cache.Invalidate(querycache.Match(KindRealtimeQuote, params...)) +
		s.cache.Invalidate(querycache.Match(KindQuoteSnapshot, params...))
}

func (s *Service) InvalidateSearch(query string) int {
	return s.cache.Invalidate(querycache.Match(KindSearch, optional(strings.TrimSpace(query))...))
}

func optional(param string) []string {
	if param == "" {
		return nil
	}
	return []string{param}
}

// PersistFilter selects the entries worth persisting: instrument lists.
var PersistFilter querycache.Predicate = querycache.Match(KindStockList)

// DecodeEntry restores dehydrated data into the type each kind is read as.
func DecodeEntry(key querycache.Key, data json.RawMessage) (any, error) {
	switch key.Kind {
	case KindStockList, KindStockDetail:
		return decode[twelvedata.StockListResponse](data)
	case KindSearch:
		return decode[twelvedata.SymbolSearchResponse](data)
	case KindQuote, KindRealtimeQuote:
		return decode[market.TimeSeries](data)
	case KindQuoteSnapshot:
		return decode[market.QuoteSnapshot](data)
	}
	return nil, fmt.Errorf("unknown kind %q", key.Kind)
}

func decode[T any](data json.RawMessage) (any, error) {
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}
