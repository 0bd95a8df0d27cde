package quotes

import (
	"time"

	"github.com/lfarina18/metafar-challenge/internal/market"
	"github.com/lfarina18/metafar-challenge/internal/querycache"
	"github.com/lfarina18/metafar-challenge/internal/twelvedata"
)

// Entity kinds cached by the service.
const (
	KindStockList     querycache.Kind = "stocks.list"
	KindStockDetail   querycache.Kind = "stocks.detail"
	KindQuote         querycache.Kind = "quotes.detail"
	KindRealtimeQuote querycache.Kind = "quotes.realtime"
	KindSearch        querycache.Kind = "search.symbols"
	KindQuoteSnapshot querycache.Kind = "quotes.snapshot"
)

const (
	dayLayout    = "2006-01-02"
	minuteLayout = "2006-01-02T15:04"
)

// DefaultPolicies is the per kind freshness table. Instrument lists are
// reference data and only change on explicit invalidation; real-time quotes
// are refetched on every read.
func DefaultPolicies() map[querycache.Kind]querycache.Policy {
	return map[querycache.Kind]querycache.Policy{
		KindStockList:     {StaleTime: querycache.Forever, GCTime: querycache.Forever, Retries: querycache.DefaultRetries},
		KindStockDetail:   {StaleTime: 5 * time.Minute, GCTime: 10 * time.Minute, Retries: querycache.DefaultRetries},
		KindQuote:         {StaleTime: 5 * time.Minute, GCTime: 5 * time.Minute, Retries: querycache.DefaultRetries},
		KindRealtimeQuote: {StaleTime: 0, GCTime: 5 * time.Minute, Retries: querycache.DefaultRetries},
		KindSearch:        {StaleTime: time.Minute, GCTime: 5 * time.Minute, Retries: querycache.DefaultRetries},
		KindQuoteSnapshot: {StaleTime: 0, GCTime: 5 * time.Minute, Retries: querycache.DefaultRetries},
	}
}

func StockListKey(exchange string) querycache.Key {
	if exchange == "" {
		exchange = twelvedata.DefaultExchange
	}
	return querycache.NewKey(KindStockList, exchange)
}

func StockDetailKey(symbol string) querycache.Key {
	return querycache.NewKey(KindStockDetail, symbol)
}

// QuoteKey identifies a historical series. Distinct ranges never share an
// entry.
func QuoteKey(symbol string, interval market.Interval, start, end time.Time) querycache.Key {
	return querycache.NewKey(KindQuote, symbol, interval.String(), formatMinute(start), formatMinute(end))
}

// RealtimeQuoteKey identifies the real-time series of one calendar day, so
// every poll of that day reuses one entry.
func RealtimeQuoteKey(symbol string, interval market.Interval, day time.Time) querycache.Key {
	return querycache.NewKey(KindRealtimeQuote, symbol, interval.String(), day.Format(dayLayout))
}

func SymbolSearchKey(query string) querycache.Key {
	return querycache.NewKey(KindSearch, query)
}

func QuoteSnapshotKey(symbol string) querycache.Key {
	return querycache.NewKey(KindQuoteSnapshot, symbol)
}

func formatMinute(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(minuteLayout)
}
