package quotes_test

import (
	"sync"
	"testing"
	"time"

	"github.com/lfarina18/metafar-challenge/internal/market"
	"github.com/lfarina18/metafar-challenge/internal/querycache"
	"github.com/lfarina18/metafar-challenge/internal/quotes"
)

var utcHours = quotes.MarketHours{Location: time.UTC, OpenHour: 10}

// 2025-01-02 11:32:45 UTC, a weekday inside the real-time window.
func fixedNow() time.Time { return time.Date(2025, time.January, 2, 11, 32, 45, 0, time.UTC) }

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

type message struct {
	Level string
	Text  string
}

// recorder is a Notifier that keeps what it was told.
type recorder struct {
	mu   sync.Mutex
	msgs []message
}

func (r *recorder) add(level, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, message{level, text})
}

func (r *recorder) Error(msg string)   { r.add("error", msg) }
func (r *recorder) Info(msg string)    { r.add("info", msg) }
func (r *recorder) Success(msg string) { r.add("success", msg) }

func (r *recorder) Messages() []message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]message(nil), r.msgs...)
}

func newService(t *testing.T, api quotes.API, n *recorder) *quotes.Service {
	t.Helper()
	cache := querycache.New(
		querycache.WithPolicies(quotes.DefaultPolicies()),
		querycache.WithClock(fixedNow),
	)
	return quotes.NewService(api, cache,
		quotes.WithMarketHours(utcHours),
		quotes.WithClock(fixedNow),
		quotes.WithNotifier(n),
	)
}

func series(symbol string, datetimes ...string) *market.TimeSeries {
	ts := &market.TimeSeries{
		Meta:   market.TimeSeriesMeta{Symbol: symbol, Interval: market.FiveMinutes},
		Status: "ok",
	}
	for _, d := range datetimes {
		ts.Values = append(ts.Values, market.Point{Datetime: d, Open: "1", High: "2", Low: "0.5", Close: "1.5"})
	}
	return ts
}
