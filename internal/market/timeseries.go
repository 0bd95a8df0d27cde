package market

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// TimeSeriesMeta describes the instrument and interval of a series.
type TimeSeriesMeta struct {
	Symbol           string   `json:"symbol" validate:"required"`
	Interval         Interval `json:"interval" validate:"required,oneof=1min 5min 15min 30min 1h 1day 1week 1month"`
	Currency         string   `json:"currency"`
	ExchangeTimezone string   `json:"exchange_timezone"`
	Exchange         string   `json:"exchange"`
	MICCode          string   `json:"mic_code"`
	Type             string   `json:"type"`
}

// Point is one OHLC candle. Volume is absent for some instrument types.
type Point struct {
	Datetime string `json:"datetime" validate:"required"`
	Open     string `json:"open" validate:"required"`
	High     string `json:"high" validate:"required"`
	Low      string `json:"low" validate:"required"`
	Close    string `json:"close" validate:"required"`
	Volume   string `json:"volume,omitempty"`
}

// Time parses the point datetime, see ParseDatetime.
func (p Point) Time() (time.Time, error) { return ParseDatetime(p.Datetime) }

// TimeSeries is a time series response. The upstream order of Values is not
// guaranteed; use Sorted before presenting it.
type TimeSeries struct {
	Meta   TimeSeriesMeta `json:"meta"`
	Values []Point        `json:"values" validate:"required,dive"`
	Status string         `json:"status" validate:"eq=ok"`
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDatetime accepts the date-only and date-time shapes the API emits.
// Values without an offset are read as UTC.
func ParseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
}

type sortKey struct {
	p      Point
	t      time.Time
	parsed bool
}

// Sorted returns a copy of ts with values ascending by datetime and repeated
// datetimes collapsed to their first occurrence. ts is left untouched.
func (ts *TimeSeries) Sorted() *TimeSeries {
	if ts == nil {
		return nil
	}
	out := *ts
	keys := make([]sortKey, 0, len(ts.Values))
	seen := make(map[string]struct{}, len(ts.Values))
	for _, p := range ts.Values {
		k := sortKey{p: p}
		id := p.Datetime
		if t, err := p.Time(); err == nil {
			k.t, k.parsed = t, true
			id = t.Format(time.RFC3339Nano)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, k)
	}
	// Unparsable datetimes go last, in string order.
	slices.SortStableFunc(keys, func(a, b sortKey) int {
		switch {
		case a.parsed && b.parsed:
			return a.t.Compare(b.t)
		case a.parsed:
			return -1
		case b.parsed:
			return 1
		}
		return strings.Compare(a.p.Datetime, b.p.Datetime)
	})
	out.Values = make([]Point, len(keys))
	for i, k := range keys {
		out.Values[i] = k.p
	}
	return &out
}
