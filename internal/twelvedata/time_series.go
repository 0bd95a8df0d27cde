package twelvedata

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/lfarina18/metafar-challenge/internal/market"
)

// DefaultOutputSize is the number of points requested when none is given.
const DefaultOutputSize = 30

const dateOnly = "2006-01-02"

// TimeSeriesParams selects a time series. Start and End are only sent when
// both are set, and only their calendar date is used.
type TimeSeriesParams struct {
	Symbol     string
	Interval   market.Interval
	Start      time.Time
	End        time.Time
	OutputSize int
}

// Values renders the query parameters. When Start and End fall on the same
// calendar day a single date parameter is sent instead of a range.
func (p TimeSeriesParams) Values() url.Values {
	interval := p.Interval
	if interval == "" {
		interval = market.DefaultInterval
	}
	size := p.OutputSize
	if size <= 0 {
		size = DefaultOutputSize
	}

	v := url.Values{}
	v.Set("symbol", p.Symbol)
	v.Set("interval", interval.String())
	v.Set("outputsize", strconv.Itoa(size))

	if !p.Start.IsZero() && !p.End.IsZero() {
		start, end := p.Start.Format(dateOnly), p.End.Format(dateOnly)
		if start == end {
			v.Set("date", start)
		} else {
			v.Set("start_date", start)
			v.Set("end_date", end)
		}
	}
	return v
}

// TimeSeries fetches OHLC candles. Values come back in upstream order.
func (c *Client) TimeSeries(ctx context.Context, p TimeSeriesParams) (*market.TimeSeries, error) {
	var out market.TimeSeries
	if err := c.get(ctx, endpointTimeSeries, p.Values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
