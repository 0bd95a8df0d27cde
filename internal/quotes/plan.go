package quotes

import (
	"time"

	"github.com/lfarina18/metafar-challenge/internal/market"
	"github.com/lfarina18/metafar-challenge/internal/querycache"
	"github.com/lfarina18/metafar-challenge/internal/twelvedata"
)

// QuoteOptions selects a time series the way the detail view asks for it.
type QuoteOptions struct {
	Symbol   string
	Interval market.Interval
	Start    time.Time
	End      time.Time
	Realtime bool
	Paused   bool
	Disabled bool
}

// Mode derives the session mode from the flags.
func (o QuoteOptions) Mode() Mode {
	switch {
	case !o.Realtime:
		return ModeHistorical
	case o.Paused:
		return ModeRealtimePaused
	default:
		return ModeRealtimeActive
	}
}

// Plan is everything needed to read one series through the cache.
type Plan struct {
	Key       querycache.Key
	Params    twelvedata.TimeSeriesParams
	Mode      Mode
	PollEvery time.Duration
	Realtime  bool
	// Enabled is false when there is nothing to fetch yet: no symbol, or a
	// historical request without both dates.
	Enabled bool
}

// PlanQuote computes the effective range, output size, cache key and
// polling period for opts at now. Real-time requests ignore opts.Start and
// opts.End and use the market hours window instead.
func PlanQuote(opts QuoteOptions, hours MarketHours, now time.Time) Plan {
	interval := opts.Interval
	if interval == "" {
		interval = market.DefaultInterval
	}
	mode := opts.Mode()

	start, end := opts.Start, opts.End
	if opts.Realtime {
		start, end = hours.RealtimeRange(now)
	}

	p := Plan{
		Params: twelvedata.TimeSeriesParams{
			Symbol:     opts.Symbol,
			Interval:   interval,
			Start:      start,
			End:        end,
			OutputSize: OutputSize(interval, opts.Realtime, start, end),
		},
		Mode:      mode,
		PollEvery: PollEvery(mode, interval),
		Realtime:  opts.Realtime,
		Enabled:   !opts.Disabled && opts.Symbol != "" && !start.IsZero() && !end.IsZero(),
	}
	if opts.Realtime {
		p.Key = RealtimeQuoteKey(opts.Symbol, interval, start)
	} else {
		p.Key = QuoteKey(opts.Symbol, interval, start, end)
	}
	return p
}
