package quotes

import (
	"time"

	"github.com/lfarina18/metafar-challenge/internal/market"
)

// MarketHours fixes the local time at which the real-time window opens.
type MarketHours struct {
	Location   *time.Location
	OpenHour   int
	OpenMinute int
}

// DefaultMarketHours opens at 10:00 process local time.
func DefaultMarketHours() MarketHours {
	return MarketHours{Location: time.Local, OpenHour: 10}
}

func (h MarketHours) location() *time.Location {
	if h.Location == nil {
		return time.Local
	}
	return h.Location
}

// Open returns the open time on now's calendar day.
func (h MarketHours) Open(now time.Time) time.Time {
	now = now.In(h.location())
	y, m, d := now.Date()
	return time.Date(y, m, d, h.OpenHour, h.OpenMinute, 0, 0, h.location())
}

// RealtimeRange returns the real-time window: today at open until now, with
// end never earlier than start. Both are truncated to the minute.
func (h MarketHours) RealtimeRange(now time.Time) (start, end time.Time) {
	now = now.In(h.location())
	start = h.Open(now)
	end = truncateMinute(now)
	if end.Before(start) {
		end = start
	}
	return start, end
}

func truncateMinute(t time.Time) time.Time {
	return t.Add(-time.Duration(t.Second())*time.Second - time.Duration(t.Nanosecond()))
}

var refetchIntervals = map[market.Interval]time.Duration{
	market.OneMinute:      time.Minute,
	market.FiveMinutes:    5 * time.Minute,
	market.FifteenMinutes: 15 * time.Minute,
	market.ThirtyMinutes:  30 * time.Minute,
	market.OneHour:        time.Hour,
	market.OneDay:         24 * time.Hour,
	market.OneWeek:        7 * 24 * time.Hour,
	market.OneMonth:       30 * 24 * time.Hour,
}

// RefetchInterval is the real-time polling period for a chart interval.
// Unknown intervals poll every five minutes.
func RefetchInterval(interval market.Interval) time.Duration {
	if d, ok := refetchIntervals[interval]; ok {
		return d
	}
	return 5 * time.Minute
}

// PollEvery is the polling period in mode; zero disables polling.
func PollEvery(mode Mode, interval market.Interval) time.Duration {
	if mode != ModeRealtimeActive {
		return 0
	}
	return RefetchInterval(interval)
}
