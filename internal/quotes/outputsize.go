package quotes

import (
	"time"

	"github.com/lfarina18/metafar-challenge/internal/market"
)

// Output size bounds accepted by the time series endpoint.
const (
	MinOutputSize = 30
	MaxOutputSize = 5000
	// HistoricalOutputSize is requested when no date range is known.
	HistoricalOutputSize = 100
)

// pointsPerDay approximates candles per trading day. Holidays and early
// closes are not accounted for.
var pointsPerDay = map[market.Interval]int{
	market.OneMinute:      390,
	market.FiveMinutes:    78,
	market.FifteenMinutes: 26,
	market.ThirtyMinutes:  13,
	market.OneHour:        7,
	market.OneDay:         1,
	market.OneWeek:        1,
	market.OneMonth:       1,
}

// PointsPerDay returns the per day estimate for interval.
func PointsPerDay(interval market.Interval) (int, bool) {
	n, ok := pointsPerDay[interval]
	return n, ok
}

// OutputSize estimates how many points to request. In real-time mode it is
// the per day estimate; otherwise it scales with the inclusive calendar day
// span of start and end, or is HistoricalOutputSize when either is zero.
// The result is always within [MinOutputSize, MaxOutputSize].
func OutputSize(interval market.Interval, realtime bool, start, end time.Time) int {
	ppd, ok := pointsPerDay[interval]
	if realtime {
		if !ok {
			ppd = MinOutputSize
		}
		return clamp(ppd)
	}
	if start.IsZero() || end.IsZero() {
		return HistoricalOutputSize
	}
	if !ok {
		return MinOutputSize
	}
	return clamp(ppd * DaySpan(start, end))
}

// DaySpan counts the calendar days from start to end inclusive, in either
// order. Both times use their own location's calendar.
func DaySpan(start, end time.Time) int {
	a := civilDay(start)
	b := civilDay(end)
	if b.Before(a) {
		a, b = b, a
	}
	return int(b.Sub(a).Hours()/24) + 1
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clamp(n int) int {
	return min(max(n, MinOutputSize), MaxOutputSize)
}
