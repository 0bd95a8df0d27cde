package market

import "fmt"

// Interval is the candle width of a time series.
type Interval string

const (
	OneMinute      Interval = "1min"
	FiveMinutes    Interval = "5min"
	FifteenMinutes Interval = "15min"
	ThirtyMinutes  Interval = "30min"
	OneHour        Interval = "1h"
	OneDay         Interval = "1day"
	OneWeek        Interval = "1week"
	OneMonth       Interval = "1month"
)

// DefaultInterval is used when a request does not name one.
const DefaultInterval = FiveMinutes

// Intervals lists every supported interval, finest first.
var Intervals = []Interval{
	OneMinute, FiveMinutes, FifteenMinutes, ThirtyMinutes,
	OneHour, OneDay, OneWeek, OneMonth,
}

// Valid reports whether i is one of the supported intervals.
func (i Interval) Valid() bool {
	for _, v := range Intervals {
		if v == i {
			return true
		}
	}
	return false
}

func (i Interval) String() string { return string(i) }

// ParseInterval returns DefaultInterval for an empty string.
func ParseInterval(s string) (Interval, error) {
	if s == "" {
		return DefaultInterval, nil
	}
	i := Interval(s)
	if !i.Valid() {
		return "", fmt.Errorf("unsupported interval %q", s)
	}
	return i, nil
}
