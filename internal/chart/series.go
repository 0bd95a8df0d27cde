// Package chart turns a time series into plot ready points.
package chart

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lfarina18/metafar-challenge/internal/market"
)

// MaxPoints is the default upper bound on plotted points.
const MaxPoints = 5000

// Point is one plotted close price.
type Point struct {
	Time  time.Time       `json:"t"`
	Close decimal.Decimal `json:"close"`
}

// Sample keeps at most max values by taking every ceil(n/max)-th value
// plus the last one. values is returned as is when it already fits.
func Sample[T any](values []T, max int) []T {
	if max <= 0 || len(values) <= max {
		return values
	}
	step := (len(values) + max - 1) / max
	out := make([]T, 0, max+1)
	for i, v := range values {
		if i%step == 0 || i == len(values)-1 {
			out = append(out, v)
		}
	}
	return out
}

// BuildSeries samples values to max points, drops points whose datetime or
// close does not parse and returns the rest in ascending time order.
func BuildSeries(values []market.Point, max int) []Point {
	sampled := Sample(values, max)
	out := make([]Point, 0, len(sampled))
	for _, v := range sampled {
		t, err := market.ParseDatetime(v.Datetime)
		if err != nil {
			continue
		}
		c, err := decimal.NewFromString(v.Close)
		if err != nil {
			continue
		}
		out = append(out, Point{Time: t, Close: c})
	}
	slices.SortStableFunc(out, func(a, b Point) int { return a.Time.Compare(b.Time) })
	return out
}

// Range returns the lowest and highest close in points.
func Range(points []Point) (low, high decimal.Decimal, ok bool) {
	if len(points) == 0 {
		return decimal.Zero, decimal.Zero, false
	}
	low, high = points[0].Close, points[0].Close
	for _, p := range points[1:] {
		low = decimal.Min(low, p.Close)
		high = decimal.Max(high, p.Close)
	}
	return low, high, true
}

// Change returns the absolute and percent change from the first to the last
// close. Percent is rounded to two places and zero when the first close is.
func Change(points []Point) (abs, pct decimal.Decimal) {
	if len(points) < 2 {
		return decimal.Zero, decimal.Zero
	}
	first, last := points[0].Close, points[len(points)-1].Close
	abs = last.Sub(first)
	if first.IsZero() {
		return abs, decimal.Zero
	}
	return abs, abs.Div(first).Mul(decimal.NewFromInt(100)).Round(2)
}
