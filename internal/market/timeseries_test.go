package market

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSorted_ShuffledValuesComeBackAscending(t *testing.T) {
	t.Parallel()

	// Arrange: 50 distinct five minute candles in random order
	base := time.Date(2025, 1, 2, 14, 30, 0, 0, time.UTC)
	var want []string
	ts := &TimeSeries{Meta: TimeSeriesMeta{Symbol: "AAPL", Interval: FiveMinutes}, Status: "ok"}
	for i := 0; i < 50; i++ {
		dt := base.Add(time.Duration(i) * 5 * time.Minute).Format("2006-01-02 15:04:05")
		want = append(want, dt)
		ts.Values = append(ts.Values, Point{Datetime: dt, Open: "1", High: "1", Low: "1", Close: fmt.Sprint(i)})
	}
	r := rand.New(rand.NewSource(7))
	r.Shuffle(len(ts.Values), func(i, j int) { ts.Values[i], ts.Values[j] = ts.Values[j], ts.Values[i] })
	original := append([]Point(nil), ts.Values...)

	// Act
	out := ts.Sorted()

	// Assert: same points, ascending, input not mutated
	require.Len(t, out.Values, len(want))
	for i, p := range out.Values {
		require.Equal(t, want[i], p.Datetime)
	}
	require.Equal(t, original, ts.Values)
	require.Equal(t, ts.Meta, out.Meta)
}

func TestSorted_CollapsesDuplicateDatetimes(t *testing.T) {
	t.Parallel()

	ts := &TimeSeries{Values: []Point{
		{Datetime: "2025-01-02 10:05:00", Close: "2"},
		{Datetime: "2025-01-02 10:00:00", Close: "1"},
		{Datetime: "2025-01-02 10:05", Close: "3"},
	}}

	out := ts.Sorted()
	require.Len(t, out.Values, 2)
	require.Equal(t, "1", out.Values[0].Close)
	require.Equal(t, "2", out.Values[1].Close)
}

func TestSorted_MixedDailyAndUnparsable(t *testing.T) {
	t.Parallel()

	ts := &TimeSeries{Values: []Point{
		{Datetime: "2025-01-03"},
		{Datetime: "2025-01-01"},
		{Datetime: "2025-01-02"},
	}}
	out := ts.Sorted()
	require.Equal(t, "2025-01-01", out.Values[0].Datetime)
	require.Equal(t, "2025-01-03", out.Values[2].Datetime)

	var nilSeries *TimeSeries
	require.Nil(t, nilSeries.Sorted())
}

func TestSorted_UnparsableGoLast(t *testing.T) {
	t.Parallel()

	// Arrange: every ordering of parsed and unparsable datetimes
	values := []Point{
		{Datetime: "zzz"},
		{Datetime: "2025-01-02 10:00:00"},
		{Datetime: "0-bad"},
		{Datetime: "2025-01-01"},
	}
	want := []string{"2025-01-01", "2025-01-02 10:00:00", "0-bad", "zzz"}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 20; i++ {
		shuffled := append([]Point(nil), values...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		// Act
		out := (&TimeSeries{Values: shuffled}).Sorted()

		// Assert
		got := make([]string, len(out.Values))
		for j, p := range out.Values {
			got[j] = p.Datetime
		}
		require.Equal(t, want, got, "input %v", shuffled)
	}
}

func TestParseDatetime(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Time{
		"2025-01-02":           time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		"2025-01-02 15:55:00":  time.Date(2025, 1, 2, 15, 55, 0, 0, time.UTC),
		"2025-01-02 15:55":     time.Date(2025, 1, 2, 15, 55, 0, 0, time.UTC),
		"2025-01-02T15:55":     time.Date(2025, 1, 2, 15, 55, 0, 0, time.UTC),
		"2025-01-02T15:55:00Z": time.Date(2025, 1, 2, 15, 55, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseDatetime(in)
		require.NoError(t, err, in)
		require.True(t, want.Equal(got), "%s: got %s", in, got)
	}

	_, err := ParseDatetime("yesterday")
	require.Error(t, err)
}

func TestParseInterval(t *testing.T) {
	t.Parallel()

	iv, err := ParseInterval("")
	require.NoError(t, err)
	require.Equal(t, FiveMinutes, iv)

	iv, err = ParseInterval("1week")
	require.NoError(t, err)
	require.Equal(t, OneWeek, iv)

	_, err = ParseInterval("2min")
	require.Error(t, err)
}
