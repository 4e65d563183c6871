package query

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTimes(n int) []time.Time {
	r := rand.New(rand.NewSource(7))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := []time.Time{
		base,
		base.Add(59*time.Minute + 59*time.Second + 999999999),
		time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC),
		time.Date(2024, 12, 31, 23, 30, 0, 0, time.UTC),
	}
	for i := 0; i < n; i++ {
		out = append(out, base.Add(time.Duration(r.Int63n(int64(366*24*time.Hour)))))
	}
	return out
}

func TestGranularity_ClipBounds(t *testing.T) {
	for _, g := range Granularities {
		for _, ts := range sampleTimes(500) {
			start, err := g.ClipToStart(ts)
			require.NoError(t, err)
			end, err := g.ClipToEnd(ts)
			require.NoError(t, err)

			assert.False(t, start.After(ts), "%s start %s after %s", g, start, ts)
			assert.False(t, end.Before(ts), "%s end %s before %s", g, end, ts)

			again, err := g.ClipToStart(start)
			require.NoError(t, err)
			assert.True(t, again.Equal(start), "%s ClipToStart not idempotent at %s", g, ts)

			endAgain, err := g.ClipToEnd(end)
			require.NoError(t, err)
			assert.True(t, endAgain.Equal(end), "%s ClipToEnd not idempotent at %s", g, ts)

			assert.Equal(t, g.Duration()-time.Nanosecond, end.Sub(start), "%s bucket width at %s", g, ts)
		}
	}
}

func TestGranularity_Clip(t *testing.T) {
	ts := time.Date(2024, 5, 17, 13, 47, 31, 500, time.UTC)

	tests := []struct {
		g     Granularity
		start time.Time
		end   time.Time
	}{
		{OneMin, time.Date(2024, 5, 17, 13, 47, 0, 0, time.UTC), time.Date(2024, 5, 17, 13, 47, 59, 999999999, time.UTC)},
		{FiveMin, time.Date(2024, 5, 17, 13, 45, 0, 0, time.UTC), time.Date(2024, 5, 17, 13, 49, 59, 999999999, time.UTC)},
		{FifteenMin, time.Date(2024, 5, 17, 13, 45, 0, 0, time.UTC), time.Date(2024, 5, 17, 13, 59, 59, 999999999, time.UTC)},
		{ThirtyMin, time.Date(2024, 5, 17, 13, 30, 0, 0, time.UTC), time.Date(2024, 5, 17, 13, 59, 59, 999999999, time.UTC)},
		{OneHour, time.Date(2024, 5, 17, 13, 0, 0, 0, time.UTC), time.Date(2024, 5, 17, 13, 59, 59, 999999999, time.UTC)},
		{OneDay, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 17, 23, 59, 59, 999999999, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.g.String(), func(t *testing.T) {
			start, err := tt.g.ClipToStart(ts)
			require.NoError(t, err)
			assert.Equal(t, tt.start, start)

			end, err := tt.g.ClipToEnd(ts)
			require.NoError(t, err)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestGranularity_ClipUnknown(t *testing.T) {
	_, err := Granularity(42).ClipToStart(time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBucketClipping))
}

// postgresKey evaluates the DATE_TRUNC and FLOOR(DATE_PART) terms emitted by
// Postgres.GranularityGroupBy.
func postgresKey(g Granularity, ts time.Time) [2]int64 {
	y, m, d := ts.Date()
	var trunc time.Time
	switch g.Level() {
	case LevelMinute:
		trunc = time.Date(y, m, d, ts.Hour(), ts.Minute(), 0, 0, time.UTC)
	case LevelHour:
		trunc = time.Date(y, m, d, ts.Hour(), 0, 0, 0, time.UTC)
	default:
		trunc = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	key := [2]int64{trunc.Unix(), 0}
	switch g {
	case FiveMin, FifteenMin, ThirtyMin:
		key[1] = int64(ts.Minute() / g.BucketSize())
	}
	return key
}

// clickhouseKey evaluates the toStartOf* functions emitted by
// ClickHouse.GranularityGroupBy for UTC timestamps.
func clickhouseKey(g Granularity, ts time.Time) int64 {
	return ts.Truncate(g.Duration()).Unix()
}

func TestGranularity_DialectEquivalence(t *testing.T) {
	samples := sampleTimes(120)

	for _, g := range Granularities {
		t.Run(g.String(), func(t *testing.T) {
			for i := 0; i < len(samples); i++ {
				for j := i + 1; j < len(samples); j++ {
					a, b := samples[i], samples[j]

					sa, err := g.ClipToStart(a)
					require.NoError(t, err)
					sb, err := g.ClipToStart(b)
					require.NoError(t, err)

					clip := sa.Equal(sb)
					assert.Equal(t, clip, postgresKey(g, a) == postgresKey(g, b), "postgres %s vs %s", a, b)
					assert.Equal(t, clip, clickhouseKey(g, a) == clickhouseKey(g, b), "clickhouse %s vs %s", a, b)
				}
				// A timestamp and its bucket end share a bucket.
				end, err := g.ClipToEnd(samples[i])
				require.NoError(t, err)
				assert.Equal(t, postgresKey(g, samples[i]), postgresKey(g, end))
				assert.Equal(t, clickhouseKey(g, samples[i]), clickhouseKey(g, end))
			}
		})
	}
}

func TestGranularity_Parse(t *testing.T) {
	tests := map[string]Granularity{
		"G_ONEMIN":     OneMin,
		"g_fivemin":    FiveMin,
		"G_FIFTEENMIN": FifteenMin,
		"30m":          ThirtyMin,
		"1H":           OneHour,
		"G_ONEDAY":     OneDay,
	}
	for in, want := range tests {
		g, err := ParseGranularity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, g, in)
	}

	_, err := ParseGranularity("2m")
	assert.Error(t, err)

	var g Granularity
	require.NoError(t, g.UnmarshalText([]byte("15m")))
	assert.Equal(t, FifteenMin, g)

	text, err := OneDay.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "G_ONEDAY", string(text))
}

func TestGranularity_Attributes(t *testing.T) {
	assert.Equal(t, LevelMinute, OneMin.Level())
	assert.Equal(t, LevelHour, ThirtyMin.Level())
	assert.Equal(t, LevelDay, OneDay.Level())
	assert.Equal(t, 24, OneDay.BucketSize())
	assert.Equal(t, 15, FifteenMin.BucketSize())
	assert.Equal(t, 5*time.Minute, FiveMin.Duration())
	assert.Equal(t, 1440, OneDay.Minutes())
}

func TestBucketSeries(t *testing.T) {
	start := time.Date(2024, 5, 17, 10, 7, 0, 0, time.UTC)
	end := time.Date(2024, 5, 17, 10, 52, 0, 0, time.UTC)

	series, err := BucketSeries(FifteenMin, start, end)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 17, 10, 15, 0, 0, time.UTC),
		time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC),
		time.Date(2024, 5, 17, 10, 45, 0, 0, time.UTC),
	}, series)

	days, err := BucketSeries(OneDay, start, start.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Len(t, days, 3)

	_, err = BucketSeries(OneHour, end, start)
	assert.Error(t, err)
}
