package query

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the width of a time bucket in a time series.
type Granularity int

const (
	OneMin Granularity = iota
	FiveMin
	FifteenMin
	ThirtyMin
	OneHour
	OneDay
)

// Granularities lists every supported bucket width, narrowest first.
var Granularities = []Granularity{OneMin, FiveMin, FifteenMin, ThirtyMin, OneHour, OneDay}

// TimeGranularityLevel is the calendar unit a bucket is truncated to.
type TimeGranularityLevel int

const (
	LevelMinute TimeGranularityLevel = iota
	LevelHour
	LevelDay
)

func (l TimeGranularityLevel) String() string {
	switch l {
	case LevelMinute:
		return "minute"
	case LevelHour:
		return "hour"
	case LevelDay:
		return "day"
	default:
		return fmt.Sprintf("TimeGranularityLevel(%d)", int(l))
	}
}

var granularityNames = map[Granularity]string{
	OneMin:     "G_ONEMIN",
	FiveMin:    "G_FIVEMIN",
	FifteenMin: "G_FIFTEENMIN",
	ThirtyMin:  "G_THIRTYMIN",
	OneHour:    "G_ONEHOUR",
	OneDay:     "G_ONEDAY",
}

var granularityAliases = map[string]Granularity{
	"1m":  OneMin,
	"5m":  FiveMin,
	"15m": FifteenMin,
	"30m": ThirtyMin,
	"1h":  OneHour,
	"1d":  OneDay,
}

// Valid reports whether g is one of the defined granularities.
func (g Granularity) Valid() bool {
	_, ok := granularityNames[g]
	return ok
}

func errUnknownGranularity(g Granularity) error {
	return fmt.Errorf("unknown granularity %d", int(g))
}

func (g Granularity) String() string {
	if name, ok := granularityNames[g]; ok {
		return name
	}
	return fmt.Sprintf("Granularity(%d)", int(g))
}

// ParseGranularity accepts the wire names (G_FIVEMIN) and short forms (5m).
func ParseGranularity(s string) (Granularity, error) {
	if g, ok := granularityAliases[strings.ToLower(s)]; ok {
		return g, nil
	}
	for g, name := range granularityNames {
		if strings.EqualFold(name, s) {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown granularity %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (g Granularity) MarshalText() ([]byte, error) {
	name, ok := granularityNames[g]
	if !ok {
		return nil, fmt.Errorf("unknown granularity %d", int(g))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Granularity) UnmarshalText(text []byte) error {
	parsed, err := ParseGranularity(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Level returns the coarsest calendar unit that contains every bucket of g.
func (g Granularity) Level() TimeGranularityLevel {
	switch g {
	case OneMin:
		return LevelMinute
	case OneDay:
		return LevelDay
	default:
		return LevelHour
	}
}

// BucketSize is the divisor applied to the field one step finer than Level:
// seconds for LevelMinute, minutes for LevelHour, hours for LevelDay.
func (g Granularity) BucketSize() int {
	switch g {
	case OneMin, OneHour:
		return 60
	case FiveMin:
		return 5
	case FifteenMin:
		return 15
	case ThirtyMin:
		return 30
	case OneDay:
		return 24
	default:
		return 1
	}
}

// Minutes is the bucket width in minutes.
func (g Granularity) Minutes() int {
	switch g {
	case OneMin:
		return 1
	case FiveMin:
		return 5
	case FifteenMin:
		return 15
	case ThirtyMin:
		return 30
	case OneHour:
		return 60
	case OneDay:
		return 1440
	default:
		return 0
	}
}

// Duration is the bucket width.
func (g Granularity) Duration() time.Duration {
	return time.Duration(g.Minutes()) * time.Minute
}

// ClipToStart aligns t to the start of its bucket.
func (g Granularity) ClipToStart(t time.Time) (time.Time, error) {
	return g.clip(t, func(v, size int) int { return v - v%size }, false)
}

// ClipToEnd aligns t to the last instant of its bucket.
func (g Granularity) ClipToEnd(t time.Time) (time.Time, error) {
	return g.clip(t, func(v, size int) int { return v + size - 1 - v%size }, true)
}

func (g Granularity) clip(t time.Time, align func(v, size int) int, end bool) (time.Time, error) {
	if _, ok := granularityNames[g]; !ok {
		return time.Time{}, fmt.Errorf("%w: unknown granularity %d", ErrBucketClipping, int(g))
	}
	size := g.BucketSize()
	hour, minute, second := t.Clock()
	nsec := 0
	if end {
		nsec = int(time.Second - 1)
	}

	var err error
	switch g.Level() {
	case LevelMinute:
		second, err = checkField("second", align(second, size), 59)
	case LevelHour:
		minute, err = checkField("minute", align(minute, size), 59)
		second = fill(end, 59)
	case LevelDay:
		hour, err = checkField("hour", align(hour, size), 23)
		minute, second = fill(end, 59), fill(end, 59)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s at %s: %v", ErrBucketClipping, g, t.Format(time.RFC3339Nano), err)
	}

	y, m, d := t.Date()
	return time.Date(y, m, d, hour, minute, second, nsec, t.Location()), nil
}

// checkField rejects values time.Date would silently normalise.
func checkField(name string, v, limit int) (int, error) {
	if v < 0 || v > limit {
		return 0, fmt.Errorf("%s %d outside 0..%d", name, v, limit)
	}
	return v, nil
}

func fill(end bool, limit int) int {
	if end {
		return limit
	}
	return 0
}

// BucketSeries returns the start of every bucket between start and end,
// inclusive of the buckets containing them.
func BucketSeries(g Granularity, start, end time.Time) ([]time.Time, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("series end %s is before start %s", end, start)
	}
	first, err := g.ClipToStart(start)
	if err != nil {
		return nil, err
	}
	last, err := g.ClipToStart(end)
	if err != nil {
		return nil, err
	}

	var series []time.Time
	for cur := first; !cur.After(last); cur = g.next(cur) {
		series = append(series, cur)
	}
	return series, nil
}

func (g Granularity) next(t time.Time) time.Time {
	if g == OneDay {
		return t.AddDate(0, 0, 1)
	}
	return t.Add(g.Duration())
}
