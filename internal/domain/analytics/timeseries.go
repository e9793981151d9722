package analytics

import (
	"sort"
	"time"
)

// Interval identifiers accepted by the interval filter.
const (
	IntervalMinute  = "minute"
	Interval15Min   = "15min"
	IntervalHour    = "hour"
	IntervalDay     = "day"
	IntervalWeek    = "week"
	IntervalMonth   = "month"
	DefaultInterval = IntervalHour
)

// labelLayouts maps intervals to their chart axis label layout.
var labelLayouts = map[string]string{
	IntervalMinute: "15:04",
	Interval15Min:  "02/01 15:04",
	IntervalHour:   "02/01 15:04",
	IntervalDay:    "02/01/2006",
	IntervalWeek:   "Sem 02/01",
	IntervalMonth:  "Jan 2006",
}

// LabelLayout returns the time layout used for axis labels at the given
// interval, defaulting to the hourly layout.
func LabelLayout(interval string) string {
	if layout, ok := labelLayouts[interval]; ok {
		return layout
	}
	return labelLayouts[IntervalHour]
}

// FormatLabel renders one bucket timestamp as an axis label.
func FormatLabel(t time.Time, interval string) string {
	return t.Format(LabelLayout(interval))
}

// FormatLabels renders a bucket index as axis labels.
func FormatLabels(index []time.Time, interval string) []string {
	labels := make([]string, len(index))
	for i, t := range index {
		labels[i] = FormatLabel(t, interval)
	}
	return labels
}

// BucketStart truncates t to the start of its bucket. Weeks start on
// Monday, months on the first day. Unknown intervals fall back to hour.
func BucketStart(t time.Time, interval string) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch interval {
	case IntervalMinute:
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
	case Interval15Min:
		return time.Date(y, m, d, t.Hour(), t.Minute()-t.Minute()%15, 0, 0, loc)
	case IntervalDay:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case IntervalWeek:
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		back := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -back)
	case IntervalMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, loc)
	}
}

// NextBucket advances a bucket start by one interval step.
func NextBucket(t time.Time, interval string) time.Time {
	switch interval {
	case IntervalMinute:
		return t.Add(time.Minute)
	case Interval15Min:
		return t.Add(15 * time.Minute)
	case IntervalDay:
		return t.AddDate(0, 0, 1)
	case IntervalWeek:
		return t.AddDate(0, 0, 7)
	case IntervalMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.Add(time.Hour)
	}
}

// Buckets returns the ordered bucket starts covering [start, end]. The
// first bucket is BucketStart(start); generation stops once a bucket
// start passes end. Returns nil when end precedes start.
func Buckets(start, end time.Time, interval string) []time.Time {
	if end.Before(start) {
		return nil
	}
	var index []time.Time
	for t := BucketStart(start, interval); !t.After(end); t = NextBucket(t, interval) {
		index = append(index, t)
	}
	return index
}

// SeriesIndex builds the bucket index for a chart: the full queried
// range when bounds are known, otherwise the observed span of the data.
func SeriesIndex(times []time.Time, start, end time.Time, haveRange bool, interval string) []time.Time {
	if haveRange {
		return Buckets(start, end, interval)
	}
	if len(times) == 0 {
		return nil
	}
	min, max := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}
	return Buckets(min, max, interval)
}

// CountSeries buckets the timestamps and reindexes the counts onto
// index, filling missing buckets with zero so gaps stay visible.
func CountSeries(index []time.Time, times []time.Time, interval string) []int {
	byBucket := make(map[int64]int, len(index))
	for _, t := range times {
		byBucket[BucketStart(t, interval).Unix()]++
	}
	counts := make([]int, len(index))
	for i, bucket := range index {
		counts[i] = byBucket[bucket.Unix()]
	}
	return counts
}

// FindNearestIndex returns the position in index closest to target.
// Targets beyond either end clamp to the first or last position; exact
// midpoints resolve to the earlier bucket.
func FindNearestIndex(index []time.Time, target time.Time) int {
	if len(index) == 0 {
		return 0
	}
	if !target.After(index[0]) {
		return 0
	}
	last := len(index) - 1
	if !target.Before(index[last]) {
		return last
	}

	// First bucket at or after target; the nearest is it or its neighbor.
	i := sort.Search(len(index), func(i int) bool { return !index[i].Before(target) })
	if index[i].Equal(target) {
		return i
	}
	if index[i].Sub(target) < target.Sub(index[i-1]) {
		return i
	}
	return i - 1
}
