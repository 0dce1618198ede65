package analysis

import (
	"sort"
	"time"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/spatial"
)

// MinIntervalSpacing is the bucket width used when the reporting span is empty
const MinIntervalSpacing = 30 * time.Second

// MaxIntervals bounds the number of buckets one report may produce
const MaxIntervals = 10_000

// TotalKey is the counts entry holding the sum over all labels
const TotalKey = "total"

// Interval is a half-open time range [From, To)
type Interval struct {
	From time.Time
	To   time.Time
}

func (iv Interval) contains(t time.Time) bool {
	return !t.Before(iv.From) && t.Before(iv.To)
}

// overlap returns how much of [start, end] falls inside the interval
func (iv Interval) overlap(start, end time.Time) time.Duration {
	from, to := start, end
	if iv.From.After(from) {
		from = iv.From
	}
	if iv.To.Before(to) {
		to = iv.To
	}
	if to.Before(from) {
		return 0
	}
	return to.Sub(from)
}

// AggregateOptions configures the interval aggregation
type AggregateOptions struct {
	Start        time.Time
	End          *time.Time    // default: latest trajectory end
	Spacing      time.Duration // default: the whole span
	StartRegions []string      // default: every declared region
	EndRegions   []string      // default: every declared region
	Classes      []string      // default: every label
}

// Intervals partitions [start, end) into consecutive windows of the given
// spacing; the last window may be shorter. An empty span yields one window.
// Spacing is widened when it would produce more than MaxIntervals windows.
func Intervals(start, end time.Time, spacing time.Duration) []Interval {
	if spacing <= 0 {
		spacing = end.Sub(start)
	}
	if spacing <= 0 {
		spacing = MinIntervalSpacing
	}
	if !end.After(start) {
		end = start.Add(spacing)
	}
	if IntervalCount(start, end, spacing) > MaxIntervals {
		span := end.Sub(start)
		spacing = span / MaxIntervals
		if span%MaxIntervals != 0 {
			spacing++
		}
	}

	out := make([]Interval, 0, IntervalCount(start, end, spacing))
	for from := start; from.Before(end); from = from.Add(spacing) {
		to := from.Add(spacing)
		if to.After(end) {
			to = end
		}
		out = append(out, Interval{From: from, To: to})
	}
	return out
}

// IntervalCount returns how many windows of the given spacing cover
// [start, end). An empty span counts as one window.
func IntervalCount(start, end time.Time, spacing time.Duration) int64 {
	span := end.Sub(start)
	if span <= 0 {
		return 1
	}
	if spacing <= 0 {
		spacing = span
	}
	n := int64(span / spacing)
	if span%spacing != 0 {
		n++
	}
	return n
}

// assignInterval picks the bucket for a trajectory: the one containing its
// start, or the next one when most of its duration falls there. The last
// bucket keeps everything that starts in it. Returns -1 outside the range.
func assignInterval(intervals []Interval, start, end time.Time) int {
	for i, iv := range intervals {
		if !iv.contains(start) {
			continue
		}
		if i < len(intervals)-1 && intervals[i+1].overlap(start, end) > iv.overlap(start, end) {
			return i + 1
		}
		return i
	}
	return -1
}

func allowSet(values []string, fallback []string) map[string]bool {
	if len(values) == 0 {
		values = fallback
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// routeFilter applies the region and class allow-lists of AggregateOptions
type routeFilter struct {
	start map[string]bool
	end   map[string]bool
	class map[string]bool // nil allows every label
}

func newRouteFilter(regions *spatial.RegionSet, opts AggregateOptions) routeFilter {
	f := routeFilter{
		start: allowSet(opts.StartRegions, regions.Names()),
		end:   allowSet(opts.EndRegions, regions.Names()),
	}
	if len(opts.Classes) > 0 {
		f.class = allowSet(opts.Classes, nil)
	}
	return f
}

func (f routeFilter) allows(r models.RouteRecord) bool {
	if !f.start[r.StartRegion] || !f.end[r.EndRegion] {
		return false
	}
	return f.class == nil || f.class[r.Label]
}

// reportEnd returns the explicit end time or the latest record end
func reportEnd(records []models.RouteRecord, opts AggregateOptions) time.Time {
	if opts.End != nil {
		return *opts.End
	}
	end := opts.Start
	for _, r := range records {
		if r.End.After(end) {
			end = r.End
		}
	}
	return end
}

// FilterRoutes keeps the records that start inside the reporting window and
// pass the region and class allow-lists. Stationary records are kept.
func FilterRoutes(records []models.RouteRecord, regions *spatial.RegionSet, opts AggregateOptions) []models.RouteRecord {
	filter := newRouteFilter(regions, opts)

	out := make([]models.RouteRecord, 0, len(records))
	for _, r := range records {
		inWindow := !r.Start.Before(opts.Start) && (opts.End == nil || r.Start.Before(*opts.End))
		if inWindow && filter.allows(r) {
			out = append(out, r)
		}
	}
	return out
}

type routeKey struct {
	start string
	end   string
}

// Aggregate buckets route records into time intervals and counts, per
// interval, the non-stationary trajectories of every (start, end) region
// pair by label. Intervals left without routes are dropped.
func Aggregate(records []models.RouteRecord, regions *spatial.RegionSet, opts AggregateOptions) []models.IntervalBucket {
	intervals := Intervals(opts.Start, reportEnd(records, opts), opts.Spacing)
	assigned := make([][]models.RouteRecord, len(intervals))
	for _, r := range records {
		if i := assignInterval(intervals, r.Start, r.End); i >= 0 {
			assigned[i] = append(assigned[i], r)
		}
	}

	filter := newRouteFilter(regions, opts)

	buckets := make([]models.IntervalBucket, 0, len(intervals))
	for i, iv := range intervals {
		groups := make(map[routeKey]map[string]int)
		for _, r := range assigned[i] {
			if r.Stationary() || !filter.allows(r) {
				continue
			}
			k := routeKey{start: r.StartRegion, end: r.EndRegion}
			if groups[k] == nil {
				groups[k] = map[string]int{}
			}
			groups[k][r.Label]++
			groups[k][TotalKey]++
		}
		if len(groups) == 0 {
			continue
		}

		counts := make([]models.RouteCount, 0, len(groups))
		for k, c := range groups {
			counts = append(counts, models.RouteCount{Start: k.start, End: k.end, Counts: c})
		}
		sortRouteCounts(counts, regions)

		buckets = append(buckets, models.IntervalBucket{
			PeriodFrom:  iv.From,
			PeriodTo:    iv.To,
			RouteCounts: counts,
		})
	}

	return buckets
}

func sortRouteCounts(counts []models.RouteCount, regions *spatial.RegionSet) {
	sort.Slice(counts, func(i, j int) bool {
		a, b := counts[i], counts[j]
		if oa, ob := regions.Order(a.Start), regions.Order(b.Start); oa != ob {
			return oa < ob
		}
		if oa, ob := regions.Order(a.End), regions.Order(b.End); oa != ob {
			return oa < ob
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
}
