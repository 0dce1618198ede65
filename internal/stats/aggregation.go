package stats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/spatial"
)

// Median returns the empirical median of values, sorting them in place
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	return stat.Quantile(0.5, stat.Empirical, values, nil)
}

// Mean returns the arithmetic mean, 0 for no values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

type pairKey struct {
	start string
	end   string
}

// SummarizeRoutes groups route records by (start, end) region pair and
// describes the overall dwell of each group in seconds. Groups follow the
// region declaration order with "none" last.
func SummarizeRoutes(records []models.RouteRecord, regions *spatial.RegionSet) []models.RouteSummary {
	overall := make(map[pairKey][]float64)
	noRegion := make(map[pairKey][]float64)
	for _, r := range records {
		k := pairKey{start: r.StartRegion, end: r.EndRegion}
		overall[k] = append(overall[k], r.OverallTime.Seconds())
		if r.NoRegionTime != nil {
			noRegion[k] = append(noRegion[k], r.NoRegionTime.Seconds())
		}
	}

	summaries := make([]models.RouteSummary, 0, len(overall))
	for k, values := range overall {
		summaries = append(summaries, models.RouteSummary{
			Start:         k.start,
			End:           k.end,
			Count:         len(values),
			MeanOverall:   Mean(values),
			MaxOverall:    floats.Max(values),
			MedianOverall: Median(values),
			MeanNoRegion:  Mean(noRegion[k]),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
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

	return summaries
}
