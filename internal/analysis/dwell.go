package analysis

import (
	"time"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
)

func durationPtr(d time.Duration) *time.Duration {
	return &d
}

// ComputeDwell splits a trajectory's duration into time spent in its start
// region, its end region and neither.
//
// When there is no end boundary the end-region time reuses the start-region
// time. This mirrors the legacy analytics output and is kept until product
// owners decide whether it should be null instead.
func ComputeDwell(traj models.Trajectory, c models.Classification) models.Dwell {
	first, last := traj.First(), traj.Last()
	d := models.Dwell{OverallTime: last.Time.Sub(first.Time)}

	switch {
	case c.StartBoundary != nil:
		d.StartRegionTime = durationPtr(c.StartBoundary.Time.Sub(first.Time))
	case c.StartRegion != models.NoRegion:
		// never left the start region
		d.StartRegionTime = durationPtr(d.OverallTime)
	}

	measuredEnd := c.EndBoundary != nil
	if measuredEnd {
		d.EndRegionTime = durationPtr(last.Time.Sub(c.EndBoundary.Time))
	} else if d.StartRegionTime != nil {
		d.EndRegionTime = durationPtr(*d.StartRegionTime)
	}

	if d.StartRegionTime != nil && *d.StartRegionTime == d.OverallTime {
		return d
	}

	switch {
	case d.StartRegionTime != nil && d.EndRegionTime != nil && measuredEnd:
		d.NoRegionTime = durationPtr(d.OverallTime - *d.StartRegionTime - *d.EndRegionTime)
	case d.StartRegionTime != nil:
		d.NoRegionTime = durationPtr(d.OverallTime - *d.StartRegionTime)
	case d.EndRegionTime != nil:
		d.NoRegionTime = durationPtr(d.OverallTime - *d.EndRegionTime)
	default:
		d.NoRegionTime = durationPtr(d.OverallTime)
	}

	return d
}
