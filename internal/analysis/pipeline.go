package analysis

import (
	"time"

	"github.com/golang/geo/r2"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/spatial"
)

// RouteOptions carries the per-request inputs of the route pipeline
type RouteOptions struct {
	RecordingStart time.Time
	FPS            float64 // overrides the store frame rate when > 0
}

// Routes runs trajectory building, region classification and dwell
// computation over a detection table. Records follow trajectory order.
func Routes(table *models.DetectionTable, regions *spatial.RegionSet, opts RouteOptions) []models.RouteRecord {
	fps := table.Metadata.FrameRate()
	if opts.FPS > 0 {
		fps = opts.FPS
	}

	trajectories := BuildTrajectories(table.Detections, opts.RecordingStart, fps)
	records := make([]models.RouteRecord, 0, len(trajectories))
	for _, traj := range trajectories {
		c := Classify(regions, traj)

		points := make([]r2.Point, len(traj.Samples))
		for i, s := range traj.Samples {
			points[i] = s.Point
		}

		records = append(records, models.RouteRecord{
			Label:          traj.Label,
			ObjectID:       traj.ObjectID,
			Start:          traj.First().Time,
			End:            traj.Last().Time,
			PathLength:     spatial.PathLength(points),
			Classification: c,
			Dwell:          ComputeDwell(traj, c),
		})
	}

	return records
}

// RouteAnalytics runs the whole pipeline and shapes the response payload
func RouteAnalytics(table *models.DetectionTable, regions *spatial.RegionSet, route RouteOptions, agg AggregateOptions) *models.RouteAnalytics {
	records := Routes(table, regions, route)
	if agg.Start.IsZero() {
		agg.Start = route.RecordingStart
	}

	return &models.RouteAnalytics{
		DataSource:    table.Stream,
		Regions:       regions.Names(),
		CountsAtTimes: Aggregate(records, regions, agg),
	}
}
