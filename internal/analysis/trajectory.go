package analysis

import (
	"sort"
	"time"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
)

type trackKey struct {
	label string
	id    int64
}

// BuildTrajectories groups detections by (label, object id) into
// frame-ordered anchor-point trajectories. Detector output is used as-is:
// no smoothing, interpolation or outlier rejection.
func BuildTrajectories(detections []models.Detection, recordingStart time.Time, fps float64) []models.Trajectory {
	groups := make(map[trackKey][]models.Detection)
	var keys []trackKey

	for _, d := range detections {
		k := trackKey{label: d.Label, id: d.ObjectID}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], d)
	}

	trajectories := make([]models.Trajectory, 0, len(keys))
	for _, k := range keys {
		rows := groups[k]
		// ties keep table order
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Frame < rows[j].Frame })

		samples := make([]models.Sample, len(rows))
		for i, d := range rows {
			samples[i] = models.Sample{
				Frame: d.Frame,
				Time:  recordingStart.Add(models.FrameOffset(d.Frame, fps)),
				Point: d.BBox.Anchor(),
			}
		}
		trajectories = append(trajectories, models.Trajectory{
			Label:    k.label,
			ObjectID: k.id,
			Samples:  samples,
		})
	}

	sort.SliceStable(trajectories, func(i, j int) bool {
		a, b := trajectories[i], trajectories[j]
		if a.First().Frame != b.First().Frame {
			return a.First().Frame < b.First().Frame
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.ObjectID < b.ObjectID
	})

	return trajectories
}
