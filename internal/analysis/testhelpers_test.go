package analysis

import (
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/require"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/spatial"
)

var recordingStart = time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC)

// det builds a 4x4 px detection anchored at (x, y)
func det(frame int64, label string, id int64, x, y float64) models.Detection {
	return models.Detection{
		Frame:    frame,
		Label:    label,
		ObjectID: id,
		BBox:     models.BBox{X: x - 2, Y: y - 2, W: 4, H: 4},
	}
}

func square(minX, minY, maxX, maxY float64) []r2.Point {
	return []r2.Point{{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: maxY}, {X: minX, Y: maxY}}
}

func regionSet(t *testing.T, defs ...interface{}) *spatial.RegionSet {
	t.Helper()
	var regions []spatial.Region
	for i := 0; i < len(defs); i += 2 {
		r, err := spatial.NewRegion(defs[i].(string), defs[i+1].([]r2.Point))
		require.NoError(t, err)
		regions = append(regions, r)
	}
	set, err := spatial.NewRegionSet(regions...)
	require.NoError(t, err)
	return set
}

// abRegions is the two-corner layout: A around the origin, B around (100, 100)
func abRegions(t *testing.T) *spatial.RegionSet {
	return regionSet(t, "A", square(-10, -10, 10, 10), "B", square(90, 90, 110, 110))
}

// diagonal moves one object from (0,0) to (100,100) over frames 0..9
func diagonal(label string, id int64, frameOffset int64) []models.Detection {
	var out []models.Detection
	for i := int64(0); i < 10; i++ {
		v := 100 * float64(i) / 9
		out = append(out, det(frameOffset+i, label, id, v, v))
	}
	return out
}

func seconds(d *time.Duration) float64 {
	if d == nil {
		return -1
	}
	return d.Seconds()
}
