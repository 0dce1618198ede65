package analysis

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
)

func trajectoryOf(t *testing.T, fps float64, dets []models.Detection) models.Trajectory {
	t.Helper()
	trajs := BuildTrajectories(dets, recordingStart, fps)
	require.Len(t, trajs, 1)
	return trajs[0]
}

func TestClassify_CornerToCorner(t *testing.T) {
	regions := abRegions(t)
	traj := trajectoryOf(t, 10, diagonal("car", 1, 0))

	c := Classify(regions, traj)
	assert.Equal(t, "A", c.StartRegion)
	assert.Equal(t, "B", c.EndRegion)
	require.NotNil(t, c.StartBoundary)
	require.NotNil(t, c.EndBoundary)
	assert.Equal(t, int64(1), c.StartBoundary.Frame)
	assert.Equal(t, int64(8), c.EndBoundary.Frame)
}

func TestClassify_SameRegionHasNoEndBoundary(t *testing.T) {
	regions := abRegions(t)
	dets := []models.Detection{det(0, "car", 1, 0, 0), det(1, "car", 1, 50, 50), det(2, "car", 1, 5, 5)}
	c := Classify(regions, trajectoryOf(t, 10, dets))
	assert.Equal(t, "A", c.StartRegion)
	assert.Equal(t, "A", c.EndRegion)
	assert.Nil(t, c.EndBoundary)
}

func TestFindRegionBoundary(t *testing.T) {
	regions := abRegions(t)

	var samples []models.Sample
	for i := 0; i < 100; i++ {
		x := 0.0
		if i >= 37 {
			x = 50
		}
		samples = append(samples, models.Sample{Frame: int64(i), Point: r2.Point{X: x, Y: 0}})
	}

	b := FindRegionBoundary(regions, samples)
	require.NotNil(t, b)
	assert.Equal(t, int64(37), b.Frame)

	assert.Nil(t, FindRegionBoundary(regions, samples[:37]), "never leaves")
	assert.Nil(t, FindRegionBoundary(regions, samples[37:]), "starts outside every region")
	assert.Nil(t, FindRegionBoundary(regions, nil))
}

func TestComputeDwell_CornerToCorner(t *testing.T) {
	regions := abRegions(t)
	traj := trajectoryOf(t, 10, diagonal("car", 1, 0))
	d := ComputeDwell(traj, Classify(regions, traj))

	assert.InDelta(t, 0.9, d.OverallTime.Seconds(), 1e-9)
	assert.InDelta(t, 0.1, seconds(d.StartRegionTime), 1e-9)
	assert.InDelta(t, 0.1, seconds(d.EndRegionTime), 1e-9)
	assert.InDelta(t, 0.7, seconds(d.NoRegionTime), 1e-9)
}

func TestComputeDwell_WhollyInsideOneRegion(t *testing.T) {
	regions := abRegions(t)
	var dets []models.Detection
	for i := int64(0); i < 5; i++ {
		dets = append(dets, det(i, "car", 1, float64(i), float64(i)))
	}
	traj := trajectoryOf(t, 10, dets)
	c := Classify(regions, traj)
	d := ComputeDwell(traj, c)

	assert.Equal(t, c.StartRegion, c.EndRegion)
	require.NotNil(t, d.StartRegionTime)
	assert.Equal(t, d.OverallTime, *d.StartRegionTime)
	assert.Nil(t, d.NoRegionTime)
}

func TestComputeDwell_NeverInRegion(t *testing.T) {
	regions := abRegions(t)
	dets := []models.Detection{det(0, "car", 1, 40, 40), det(3, "car", 1, 50, 50), det(6, "car", 1, 60, 60)}
	traj := trajectoryOf(t, 10, dets)
	c := Classify(regions, traj)
	d := ComputeDwell(traj, c)

	assert.Equal(t, models.NoRegion, c.StartRegion)
	assert.Equal(t, models.NoRegion, c.EndRegion)
	assert.Nil(t, c.StartBoundary)
	assert.Nil(t, c.EndBoundary)
	assert.Nil(t, d.StartRegionTime)
	assert.Nil(t, d.EndRegionTime)
	require.NotNil(t, d.NoRegionTime)
	assert.Equal(t, d.OverallTime, *d.NoRegionTime)
}

func TestComputeDwell_EntersRegion(t *testing.T) {
	regions := abRegions(t)
	dets := []models.Detection{det(0, "car", 1, 50, 50), det(1, "car", 1, 70, 70), det(2, "car", 1, 95, 95), det(3, "car", 1, 100, 100)}
	traj := trajectoryOf(t, 10, dets)
	c := Classify(regions, traj)
	d := ComputeDwell(traj, c)

	assert.Equal(t, models.NoRegion, c.StartRegion)
	assert.Equal(t, "B", c.EndRegion)
	assert.Nil(t, d.StartRegionTime)
	assert.InDelta(t, 0.2, seconds(d.EndRegionTime), 1e-9)
	assert.InDelta(t, 0.1, seconds(d.NoRegionTime), 1e-9)
}

func TestComputeDwell_LeavesRegionEndRegionFallsBack(t *testing.T) {
	regions := abRegions(t)
	dets := []models.Detection{det(0, "car", 1, 0, 0), det(1, "car", 1, 5, 5), det(2, "car", 1, 50, 50), det(3, "car", 1, 60, 60)}
	traj := trajectoryOf(t, 10, dets)
	c := Classify(regions, traj)
	d := ComputeDwell(traj, c)

	assert.Equal(t, "A", c.StartRegion)
	assert.Equal(t, models.NoRegion, c.EndRegion)
	assert.Nil(t, c.EndBoundary)
	assert.InDelta(t, 0.2, seconds(d.StartRegionTime), 1e-9)
	assert.InDelta(t, 0.2, seconds(d.EndRegionTime), 1e-9, "end dwell reuses start dwell")
	assert.InDelta(t, 0.1, seconds(d.NoRegionTime), 1e-9)
}

func TestComputeDwell_SinglePoint(t *testing.T) {
	regions := abRegions(t)
	traj := trajectoryOf(t, 10, []models.Detection{det(4, "car", 1, 0, 0)})
	d := ComputeDwell(traj, Classify(regions, traj))
	assert.Zero(t, d.OverallTime)
	assert.Nil(t, d.NoRegionTime)
}
