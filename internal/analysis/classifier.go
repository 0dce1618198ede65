package analysis

import (
	"sort"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/spatial"
)

// FindRegionBoundary returns the first sample whose region differs from the
// region of samples[0], or nil when samples[0] is outside every region or
// the whole sequence stays in its initial region.
//
// Precondition: occupancy is monotone, i.e. once a trajectory leaves its
// initial region it does not come back. The search is binary and will pick
// an arbitrary crossing on tracks that flap across a region edge.
func FindRegionBoundary(regions *spatial.RegionSet, samples []models.Sample) *models.Sample {
	if len(samples) == 0 {
		return nil
	}

	initial := regions.WhichRegion(samples[0].Point)
	if initial == models.NoRegion {
		return nil
	}

	i := sort.Search(len(samples), func(i int) bool {
		return regions.WhichRegion(samples[i].Point) != initial
	})
	if i == len(samples) {
		return nil
	}

	boundary := samples[i]
	return &boundary
}

func reversed(samples []models.Sample) []models.Sample {
	out := make([]models.Sample, len(samples))
	for i, s := range samples {
		out[len(samples)-1-i] = s
	}
	return out
}

// Classify determines the start and end regions of a trajectory and where it
// crosses out of them
func Classify(regions *spatial.RegionSet, traj models.Trajectory) models.Classification {
	c := models.Classification{
		StartRegion: regions.WhichRegion(traj.First().Point),
		EndRegion:   regions.WhichRegion(traj.Last().Point),
	}

	c.StartBoundary = FindRegionBoundary(regions, traj.Samples)
	if c.StartRegion != c.EndRegion {
		c.EndBoundary = FindRegionBoundary(regions, reversed(traj.Samples))
	}

	return c
}
