package spatial

import (
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
)

// Region is a named simple polygon in pixel coordinates
type Region struct {
	Name    string
	Polygon []r2.Point
	bound   r2.Rect
}

// NewRegion validates a polygon and precomputes its bounding rectangle.
// A trailing vertex equal to the first one is dropped, polygons are
// implicitly closed.
func NewRegion(name string, polygon []r2.Point) (Region, error) {
	if name == "" {
		return Region{}, &models.GeometryError{Region: name, Detail: "region name is empty"}
	}
	if name == models.NoRegion {
		return Region{}, &models.GeometryError{Region: name, Detail: "region name is reserved"}
	}

	pts := make([]r2.Point, len(polygon))
	copy(pts, polygon)
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}

	if len(pts) < 3 {
		return Region{}, &models.GeometryError{
			Region: name,
			Detail: fmt.Sprintf("polygon needs at least 3 points, got %d", len(pts)),
		}
	}
	if PolygonArea(pts) == 0 {
		return Region{}, &models.GeometryError{Region: name, Detail: "polygon has zero area"}
	}

	return Region{
		Name:    name,
		Polygon: pts,
		bound:   r2.RectFromPoints(pts...),
	}, nil
}

// Bound returns the bounding rectangle of the polygon
func (r Region) Bound() r2.Rect {
	return r.bound
}

// Contains reports whether p lies inside the region polygon
func (r Region) Contains(p r2.Point) bool {
	if !r.bound.ContainsPoint(p) {
		return false
	}
	return PointInPolygon(p, r.Polygon)
}

// RegionSet is an ordered, immutable collection of regions.
// When regions overlap, the one declared first wins.
type RegionSet struct {
	regions []Region
	order   map[string]int
}

// NewRegionSet builds a set in declaration order, rejecting duplicate names
func NewRegionSet(regions ...Region) (*RegionSet, error) {
	set := &RegionSet{
		regions: make([]Region, 0, len(regions)),
		order:   make(map[string]int, len(regions)),
	}
	for _, r := range regions {
		if _, dup := set.order[r.Name]; dup {
			return nil, &models.GeometryError{Region: r.Name, Detail: "region declared twice"}
		}
		set.order[r.Name] = len(set.regions)
		set.regions = append(set.regions, r)
	}
	return set, nil
}

// Len returns the number of declared regions
func (s *RegionSet) Len() int {
	return len(s.regions)
}

// Names returns region names in declaration order
func (s *RegionSet) Names() []string {
	names := make([]string, len(s.regions))
	for i, r := range s.regions {
		names[i] = r.Name
	}
	return names
}

// Has reports whether name is a declared region
func (s *RegionSet) Has(name string) bool {
	_, ok := s.order[name]
	return ok
}

// Order returns the declaration index of a region; NoRegion and unknown
// names sort after every declared region
func (s *RegionSet) Order(name string) int {
	if i, ok := s.order[name]; ok {
		return i
	}
	return len(s.regions)
}

// WhichRegion returns the first declared region containing p, or NoRegion
func (s *RegionSet) WhichRegion(p r2.Point) string {
	for _, r := range s.regions {
		if r.Contains(p) {
			return r.Name
		}
	}
	return models.NoRegion
}
