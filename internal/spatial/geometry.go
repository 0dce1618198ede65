package spatial

import (
	"math"

	"github.com/golang/geo/r2"
)

// PolygonArea calculates the area of a simple polygon with the shoelace formula
// Points may be in either winding order
func PolygonArea(points []r2.Point) float64 {
	if len(points) < 3 {
		return 0
	}

	var sum float64
	for i := 0; i < len(points); i++ {
		j := (i + 1) % len(points)
		sum += points[i].Cross(points[j])
	}
	return math.Abs(sum) / 2
}

// PointInPolygon checks if a point is inside a polygon using ray casting.
// Edge points follow the half-open crossing rule, so the same point always
// gets the same answer for a given polygon.
func PointInPolygon(point r2.Point, polygon []r2.Point) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1

	for i := 0; i < len(polygon); i++ {
		pi, pj := polygon[i], polygon[j]
		if (pi.Y > point.Y) != (pj.Y > point.Y) &&
			point.X < (pj.X-pi.X)*(point.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}

	return inside
}

// PathLength calculates the total pixel length of a polyline
func PathLength(points []r2.Point) float64 {
	if len(points) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i].Sub(points[i-1]).Norm()
	}
	return total
}
