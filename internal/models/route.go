package models

import (
	"encoding/json"
	"time"

	"github.com/golang/geo/r2"
)

// NoRegion names the implicit region of points outside every declared polygon
const NoRegion = "none"

// Sample is one timestamped anchor point of a trajectory
type Sample struct {
	Frame int64
	Time  time.Time
	Point r2.Point
}

// MarshalJSON flattens the point into x/y fields
func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Frame int64     `json:"frame"`
		Time  time.Time `json:"time"`
		X     float64   `json:"x"`
		Y     float64   `json:"y"`
	}{s.Frame, s.Time, s.Point.X, s.Point.Y})
}

// Trajectory is the time-ordered sample sequence of one (label, object id)
type Trajectory struct {
	Label    string   `json:"label"`
	ObjectID int64    `json:"objectId"`
	Samples  []Sample `json:"samples"`
}

// First returns the earliest sample
func (t Trajectory) First() Sample { return t.Samples[0] }

// Last returns the latest sample
func (t Trajectory) Last() Sample { return t.Samples[len(t.Samples)-1] }

// Classification is the region verdict for one trajectory
type Classification struct {
	StartRegion   string
	EndRegion     string
	StartBoundary *Sample // first sample outside the start region
	EndBoundary   *Sample // first sample outside the end region, searched from the end
}

// Dwell is the time breakdown of one trajectory. Nil means undefined.
type Dwell struct {
	OverallTime     time.Duration
	StartRegionTime *time.Duration
	EndRegionTime   *time.Duration
	NoRegionTime    *time.Duration
}

// RouteRecord combines classification and dwell for one trajectory
type RouteRecord struct {
	Label      string
	ObjectID   int64
	Start      time.Time
	End        time.Time
	PathLength float64 // pixels travelled by the anchor point
	Classification
	Dwell
}

// Stationary reports whether the object started and ended in the same region
func (r RouteRecord) Stationary() bool {
	return r.StartRegion == r.EndRegion
}

func seconds(d *time.Duration) *float64 {
	if d == nil {
		return nil
	}
	s := d.Seconds()
	return &s
}

// MarshalJSON reports durations in seconds
func (r RouteRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Label           string    `json:"label"`
		ObjectID        int64     `json:"objectId"`
		StartTime       time.Time `json:"startTime"`
		EndTime         time.Time `json:"endTime"`
		PathLength      float64   `json:"pathLength"`
		StartRegion     string    `json:"startRegion"`
		EndRegion       string    `json:"endRegion"`
		StartBoundary   *Sample   `json:"startBoundary"`
		EndBoundary     *Sample   `json:"endBoundary"`
		OverallTime     float64   `json:"overallTime"`
		StartRegionTime *float64  `json:"startRegionTime"`
		EndRegionTime   *float64  `json:"endRegionTime"`
		NoRegionTime    *float64  `json:"noRegionTime"`
	}{
		r.Label, r.ObjectID, r.Start, r.End, r.PathLength,
		r.StartRegion, r.EndRegion, r.StartBoundary, r.EndBoundary,
		r.OverallTime.Seconds(), seconds(r.StartRegionTime), seconds(r.EndRegionTime), seconds(r.NoRegionTime),
	})
}

// RouteCount counts trajectories of one (start, end) region pair by label
type RouteCount struct {
	Start  string         `json:"start"`
	End    string         `json:"end"`
	Counts map[string]int `json:"counts"` // per label, plus "total"
}

// IntervalBucket holds route counts for trajectories assigned to [PeriodFrom, PeriodTo)
type IntervalBucket struct {
	PeriodFrom  time.Time    `json:"periodFrom"`
	PeriodTo    time.Time    `json:"periodTo"`
	RouteCounts []RouteCount `json:"routeCounts"`
}

// RouteAnalytics is the response payload of the route analytics endpoint
type RouteAnalytics struct {
	DataSource    string           `json:"dataSource"`
	Regions       []string         `json:"regions"`
	CountsAtTimes []IntervalBucket `json:"countsAtTimes"`
}

// RouteSummary describes the dwell distribution of one (start, end) pair
type RouteSummary struct {
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Count         int     `json:"count"`
	MeanOverall   float64 `json:"meanOverallTime"`
	MedianOverall float64 `json:"medianOverallTime"`
	MaxOverall    float64 `json:"maxOverallTime"`
	MeanNoRegion  float64 `json:"meanNoRegionTime"`
}

// RouteList is the response payload of the per-trajectory routes endpoint
type RouteList struct {
	DataSource string         `json:"dataSource"`
	Regions    []string       `json:"regions"`
	Routes     []RouteRecord  `json:"routes"`
	Summary    []RouteSummary `json:"summary"`
}

// TrackerJob describes one synchronous run of the external tracker
type TrackerJob struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Stream    string    `json:"stream"`
	StorePath string    `json:"storePath"`
	StartedAt time.Time `json:"startedAt"`
	Duration  float64   `json:"durationSeconds"`
	Output    string    `json:"output,omitempty"`
}
