package models

import (
	"math"
	"time"

	"github.com/golang/geo/r2"
)

// DefaultFPS is used when a stream store carries no usable frame rate
const DefaultFPS = 30.0

// BBox is an axis-aligned bounding box in pixel coordinates
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect returns the box as an r2.Rect
func (b BBox) Rect() r2.Rect {
	return r2.RectFromPoints(r2.Point{X: b.X, Y: b.Y}, r2.Point{X: b.X + b.W, Y: b.Y + b.H})
}

// Anchor returns the box center, the position proxy for all geometric tests
func (b BBox) Anchor() r2.Point {
	return r2.Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Detection represents one tracked object in one frame, as written by the tracker
type Detection struct {
	Frame    int64    `json:"frame" db:"frame"`         // 0-based frame index
	Label    string   `json:"label" db:"label"`         // class name (car, person, ...)
	ObjectID int64    `json:"objectId" db:"object_id"`  // tracker id, stable across frames
	BBox     BBox     `json:"bbox"`
	Conf     *float64 `json:"conf,omitempty" db:"conf"` // detector confidence, if stored
}

// StreamMetadata is the per-stream metadata record
type StreamMetadata struct {
	FPS float64 `json:"fps" db:"fps"`
}

// FrameRate returns the stream frame rate, falling back to DefaultFPS
func (m StreamMetadata) FrameRate() float64 {
	if m.FPS <= 0 {
		return DefaultFPS
	}
	return m.FPS
}

// FrameOffset converts a frame index into an offset from the recording start
func FrameOffset(frame int64, fps float64) time.Duration {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Duration(math.Round(float64(frame) / fps * float64(time.Second)))
}

// DetectionTable is the full detection set of one stream
type DetectionTable struct {
	Stream     string         `json:"stream"`
	Metadata   StreamMetadata `json:"metadata"`
	Detections []Detection    `json:"detections"`
}
