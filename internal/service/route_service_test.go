package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/repository"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/spatial"
)

var recordingStart = time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC)

func box(frame int64, label string, id int64, x, y float64) models.Detection {
	return models.Detection{Frame: frame, Label: label, ObjectID: id, BBox: models.BBox{X: x - 2, Y: y - 2, W: 4, H: 4}}
}

// junction stores a car and a bus crossing A to B and a parked person
func junction(t *testing.T, fps float64) *repository.DetectionRepository {
	t.Helper()
	var dets []models.Detection
	for i := int64(0); i < 10; i++ {
		v := 100 * float64(i) / 9
		dets = append(dets, box(i, "car", 1, v, v), box(i+10, "bus", 2, v, v), box(i, "person", 3, 0, 0))
	}

	repo := repository.NewDetectionRepository(t.TempDir())
	_, err := repo.Save(context.Background(), &models.DetectionTable{
		Stream:     "junction",
		Metadata:   models.StreamMetadata{FPS: fps},
		Detections: dets,
	}, "junction.mp4")
	require.NoError(t, err)
	return repo
}

func abRegions(t *testing.T) *spatial.RegionSet {
	t.Helper()
	square := func(minX, minY, maxX, maxY float64) []r2.Point {
		return []r2.Point{{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: maxY}, {X: minX, Y: maxY}}
	}
	a, err := spatial.NewRegion("A", square(-10, -10, 10, 10))
	require.NoError(t, err)
	b, err := spatial.NewRegion("B", square(90, 90, 110, 110))
	require.NoError(t, err)
	set, err := spatial.NewRegionSet(a, b)
	require.NoError(t, err)
	return set
}

func query(t *testing.T, classes ...string) RouteQuery {
	return RouteQuery{
		DataSource: "junction",
		Regions:    abRegions(t),
		Classes:    classes,
		StartTime:  recordingStart,
	}
}

func TestRouteService_RouteAnalytics(t *testing.T) {
	svc := NewRouteService(junction(t, 10), 30)

	result, err := svc.RouteAnalytics(context.Background(), query(t, "car", "bus"))
	require.NoError(t, err)
	assert.Equal(t, "junction", result.DataSource)
	assert.Equal(t, []string{"A", "B"}, result.Regions)
	require.Len(t, result.CountsAtTimes, 1)

	bucket := result.CountsAtTimes[0]
	assert.Equal(t, recordingStart, bucket.PeriodFrom)
	assert.Equal(t, recordingStart.Add(1900*time.Millisecond), bucket.PeriodTo)
	require.Len(t, bucket.RouteCounts, 1)
	assert.Equal(t, map[string]int{"car": 1, "bus": 1, "total": 2}, bucket.RouteCounts[0].Counts)
}

func TestRouteService_ClassFilterAppliedAtLoad(t *testing.T) {
	svc := NewRouteService(junction(t, 10), 30)

	result, err := svc.RouteAnalytics(context.Background(), query(t, "car"))
	require.NoError(t, err)
	require.Len(t, result.CountsAtTimes, 1)
	assert.Equal(t, recordingStart.Add(900*time.Millisecond), result.CountsAtTimes[0].PeriodTo, "bus never loaded")
}

func TestRouteService_DefaultFPS(t *testing.T) {
	svc := NewRouteService(junction(t, 0), 20)

	list, err := svc.Routes(context.Background(), query(t, "car"))
	require.NoError(t, err)
	require.Len(t, list.Routes, 1)
	assert.Equal(t, 450*time.Millisecond, list.Routes[0].OverallTime)

	q := query(t, "car")
	q.FPS = 10
	list, err = svc.Routes(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 900*time.Millisecond, list.Routes[0].OverallTime)
}

func TestRouteService_Routes(t *testing.T) {
	svc := NewRouteService(junction(t, 10), 30)

	list, err := svc.Routes(context.Background(), query(t, "car", "bus", "person"))
	require.NoError(t, err)
	require.Len(t, list.Routes, 3)
	require.Len(t, list.Summary, 2)

	assert.Equal(t, "A", list.Summary[0].Start)
	assert.Equal(t, "A", list.Summary[0].End)
	assert.Equal(t, 1, list.Summary[0].Count)

	ab := list.Summary[1]
	assert.Equal(t, "B", ab.End)
	assert.Equal(t, 2, ab.Count)
	assert.InDelta(t, 0.9, ab.MeanOverall, 1e-9)
	assert.InDelta(t, 0.7, ab.MeanNoRegion, 1e-9)
}

func TestRouteService_Errors(t *testing.T) {
	svc := NewRouteService(junction(t, 10), 30)

	q := query(t, "car")
	q.DataSource = "elsewhere"
	_, err := svc.RouteAnalytics(context.Background(), q)
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = svc.RawDetections(context.Background(), models.RawDetectionQuery{})
	var mf *models.MissingFieldError
	assert.ErrorAs(t, err, &mf)

	start, end := int64(5), int64(2)
	_, err = svc.RawDetections(context.Background(), models.RawDetectionQuery{Stream: "junction", Start: &start, End: &end})
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestRouteService_RawDetectionsAndStreams(t *testing.T) {
	svc := NewRouteService(junction(t, 10), 30)

	start, end := int64(0), int64(0)
	table, err := svc.RawDetections(context.Background(), models.RawDetectionQuery{Stream: "junction", Start: &start, End: &end})
	require.NoError(t, err)
	assert.Len(t, table.Detections, 2)

	streams, err := svc.Streams()
	require.NoError(t, err)
	assert.Equal(t, []string{"junction"}, streams)
}

func TestRouteService_RenderChart(t *testing.T) {
	svc := NewRouteService(junction(t, 10), 30)

	var buf bytes.Buffer
	require.NoError(t, svc.RenderChart(context.Background(), query(t, "car"), &buf))
	assert.Contains(t, buf.String(), "<html")
}
