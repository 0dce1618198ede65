package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/analysis"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/repository"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/spatial"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/stats"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/viz"
)

// RouteQuery is a decoded route analytics request
type RouteQuery struct {
	DataSource      string
	Regions         *spatial.RegionSet
	Classes         []string
	StartTime       time.Time
	EndTime         *time.Time
	StartRegions    []string
	EndRegions      []string
	IntervalSpacing time.Duration
	FPS             float64 // overrides the store frame rate when > 0
	StartFrame      *int64
	EndFrame        *int64
}

func (q RouteQuery) routeOptions() analysis.RouteOptions {
	return analysis.RouteOptions{RecordingStart: q.StartTime, FPS: q.FPS}
}

func (q RouteQuery) aggregateOptions() analysis.AggregateOptions {
	return analysis.AggregateOptions{
		Start:        q.StartTime,
		End:          q.EndTime,
		Spacing:      q.IntervalSpacing,
		StartRegions: q.StartRegions,
		EndRegions:   q.EndRegions,
		Classes:      q.Classes,
	}
}

// RouteService runs the route analytics pipeline over detection stores
type RouteService struct {
	repo       *repository.DetectionRepository
	defaultFPS float64
	log        *logrus.Entry
}

// NewRouteService creates a new route service
func NewRouteService(repo *repository.DetectionRepository, defaultFPS float64) *RouteService {
	return &RouteService{
		repo:       repo,
		defaultFPS: defaultFPS,
		log:        logrus.WithField("component", "routes"),
	}
}

// load reads the detections a query covers. The class allow-list is applied
// here so unrequested labels never reach trajectory building.
func (s *RouteService) load(ctx context.Context, q RouteQuery) (*models.DetectionTable, error) {
	table, err := s.repo.Load(ctx, q.DataSource, models.DetectionFilter{
		StartFrame: q.StartFrame,
		EndFrame:   q.EndFrame,
		Labels:     q.Classes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load detections: %w", err)
	}
	if table.Metadata.FPS <= 0 {
		table.Metadata.FPS = s.defaultFPS
	}

	s.log.WithFields(logrus.Fields{
		"stream":     q.DataSource,
		"detections": len(table.Detections),
		"fps":        table.Metadata.FrameRate(),
	}).Debug("loaded detections")

	return table, nil
}

// RouteAnalytics returns interval route counts for a stream
func (s *RouteService) RouteAnalytics(ctx context.Context, q RouteQuery) (*models.RouteAnalytics, error) {
	table, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}

	result := analysis.RouteAnalytics(table, q.Regions, q.routeOptions(), q.aggregateOptions())
	s.log.WithFields(logrus.Fields{
		"stream":  q.DataSource,
		"buckets": len(result.CountsAtTimes),
	}).Info("route analytics computed")

	return result, nil
}

// Routes returns per-trajectory route records with a dwell summary per
// (start, end) region pair
func (s *RouteService) Routes(ctx context.Context, q RouteQuery) (*models.RouteList, error) {
	table, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}

	records := analysis.Routes(table, q.Regions, q.routeOptions())
	records = analysis.FilterRoutes(records, q.Regions, q.aggregateOptions())

	return &models.RouteList{
		DataSource: table.Stream,
		Regions:    q.Regions.Names(),
		Routes:     records,
		Summary:    stats.SummarizeRoutes(records, q.Regions),
	}, nil
}

// RenderChart writes the route analytics of a query as an HTML chart
func (s *RouteService) RenderChart(ctx context.Context, q RouteQuery, w io.Writer) error {
	result, err := s.RouteAnalytics(ctx, q)
	if err != nil {
		return err
	}
	return viz.RenderRouteChart(w, result)
}

// RawDetections returns the stored detection rows of a stream
func (s *RouteService) RawDetections(ctx context.Context, q models.RawDetectionQuery) (*models.DetectionTable, error) {
	if q.Stream == "" {
		return nil, &models.MissingFieldError{Field: "stream"}
	}
	if q.Start != nil && q.End != nil && *q.Start > *q.End {
		return nil, &models.ValidationError{Field: "end", Reason: "end frame before start frame"}
	}

	table, err := s.repo.Load(ctx, q.Stream, q.Filter())
	if err != nil {
		return nil, fmt.Errorf("failed to load detections: %w", err)
	}
	if table.Detections == nil {
		table.Detections = []models.Detection{}
	}
	return table, nil
}

// Streams lists the analysed streams
func (s *RouteService) Streams() ([]string, error) {
	streams, err := s.repo.ListStreams()
	if err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}
	return streams, nil
}
