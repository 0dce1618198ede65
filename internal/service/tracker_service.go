package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/repository"
)

// TrackerService runs the external detector/tracker that produces detection
// stores from videos
type TrackerService struct {
	repo    *repository.DetectionRepository
	command []string
	half    bool
	log     *logrus.Entry
}

// NewTrackerService creates a tracker service. command is split on
// whitespace; the source and store path flags are appended to it.
func NewTrackerService(repo *repository.DetectionRepository, command string, half bool) *TrackerService {
	return &TrackerService{
		repo:    repo,
		command: strings.Fields(command),
		half:    half,
		log:     logrus.WithField("component", "tracker"),
	}
}

// Args returns the full tracker command line for a video. source should be
// absolute so it can never be read as a flag.
func (s *TrackerService) Args(source, storePath string) []string {
	args := append([]string{}, s.command...)
	args = append(args, "--source", source, "--analysis_db_path", storePath)
	if s.half {
		args = append(args, "--half")
	}
	return args
}

// Run tracks a video synchronously, writing <analysis dir>/<video stem>.db.
// The run is bound to ctx.
func (s *TrackerService) Run(ctx context.Context, source string) (*models.TrackerJob, error) {
	if source == "" {
		return nil, &models.MissingFieldError{Field: "stream"}
	}
	if len(s.command) == 0 {
		return nil, errors.New("no tracker command configured")
	}
	video, err := filepath.Abs(source)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve video path %s: %w", source, err)
	}
	if _, err := os.Stat(video); err != nil {
		return nil, &models.ValidationError{Field: "stream", Reason: "video not found: " + source}
	}
	stream, err := repository.StreamID("stream", video)
	if err != nil {
		return nil, err
	}
	storePath, err := s.repo.StorePath(stream)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.repo.Dir(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create analysis dir: %w", err)
	}

	job := &models.TrackerJob{
		ID:        uuid.New().String(),
		Source:    video,
		Stream:    stream,
		StorePath: storePath,
		StartedAt: time.Now().UTC(),
	}
	args := s.Args(video, job.StorePath)
	log := s.log.WithFields(logrus.Fields{"job": job.ID, "stream": job.Stream})
	log.WithField("args", args).Info("starting tracker")

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	output, err := cmd.CombinedOutput()
	job.Duration = time.Since(job.StartedAt).Seconds()
	job.Output = string(output)
	if err != nil {
		log.WithError(err).Error("tracker failed")
		return nil, fmt.Errorf("tracker failed: %w, output: %s", err, output)
	}

	if _, err := os.Stat(job.StorePath); err != nil {
		log.Warn("tracker finished without writing a store")
	}
	log.WithField("seconds", job.Duration).Info("tracker finished")

	return job, nil
}
