package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/api"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/config"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/database"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/importer"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/repository"
)

// NewCommand builds the root command; configuration comes from the
// environment and may be overridden by flags
func NewCommand(ctx context.Context) *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "route-analytics",
		Short:         "Route and region analytics over traffic camera detection stores",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.ConfigureLogging()
		},
	}
	cfg.AddFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCommand(ctx, cfg),
		newImportCommand(ctx, cfg),
		newMigrateCommand(cfg),
	)

	return root
}

func newServeCommand(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !logrus.IsLevelEnabled(logrus.DebugLevel) {
				gin.SetMode(gin.ReleaseMode)
			}

			srv := &http.Server{
				Addr:    cfg.Port,
				Handler: api.SetupRouter(ctx, cfg),
			}

			errCh := make(chan error, 1)
			go func() {
				logrus.WithFields(logrus.Fields{
					"addr":         cfg.Port,
					"analysis_dir": cfg.AnalysisDir,
				}).Info("server starting")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("failed to start server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logrus.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newImportCommand(ctx context.Context, cfg *config.Config) *cobra.Command {
	var (
		format string
		stream string
		fps    float64
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Build a detection store from a Darwin 2.0 export or a CSV of detections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if format == "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
			}
			if stream == "" {
				stream = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()

			var detections []models.Detection
			switch format {
			case "json", "darwin":
				detections, err = importer.ReadDarwin(f)
			case "csv":
				detections, err = importer.ReadCSV(f)
			default:
				return fmt.Errorf("unknown import format %q", format)
			}
			if err != nil {
				return err
			}

			repo := repository.NewDetectionRepository(cfg.AnalysisDir)
			store, err := repo.Save(ctx, &models.DetectionTable{
				Stream:     stream,
				Metadata:   models.StreamMetadata{FPS: fps},
				Detections: detections,
			}, path)
			if err != nil {
				return err
			}

			logrus.WithFields(logrus.Fields{
				"store":      store,
				"detections": len(detections),
			}).Info("import finished")
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&format, "format", "", "Input format: darwin or csv (default: from the file extension).")
	fs.StringVar(&stream, "stream", "", "Stream id of the new store (default: the file name).")
	fs.Float64Var(&fps, "fps", 0, "Frame rate recorded in the store metadata.")

	return cmd
}

func newMigrateCommand(cfg *config.Config) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate <stream>",
		Short: "Create or upgrade the schema of a stream's detection store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := repository.NewDetectionRepository(cfg.AnalysisDir).StorePath(args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.AnalysisDir, 0o755); err != nil {
				return fmt.Errorf("failed to create analysis dir: %w", err)
			}

			db, err := database.Open(path)
			if err != nil {
				return err
			}
			defer db.Close()

			if down {
				err = database.MigrateDown(db)
			} else {
				err = database.Migrate(db)
			}
			if err != nil {
				return err
			}

			version, dirty, err := database.Version(db)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{"stream": args[0], "version": version, "dirty": dirty}).Info("schema migrated")
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "Roll back the most recent migration instead.")

	return cmd
}
