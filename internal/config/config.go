package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// DefaultTrackerCommand runs the YOLOv8 + StrongSORT tracker; /api/init
// appends the source and store path flags
const DefaultTrackerCommand = "python yolov8_tracking/track.py --save-vid --save-trajectories --yolo-weights yolov8l.pt --tracking-method strongsort"

// Config holds the service configuration
type Config struct {
	Port        string
	AnalysisDir string  // one <stream>.db store per analysed video
	DefaultFPS  float64 // frame rate for stores without metadata
	LogLevel    string
	JWTSecret   string // empty disables bearer auth
	RateLimit   int    // requests per RateWindow per client IP, 0 disables
	RateWindow  time.Duration

	TrackerCommand string // executable that turns a video into a detection store
	TrackerHalf    bool   // run the tracker at half precision
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables take precedence over it.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("failed to read .env file")
	}

	return &Config{
		Port:           getEnv("PORT", ":8080"),
		AnalysisDir:    getEnv("ANALYSIS_DIR", "./analysis"),
		DefaultFPS:     getEnvFloat("DEFAULT_FPS", 30),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		RateLimit:      getEnvInt("RATE_LIMIT", 100),
		RateWindow:     getEnvDuration("RATE_WINDOW", time.Minute),
		TrackerCommand: getEnv("TRACKER_COMMAND", DefaultTrackerCommand),
		TrackerHalf:    getEnvBool("TRACKER_HALF", true),
	}
}

// AddFlags binds command line overrides for the configuration
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Port, "port", c.Port, "Address to listen on.")
	fs.StringVar(&c.AnalysisDir, "analysis-dir", c.AnalysisDir, "Directory holding one detection store per stream.")
	fs.Float64Var(&c.DefaultFPS, "default-fps", c.DefaultFPS, "Frame rate assumed for stores without metadata.")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error).")
	fs.IntVar(&c.RateLimit, "rate-limit", c.RateLimit, "Requests per window per client IP, 0 disables.")
	fs.DurationVar(&c.RateWindow, "rate-window", c.RateWindow, "Rate limiting window.")
	fs.StringVar(&c.TrackerCommand, "tracker-command", c.TrackerCommand, "Command run by /api/init to track a video.")
	fs.BoolVar(&c.TrackerHalf, "tracker-half", c.TrackerHalf, "Pass --half to the tracker.")
}

// ConfigureLogging applies the log level, falling back to info
func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.WithField("level", c.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
