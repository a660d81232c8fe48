package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Mongo       MongoConfig
	Geocoder    GeocoderConfig
	Outbreak    OutbreakConfig
	Spool       SpoolConfig
	Context     ContextConfig
	Logger      LoggerConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// GeocoderConfig points at the external location suggestion service.
type GeocoderConfig struct {
	BaseURL string
	Timeout time.Duration
}

// OutbreakConfig scopes the instance to one outbreak.
type OutbreakConfig struct {
	// StartDate is the earliest acceptable confirmation date (YYYY-MM-DD).
	StartDate time.Time
	// DeleteThreshold caps how many cases a single filter-based batch
	// delete may remove. Zero disables the rail.
	DeleteThreshold int64
}

type SpoolConfig struct {
	Path           string
	Bucket         string
	RetentionHours int
	DrainInterval  time.Duration
	MaxRetry       int
	BatchSize      int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "linelist-backend"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Mongo: MongoConfig{
			URI:            getString("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getString("MONGO_DB", "linelist"),
			ConnectTimeout: getDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		Geocoder: GeocoderConfig{
			BaseURL: getString("GEOCODER_URL", "http://localhost:3003"),
			Timeout: getDuration("GEOCODER_TIMEOUT", 5*time.Second),
		},
		Outbreak: OutbreakConfig{
			DeleteThreshold: int64(getInt("BATCH_DELETE_THRESHOLD", 10000)),
		},
		Spool: SpoolConfig{
			Path:           getString("BOLTDB_PATH", "./data/spool.db"),
			Bucket:         getString("SPOOL_BUCKET", "spool"),
			RetentionHours: getInt("SPOOL_RETENTION_HOURS", 72),
			DrainInterval:  getDuration("SPOOL_DRAIN_INTERVAL", 30*time.Second),
			MaxRetry:       getInt("SPOOL_MAX_RETRY", 3),
			BatchSize:      getInt("SPOOL_BATCH_SIZE", 50),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 30*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
	}

	startDate, err := parseDate(getString("OUTBREAK_START_DATE", "2019-11-01"))
	if err != nil {
		return nil, fmt.Errorf("OUTBREAK_START_DATE: %w", err)
	}
	cfg.Outbreak.StartDate = startDate

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
