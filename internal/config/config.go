package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Default locations and names.
const (
	DefaultArtifactPath  = "data/processed/processed_data.csv"
	DefaultRawDir        = "data/raw"
	DefaultKaggleDataset = "thedevastator/global-climate-risk-index-and-related-economic-l"
)

// Config holds all runtime settings, populated from environment variables.
// Command-line flags override individual fields after Load.
type Config struct {
	DatasetPath     string
	RawDir          string
	ArtifactPath    string
	ScoringConfig   string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	LeaderboardTopK int

	// Kaggle download.
	KaggleUsername string
	KaggleKey      string
	KaggleDataset  string
	KaggleTimeout  time.Duration

	// Optional Kafka publication of scored records.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Mapbox geocoding for map markers.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	PushgatewayURL string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	kaggleTimeout, err := parsePositiveDuration("KAGGLE_TIMEOUT", "5m")
	if err != nil {
		return nil, err
	}

	topK, err := parsePositiveInt("LEADERBOARD_TOP_K", 10)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	rawDir := sharedcfg.EnvOrDefault("RAW_DIR", DefaultRawDir)

	cfg := &Config{
		DatasetPath:     sharedcfg.EnvOrDefault("DATASET_PATH", rawDir),
		RawDir:          rawDir,
		ArtifactPath:    sharedcfg.EnvOrDefault("ARTIFACT_PATH", DefaultArtifactPath),
		ScoringConfig:   os.Getenv("SCORING_CONFIG"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8501"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		LeaderboardTopK: topK,

		KaggleUsername: os.Getenv("KAGGLE_USERNAME"),
		KaggleKey:      os.Getenv("KAGGLE_KEY"),
		KaggleDataset:  sharedcfg.EnvOrDefault("KAGGLE_DATASET", DefaultKaggleDataset),
		KaggleTimeout:  kaggleTimeout,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "climate-risk-scores"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
	}

	if cfg.ArtifactPath == "" {
		return nil, errors.New("ARTIFACT_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// HasKaggleCredentials reports whether a dataset download can authenticate.
func (c *Config) HasKaggleCredentials() bool {
	return c.KaggleUsername != "" && c.KaggleKey != ""
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
