package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataLocation    string
	MedallistsFile  string
	MedalsTotalFile string
	FetchTimeout    time.Duration

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Input watching (directory locations only).
	WatchEnabled  bool
	WatchDebounce time.Duration

	// Map geometry.
	GeoJSONURL     string
	GeoJSONTimeout time.Duration

	// Chart parameters; defaults overridden by CHART_CONFIG.
	ReferenceYear   int
	ChartConfigPath string
	Charts          Charts
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geojsonTimeout, err := parsePositiveDuration("GEOJSON_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	watchDebounce, err := parsePositiveDuration("WATCH_DEBOUNCE", "200ms")
	if err != nil {
		return nil, err
	}

	referenceYear, err := strconv.Atoi(sharedcfg.EnvOrDefault("REFERENCE_YEAR", "2024"))
	if err != nil || referenceYear <= 0 {
		return nil, errors.New("invalid REFERENCE_YEAR")
	}

	dataLocation := sharedcfg.EnvOrDefault("DATA_LOCATION", "./data")
	remote := strings.HasPrefix(dataLocation, "http://") || strings.HasPrefix(dataLocation, "https://")

	// Watching only makes sense for files on disk.
	watchEnabled := !remote
	if v := os.Getenv("WATCH_ENABLED"); v != "" {
		watchEnabled = v == "true"
	}

	// An explicit broker list implies the sink is wanted.
	brokers := os.Getenv("KAFKA_BROKERS")
	kafkaEnabled := brokers != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DataLocation:    dataLocation,
		MedallistsFile:  sharedcfg.EnvOrDefault("MEDALLISTS_FILE", "medallists.csv"),
		MedalsTotalFile: sharedcfg.EnvOrDefault("MEDALS_TOTAL_FILE", "medals_total.csv"),
		FetchTimeout:    fetchTimeout,

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "medal-charts"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WatchEnabled:  watchEnabled,
		WatchDebounce: watchDebounce,

		GeoJSONURL:     os.Getenv("GEOJSON_URL"),
		GeoJSONTimeout: geojsonTimeout,

		ReferenceYear:   referenceYear,
		ChartConfigPath: os.Getenv("CHART_CONFIG"),
		Charts:          DefaultCharts(),
	}

	if cfg.ChartConfigPath != "" {
		charts, err := LoadCharts(cfg.ChartConfigPath)
		if err != nil {
			return nil, err
		}
		cfg.Charts = charts
	}

	if cfg.DataLocation == "" {
		return nil, errors.New("DATA_LOCATION is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.WatchEnabled && remote {
		return nil, errors.New("WATCH_ENABLED requires a directory DATA_LOCATION")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
