// Package config loads the planner server configuration from a YAML file
// and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/coverage-planner/internal/logging"
	"github.com/signalsfoundry/coverage-planner/internal/observability"
	"github.com/signalsfoundry/coverage-planner/model"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Terrain sources.
const (
	TerrainNone   = "none"
	TerrainStatic = "static"
	TerrainGrid   = "grid"
	TerrainHTTP   = "http"
)

// Config is the complete server configuration.
type Config struct {
	Server  ServerConfig                `yaml:"server"`
	Logging logging.Config              `yaml:"logging"`
	Tracing observability.TracingConfig `yaml:"tracing"`
	Planner PlannerConfig               `yaml:"planner"`
	Terrain TerrainConfig               `yaml:"terrain"`
	Store   StoreConfig                 `yaml:"store"`
	Archive ArchiveConfig               `yaml:"archive"`
	Events  EventsConfig                `yaml:"events"`
}

// ServerConfig holds listen addresses. An empty address disables that
// listener.
type ServerConfig struct {
	GRPCAddress     string        `yaml:"grpc_address"`
	HTTPAddress     string        `yaml:"http_address"`
	MetricsAddress  string        `yaml:"metrics_address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// PlannerConfig holds planning defaults applied to requests that omit
// parameters.
type PlannerConfig struct {
	Defaults       model.PlanningParameters `yaml:"defaults"`
	CruiseSpeedMps float64                  `yaml:"cruise_speed_mps"`
}

// TerrainConfig selects and tunes the terrain provider.
type TerrainConfig struct {
	Source          string        `yaml:"source"` // none | static | grid | http
	StaticElevation float64       `yaml:"static_elevation"`
	GridPaths       []string      `yaml:"grid_paths"` // coarse to fine
	URL             string        `yaml:"url"`
	BatchSize       int           `yaml:"batch_size"`
	Concurrency     int           `yaml:"concurrency"`
	Timeout         time.Duration `yaml:"timeout"`
	CacheSize       int           `yaml:"cache_size"`
}

// StoreConfig controls mission persistence.
type StoreConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
	// SaveDelay is how long after a change the snapshot is rewritten.
	SaveDelay time.Duration `yaml:"save_delay"`
}

// ArchiveConfig configures the S3-compatible mission archive.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// EventsConfig configures the Kafka plan event publisher.
type EventsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			GRPCAddress:     ":50051",
			HTTPAddress:     ":8080",
			MetricsAddress:  ":9090",
			ShutdownTimeout: 5 * time.Second,
		},
		Logging: logging.Config{Level: "info", Format: "text", AddSource: true},
		Tracing: observability.DefaultTracingConfig(),
		Planner: PlannerConfig{
			Defaults:       model.DefaultPlanningParameters(),
			CruiseSpeedMps: 10,
		},
		Terrain: TerrainConfig{
			Source:      TerrainNone,
			BatchSize:   200,
			Concurrency: 4,
			Timeout:     10 * time.Second,
			CacheSize:   100_000,
		},
		Store:   StoreConfig{SaveDelay: 2 * time.Second},
		Archive: ArchiveConfig{Bucket: "coverage-missions", Region: "us-east-1"},
		Events:  EventsConfig{Topic: "coverage.plans"},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(bytes.NewReader(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg, err := cfg.ApplyEnv()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	if err := decode(r, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from environment variables that are set. A
// malformed boolean or number is reported rather than ignored.
func (c Config) ApplyEnv() (Config, error) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
	setString(&c.Logging.File, "LOG_FILE")
	setString(&c.Server.GRPCAddress, "PLANNER_GRPC_ADDR")
	setString(&c.Server.HTTPAddress, "PLANNER_HTTP_ADDR")
	setString(&c.Server.MetricsAddress, "PLANNER_METRICS_ADDR")
	setString(&c.Terrain.Source, "PLANNER_TERRAIN_SOURCE")
	setString(&c.Terrain.URL, "PLANNER_TERRAIN_URL")
	setString(&c.Store.SnapshotPath, "PLANNER_SNAPSHOT_PATH")
	setString(&c.Archive.Endpoint, "PLANNER_ARCHIVE_ENDPOINT")
	setString(&c.Archive.AccessKey, "PLANNER_ARCHIVE_ACCESS_KEY")
	setString(&c.Archive.SecretKey, "PLANNER_ARCHIVE_SECRET_KEY")
	setString(&c.Events.Topic, "PLANNER_EVENTS_TOPIC")
	if v := os.Getenv("PLANNER_EVENTS_BROKERS"); v != "" {
		c.Events.Brokers = strings.Split(v, ",")
		c.Events.Enabled = true
	}
	if v := os.Getenv("PLANNER_ARCHIVE_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("%w: PLANNER_ARCHIVE_ENABLED=%q is not a boolean", ErrInvalidConfig, v)
		}
		c.Archive.Enabled = enabled
	}
	tracing, err := c.Tracing.ApplyEnv()
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.Tracing = tracing
	return c, nil
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if err := c.Planner.Defaults.Validate(); err != nil {
		return fmt.Errorf("%w: planner.defaults: %v", ErrInvalidConfig, err)
	}
	if c.Store.SaveDelay < 0 {
		return fmt.Errorf("%w: store.save_delay must not be negative", ErrInvalidConfig)
	}
	if c.Planner.CruiseSpeedMps < 0 {
		return fmt.Errorf("%w: planner.cruise_speed_mps must not be negative", ErrInvalidConfig)
	}

	switch c.Terrain.Source {
	case "", TerrainNone:
	case TerrainStatic:
	case TerrainGrid:
		if len(c.Terrain.GridPaths) == 0 {
			return fmt.Errorf("%w: terrain.grid_paths is required for grid terrain", ErrInvalidConfig)
		}
	case TerrainHTTP:
		if c.Terrain.URL == "" {
			return fmt.Errorf("%w: terrain.url is required for http terrain", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown terrain.source %q", ErrInvalidConfig, c.Terrain.Source)
	}

	if c.Archive.Enabled && (c.Archive.Endpoint == "" || c.Archive.Bucket == "") {
		return fmt.Errorf("%w: archive.endpoint and archive.bucket are required when the archive is enabled", ErrInvalidConfig)
	}
	if c.Events.Enabled && (len(c.Events.Brokers) == 0 || c.Events.Topic == "") {
		return fmt.Errorf("%w: events.brokers and events.topic are required when events are enabled", ErrInvalidConfig)
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("%w: tracing: %v", ErrInvalidConfig, err)
	}
	return nil
}
