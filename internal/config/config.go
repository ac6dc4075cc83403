package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/rzbill/ringlog/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Capacity          int           `json:"capacity" yaml:"capacity"`
	Delimiter         string        `json:"delimiter" yaml:"delimiter"`
	MaxRecordBytes    int           `json:"maxRecordBytes" yaml:"maxRecordBytes"`
	ListenAddr        string        `json:"listenAddr" yaml:"listenAddr"`
	HTTPAddr          string        `json:"httpAddr" yaml:"httpAddr"`
	GRPCAddr          string        `json:"grpcAddr" yaml:"grpcAddr"`
	MetricsAddr       string        `json:"metricsAddr" yaml:"metricsAddr"`
	TimestampInterval Duration      `json:"timestampInterval" yaml:"timestampInterval"`
	ReadChunkBytes    int           `json:"readChunkBytes" yaml:"readChunkBytes"`
	Archive           ArchiveConfig `json:"archive" yaml:"archive"`
	Log               LogConfig     `json:"log" yaml:"log"`
}

// ArchiveConfig controls the Pebble-backed trail of released records.
type ArchiveConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	DataDir    string `json:"dataDir" yaml:"dataDir"`
	Fsync      string `json:"fsync" yaml:"fsync"`
	MaxEntries uint64 `json:"maxEntries" yaml:"maxEntries"`
}

// LogConfig selects logger level, format and an optional rotated file.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file" yaml:"file"`
}

// Logger converts the section into a pkg/log configuration.
func (c LogConfig) Logger() *log.Config {
	return &log.Config{Level: c.Level, Format: c.Format, File: c.File}
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Capacity:          16,
		Delimiter:         "\n",
		MaxRecordBytes:    1 << 20,
		ListenAddr:        ":9000",
		HTTPAddr:          ":8080",
		GRPCAddr:          ":50051",
		MetricsAddr:       ":9090",
		TimestampInterval: Duration(10 * time.Second),
		ReadChunkBytes:    1 << 20,
		Archive: ArchiveConfig{
			DataDir: DefaultArchiveDir(),
			Fsync:   "interval",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// DefaultArchiveDir is used when archive.dataDir is unset:
// $XDG_DATA_HOME/ringlog/archive, then ~/.local/share/ringlog/archive, then
// data/archive relative to the working directory.
func DefaultArchiveDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "ringlog", "archive")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join("data", "archive")
	}
	return filepath.Join(home, ".local", "share", "ringlog", "archive")
}

// Load reads configuration from a JSON or YAML file (by extension) on top of
// the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// DelimiterByte returns the record terminator. Escapes such as `\n` are
// accepted so the value can be given on a command line.
func (c Config) DelimiterByte() (byte, error) {
	s := c.Delimiter
	if len(s) > 1 {
		u, err := strconv.Unquote(`"` + s + `"`)
		if err != nil {
			return 0, fmt.Errorf("config: delimiter %q: %w", s, err)
		}
		s = u
	}
	if len(s) != 1 || s[0] == 0 {
		return 0, fmt.Errorf("config: delimiter must be a single non-NUL byte, got %q", c.Delimiter)
	}
	return s[0], nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.Capacity < 1 {
		result = multierror.Append(result, fmt.Errorf("capacity must be >= 1, got %d", c.Capacity))
	}
	if _, err := c.DelimiterByte(); err != nil {
		result = multierror.Append(result, err)
	}
	if c.MaxRecordBytes < 0 {
		result = multierror.Append(result, errors.New("maxRecordBytes must not be negative"))
	}
	if c.ReadChunkBytes < 0 {
		result = multierror.Append(result, errors.New("readChunkBytes must not be negative"))
	}
	if c.TimestampInterval < 0 {
		result = multierror.Append(result, errors.New("timestampInterval must not be negative"))
	}
	if c.ListenAddr == "" && c.HTTPAddr == "" {
		result = multierror.Append(result, errors.New("at least one of listenAddr or httpAddr is required"))
	}
	if c.Archive.Enabled && c.Archive.DataDir == "" {
		result = multierror.Append(result, errors.New("archive.dataDir is required when the archive is enabled"))
	}
	if _, err := log.ParseLevel(c.Log.Level); c.Log.Level != "" && err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
