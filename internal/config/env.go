package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays RINGLOG_* environment variables onto cfg. Unparseable
// values are ignored.
func FromEnv(cfg *Config) {
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setStr := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	setInt("RINGLOG_CAPACITY", &cfg.Capacity)
	if v := os.Getenv("RINGLOG_DELIMITER"); v != "" {
		cfg.Delimiter = v
	}
	setInt("RINGLOG_MAX_RECORD_BYTES", &cfg.MaxRecordBytes)
	setStr("RINGLOG_LISTEN_ADDR", &cfg.ListenAddr)
	setStr("RINGLOG_HTTP_ADDR", &cfg.HTTPAddr)
	setStr("RINGLOG_GRPC_ADDR", &cfg.GRPCAddr)
	setStr("RINGLOG_METRICS_ADDR", &cfg.MetricsAddr)
	if v := os.Getenv("RINGLOG_TIMESTAMP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TimestampInterval = Duration(d)
		}
	}
	setInt("RINGLOG_READ_CHUNK_BYTES", &cfg.ReadChunkBytes)

	if v := os.Getenv("RINGLOG_ARCHIVE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Archive.Enabled = b
		}
	}
	if v := os.Getenv("RINGLOG_ARCHIVE_DATA_DIR"); v != "" {
		cfg.Archive.DataDir = v
	}
	if v := os.Getenv("RINGLOG_ARCHIVE_FSYNC"); v != "" {
		cfg.Archive.Fsync = v
	}
	if v := os.Getenv("RINGLOG_ARCHIVE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Archive.MaxEntries = n
		}
	}

	if v := os.Getenv("RINGLOG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RINGLOG_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("RINGLOG_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
