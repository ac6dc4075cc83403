package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Capacity != 16 {
		t.Fatalf("capacity default = %d", cfg.Capacity)
	}
	if d, err := cfg.DelimiterByte(); err != nil || d != '\n' {
		t.Fatalf("delimiter default = %q, %v", d, err)
	}
	if cfg.TimestampInterval.Std() != 10*time.Second {
		t.Fatalf("timestamp interval default = %v", cfg.TimestampInterval)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("listen addr default = %q", cfg.ListenAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestDefaultArchiveDir(t *testing.T) {
	t.Run("xdg", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "/custom/data")
		if got := DefaultArchiveDir(); got != filepath.Join("/custom/data", "ringlog", "archive") {
			t.Fatalf("got %q", got)
		}
		if Default().Archive.DataDir != DefaultArchiveDir() {
			t.Fatalf("Default does not use DefaultArchiveDir")
		}
	})
	t.Run("home", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "")
		t.Setenv("HOME", "/home/op")
		if got := DefaultArchiveDir(); got != filepath.Join("/home/op", ".local", "share", "ringlog", "archive") {
			t.Fatalf("got %q", got)
		}
	})
	t.Run("no home", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "")
		t.Setenv("HOME", "")
		if got := DefaultArchiveDir(); got != filepath.Join("data", "archive") {
			t.Fatalf("got %q", got)
		}
	})
}

func TestLoadJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ringlog.json")
	data := []byte(`{"capacity":4,"timestampInterval":"250ms","archive":{"enabled":true,"dataDir":"/tmp/a"}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Capacity != 4 {
		t.Fatalf("capacity = %d", cfg.Capacity)
	}
	if cfg.TimestampInterval.Std() != 250*time.Millisecond {
		t.Fatalf("interval = %v", cfg.TimestampInterval)
	}
	if !cfg.Archive.Enabled || cfg.Archive.DataDir != "/tmp/a" {
		t.Fatalf("archive = %+v", cfg.Archive)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unset fields should keep defaults, http addr = %q", cfg.HTTPAddr)
	}
}

func TestLoadYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ringlog.yaml")
	data := []byte("capacity: 10\ndelimiter: \";\"\ntimestampInterval: 0\nlog:\n  level: debug\n  format: json\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Capacity != 10 || cfg.Delimiter != ";" || cfg.TimestampInterval != 0 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("log section: %+v", cfg.Log)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.yml")
	_ = os.WriteFile(bad, []byte("timestampInterval: soon\n"), 0644)
	if _, err := Load(bad); err == nil {
		t.Fatalf("expected error for bad duration")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("RINGLOG_CAPACITY", "3")
	t.Setenv("RINGLOG_DELIMITER", `\r`)
	t.Setenv("RINGLOG_TIMESTAMP_INTERVAL", "1m")
	t.Setenv("RINGLOG_GRPC_ADDR", "")
	t.Setenv("RINGLOG_ARCHIVE_ENABLED", "true")
	t.Setenv("RINGLOG_ARCHIVE_MAX_ENTRIES", "100")
	t.Setenv("RINGLOG_LOG_LEVEL", "warn")
	t.Setenv("RINGLOG_MAX_RECORD_BYTES", "not-a-number")
	FromEnv(&cfg)

	if cfg.Capacity != 3 {
		t.Fatalf("capacity = %d", cfg.Capacity)
	}
	if d, err := cfg.DelimiterByte(); err != nil || d != '\r' {
		t.Fatalf("delimiter = %q, %v", d, err)
	}
	if cfg.TimestampInterval.Std() != time.Minute {
		t.Fatalf("interval = %v", cfg.TimestampInterval)
	}
	if cfg.GRPCAddr != "" {
		t.Fatalf("empty env should disable grpc, got %q", cfg.GRPCAddr)
	}
	if !cfg.Archive.Enabled || cfg.Archive.MaxEntries != 100 {
		t.Fatalf("archive = %+v", cfg.Archive)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
	if cfg.MaxRecordBytes != 1<<20 {
		t.Fatalf("bad env value should be ignored, got %d", cfg.MaxRecordBytes)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Capacity = 0
	cfg.Delimiter = "ab"
	cfg.MaxRecordBytes = -1
	cfg.Log.Level = "loud"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"capacity", "delimiter", "maxRecordBytes", "loud"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestDurationJSON(t *testing.T) {
	var v struct {
		D Duration `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":2}`), &v); err != nil || v.D.Std() != 2*time.Second {
		t.Fatalf("numeric seconds: %v %v", v.D, err)
	}
	b, _ := json.Marshal(v)
	if string(b) != `{"d":"2s"}` {
		t.Fatalf("marshal = %s", b)
	}
}
