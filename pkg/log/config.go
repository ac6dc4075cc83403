package log

import (
	"fmt"
	"strings"
)

// OutputConfig describes a single log destination.
type OutputConfig struct {
	// Type is one of console, stdout, file, syslog, null.
	Type       string `json:"type" yaml:"type"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`
	MaxSizeMB  int    `json:"maxSizeMB,omitempty" yaml:"maxSizeMB,omitempty"`
	MaxBackups int    `json:"maxBackups,omitempty" yaml:"maxBackups,omitempty"`
	MaxAgeDays int    `json:"maxAgeDays,omitempty" yaml:"maxAgeDays,omitempty"`
	Tag        string `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// Config is the declarative logger configuration.
type Config struct {
	Level   string         `json:"level" yaml:"level"`
	Format  string         `json:"format" yaml:"format"`
	Outputs []OutputConfig `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	// File is a shorthand for a single rotated file output. "console" or
	// empty means stderr only.
	File   string   `json:"file,omitempty" yaml:"file,omitempty"`
	Redact []string `json:"redact,omitempty" yaml:"redact,omitempty"`
	// Sampling: log the first SampleInitial identical messages, then every
	// SampleThereafter-th. Disabled when SampleThereafter is 0.
	SampleInitial    int  `json:"sampleInitial,omitempty" yaml:"sampleInitial,omitempty"`
	SampleThereafter int  `json:"sampleThereafter,omitempty" yaml:"sampleThereafter,omitempty"`
	ShowCaller       bool `json:"showCaller,omitempty" yaml:"showCaller,omitempty"`
}

// ApplyConfig builds a Logger from cfg. Unknown levels, formats, or output
// types are reported as errors.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{ShowCaller: cfg.ShowCaller}
	case "json":
		formatter = &JSONFormatter{ShowCaller: cfg.ShowCaller}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	outs := cfg.Outputs
	if cfg.File != "" && cfg.File != "console" {
		outs = append(outs, OutputConfig{Type: "file", Path: cfg.File})
	}

	opts := []LoggerOption{WithLevel(level), WithFormatter(formatter)}
	for _, oc := range outs {
		out, err := buildOutput(oc)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithOutput(out))
	}
	if len(cfg.Redact) > 0 {
		opts = append(opts, WithRedaction(cfg.Redact...))
	}
	if cfg.SampleThereafter > 0 {
		opts = append(opts, WithSampling(cfg.SampleInitial, cfg.SampleThereafter))
	}
	return NewLogger(opts...), nil
}

func buildOutput(oc OutputConfig) (Output, error) {
	switch strings.ToLower(oc.Type) {
	case "", "console", "stderr":
		return NewConsoleOutput(), nil
	case "file":
		if oc.Path == "" {
			return nil, fmt.Errorf("file output requires a path")
		}
		return NewFileOutput(oc.Path, oc.MaxSizeMB, oc.MaxBackups, oc.MaxAgeDays), nil
	case "syslog":
		return NewSyslogOutput(oc.Tag)
	case "null":
		return NullOutput{}, nil
	default:
		return nil, fmt.Errorf("unknown log output %q", oc.Type)
	}
}
