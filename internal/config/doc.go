// Package config loads ringlog server configuration. Default() is the
// baseline; Load overlays a JSON or YAML file, FromEnv overlays RINGLOG_*
// variables, and Validate reports every invalid field at once.
//
//	cfg, err := config.Load("/etc/ringlog.yaml")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
package config
