package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/ringlog/internal/cmd/client"
	serverrun "github.com/rzbill/ringlog/internal/cmd/server"
	cfgpkg "github.com/rzbill/ringlog/internal/config"
	logpkg "github.com/rzbill/ringlog/pkg/log"
)

func main() {
	// initialize logger for CLI
	// Respect RINGLOG_LOG_LEVEL for both CLI and server start output
	level := os.Getenv("RINGLOG_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := clientcmd.NewRoot(apiURL)
	rootCmd.Short = "ringlog: a bounded in-memory record log served over TCP"
	rootCmd.Long = "ringlog keeps the most recent records in a fixed-capacity ring, " +
		"appends newline-delimited input from TCP clients and answers with the log contents."
	rootCmd.SilenceUsage = true

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the ringlog server (TCP, HTTP, gRPC and metrics)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := cfgpkg.Load(path)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	f := serverStartCmd.Flags()
	f.String("config", os.Getenv("RINGLOG_CONFIG"), "Config file (.json, .yaml or .yml)")
	f.Int("capacity", 0, "Maximum number of live records")
	f.String("delimiter", "", `Record delimiter, escapes allowed (default "\n")`)
	f.Int("max-record-bytes", 0, "Largest accepted record (0 = unlimited)")
	f.String("listen", "", "TCP listen address (default :9000)")
	f.String("http", "", "HTTP admin listen address (default :8080)")
	f.String("grpc", "", "gRPC listen address (default :50051)")
	f.String("metrics", "", "Prometheus metrics listen address (default :9090)")
	f.Duration("timestamp-interval", 0, "Timestamp record interval (default 10s)")
	f.Bool("no-timestamps", false, "Disable timestamp records")
	f.Bool("archive", false, "Archive evicted records to disk")
	f.String("archive-dir", "", "Archive data directory (default OS application data dir)")
	f.String("fsync", "", "Archive fsync mode: always|interval|never")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.String("log-format", "", "Log format: text|json")
	f.String("log-file", "", "Also write logs to this file (rotated)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", logpkg.Err(err))
		os.Exit(1)
	}
}

// applyFlags overlays explicitly set flags onto cfg.
func applyFlags(cmd *cobra.Command, cfg *cfgpkg.Config) error {
	f := cmd.Flags()
	var err error
	if f.Changed("capacity") {
		cfg.Capacity, err = f.GetInt("capacity")
	}
	if f.Changed("delimiter") {
		cfg.Delimiter, _ = f.GetString("delimiter")
	}
	if f.Changed("max-record-bytes") {
		cfg.MaxRecordBytes, _ = f.GetInt("max-record-bytes")
	}
	if f.Changed("listen") {
		cfg.ListenAddr, _ = f.GetString("listen")
	}
	if f.Changed("http") {
		cfg.HTTPAddr, _ = f.GetString("http")
	}
	if f.Changed("grpc") {
		cfg.GRPCAddr, _ = f.GetString("grpc")
	}
	if f.Changed("metrics") {
		cfg.MetricsAddr, _ = f.GetString("metrics")
	}
	if f.Changed("timestamp-interval") {
		d, _ := f.GetDuration("timestamp-interval")
		cfg.TimestampInterval = cfgpkg.Duration(d)
	}
	if off, _ := f.GetBool("no-timestamps"); off {
		cfg.TimestampInterval = 0
	}
	if f.Changed("archive") {
		cfg.Archive.Enabled, _ = f.GetBool("archive")
	}
	if f.Changed("archive-dir") {
		cfg.Archive.DataDir, _ = f.GetString("archive-dir")
	}
	if f.Changed("fsync") {
		cfg.Archive.Fsync, _ = f.GetString("fsync")
	}
	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		cfg.Log.Format, _ = f.GetString("log-format")
	}
	if f.Changed("log-file") {
		cfg.Log.File, _ = f.GetString("log-file")
	}
	return err
}

func apiURL() string {
	if v := os.Getenv("RINGLOG_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
