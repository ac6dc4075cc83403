package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/metric"

	"github.com/rzbill/ringlog/internal/archive"
	cfgpkg "github.com/rzbill/ringlog/internal/config"
	"github.com/rzbill/ringlog/internal/device"
	"github.com/rzbill/ringlog/internal/metrics"
	pebblestore "github.com/rzbill/ringlog/internal/storage/pebble"
	"github.com/rzbill/ringlog/pkg/log"
)

// ErrClosed is returned by CheckHealth after Close.
var ErrClosed = errors.New("runtime: closed")

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger log.Logger
	// Meter, when set, receives device and archive instruments.
	Meter metric.Meter
}

// Runtime owns the device and its optional collaborators for a single
// server instance.
type Runtime struct {
	config  cfgpkg.Config
	logger  log.Logger
	dev     *device.Device
	archive *archive.Archive
	metrics *metrics.LogMetrics
}

// Open validates the configuration and builds the device, wiring the archive
// and metrics when configured.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("runtime: invalid config: %w", err)
	}
	delim, _ := cfg.DelimiterByte()
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	rt := &Runtime{config: cfg, logger: logger}

	devOpts := []device.Option{
		device.WithDelimiter(delim),
		device.WithMaxRecordBytes(cfg.MaxRecordBytes),
		device.WithLogger(logger.WithComponent("device")),
	}

	var storeMetrics pebblestore.MetricsHook
	if opts.Meter != nil {
		ctx := context.Background()
		lm, err := metrics.NewLogMetrics(ctx, opts.Meter)
		if err != nil {
			return nil, fmt.Errorf("runtime: metrics: %w", err)
		}
		rt.metrics = lm
		devOpts = append(devOpts, device.WithObserver(lm))

		sm, err := metrics.NewStoreMetrics(ctx, opts.Meter)
		if err != nil {
			return nil, fmt.Errorf("runtime: metrics: %w", err)
		}
		storeMetrics = sm
	}

	if cfg.Archive.Enabled {
		fsync, err := pebblestore.ParseFsyncMode(cfg.Archive.Fsync)
		if err != nil {
			return nil, err
		}
		a, err := archive.Open(archive.Options{
			DataDir:    cfg.Archive.DataDir,
			Fsync:      fsync,
			Logger:     logger.WithComponent("archive"),
			Metrics:    storeMetrics,
			MaxEntries: cfg.Archive.MaxEntries,
		})
		if err != nil {
			return nil, err
		}
		rt.archive = a
		devOpts = append(devOpts, device.WithReleaseHook(a))
	}

	rt.dev = device.New(cfg.Capacity, devOpts...)
	if rt.metrics != nil {
		if err := rt.metrics.ObserveDevice(opts.Meter, rt.dev.Stats); err != nil {
			return nil, errors.Join(fmt.Errorf("runtime: metrics: %w", err), rt.Close(context.Background()))
		}
	}
	logger.Info("runtime ready",
		log.Int("capacity", cfg.Capacity),
		log.Bool("archive", cfg.Archive.Enabled),
	)
	return rt, nil
}

// Close drains the device, which releases remaining records to the archive,
// then closes the archive.
func (r *Runtime) Close(ctx context.Context) error {
	var result *multierror.Error
	if err := r.dev.Close(ctx); err != nil && !errors.Is(err, device.ErrClosed) {
		result = multierror.Append(result, fmt.Errorf("close device: %w", err))
	}
	if r.archive != nil {
		if err := r.archive.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close archive: %w", err))
		}
		r.archive = nil
	}
	return result.ErrorOrNil()
}

// CheckHealth reports whether the device is open and its gate can be
// acquired within ctx.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.dev.Closed() {
		return ErrClosed
	}
	_, err := r.dev.Stats(ctx)
	return err
}

// Device returns the shared device.
func (r *Runtime) Device() *device.Device { return r.dev }

// Archive returns the release archive, nil when disabled.
func (r *Runtime) Archive() *archive.Archive { return r.archive }

// Metrics returns the device instruments, nil without a meter.
func (r *Runtime) Metrics() *metrics.LogMetrics { return r.metrics }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the root logger.
func (r *Runtime) Logger() log.Logger { return r.logger }
