package serverrun

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"

	cfgpkg "github.com/rzbill/ringlog/internal/config"
	"github.com/rzbill/ringlog/internal/metrics"
	"github.com/rzbill/ringlog/internal/runtime"
	grpcserver "github.com/rzbill/ringlog/internal/server/grpc"
	httpserver "github.com/rzbill/ringlog/internal/server/http"
	tcpserver "github.com/rzbill/ringlog/internal/server/tcp"
	"github.com/rzbill/ringlog/internal/stamper"
	logpkg "github.com/rzbill/ringlog/pkg/log"
)

// Options configures Run.
type Options struct {
	Config cfgpkg.Config
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
	// Ready, when set, is called once every listener is bound.
	Ready func(Addrs)
}

// Addrs are the bound listener addresses. Disabled listeners are empty.
type Addrs struct {
	TCP     string
	HTTP    string
	GRPC    string
	Metrics string
}

// listener is one served surface.
type listener struct {
	name  string
	l     net.Listener
	serve func(ctx context.Context, l net.Listener) error
}

// Run opens the runtime and serves the TCP, HTTP, gRPC and metrics
// listeners until ctx is cancelled or a signal arrives.
func Run(ctx context.Context, opts Options) (err error) {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	procLogger := opts.Logger
	if procLogger == nil {
		procLogger, err = logpkg.ApplyConfig(cfg.Log.Logger())
		if err != nil {
			return err
		}
	}
	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	var m *metrics.Metrics
	rtOpts := runtime.Options{Config: cfg, Logger: procLogger}
	if cfg.MetricsAddr != "" {
		m, err = metrics.NewServer(cfg.MetricsAddr, "")
		if err != nil {
			return err
		}
		rtOpts.Meter = m.Meter
	}

	// shutdownMetrics releases the meter provider on early exits.
	shutdownMetrics := func() error {
		if m == nil {
			return nil
		}
		return m.Shutdown(context.Background())
	}

	rt, err := runtime.Open(rtOpts)
	if err != nil {
		return errors.Join(err, shutdownMetrics())
	}

	var lns []listener
	closeAll := func() {
		for _, ln := range lns {
			_ = ln.l.Close()
		}
	}
	bind := func(name, addr string, serve func(context.Context, net.Listener) error) error {
		if addr == "" {
			return nil
		}
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("%s: listen %s: %w", name, addr, err)
		}
		lns = append(lns, listener{name: name, l: l, serve: serve})
		return nil
	}

	tcpOpts := tcpserver.Options{ReadChunk: cfg.ReadChunkBytes, Logger: procLogger.WithComponent("tcp")}
	if lm := rt.Metrics(); lm != nil {
		tcpOpts.Observer = lm
	}
	tsrv := tcpserver.New(rt.Device(), tcpOpts)
	hsrv := httpserver.New(rt)
	gsrv := grpcserver.New(rt)

	var addrs Addrs
	berr := multierror.Append(nil,
		bind("tcp", cfg.ListenAddr, tsrv.Serve),
		bind("http", cfg.HTTPAddr, hsrv.Serve),
		bind("grpc", cfg.GRPCAddr, gsrv.Serve),
	)
	if m != nil {
		berr = multierror.Append(berr, bind("metrics", cfg.MetricsAddr, func(ctx context.Context, l net.Listener) error {
			procLogger.Info("metrics listening", logpkg.Str("addr", l.Addr().String()), logpkg.Str("endpoint", m.Endpoint))
			if err := m.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}))
	}
	if err := berr.ErrorOrNil(); err != nil {
		closeAll()
		return errors.Join(err, rt.Close(context.Background()), shutdownMetrics())
	}
	for _, ln := range lns {
		a := ln.l.Addr().String()
		switch ln.name {
		case "tcp":
			addrs.TCP = a
		case "http":
			addrs.HTTP = a
		case "grpc":
			addrs.GRPC = a
		case "metrics":
			addrs.Metrics = a
		}
	}

	procLogger.Info("Starting ringlog server",
		logpkg.Str("tcp", addrs.TCP),
		logpkg.Str("http", addrs.HTTP),
		logpkg.Str("grpc", addrs.GRPC),
		logpkg.Str("metrics", addrs.Metrics),
		logpkg.Int("capacity", cfg.Capacity),
		logpkg.Dur("timestamp_interval", cfg.TimestampInterval.Std()),
	)

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		serveErr *multierror.Error
	)
	for _, ln := range lns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ln.serve(sctx, ln.l); err != nil && sctx.Err() == nil {
				procLogger.Error("listener failed", logpkg.Str("listener", ln.name), logpkg.Err(err))
				errMu.Lock()
				serveErr = multierror.Append(serveErr, fmt.Errorf("%s: %w", ln.name, err))
				errMu.Unlock()
			}
		}()
	}

	var st *stamper.Stamper
	if cfg.TimestampInterval > 0 {
		st = stamper.New(rt.Device(), cfg.TimestampInterval.Std(), procLogger.WithComponent("stamper"))
		st.Start()
	}

	if opts.Ready != nil {
		opts.Ready(addrs)
	}

	<-sctx.Done()
	procLogger.Info("shutting down")

	// Stop producers and listeners before draining the device.
	if st != nil {
		st.Stop()
	}
	tsrv.Close()
	hsrv.Close()
	gsrv.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var result *multierror.Error
	if m != nil {
		if err := m.Shutdown(shutdownCtx); err != nil {
			result = multierror.Append(result, fmt.Errorf("metrics: %w", err))
		}
	}
	wg.Wait()
	if serveErr != nil {
		result = multierror.Append(result, serveErr.Errors...)
	}
	if err := rt.Close(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
