// Package stamper periodically appends wall-clock timestamp records to a
// device.
package stamper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rzbill/ringlog/internal/ringlog"
	"github.com/rzbill/ringlog/pkg/log"
)

// DefaultInterval is the stamping period used when none is configured.
const DefaultInterval = 10 * time.Second

// Prefix starts every timestamp record.
const Prefix = "timestamp:"

// Appender accepts completed records.
type Appender interface {
	Append(ctx context.Context, rec ringlog.Record) error
}

// Format renders t as a timestamp record in RFC 2822 form.
func Format(t time.Time) string {
	return Prefix + t.Format(time.RFC1123Z) + "\n"
}

// Stamper appends a timestamp record every interval.
type Stamper struct {
	dest     Appender
	interval time.Duration
	logger   log.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a stopped stamper. A zero interval means DefaultInterval.
func New(dest Appender, interval time.Duration, logger log.Logger) *Stamper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Stamper{
		dest:     dest,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the stamping loop.
func (s *Stamper) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop ends the loop and waits for it to exit.
func (s *Stamper) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Stamper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("stamper started", log.Dur("interval", s.interval))
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("stamper stopped")
			return
		case <-ticker.C:
			if err := s.Stamp(s.ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				s.logger.Warn("append timestamp", log.Err(err))
			}
		}
	}
}

// Stamp appends one timestamp record for the current time.
func (s *Stamper) Stamp(ctx context.Context) error {
	return s.dest.Append(ctx, ringlog.NewRecord([]byte(Format(s.now()))))
}
