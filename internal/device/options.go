package device

import (
	"github.com/rzbill/ringlog/internal/assembler"
	"github.com/rzbill/ringlog/pkg/log"
)

// Option configures a Device.
type Option func(*Device)

// WithReleaseHook adds a hook that receives evicted and drained records.
// Hooks run in registration order.
func WithReleaseHook(h ReleaseHook) Option {
	return func(d *Device) { d.hooks = append(d.hooks, h) }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(d *Device) { d.obs = o }
}

// WithDelimiter sets the record terminator used by File writers.
func WithDelimiter(b byte) Option {
	return func(d *Device) { d.asmOpts.Delimiter = b }
}

// WithMaxRecordBytes bounds records assembled by File writers.
func WithMaxRecordBytes(n int) Option {
	return func(d *Device) { d.asmOpts.MaxRecordBytes = n }
}

// WithLogger sets the device logger.
func WithLogger(l log.Logger) Option {
	return func(d *Device) { d.logger = l }
}

// AssemblerOptions returns the options applied to File assemblers, with the
// delimiter resolved.
func (d *Device) AssemblerOptions() assembler.Options {
	opts := d.asmOpts
	if opts.Delimiter == 0 {
		opts.Delimiter = assembler.DefaultDelimiter
	}
	return opts
}
