package device

import "github.com/rzbill/ringlog/internal/ringlog"

// ReleaseReason says why a record left the log.
type ReleaseReason int

const (
	// ReleaseEvicted marks a record displaced by an append to a full log.
	ReleaseEvicted ReleaseReason = iota + 1
	// ReleaseDrained marks a record removed when the device closed.
	ReleaseDrained
)

func (r ReleaseReason) String() string {
	switch r {
	case ReleaseEvicted:
		return "evicted"
	case ReleaseDrained:
		return "drained"
	default:
		return "unknown"
	}
}

// ReleaseHook takes ownership of records leaving the log. It is always
// called outside the gate, in the order records left the log.
type ReleaseHook interface {
	Release(reason ReleaseReason, rec ringlog.Record)
}

// ReleaseFunc adapts a function to ReleaseHook.
type ReleaseFunc func(reason ReleaseReason, rec ringlog.Record)

func (f ReleaseFunc) Release(reason ReleaseReason, rec ringlog.Record) { f(reason, rec) }

// Observer receives device activity for metrics.
type Observer interface {
	RecordAppended(size int)
	RecordEvicted(size int)
	SeekResolved()
}

// NoopObserver is used when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) RecordAppended(int) {}
func (NoopObserver) RecordEvicted(int)  {}
func (NoopObserver) SeekResolved()      {}

type hookChain []ReleaseHook

func (c hookChain) Release(reason ReleaseReason, rec ringlog.Record) {
	for _, h := range c {
		h.Release(reason, rec)
	}
}
