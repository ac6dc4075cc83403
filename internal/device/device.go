package device

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rzbill/ringlog/internal/assembler"
	"github.com/rzbill/ringlog/internal/gate"
	"github.com/rzbill/ringlog/internal/ringlog"
	"github.com/rzbill/ringlog/pkg/log"
)

// ErrClosed is returned by operations on a closed device.
var ErrClosed = errors.New("device: closed")

// Entry is a live record with its logical position. Seq numbers every
// record ever appended to the device, starting at 1.
type Entry struct {
	Seq    uint64
	Index  int
	Offset int64
	Record ringlog.Record
}

// Stats describes the device at a point in time.
type Stats struct {
	ringlog.State
	Appended uint64 `json:"appended"`
	Evicted  uint64 `json:"evicted"`
}

// Device owns a ring log and the gate guarding it. All log access goes
// through the gate; records leaving the log are released to hooks after the
// gate is dropped.
type Device struct {
	gate    *gate.Gate
	log     *ringlog.Log
	closed  bool   // guarded by gate
	seq     uint64 // appends so far, guarded by gate
	hooks   hookChain
	obs     Observer
	logger  log.Logger
	asmOpts assembler.Options

	notifyMu sync.Mutex
	notifyCh chan struct{}

	appended atomic.Uint64
	evicted  atomic.Uint64
}

// New returns a device holding at most capacity records.
func New(capacity int, opts ...Option) *Device {
	d := &Device{
		gate:     gate.New(),
		log:      ringlog.New(capacity),
		obs:      NoopObserver{},
		logger:   log.NewNopLogger(),
		notifyCh: make(chan struct{}),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Append stores rec as the newest record.
func (d *Device) Append(ctx context.Context, rec ringlog.Record) error {
	var (
		old ringlog.Record
		ok  bool
	)
	err := d.gate.Do(ctx, func() error {
		if d.closed {
			return ErrClosed
		}
		old, ok = d.log.Append(rec)
		d.seq++
		return nil
	})
	if err != nil {
		return err
	}
	d.appendedOne(rec, old, ok)
	d.notify()
	return nil
}

// appendedOne accounts for an append done under the gate. Must be called
// after the gate is released.
func (d *Device) appendedOne(rec, old ringlog.Record, evicted bool) {
	d.appended.Add(1)
	d.obs.RecordAppended(rec.Len())
	if !evicted {
		return
	}
	d.evicted.Add(1)
	d.obs.RecordEvicted(old.Len())
	d.logger.Debug("record evicted", log.Int("size", old.Len()))
	d.hooks.Release(ReleaseEvicted, old)
}

func (d *Device) notify() {
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	select {
	case <-d.notifyCh:
		// closed for good by Close
	default:
		close(d.notifyCh)
		d.notifyCh = make(chan struct{})
	}
}

// Changed returns a channel closed on the next append.
func (d *Device) Changed() <-chan struct{} {
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	return d.notifyCh
}

// WaitForAppend blocks until a record is appended, the device is closed or
// ctx is done.
func (d *Device) WaitForAppend(ctx context.Context) error {
	select {
	case <-d.Changed():
	case <-ctx.Done():
		return ctx.Err()
	}
	if d.Closed() {
		return ErrClosed
	}
	return nil
}

// ReadAt copies bytes of the record owning logical offset off into p,
// stopping at the record boundary. At or past the end of the log it returns
// 0, io.EOF. A negative offset is ringlog.ErrInvalidOffset.
func (d *Device) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ringlog.ErrInvalidOffset
	}
	var n int
	err := d.gate.Do(ctx, func() error {
		var err error
		n, err = d.log.CopyAt(p, off)
		return err
	})
	if errors.Is(err, ringlog.ErrNotFound) {
		return 0, io.EOF
	}
	return n, err
}

// Contents returns up to limit bytes of the log starting at logical offset
// off, concatenated across records. A limit <= 0 means to the end.
// An offset at or past the end yields an empty result.
func (d *Device) Contents(ctx context.Context, off, limit int64) ([]byte, error) {
	if off < 0 {
		return nil, ringlog.ErrInvalidOffset
	}
	var (
		recs []ringlog.Record
		pos  ringlog.Position
	)
	err := d.gate.Do(ctx, func() error {
		var err error
		if pos, err = d.log.Locate(off); err != nil {
			return err
		}
		recs = d.log.Records()
		return nil
	})
	if errors.Is(err, ringlog.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// records are immutable, so the copy happens outside the gate
	return concat(recs, pos, limit), nil
}

// concat joins recs from pos onwards, stopping after limit bytes when
// limit > 0.
func concat(recs []ringlog.Record, pos ringlog.Position, limit int64) []byte {
	var out []byte
	for i := pos.Index; i < len(recs); i++ {
		b := recs[i].Bytes()
		if i == pos.Index {
			b = b[pos.Offset:]
		}
		if limit > 0 && int64(len(out)+len(b)) > limit {
			b = b[:limit-int64(len(out))]
		}
		out = append(out, b...)
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out
}

// Seek translates a record index and intra-record offset into an absolute
// logical offset over the current contents.
func (d *Device) Seek(ctx context.Context, index int, off int64) (int64, error) {
	var abs int64
	err := d.gate.Do(ctx, func() error {
		var err error
		abs, err = d.log.Resolve(index, off)
		return err
	})
	if err != nil {
		return 0, err
	}
	d.obs.SeekResolved()
	return abs, nil
}

// SeekContents resolves index and off like Seek and returns the log from
// that position like Contents. Both happen under one hold of the gate, so an
// append from another writer cannot shift the bytes between them.
func (d *Device) SeekContents(ctx context.Context, index int, off, limit int64) (int64, []byte, error) {
	var (
		abs  int64
		recs []ringlog.Record
	)
	err := d.gate.Do(ctx, func() error {
		var err error
		if abs, err = d.log.Resolve(index, off); err != nil {
			return err
		}
		recs = d.log.Records()
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	d.obs.SeekResolved()
	return abs, concat(recs, ringlog.Position{Index: index, Offset: off}, limit), nil
}

// Snapshot returns the live records in logical order.
func (d *Device) Snapshot(ctx context.Context) ([]Entry, error) {
	entries, _, err := d.Since(ctx, 0)
	return entries, err
}

// Since returns the live records appended after sequence number after, in
// logical order, and the sequence number of the newest record. Records
// appended after after but already evicted are skipped.
func (d *Device) Since(ctx context.Context, after uint64) ([]Entry, uint64, error) {
	var (
		recs []ringlog.Record
		last uint64
	)
	if err := d.gate.Do(ctx, func() error {
		recs = d.log.Records()
		last = d.seq
		return nil
	}); err != nil {
		return nil, 0, err
	}
	first := last - uint64(len(recs)) + 1 // seq of recs[0]
	var off int64
	out := make([]Entry, 0, len(recs))
	for i, r := range recs {
		if seq := first + uint64(i); seq > after {
			out = append(out, Entry{Seq: seq, Index: i, Offset: off, Record: r})
		}
		off += int64(r.Len())
	}
	return out, last, nil
}

// Stats reports ring state and lifetime counters.
func (d *Device) Stats(ctx context.Context) (Stats, error) {
	var st ringlog.State
	if err := d.gate.Do(ctx, func() error {
		st = d.log.State()
		return nil
	}); err != nil {
		return Stats{}, err
	}
	return Stats{State: st, Appended: d.appended.Load(), Evicted: d.evicted.Load()}, nil
}

// Size returns the total length of live records.
func (d *Device) Size(ctx context.Context) (int64, error) {
	var n int64
	err := d.gate.Do(ctx, func() error {
		n = d.log.TotalSize()
		return nil
	})
	return n, err
}

// Capacity returns the maximum number of live records.
func (d *Device) Capacity() int { return d.log.Cap() }

// Closed reports whether Close has run.
func (d *Device) Closed() bool {
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	select {
	case <-d.notifyCh:
		return true
	default:
		return false
	}
}

// Close drains the log, releasing every live record to the hooks, and wakes
// all waiters. Later appends, writes and closes return ErrClosed; reads see
// an empty log.
func (d *Device) Close(ctx context.Context) error {
	var drained []ringlog.Record
	err := d.gate.Do(ctx, func() error {
		if d.closed {
			return ErrClosed
		}
		d.closed = true
		drained = d.log.Drain()
		return nil
	})
	if err != nil {
		return err
	}
	d.notifyMu.Lock()
	close(d.notifyCh)
	d.notifyMu.Unlock()

	for _, r := range drained {
		d.hooks.Release(ReleaseDrained, r)
	}
	d.logger.Info("device closed", log.Int("released", len(drained)))
	return nil
}
