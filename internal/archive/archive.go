package archive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rzbill/ringlog/internal/device"
	"github.com/rzbill/ringlog/internal/ringlog"
	pebblestore "github.com/rzbill/ringlog/internal/storage/pebble"
	"github.com/rzbill/ringlog/pkg/log"
)

// Options configures an Archive.
type Options struct {
	DataDir string
	Fsync   pebblestore.FsyncMode
	Logger  log.Logger
	Metrics pebblestore.MetricsHook
	// MaxEntries trims the oldest entries beyond this count. Zero keeps all.
	MaxEntries uint64
}

// Archive records every record released by a device. It is bookkeeping
// only: nothing in it is ever loaded back into a log.
type Archive struct {
	db     *pebblestore.DB
	logger log.Logger
	max    uint64
	now    func() time.Time

	mu      sync.Mutex
	lastSeq uint64
	first   uint64
}

// Open opens or creates the archive under opts.DataDir and resumes the
// sequence after the last stored entry.
func Open(opts Options) (*Archive, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir: opts.DataDir,
		Fsync:   opts.Fsync,
		Logger:  logger.WithComponent("pebble"),
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, err
	}
	a := &Archive{db: db, logger: logger, max: opts.MaxEntries, now: time.Now}

	lower, upper := entryKey(0), prefixEnd()
	k, _, err := db.Last(lower, upper)
	switch {
	case err == nil:
		a.lastSeq, _ = seqFromKey(k)
	case !errors.Is(err, pebblestore.ErrNotFound):
		_ = db.Close()
		return nil, fmt.Errorf("archive: load last sequence: %w", err)
	}
	_ = db.Scan(lower, upper, false, 1, func(k, _ []byte) bool {
		a.first, _ = seqFromKey(k)
		return false
	})
	logger.Info("archive opened", log.Str("dir", opts.DataDir), log.Uint64("last_seq", a.lastSeq))
	return a, nil
}

// Release implements device.ReleaseHook. Failures are logged; the device
// has already given the record up.
func (a *Archive) Release(reason device.ReleaseReason, rec ringlog.Record) {
	if _, err := a.Put(context.Background(), reason.String(), rec.Bytes()); err != nil {
		a.logger.Error("archive record", log.Err(err), log.Int("size", rec.Len()))
	}
}

// Put stores data and returns its sequence number.
func (a *Archive) Put(ctx context.Context, reason string, data []byte) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	seq := a.lastSeq + 1
	b := a.db.NewBatch()
	defer b.Close()
	if err := b.Set(entryKey(seq), encodeEntry(reason, a.now(), data), nil); err != nil {
		return 0, err
	}
	trimTo := a.first
	if a.max > 0 && seq >= a.max && seq-a.max+1 > a.first {
		trimTo = seq - a.max + 1
		if err := b.DeleteRange(entryKey(a.first), entryKey(trimTo), nil); err != nil {
			return 0, err
		}
	}
	if err := a.db.CommitBatch(ctx, b); err != nil {
		return 0, err
	}
	a.lastSeq = seq
	if a.first == 0 {
		a.first = seq
	}
	if trimTo > a.first {
		a.first = trimTo
	}
	return seq, nil
}

// List returns up to limit entries, newest first. A limit <= 0 returns all.
func (a *Archive) List(limit int) ([]Entry, error) {
	var (
		out     []Entry
		scanErr error
	)
	err := a.db.Scan(entryKey(0), prefixEnd(), true, limit, func(k, v []byte) bool {
		seq, ok := seqFromKey(k)
		if !ok {
			return true
		}
		e, err := decodeEntry(seq, v)
		if err != nil {
			scanErr = fmt.Errorf("archive: entry %d: %w", seq, err)
			return false
		}
		out = append(out, e)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, scanErr
}

// LastSeq returns the sequence of the newest entry, 0 if empty.
func (a *Archive) LastSeq() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSeq
}

// Close closes the underlying store.
func (a *Archive) Close() error {
	return a.db.Close()
}
