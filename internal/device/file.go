package device

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rzbill/ringlog/internal/assembler"
	"github.com/rzbill/ringlog/internal/ringlog"
)

// File is one open handle on a device: a read cursor plus an Assembler for
// writes. A File is safe for concurrent use, though concurrent writers on one
// handle interleave fragments.
type File struct {
	dev *Device

	mu     sync.Mutex
	asm    *assembler.Assembler
	pos    int64
	closed bool
}

// Open returns a new handle positioned at offset 0.
func (d *Device) Open() *File {
	return &File{dev: d, asm: assembler.New(d.asmOpts)}
}

type appendResult struct {
	rec, old ringlog.Record
	evicted  bool
}

// Write implements io.Writer. See WriteContext.
func (f *File) Write(p []byte) (int, error) {
	return f.WriteContext(context.Background(), p)
}

// WriteContext feeds p to the handle's assembler and appends every record it
// completes. Assembly and the appends happen under one hold of the gate.
// Unterminated bytes stay pending for the next write.
func (f *File) WriteContext(ctx context.Context, p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, os.ErrClosed
	}
	d := f.dev
	var done []appendResult
	err := d.gate.Do(ctx, func() error {
		if d.closed {
			return ErrClosed
		}
		return f.asm.Feed(p, func(rec ringlog.Record) error {
			old, ok := d.log.Append(rec)
			d.seq++
			done = append(done, appendResult{rec: rec, old: old, evicted: ok})
			return nil
		})
	})
	for _, r := range done {
		d.appendedOne(r.rec, r.old, r.evicted)
	}
	if len(done) > 0 {
		d.notify()
	}
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Read implements io.Reader. See ReadContext.
func (f *File) Read(p []byte) (int, error) {
	return f.ReadContext(context.Background(), p)
}

// ReadContext reads from the cursor, never crossing a record boundary, and
// advances the cursor by the bytes read.
func (f *File) ReadContext(ctx context.Context, p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, os.ErrClosed
	}
	n, err := f.dev.ReadAt(ctx, p, f.pos)
	f.pos += int64(n)
	return n, err
}

// Seek implements io.Seeker over the logical contents. The result must lie
// within [0, total size].
func (f *File) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, os.ErrClosed
	}
	size, err := f.dev.Size(context.Background())
	if err != nil {
		return 0, err
	}
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = f.pos
	case io.SeekEnd:
		base = size
	default:
		return 0, ringlog.ErrInvalidOffset
	}
	next := base + offset
	if next < 0 || next > size {
		return 0, ringlog.ErrInvalidOffset
	}
	f.pos = next
	return next, nil
}

// SeekTo moves the cursor to byte off of the record at logical index.
func (f *File) SeekTo(ctx context.Context, index int, off int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, os.ErrClosed
	}
	abs, err := f.dev.Seek(ctx, index, off)
	if err != nil {
		return 0, err
	}
	f.pos = abs
	return abs, nil
}

// Offset returns the cursor position.
func (f *File) Offset() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

// Pending returns the unterminated bytes written to this handle.
func (f *File) Pending() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.asm.Pending()
}

// Close discards pending bytes. The device stays open.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return os.ErrClosed
	}
	f.closed = true
	f.asm.Reset()
	return nil
}
