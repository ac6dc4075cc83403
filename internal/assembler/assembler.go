package assembler

import (
	"bytes"
	"errors"

	"github.com/rzbill/ringlog/internal/ringlog"
)

// DefaultDelimiter terminates a record in the ingestion stream.
const DefaultDelimiter byte = '\n'

// ErrRecordTooLarge is returned when a feed would grow the pending fragment
// or a completed record beyond Options.MaxRecordBytes. The feed is rejected
// as a whole: nothing is emitted and the pending fragment is unchanged.
var ErrRecordTooLarge = errors.New("assembler: record exceeds size limit")

// Options configures an Assembler.
type Options struct {
	// Delimiter terminates each record. Zero value means DefaultDelimiter.
	Delimiter byte
	// MaxRecordBytes bounds the length of any record, including a pending
	// fragment. Zero disables the limit.
	MaxRecordBytes int
}

// Assembler rebuilds delimiter-terminated records from arbitrarily chunked
// input. One Assembler serves one stream; it is not safe for concurrent use.
type Assembler struct {
	delim byte
	max   int

	buf   []byte
	start int // read cursor; buf[start:] is the pending fragment
	scan  int // buf[start:scan] holds no delimiter
}

// New returns an empty Assembler.
func New(opts Options) *Assembler {
	d := opts.Delimiter
	if d == 0 {
		d = DefaultDelimiter
	}
	return &Assembler{delim: d, max: opts.MaxRecordBytes}
}

// Delimiter returns the record terminator.
func (a *Assembler) Delimiter() byte { return a.delim }

// Len returns the number of pending (unterminated) bytes.
func (a *Assembler) Len() int { return len(a.buf) - a.start }

// Pending returns a copy of the unterminated fragment.
func (a *Assembler) Pending() []byte {
	return append([]byte(nil), a.buf[a.start:]...)
}

// Reset discards the pending fragment.
func (a *Assembler) Reset() {
	a.buf = a.buf[:0]
	a.start, a.scan = 0, 0
}

// Feed appends p to the pending fragment and calls emit, in order, for every
// record completed by a delimiter in p. Bytes after the last delimiter are
// kept for the next call. An empty p is a no-op.
//
// If emit returns an error, Feed stops and returns it. Records already
// emitted stay emitted; the failed record and everything after it remain
// pending.
func (a *Assembler) Feed(p []byte, emit func(ringlog.Record) error) error {
	if len(p) == 0 {
		return nil
	}
	if err := a.check(p); err != nil {
		return err
	}
	a.compact()
	a.buf = append(a.buf, p...)
	for {
		i := bytes.IndexByte(a.buf[a.scan:], a.delim)
		if i < 0 {
			break
		}
		end := a.scan + i + 1
		if err := emit(ringlog.NewRecord(a.buf[a.start:end])); err != nil {
			a.scan = a.start
			return err
		}
		a.start, a.scan = end, end
	}
	a.scan = len(a.buf)
	if a.start == len(a.buf) {
		a.Reset()
	}
	return nil
}

// Split feeds p and returns the completed records.
func (a *Assembler) Split(p []byte) ([]ringlog.Record, error) {
	var out []ringlog.Record
	err := a.Feed(p, func(r ringlog.Record) error {
		out = append(out, r)
		return nil
	})
	return out, err
}

// check verifies that feeding p keeps every record within the size limit.
func (a *Assembler) check(p []byte) error {
	if a.max <= 0 {
		return nil
	}
	run := a.scan - a.start
	for _, seg := range [][]byte{a.buf[a.scan:], p} {
		for {
			i := bytes.IndexByte(seg, a.delim)
			if i < 0 {
				run += len(seg)
				break
			}
			if run+i+1 > a.max {
				return ErrRecordTooLarge
			}
			run = 0
			seg = seg[i+1:]
		}
	}
	if run > a.max {
		return ErrRecordTooLarge
	}
	return nil
}

// compact moves the pending fragment to the front of buf once the consumed
// prefix dominates the buffer.
func (a *Assembler) compact() {
	if a.start == 0 || a.start < len(a.buf)/2 {
		return
	}
	n := copy(a.buf, a.buf[a.start:])
	a.buf = a.buf[:n]
	a.scan -= a.start
	a.start = 0
}
