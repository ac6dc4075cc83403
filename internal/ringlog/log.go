package ringlog

import "fmt"

type slot struct {
	rec  Record
	live bool
}

// Log is a fixed-capacity circular log of records. When full, appending
// overwrites the oldest record and hands it back to the caller.
//
// Log does no locking; callers serialize access (see package gate).
type Log struct {
	slots []slot
	head  int // next insertion slot
	tail  int // oldest live slot
	full  bool
	size  int64 // sum of live record lengths
}

// Position locates a byte inside the log: the logical record index
// (0 = oldest live record) and the offset within that record.
type Position struct {
	Index  int
	Offset int64
}

// State is a point-in-time description of the ring, for diagnostics.
type State struct {
	Capacity int   `json:"capacity"`
	Len      int   `json:"records"`
	Head     int   `json:"head"`
	Tail     int   `json:"tail"`
	Full     bool  `json:"full"`
	Bytes    int64 `json:"bytes"`
}

// New returns an empty log holding at most capacity records.
// It panics if capacity < 1.
func New(capacity int) *Log {
	if capacity < 1 {
		panic(fmt.Sprintf("ringlog: capacity must be >= 1, got %d", capacity))
	}
	return &Log{slots: make([]slot, capacity)}
}

// Cap returns the maximum number of live records.
func (l *Log) Cap() int { return len(l.slots) }

// Full reports whether the next Append will evict.
func (l *Log) Full() bool { return l.full }

// Len returns the number of live records.
func (l *Log) Len() int {
	if l.full {
		return len(l.slots)
	}
	return (l.head - l.tail + len(l.slots)) % len(l.slots)
}

// TotalSize returns the sum of the lengths of all live records.
func (l *Log) TotalSize() int64 { return l.size }

// Append inserts rec as the newest record. If the log was full, the oldest
// record is displaced and returned with ok=true; ownership of it passes to
// the caller.
func (l *Log) Append(rec Record) (evicted Record, ok bool) {
	n := len(l.slots)
	if l.full {
		evicted, ok = l.slots[l.head].rec, true
		l.size -= int64(evicted.Len())
		l.tail = (l.tail + 1) % n
	}
	l.slots[l.head] = slot{rec: rec, live: true}
	l.size += int64(rec.Len())
	l.head = (l.head + 1) % n
	l.full = l.head == l.tail
	return evicted, ok
}

// physical maps a logical index to its slot.
func (l *Log) physical(i int) int { return (l.tail + i) % len(l.slots) }

// At returns the record at logical index i.
func (l *Log) At(i int) (Record, error) {
	if i < 0 || i >= l.Len() {
		return Record{}, ErrInvalidIndex
	}
	return l.slots[l.physical(i)].rec, nil
}

// Locate maps a logical byte offset across the concatenation of live records
// to a record position. The walk is bounded by the live record count.
func (l *Log) Locate(off int64) (Position, error) {
	if off < 0 {
		return Position{}, ErrInvalidOffset
	}
	if off >= l.size {
		return Position{}, ErrNotFound
	}
	rem := off
	live := l.Len()
	for i := 0; i < live; i++ {
		n := int64(l.slots[l.physical(i)].rec.Len())
		if rem < n {
			return Position{Index: i, Offset: rem}, nil
		}
		rem -= n
	}
	return Position{}, ErrNotFound
}

// FindByOffset returns the record owning logical byte offset off and the
// offset within it.
func (l *Log) FindByOffset(off int64) (Record, int64, error) {
	pos, err := l.Locate(off)
	if err != nil {
		return Record{}, 0, err
	}
	return l.slots[l.physical(pos.Index)].rec, pos.Offset, nil
}

// CopyAt copies bytes starting at logical offset off into p, never crossing
// a record boundary. It returns min(len(p), len(record)-intra).
func (l *Log) CopyAt(p []byte, off int64) (int, error) {
	rec, intra, err := l.FindByOffset(off)
	if err != nil {
		return 0, err
	}
	return copy(p, rec.Bytes()[intra:]), nil
}

// Records returns the live records in logical order.
func (l *Log) Records() []Record {
	live := l.Len()
	out := make([]Record, live)
	for i := 0; i < live; i++ {
		out[i] = l.slots[l.physical(i)].rec
	}
	return out
}

// State returns a snapshot of the ring cursors.
func (l *Log) State() State {
	return State{
		Capacity: len(l.slots),
		Len:      l.Len(),
		Head:     l.head,
		Tail:     l.tail,
		Full:     l.full,
		Bytes:    l.size,
	}
}

// Reset empties every slot and rewinds the cursors.
func (l *Log) Reset() {
	for i := range l.slots {
		l.slots[i] = slot{}
	}
	l.head, l.tail, l.full, l.size = 0, 0, false, 0
}

// Drain removes every live record, returning them in logical order so the
// caller can release them, and leaves the log in its initial state.
func (l *Log) Drain() []Record {
	out := make([]Record, 0, l.Len())
	for i, live := 0, l.Len(); i < live; i++ {
		s := l.slots[l.physical(i)]
		if s.live {
			out = append(out, s.rec)
		}
	}
	l.Reset()
	return out
}
