package ringlog

// Record is an immutable byte sequence stored in one slot of the log.
// The zero Record is empty.
type Record struct {
	data []byte
}

// NewRecord copies b into a new Record.
func NewRecord(b []byte) Record {
	return Record{data: append([]byte(nil), b...)}
}

// Len returns the record length in bytes.
func (r Record) Len() int { return len(r.data) }

// Bytes returns the record contents. The slice is shared and must be treated
// as read-only.
func (r Record) Bytes() []byte { return r.data }

// String returns the contents as a string.
func (r Record) String() string { return string(r.data) }

// Equal reports whether r and o hold the same bytes.
func (r Record) Equal(o Record) bool { return string(r.data) == string(o.data) }
