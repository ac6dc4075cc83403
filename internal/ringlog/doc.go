// Package ringlog implements a bounded circular log of variable-length
// records.
//
// The log holds at most Cap records. Appending to a full log displaces the
// oldest record, which is returned to the caller for release. Offsets are
// logical: offset 0 is the first byte of the oldest live record, and the
// readable stream is the concatenation of live records in insertion order.
//
//	l := ringlog.New(10)
//	l.Append(ringlog.NewRecord([]byte("hello\n")))
//	rec, intra, err := l.FindByOffset(3) // "hello\n", 3, nil
//
// A Log performs no locking of its own.
package ringlog
