package ringlog

// Resolve translates a (record index, intra-record offset) pair into the
// absolute byte offset across the concatenation of live records. It is the
// inverse of Locate.
func (l *Log) Resolve(index int, off int64) (int64, error) {
	if index < 0 || index >= l.Len() {
		return 0, ErrInvalidIndex
	}
	rec := l.slots[l.physical(index)].rec
	if off < 0 || off >= int64(rec.Len()) {
		return 0, ErrInvalidOffset
	}
	var abs int64
	for i := 0; i < index; i++ {
		abs += int64(l.slots[l.physical(i)].rec.Len())
	}
	return abs + off, nil
}
