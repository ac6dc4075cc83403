package archive

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"time"
)

// Entry encoding: varint headerLen | header | payload | crc32c(header|payload)
// where header is releasedAt unix ms (8 bytes BE) followed by the reason.

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

var errCorrupt = errors.New("archive: corrupt entry")

// Entry is one archived record.
type Entry struct {
	Seq        uint64    `json:"seq"`
	Reason     string    `json:"reason"`
	ReleasedAt time.Time `json:"released_at"`
	Data       []byte    `json:"-"`
}

func encodeEntry(reason string, at time.Time, data []byte) []byte {
	header := make([]byte, 8, 8+len(reason))
	binary.BigEndian.PutUint64(header, uint64(at.UnixMilli()))
	header = append(header, reason...)

	out := make([]byte, 0, binary.MaxVarintLen64+len(header)+len(data)+4)
	out = binary.AppendUvarint(out, uint64(len(header)))
	out = append(out, header...)
	out = append(out, data...)

	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, data)
	return binary.BigEndian.AppendUint32(out, crc)
}

func decodeEntry(seq uint64, b []byte) (Entry, error) {
	if len(b) < 1+4 {
		return Entry{}, errCorrupt
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || hlen < 8 || n+int(hlen)+4 > len(b) {
		return Entry{}, errCorrupt
	}
	header := b[n : n+int(hlen)]
	data := b[n+int(hlen) : len(b)-4]
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, data)
	if crc != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return Entry{}, errCorrupt
	}
	return Entry{
		Seq:        seq,
		Reason:     string(header[8:]),
		ReleasedAt: time.UnixMilli(int64(binary.BigEndian.Uint64(header[:8]))),
		Data:       append([]byte(nil), data...),
	}, nil
}

var keyPrefix = []byte("released/")

func entryKey(seq uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte(nil), keyPrefix...), seq)
}

// prefixEnd is the exclusive upper bound for keyPrefix.
func prefixEnd() []byte {
	end := append([]byte(nil), keyPrefix...)
	end[len(end)-1]++
	return end
}

func seqFromKey(k []byte) (uint64, bool) {
	if len(k) != len(keyPrefix)+8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(k[len(keyPrefix):]), true
}
