package transports

import (
	"context"
	"time"
)

// Record is one live record as listed or tailed.
type Record struct {
	Seq    uint64 `json:"seq"`
	Index  int    `json:"index"`
	Offset int64  `json:"offset"`
	Size   int    `json:"size"`
	Text   string `json:"text"`
}

// Stats mirrors /v1/log/stats.
type Stats struct {
	Records  int    `json:"records"`
	Capacity int    `json:"capacity"`
	Bytes    int64  `json:"bytes"`
	Head     int    `json:"head"`
	Tail     int    `json:"tail"`
	Full     bool   `json:"full"`
	Appended uint64 `json:"appended"`
	Evicted  uint64 `json:"evicted"`
}

// WriteResult reports how much of a write was stored.
type WriteResult struct {
	Records      int `json:"records"`
	PendingBytes int `json:"pending_bytes"`
}

// ArchiveEntry is one record released from the ring.
type ArchiveEntry struct {
	Seq        uint64    `json:"seq"`
	Reason     string    `json:"reason"`
	ReleasedAt time.Time `json:"released_at"`
	Text       string    `json:"text"`
}

// TailRequest describes a tail subscription.
type TailRequest struct {
	// From "earliest" replays live records before new ones.
	From   string
	Filter string
	Limit  int
}

// LogTransport abstracts how the CLI reaches the admin API.
type LogTransport interface {
	Stats(ctx context.Context) (Stats, error)
	Records(ctx context.Context, filter string, limit int) ([]Record, error)
	Read(ctx context.Context, offset int64, limit int) ([]byte, error)
	Seek(ctx context.Context, record int, offset int64) (int64, error)
	Write(ctx context.Context, data []byte) (WriteResult, error)
	Tail(ctx context.Context, req TailRequest, onRecord func(Record) error) error
	Archive(ctx context.Context, limit int) ([]ArchiveEntry, error)
}
