package controllers

import "time"

// recordJSON is one live record in listings and tail events.
type recordJSON struct {
	Seq    uint64 `json:"seq"`
	Index  int    `json:"index"`
	Offset int64  `json:"offset"`
	Size   int    `json:"size"`
	Text   string `json:"text"`
}

// statsJSON reports ring state and lifetime counters.
type statsJSON struct {
	Records  int    `json:"records"`
	Capacity int    `json:"capacity"`
	Bytes    int64  `json:"bytes"`
	Head     int    `json:"head"`
	Tail     int    `json:"tail"`
	Full     bool   `json:"full"`
	Appended uint64 `json:"appended"`
	Evicted  uint64 `json:"evicted"`
}

// seekResp is the absolute offset resolved by /v1/log/seek.
type seekResp struct {
	Record int   `json:"record"`
	Offset int64 `json:"offset"`
	Abs    int64 `json:"abs"`
}

// writeResp reports what a POST /v1/log/write stored.
type writeResp struct {
	Records      int `json:"records"`
	PendingBytes int `json:"pending_bytes"`
}

// archiveItemJSON is one archived record.
type archiveItemJSON struct {
	Seq        uint64    `json:"seq"`
	Reason     string    `json:"reason"`
	ReleasedAt time.Time `json:"released_at"`
	Text       string    `json:"text"`
}
