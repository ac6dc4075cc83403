package controllers

import (
	"bytes"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/rzbill/ringlog/internal/device"
	"github.com/rzbill/ringlog/internal/filter"
	"github.com/rzbill/ringlog/internal/runtime"
	"github.com/rzbill/ringlog/pkg/log"
)

// maxFilterLen bounds CEL expressions accepted from query strings.
const maxFilterLen = 2048

// LogController serves the ring log: stats, listings, reads, seeks, writes
// and a live tail.
type LogController struct {
	rt     *runtime.Runtime
	logger log.Logger
}

// NewLogController creates a new log controller.
func NewLogController(rt *runtime.Runtime) *LogController {
	return &LogController{rt: rt, logger: rt.Logger().WithComponent("http")}
}

// RegisterRoutes registers the /v1/log routes.
func (c *LogController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/log/stats", c.handleStats)
	mux.HandleFunc("/v1/log/records", c.handleRecords)
	mux.HandleFunc("/v1/log/read", c.handleRead)
	mux.HandleFunc("/v1/log/seek", c.handleSeek)
	mux.HandleFunc("/v1/log/write", c.handleWrite)
	mux.HandleFunc("/v1/log/tail", c.handleTail)
}

func (c *LogController) dev() *device.Device { return c.rt.Device() }

func (c *LogController) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	st, err := c.dev().Stats(r.Context())
	if err != nil {
		writeDeviceError(w, err)
		return
	}
	writeJSON(w, statsJSON{
		Records:  st.Len,
		Capacity: st.Capacity,
		Bytes:    st.Bytes,
		Head:     st.Head,
		Tail:     st.Tail,
		Full:     st.Full,
		Appended: st.Appended,
		Evicted:  st.Evicted,
	})
}

// handleRecords lists live records in logical order, optionally filtered by
// a CEL expression.
func (c *LogController) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	expr := r.URL.Query().Get("filter")
	if len(expr) > maxFilterLen {
		writeError(w, http.StatusBadRequest, "Filter too long")
		return
	}
	f, err := filter.Compile(expr)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := c.dev().Snapshot(r.Context())
	if err != nil {
		writeDeviceError(w, err)
		return
	}
	matched := f.Apply(entries, parseLimit(r.URL.Query().Get("limit")))
	items := make([]recordJSON, 0, len(matched))
	for _, e := range matched {
		items = append(items, toRecordJSON(e))
	}
	writeJSON(w, map[string]any{"records": items})
}

// handleRead returns raw log bytes from offset. An offset at the end of the
// log yields an empty body.
func (c *LogController) handleRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	var off int64
	if s := q.Get("offset"); s != "" {
		var ok bool
		if off, ok = parseNonNegative(s); !ok {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
	}
	data, err := c.dev().Contents(r.Context(), off, int64(parseLimit(q.Get("limit"))))
	if err != nil {
		writeDeviceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// handleSeek resolves ?record=&offset= to an absolute offset.
func (c *LogController) handleSeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	rec, ok1 := parseNonNegative(q.Get("record"))
	off, ok2 := parseNonNegative(q.Get("offset"))
	if !ok1 || !ok2 || rec > math.MaxInt32 {
		writeError(w, http.StatusBadRequest, "record and offset must be non-negative integers")
		return
	}
	abs, err := c.dev().Seek(r.Context(), int(rec), off)
	if err != nil {
		writeDeviceError(w, err)
		return
	}
	writeJSON(w, seekResp{Record: int(rec), Offset: off, Abs: abs})
}

// handleWrite assembles the request body into records. Bytes after the last
// delimiter are not stored.
func (c *LogController) handleWrite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	limit := int64(c.rt.Config().MaxRecordBytes)
	if limit <= 0 {
		limit = 1 << 20
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 16*limit))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f := c.dev().Open()
	defer f.Close()
	if _, err := f.WriteContext(r.Context(), body); err != nil {
		writeDeviceError(w, err)
		return
	}
	resp := writeResp{
		Records:      bytes.Count(body, []byte{c.dev().AssemblerOptions().Delimiter}),
		PendingBytes: len(f.Pending()),
	}
	if resp.PendingBytes > 0 {
		c.logger.Debug("dropping unterminated bytes", log.Int("pending", resp.PendingBytes))
	}
	writeJSON(w, resp)
}

// handleTail streams records appended after the request as Server-Sent
// Events. from=earliest replays the live records first; filter applies a CEL
// expression.
func (c *LogController) handleTail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	expr := q.Get("filter")
	if len(expr) > maxFilterLen {
		writeError(w, http.StatusBadRequest, "Filter too long")
		return
	}
	f, err := filter.Compile(expr)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	dev := c.dev()
	_, last, err := dev.Since(ctx, math.MaxUint64)
	if err != nil {
		writeDeviceError(w, err)
		return
	}
	if q.Get("from") == "earliest" {
		last = 0
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	sink := sseSink{w: w}
	sink.Flush()

	for {
		changed := dev.Changed()
		entries, next, err := dev.Since(ctx, last)
		if err != nil {
			return
		}
		last = next
		for _, e := range entries {
			if !f.Match(e) {
				continue
			}
			if err := sink.Send(toRecordJSON(e)); err != nil {
				return
			}
		}
		sink.Flush()

		select {
		case <-ctx.Done():
			return
		case <-changed:
		}
		if dev.Closed() {
			return
		}
	}
}
