package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rzbill/ringlog/internal/assembler"
	"github.com/rzbill/ringlog/internal/device"
	"github.com/rzbill/ringlog/internal/gate"
	"github.com/rzbill/ringlog/internal/ringlog"
)

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// parseLimit parses a limit string. Returns 0 for empty or invalid values.
func parseLimit(limitStr string) int {
	if limitStr == "" {
		return 0
	}
	if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
		return limit
	}
	return 0
}

// parseNonNegative parses a required non-negative integer query value.
func parseNonNegative(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// writeDeviceError maps device and log errors onto HTTP statuses.
func writeDeviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ringlog.ErrInvalidIndex), errors.Is(err, ringlog.ErrInvalidOffset):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ringlog.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, assembler.ErrRecordTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, gate.ErrInterrupted), errors.Is(err, device.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func toRecordJSON(e device.Entry) recordJSON {
	return recordJSON{
		Seq:    e.Seq,
		Index:  e.Index,
		Offset: e.Offset,
		Size:   e.Record.Len(),
		Text:   e.Record.String(),
	}
}
