package controllers

import (
	"net/http"

	"github.com/rzbill/ringlog/internal/runtime"
)

// ArchiveController lists records released from the ring.
type ArchiveController struct {
	rt *runtime.Runtime
}

// NewArchiveController creates a new archive controller.
func NewArchiveController(rt *runtime.Runtime) *ArchiveController {
	return &ArchiveController{rt: rt}
}

// RegisterRoutes registers /v1/archive.
func (c *ArchiveController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/archive", c.handleList)
}

// handleList returns archived records newest first. 404 when the archive is
// disabled.
func (c *ArchiveController) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	a := c.rt.Archive()
	if a == nil {
		writeError(w, http.StatusNotFound, "archive disabled")
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 100
	}
	entries, err := a.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list archive")
		return
	}
	items := make([]archiveItemJSON, 0, len(entries))
	for _, e := range entries {
		items = append(items, archiveItemJSON{
			Seq:        e.Seq,
			Reason:     e.Reason,
			ReleasedAt: e.ReleasedAt,
			Text:       string(e.Data),
		})
	}
	writeJSON(w, map[string]any{"entries": items})
}
