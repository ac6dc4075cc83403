package controllers

import (
	"net/http"

	"github.com/rzbill/ringlog/internal/runtime"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	log     *LogController
	archive *ArchiveController
}

// NewControllerRegistry creates a registry whose controllers share rt.
func NewControllerRegistry(rt *runtime.Runtime) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		log:     NewLogController(rt),
		archive: NewArchiveController(rt),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.log.RegisterRoutes(mux)
	r.archive.RegisterRoutes(mux)
}
