package handler

import (
	"log/slog"
	"net/http"
	"runtime"
)

// VersionHandler handles GET /api/version
type VersionHandler struct {
	version string
	logger  *slog.Logger
}

func NewVersionHandler(version string, logger *slog.Logger) *VersionHandler {
	return &VersionHandler{version: version, logger: logger}
}

func (h *VersionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{
		"version":   h.version,
		"goVersion": runtime.Version(),
	})
}
