package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/jobboard/internal/service"
)

// DashboardHandler handles GET /api/hr/dashboard
type DashboardHandler struct {
	dashboard *service.DashboardService
	logger    *slog.Logger
}

func NewDashboardHandler(dashboard *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	dash, err := h.dashboard.GetHRDashboard(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, dash)
}
