package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yourorg/jobboard/internal/domain"
	"github.com/yourorg/jobboard/internal/security/middleware"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

var kindStatus = map[domain.Kind]int{
	domain.KindUnauthorized: http.StatusUnauthorized,
	domain.KindForbidden:    http.StatusForbidden,
	domain.KindNotFound:     http.StatusNotFound,
	domain.KindBadRequest:   http.StatusBadRequest,
	domain.KindInternal:     http.StatusInternalServerError,
}

// writeError maps a service error onto its HTTP status. Internal errors get
// a generic body; their detail goes to the log only.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	kind := domain.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if kind == domain.KindInternal {
		log.Error("request failed", slog.String("error", err.Error()))
		message = "internal server error"
	}

	writeJSON(w, log, status, errorResponse{Error: message})
}

// writeJSON encodes a response body with the given status.
func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// currentUser returns the authenticated user attached by the auth middleware.
func currentUser(r *http.Request) *domain.User {
	return middleware.GetUserFromContext(r.Context())
}

// pathID parses the {id} path segment as an int64 resource ID.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.BadRequest("invalid id in path")
	}
	return id, nil
}
