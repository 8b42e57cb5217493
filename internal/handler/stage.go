package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/jobboard/internal/domain"
	"github.com/yourorg/jobboard/internal/service"
)

// UpdateStageRequest advances an application to toStage. decision is required
// exactly when toStage is the decision stage and must not be sent otherwise.
type UpdateStageRequest struct {
	ToStage  string  `json:"toStage"`
	Decision *string `json:"decision"`
	Note     *string `json:"note"`
}

func (req *UpdateStageRequest) Validate() (service.UpdateStageInput, error) {
	var in service.UpdateStageInput

	stage := domain.Stage(req.ToStage)
	if !stage.Valid() {
		return in, domain.BadRequest(fmt.Sprintf("invalid stage %q", req.ToStage))
	}
	in.ToStage = stage

	if req.Decision != nil {
		if stage != domain.StageDecision {
			return in, domain.BadRequest("decision may only be set when moving to the decision stage")
		}
		decision := domain.Decision(*req.Decision)
		if decision != domain.DecisionAccepted && decision != domain.DecisionRejected {
			return in, domain.BadRequest("decision must be 'accepted' or 'rejected'")
		}
		in.Decision = &decision
	} else if stage == domain.StageDecision {
		return in, domain.BadRequest("a decision is required when moving to the decision stage")
	}

	in.Note = req.Note
	return in, nil
}

type stageEventResponse struct {
	ID              int64        `json:"id"`
	ApplicationID   int64        `json:"applicationId"`
	FromStage       domain.Stage `json:"fromStage"`
	ToStage         domain.Stage `json:"toStage"`
	ChangedByUserID string       `json:"changedByUserId"`
	Note            *string      `json:"note"`
	CreatedAt       time.Time    `json:"createdAt"`
}

type stageUpdateResponse struct {
	Application ApplicationResponse `json:"application"`
	StageEvent  stageEventResponse  `json:"stageEvent"`
}

// StageHandler handles PATCH /api/applications/{id}/stage
type StageHandler struct {
	apps   *service.ApplicationService
	logger *slog.Logger
}

func NewStageHandler(apps *service.ApplicationService, logger *slog.Logger) *StageHandler {
	return &StageHandler{apps: apps, logger: logger}
}

func (h *StageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req UpdateStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, domain.BadRequest("invalid request body"))
		return
	}

	input, err := req.Validate()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.apps.UpdateStage(r.Context(), currentUser(r), id, input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	ev := result.StageEvent
	writeJSON(w, h.logger, http.StatusOK, stageUpdateResponse{
		Application: toApplicationResponse(result.Application),
		StageEvent: stageEventResponse{
			ID:              ev.ID,
			ApplicationID:   ev.ApplicationID,
			FromStage:       ev.FromStage,
			ToStage:         ev.ToStage,
			ChangedByUserID: ev.ChangedByUserID,
			Note:            ev.Note,
			CreatedAt:       ev.CreatedAt,
		},
	})
}
