package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/yourorg/jobboard/internal/domain"
	"github.com/yourorg/jobboard/internal/service"
)

// JobDetailResponse is a job with its per-stage application counts. All
// four stage buckets are always present, zero-valued when empty.
type JobDetailResponse struct {
	JobResponse
	ApplicationCounts domain.StageCounts `json:"applicationCounts"`
}

// UpdateJobRequest is a partial update payload; absent fields stay unchanged.
type UpdateJobRequest struct {
	Title               *string `json:"title"`
	Description         *string `json:"description"`
	Department          *string `json:"department"`
	Location            *string `json:"location"`
	EmploymentType      *string `json:"employmentType"`
	Status              *string `json:"status"`
	HiringManagerUserID *string `json:"hiringManagerUserId"`
}

func (req *UpdateJobRequest) Validate() (service.UpdateJobInput, error) {
	var in service.UpdateJobInput

	if req.Status != nil {
		status := domain.JobStatus(*req.Status)
		if !status.Valid() {
			return in, domain.BadRequest(fmt.Sprintf("invalid job status %q", *req.Status))
		}
		in.Status = &status
	}

	in.Title = req.Title
	in.Description = req.Description
	in.Department = req.Department
	in.Location = req.Location
	in.EmploymentType = req.EmploymentType
	in.HiringManagerUserID = req.HiringManagerUserID
	return in, nil
}

// JobDetailHandler handles GET, PATCH and DELETE on /api/jobs/{id}.
type JobDetailHandler struct {
	jobs   *service.JobService
	logger *slog.Logger
}

func NewJobDetailHandler(jobs *service.JobService, logger *slog.Logger) *JobDetailHandler {
	return &JobDetailHandler{jobs: jobs, logger: logger}
}

func (h *JobDetailHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	details, err := h.jobs.GetJobByID(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, JobDetailResponse{
		JobResponse:       toJobResponse(details.Job),
		ApplicationCounts: details.ApplicationCounts,
	})
}

func (h *JobDetailHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req UpdateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, domain.BadRequest("invalid request body"))
		return
	}

	input, err := req.Validate()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	job, err := h.jobs.UpdateJob(r.Context(), currentUser(r), id, input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, toJobResponse(job))
}

func (h *JobDetailHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.jobs.DeleteJob(r.Context(), currentUser(r), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
