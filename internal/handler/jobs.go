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

// JobResponse is the wire shape of a job.
type JobResponse struct {
	ID                  int64            `json:"id"`
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	Department          string           `json:"department"`
	Location            *string          `json:"location"`
	EmploymentType      string           `json:"employmentType"`
	Status              domain.JobStatus `json:"status"`
	PostedByUserID      string           `json:"postedByUserId"`
	HiringManagerUserID string           `json:"hiringManagerUserId"`
	OpenedAt            *time.Time       `json:"openedAt"`
	ClosedAt            *time.Time       `json:"closedAt"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

func toJobResponse(j *domain.Job) JobResponse {
	return JobResponse{
		ID:                  j.ID,
		Title:               j.Title,
		Description:         j.Description,
		Department:          j.Department,
		Location:            j.Location,
		EmploymentType:      j.EmploymentType,
		Status:              j.Status,
		PostedByUserID:      j.PostedByUserID,
		HiringManagerUserID: j.HiringManagerUserID,
		OpenedAt:            j.OpenedAt,
		ClosedAt:            j.ClosedAt,
		CreatedAt:           j.CreatedAt,
		UpdatedAt:           j.UpdatedAt,
	}
}

// CreateJobRequest is the create payload. Validate converts it into the
// service input, rejecting shape violations with a descriptive error.
type CreateJobRequest struct {
	Title               string  `json:"title"`
	Description         string  `json:"description"`
	Department          string  `json:"department"`
	Location            *string `json:"location,omitempty"`
	EmploymentType      string  `json:"employmentType"`
	Status              string  `json:"status"`
	HiringManagerUserID string  `json:"hiringManagerUserId"`
}

func (req *CreateJobRequest) Validate() (service.CreateJobInput, error) {
	var in service.CreateJobInput

	if req.Title == "" || req.Description == "" || req.Department == "" ||
		req.EmploymentType == "" || req.HiringManagerUserID == "" {
		return in, domain.BadRequest("title, description, department, employmentType and hiringManagerUserId are required")
	}

	status := domain.JobStatus(req.Status)
	if req.Status == "" {
		status = domain.JobStatusDraft
	}
	if !status.Valid() {
		return in, domain.BadRequest(fmt.Sprintf("invalid job status %q", req.Status))
	}

	in = service.CreateJobInput{
		Title:               req.Title,
		Description:         req.Description,
		Department:          req.Department,
		Location:            req.Location,
		EmploymentType:      req.EmploymentType,
		Status:              status,
		HiringManagerUserID: req.HiringManagerUserID,
	}
	return in, nil
}

// JobListHandler handles GET /api/jobs
type JobListHandler struct {
	jobs   *service.JobService
	logger *slog.Logger
}

func NewJobListHandler(jobs *service.JobService, logger *slog.Logger) *JobListHandler {
	return &JobListHandler{jobs: jobs, logger: logger}
}

func (h *JobListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	filter := domain.JobFilter{}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.JobStatus(raw)
		if !status.Valid() {
			writeError(w, h.logger, domain.BadRequest(fmt.Sprintf("invalid job status %q", raw)))
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("department"); raw != "" {
		filter.Department = &raw
	}

	jobs, err := h.jobs.ListJobs(r.Context(), currentUser(r), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"jobs": out})
}

// JobCreateHandler handles POST /api/jobs
type JobCreateHandler struct {
	jobs   *service.JobService
	logger *slog.Logger
}

func NewJobCreateHandler(jobs *service.JobService, logger *slog.Logger) *JobCreateHandler {
	return &JobCreateHandler{jobs: jobs, logger: logger}
}

func (h *JobCreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, domain.BadRequest("invalid request body"))
		return
	}

	input, err := req.Validate()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	job, err := h.jobs.CreateJob(r.Context(), currentUser(r), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, toJobResponse(job))
}
