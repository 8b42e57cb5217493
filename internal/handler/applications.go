package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/jobboard/internal/domain"
	"github.com/yourorg/jobboard/internal/service"
)

// ApplicationResponse is the wire shape of an application.
type ApplicationResponse struct {
	ID              int64           `json:"id"`
	JobID           int64           `json:"jobId"`
	ApplicantUserID string          `json:"applicantUserId"`
	ResumeURL       *string         `json:"resumeUrl"`
	CoverLetter     *string         `json:"coverLetter"`
	Stage           domain.Stage    `json:"stage"`
	Decision        domain.Decision `json:"decision"`
	AppliedAt       time.Time       `json:"appliedAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func toApplicationResponse(a *domain.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:              a.ID,
		JobID:           a.JobID,
		ApplicantUserID: a.ApplicantUserID,
		ResumeURL:       a.ResumeURL,
		CoverLetter:     a.CoverLetter,
		Stage:           a.Stage,
		Decision:        a.Decision,
		AppliedAt:       a.AppliedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

type jobSummaryResponse struct {
	ID             int64            `json:"id"`
	Title          string           `json:"title"`
	Department     string           `json:"department"`
	EmploymentType string           `json:"employmentType"`
	Status         domain.JobStatus `json:"status"`
	Location       *string          `json:"location"`
}

type applicantSummaryResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type applicationWithJobResponse struct {
	ApplicationResponse
	Job jobSummaryResponse `json:"job"`
}

type applicationWithApplicantResponse struct {
	ApplicationResponse
	Applicant applicantSummaryResponse `json:"applicant"`
}

// ApplyRequest is the optional apply payload. An empty body is accepted.
type ApplyRequest struct {
	ResumeURL   *string `json:"resumeUrl"`
	CoverLetter *string `json:"coverLetter"`
}

// ApplyHandler handles POST /api/jobs/{id}/apply
type ApplyHandler struct {
	apps   *service.ApplicationService
	logger *slog.Logger
}

func NewApplyHandler(apps *service.ApplicationService, logger *slog.Logger) *ApplyHandler {
	return &ApplyHandler{apps: apps, logger: logger}
}

func (h *ApplyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, h.logger, domain.BadRequest("invalid request body"))
		return
	}

	app, err := h.apps.ApplyToJob(r.Context(), currentUser(r), jobID, service.ApplyInput{
		ResumeURL:   req.ResumeURL,
		CoverLetter: req.CoverLetter,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, toApplicationResponse(app))
}

// MyApplicationsHandler handles GET /api/applications/me
type MyApplicationsHandler struct {
	apps   *service.ApplicationService
	logger *slog.Logger
}

func NewMyApplicationsHandler(apps *service.ApplicationService, logger *slog.Logger) *MyApplicationsHandler {
	return &MyApplicationsHandler{apps: apps, logger: logger}
}

func (h *MyApplicationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	apps, err := h.apps.ListMyApplications(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]applicationWithJobResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, applicationWithJobResponse{
			ApplicationResponse: toApplicationResponse(&a.Application),
			Job: jobSummaryResponse{
				ID:             a.Job.ID,
				Title:          a.Job.Title,
				Department:     a.Job.Department,
				EmploymentType: a.Job.EmploymentType,
				Status:         a.Job.Status,
				Location:       a.Job.Location,
			},
		})
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"applications": out})
}

// JobApplicationsHandler handles GET /api/jobs/{id}/applications
type JobApplicationsHandler struct {
	apps   *service.ApplicationService
	logger *slog.Logger
}

func NewJobApplicationsHandler(apps *service.ApplicationService, logger *slog.Logger) *JobApplicationsHandler {
	return &JobApplicationsHandler{apps: apps, logger: logger}
}

func (h *JobApplicationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	apps, err := h.apps.ListJobApplications(r.Context(), currentUser(r), jobID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]applicationWithApplicantResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, applicationWithApplicantResponse{
			ApplicationResponse: toApplicationResponse(&a.Application),
			Applicant: applicantSummaryResponse{
				ID:       a.Applicant.ID,
				Email:    a.Applicant.Email,
				FullName: a.Applicant.FullName,
			},
		})
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"applications": out})
}
