package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yourorg/jobboard/internal/domain"
)

// In-memory repository fakes shared by the service tests.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*domain.User{}}
}

func (m *memUserRepo) add(u *domain.User) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
		u.UpdatedAt = u.CreatedAt
	}
	m.users[u.ID] = u
	return u
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.NotFound("user not found")
}

func (m *memUserRepo) GetByExternalID(_ context.Context, externalID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ExternalID == externalID {
			return u, nil
		}
	}
	return nil, domain.NotFound("user not found")
}

func (m *memUserRepo) Upsert(_ context.Context, user *domain.User) error {
	m.add(user)
	return nil
}

func (m *memUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.NotFound("user not found")
	}
	u.Role = role
	return nil
}

func (m *memUserRepo) List(_ context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

type memJobRepo struct {
	mu     sync.Mutex
	jobs   map[int64]*domain.Job
	nextID int64
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[int64]*domain.Job{}, nextID: 1}
}

func (m *memJobRepo) Create(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.ID = m.nextID
	m.nextID++
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobRepo) GetByID(_ context.Context, id int64) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, domain.NotFound("job not found")
}

func (m *memJobRepo) Update(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return domain.NotFound("job not found")
	}
	job.UpdatedAt = time.Now()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return domain.NotFound("job not found")
	}
	delete(m.jobs, id)
	return nil
}

func (m *memJobRepo) List(_ context.Context, filter domain.JobFilter) ([]*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Job
	for _, j := range m.jobs {
		if filter.Status != nil && j.Status != *filter.Status {
			continue
		}
		if filter.Department != nil && j.Department != *filter.Department {
			continue
		}
		if filter.HiringManagerUserID != nil && j.HiringManagerUserID != *filter.HiringManagerUserID {
			continue
		}
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (m *memJobRepo) CountByStatus(_ context.Context, status domain.JobStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, j := range m.jobs {
		if j.Status == status {
			n++
		}
	}
	return n, nil
}

type memAppRepo struct {
	mu     sync.Mutex
	apps   map[int64]*domain.Application
	events []*domain.ApplicationStageEvent
	jobs   *memJobRepo
	users  *memUserRepo
	nextID int64
}

func newMemAppRepo(jobs *memJobRepo, users *memUserRepo) *memAppRepo {
	return &memAppRepo{apps: map[int64]*domain.Application{}, jobs: jobs, users: users, nextID: 1}
}

func (m *memAppRepo) Insert(_ context.Context, app *domain.Application) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.apps {
		if existing.JobID == app.JobID && existing.ApplicantUserID == app.ApplicantUserID {
			return false, nil
		}
	}
	app.ID = m.nextID
	m.nextID++
	app.AppliedAt = time.Now()
	app.UpdatedAt = app.AppliedAt
	cp := *app
	m.apps[app.ID] = &cp
	return true, nil
}

func (m *memAppRepo) GetByID(_ context.Context, id int64) (*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.apps[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.NotFound("application not found")
}

func (m *memAppRepo) ListByApplicant(ctx context.Context, applicantUserID string) ([]*domain.ApplicationWithJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ApplicationWithJob
	for _, a := range m.apps {
		if a.ApplicantUserID != applicantUserID {
			continue
		}
		job := m.jobs.jobs[a.JobID]
		out = append(out, &domain.ApplicationWithJob{
			Application: *a,
			Job: domain.JobSummary{
				ID:             job.ID,
				Title:          job.Title,
				Department:     job.Department,
				EmploymentType: job.EmploymentType,
				Status:         job.Status,
				Location:       job.Location,
			},
		})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].AppliedAt.After(out[k].AppliedAt) })
	return out, nil
}

func (m *memAppRepo) ListByJob(ctx context.Context, jobID int64) ([]*domain.ApplicationWithApplicant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ApplicationWithApplicant
	for _, a := range m.apps {
		if a.JobID != jobID {
			continue
		}
		applicant := m.users.users[a.ApplicantUserID]
		out = append(out, &domain.ApplicationWithApplicant{
			Application: *a,
			Applicant: domain.ApplicantSummary{
				ID:       applicant.ID,
				Email:    applicant.Email,
				FullName: applicant.FullName,
			},
		})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].AppliedAt.After(out[k].AppliedAt) })
	return out, nil
}

func (m *memAppRepo) CountByStageForJob(_ context.Context, jobID int64) (domain.StageCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := domain.StageCounts{}
	for _, a := range m.apps {
		if a.JobID != jobID {
			continue
		}
		bumpStage(&counts, a.Stage)
	}
	return counts, nil
}

func (m *memAppRepo) CountAll(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.apps), nil
}

func (m *memAppRepo) StageDistribution(_ context.Context) (domain.StageCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := domain.StageCounts{}
	for _, a := range m.apps {
		bumpStage(&counts, a.Stage)
	}
	return counts, nil
}

func bumpStage(c *domain.StageCounts, stage domain.Stage) {
	switch stage {
	case domain.StageApplied:
		c.Applied++
	case domain.StageScreening:
		c.Screening++
	case domain.StageInterview:
		c.Interview++
	case domain.StageDecision:
		c.Decision++
	}
}

func (m *memAppRepo) TransitionStage(
	_ context.Context,
	applicationID int64,
	actorUserID string,
	note *string,
	decide domain.TransitionFunc,
) (*domain.Application, *domain.ApplicationStageEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[applicationID]
	if !ok {
		return nil, nil, domain.NotFound("application not found")
	}
	job, ok := m.jobs.jobs[app.JobID]
	if !ok {
		return nil, nil, domain.NotFound("job not found")
	}

	appCopy := *app
	jobCopy := *job
	toStage, decision, err := decide(&appCopy, &jobCopy)
	if err != nil {
		return nil, nil, err
	}

	fromStage := app.Stage
	app.Stage = toStage
	app.Decision = decision
	app.UpdatedAt = time.Now()

	event := &domain.ApplicationStageEvent{
		ID:              int64(len(m.events) + 1),
		ApplicationID:   applicationID,
		FromStage:       fromStage,
		ToStage:         toStage,
		ChangedByUserID: actorUserID,
		Note:            note,
		CreatedAt:       time.Now(),
	}
	m.events = append(m.events, event)

	result := *app
	return &result, event, nil
}
