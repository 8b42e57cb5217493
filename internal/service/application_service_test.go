package service

import (
	"context"
	"strings"
	"testing"

	"github.com/yourorg/jobboard/internal/domain"
)

func TestApplyToJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createJob(t, domain.JobStatusOpen)

	resume := "https://files.corp.test/resume.pdf"
	app, err := f.appService.ApplyToJob(ctx, f.employee, job.ID, ApplyInput{ResumeURL: &resume})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if app.Stage != domain.StageApplied || app.Decision != domain.DecisionPending {
		t.Errorf("new application should start applied/pending, got %s/%s", app.Stage, app.Decision)
	}

	// Second apply for the same (job, applicant) pair fails; one row exists.
	_, err = f.appService.ApplyToJob(ctx, f.employee, job.ID, ApplyInput{})
	if !domain.IsKind(err, domain.KindBadRequest) {
		t.Fatalf("expected bad request on duplicate apply, got %v", err)
	}
	total, _ := f.apps.CountAll(ctx)
	if total != 1 {
		t.Fatalf("expected exactly one application row, got %d", total)
	}
}

func TestApplyToNonOpenJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, status := range []domain.JobStatus{domain.JobStatusDraft, domain.JobStatusClosed} {
		job := f.createJob(t, status)
		_, err := f.appService.ApplyToJob(ctx, f.employee, job.ID, ApplyInput{})
		if !domain.IsKind(err, domain.KindBadRequest) {
			t.Errorf("applying to %s job: expected bad request, got %v", status, err)
		}
	}
	total, _ := f.apps.CountAll(ctx)
	if total != 0 {
		t.Fatalf("no application rows should exist, got %d", total)
	}
}

func TestApplyRequiresEmployee(t *testing.T) {
	f := newFixture(t)
	job := f.createJob(t, domain.JobStatusOpen)

	for _, u := range []*domain.User{f.hr, f.manager} {
		_, err := f.appService.ApplyToJob(context.Background(), u, job.ID, ApplyInput{})
		if !domain.IsKind(err, domain.KindForbidden) {
			t.Errorf("%s applying: expected forbidden, got %v", u.Role, err)
		}
	}
}

func TestListJobApplicationsScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createJob(t, domain.JobStatusOpen)
	if _, err := f.appService.ApplyToJob(ctx, f.employee, job.ID, ApplyInput{}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	otherManager := f.users.add(&domain.User{ID: "mgr-2", Email: "mgr2@corp.test", Role: domain.RoleManager})

	// A manager who does not manage the job is forbidden even though the
	// job exists.
	_, err := f.appService.ListJobApplications(ctx, otherManager, job.ID)
	if !domain.IsKind(err, domain.KindForbidden) {
		t.Fatalf("expected forbidden for non-managing manager, got %v", err)
	}

	items, err := f.appService.ListJobApplications(ctx, f.manager, job.ID)
	if err != nil {
		t.Fatalf("managing manager list failed: %v", err)
	}
	if len(items) != 1 || items[0].Applicant.ID != f.employee.ID {
		t.Fatalf("expected one application from %s", f.employee.ID)
	}

	// Missing job: not found, checked before manager scoping.
	_, err = f.appService.ListJobApplications(ctx, f.manager, 999)
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListMyApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createJob(t, domain.JobStatusOpen)
	if _, err := f.appService.ApplyToJob(ctx, f.employee, job.ID, ApplyInput{}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	items, err := f.appService.ListMyApplications(ctx, f.employee)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 || items[0].Job.ID != job.ID {
		t.Fatalf("expected one application joined to job %d", job.ID)
	}

	if _, err := f.appService.ListMyApplications(ctx, f.hr); !domain.IsKind(err, domain.KindForbidden) {
		t.Fatalf("hr listing own applications: expected forbidden, got %v", err)
	}
}

func applyAndGet(t *testing.T, f *fixture, jobID int64) *domain.Application {
	t.Helper()
	app, err := f.appService.ApplyToJob(context.Background(), f.employee, jobID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	return app
}

func TestUpdateStageHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createJob(t, domain.JobStatusOpen)
	app := applyAndGet(t, f, job.ID)

	res, err := f.appService.UpdateStage(ctx, f.manager, app.ID, UpdateStageInput{ToStage: domain.StageScreening})
	if err != nil {
		t.Fatalf("applied -> screening failed: %v", err)
	}
	if res.Application.Stage != domain.StageScreening || res.Application.Decision != domain.DecisionPending {
		t.Fatalf("expected screening/pending, got %s/%s", res.Application.Stage, res.Application.Decision)
	}
	if res.StageEvent.FromStage != domain.StageApplied || res.StageEvent.ToStage != domain.StageScreening {
		t.Fatalf("stage event should record the transition, got %+v", res.StageEvent)
	}

	accepted := domain.DecisionAccepted
	note := "strong screening round"
	res, err = f.appService.UpdateStage(ctx, f.manager, app.ID, UpdateStageInput{
		ToStage:  domain.StageDecision,
		Decision: &accepted,
		Note:     &note,
	})
	if err != nil {
		t.Fatalf("screening -> decision failed: %v", err)
	}
	if res.Application.Stage != domain.StageDecision || res.Application.Decision != domain.DecisionAccepted {
		t.Fatalf("expected decision/accepted, got %s/%s", res.Application.Stage, res.Application.Decision)
	}
	if res.StageEvent.Note == nil || *res.StageEvent.Note != note {
		t.Errorf("stage event should carry the note")
	}

	if len(f.apps.events) != 2 {
		t.Fatalf("expected exactly 2 stage events, got %d", len(f.apps.events))
	}
}

func TestUpdateStageInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createJob(t, domain.JobStatusOpen)
	app := applyAndGet(t, f, job.ID)

	// Skipping a stage is rejected with a message naming the pair and the
	// allowed next stages.
	_, err := f.appService.UpdateStage(ctx, f.hr, app.ID, UpdateStageInput{ToStage: domain.StageInterview})
	if !domain.IsKind(err, domain.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "applied") || !strings.Contains(msg, "interview") || !strings.Contains(msg, "screening") {
		t.Errorf("error should name the pair and allowed stages, got %q", msg)
	}

	// Self-transition rejected.
	_, err = f.appService.UpdateStage(ctx, f.hr, app.ID, UpdateStageInput{ToStage: domain.StageApplied})
	if !domain.IsKind(err, domain.KindBadRequest) {
		t.Fatalf("expected bad request on self-transition, got %v", err)
	}

	// Nothing was written.
	if len(f.apps.events) != 0 {
		t.Fatalf("failed transitions must not append events, got %d", len(f.apps.events))
	}
	got, _ := f.apps.GetByID(ctx, app.ID)
	if got.Stage != domain.StageApplied {
		t.Fatalf("stage must be unchanged, got %s", got.Stage)
	}
}

func TestUpdateStageDecisionRequired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createJob(t, domain.JobStatusOpen)
	app := applyAndGet(t, f, job.ID)

	if _, err := f.appService.UpdateStage(ctx, f.hr, app.ID, UpdateStageInput{ToStage: domain.StageScreening}); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	_, err := f.appService.UpdateStage(ctx, f.hr, app.ID, UpdateStageInput{ToStage: domain.StageDecision})
	if !domain.IsKind(err, domain.KindBadRequest) {
		t.Fatalf("moving to decision without a decision: expected bad request, got %v", err)
	}
}

func TestUpdateStageTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createJob(t, domain.JobStatusOpen)
	app := applyAndGet(t, f, job.ID)

	rejected := domain.DecisionRejected
	steps := []UpdateStageInput{
		{ToStage: domain.StageScreening},
		{ToStage: domain.StageInterview},
		{ToStage: domain.StageDecision, Decision: &rejected},
	}
	for _, step := range steps {
		if _, err := f.appService.UpdateStage(ctx, f.hr, app.ID, step); err != nil {
			t.Fatalf("step to %s failed: %v", step.ToStage, err)
		}
	}

	// Terminal stage has no outgoing transitions, including decision -> decision.
	accepted := domain.DecisionAccepted
	for _, to := range []domain.Stage{domain.StageScreening, domain.StageInterview, domain.StageDecision} {
		input := UpdateStageInput{ToStage: to}
		if to == domain.StageDecision {
			input.Decision = &accepted
		}
		if _, err := f.appService.UpdateStage(ctx, f.hr, app.ID, input); !domain.IsKind(err, domain.KindBadRequest) {
			t.Errorf("decision -> %s: expected bad request, got %v", to, err)
		}
	}
}

func TestUpdateStageAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createJob(t, domain.JobStatusOpen)
	app := applyAndGet(t, f, job.ID)

	otherManager := f.users.add(&domain.User{ID: "mgr-2", Email: "mgr2@corp.test", Role: domain.RoleManager})
	_, err := f.appService.UpdateStage(ctx, otherManager, app.ID, UpdateStageInput{ToStage: domain.StageScreening})
	if !domain.IsKind(err, domain.KindForbidden) {
		t.Fatalf("non-managing manager: expected forbidden, got %v", err)
	}

	_, err = f.appService.UpdateStage(ctx, f.employee, app.ID, UpdateStageInput{ToStage: domain.StageScreening})
	if !domain.IsKind(err, domain.KindForbidden) {
		t.Fatalf("employee: expected forbidden, got %v", err)
	}

	_, err = f.appService.UpdateStage(ctx, f.hr, 999, UpdateStageInput{ToStage: domain.StageScreening})
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("missing application: expected not found, got %v", err)
	}
}

func TestHRDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jobA := f.createJob(t, domain.JobStatusOpen)
	jobB := f.createJob(t, domain.JobStatusOpen)
	f.createJob(t, domain.JobStatusDraft)

	second := f.users.add(&domain.User{ID: "emp-2", Email: "emp2@corp.test", Role: domain.RoleEmployee})

	appA := applyAndGet(t, f, jobA.ID)
	if _, err := f.appService.ApplyToJob(ctx, second, jobB.ID, ApplyInput{}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := f.appService.UpdateStage(ctx, f.hr, appA.ID, UpdateStageInput{ToStage: domain.StageScreening}); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	dash, err := f.dashService.GetHRDashboard(ctx, f.hr)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if dash.OpenPositions != 2 {
		t.Errorf("expected 2 open positions, got %d", dash.OpenPositions)
	}
	if dash.TotalApplications != 2 {
		t.Errorf("expected 2 applications, got %d", dash.TotalApplications)
	}
	if dash.StageDistribution.Total() != dash.TotalApplications {
		t.Errorf("stage distribution must sum to total: %+v vs %d",
			dash.StageDistribution, dash.TotalApplications)
	}
	if dash.StageDistribution.Screening != 1 || dash.StageDistribution.Applied != 1 {
		t.Errorf("unexpected distribution: %+v", dash.StageDistribution)
	}

	if _, err := f.dashService.GetHRDashboard(ctx, f.manager); !domain.IsKind(err, domain.KindForbidden) {
		t.Errorf("manager dashboard: expected forbidden, got %v", err)
	}
}
