package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartmed/smartmed-api/internal/ai"
	"github.com/smartmed/smartmed-api/internal/config"
	"github.com/smartmed/smartmed-api/internal/domain"
	"github.com/smartmed/smartmed-api/internal/domain/doctor"
	"github.com/smartmed/smartmed-api/internal/domain/patient"
	"github.com/smartmed/smartmed-api/internal/domain/reading"
	"github.com/smartmed/smartmed-api/internal/domain/report"
)

func f(v float64) *float64 { return &v }

type reportFixture struct {
	svc       *ReportService
	generator *mockGenerator
	mailer    *mockMailer
	scheduler *mockScheduler
	reports   *mockReportRepo

	caller    Caller
	patientID uuid.UUID
	readingID uuid.UUID
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()

	doctorRepo := newMockDoctorRepo()
	patientRepo := newMockPatientRepo()
	readingRepo := newMockReadingRepo()
	reportRepo := newMockReportRepo()
	gen := &mockGenerator{draft: &ai.ReportDraft{
		Summary:          "Elevated blood pressure.",
		DetailedAnalysis: "Systolic pressure is above the normal range.",
		Diagnosis:        "Stage 1 hypertension",
		Recommendations:  "Reduce sodium intake.",
		UrgencyLevel:     "low",
	}}
	sender := &mockMailer{}
	sched := newMockScheduler()

	d := &doctor.Doctor{Name: "Alice Smith", PracticeStartYear: 2010, Email: "alice@example.com"}
	require.NoError(t, doctorRepo.Create(context.Background(), d))

	p := &patient.Patient{
		Name:        "Jane Roe",
		DateOfBirth: time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderFemale,
		Email:       "jane@example.com",
		DoctorID:    d.ID,
	}
	require.NoError(t, patientRepo.Create(context.Background(), p))

	r := &reading.Reading{
		PatientID:          p.ID,
		TemperatureCelsius: f(37.2),
		HeartRateBPM:       f(72),
		BPSystolic:         f(120),
		BPDiastolic:        f(80),
	}
	require.NoError(t, readingRepo.Create(context.Background(), r))

	svc := NewReportService(ReportServiceParams{
		Repo:        reportRepo,
		ReadingRepo: readingRepo,
		PatientRepo: patientRepo,
		DoctorRepo:  doctorRepo,
		Generator:   gen,
		Mailer:      sender,
		Scheduler:   sched,
		AuditSvc:    NewAuditService(&mockAuditRepo{}, testLogger()),
		Metrics:     testCollector,
		AIConfig:    config.AIConfig{Model: "gemini-1.5-flash", Timeout: 5 * time.Second},
		Logger:      testLogger(),
	})

	return &reportFixture{
		svc:       svc,
		generator: gen,
		mailer:    sender,
		scheduler: sched,
		reports:   reportRepo,
		caller:    Caller{UserID: uuid.New(), Role: domain.RoleDoctor, DoctorID: &d.ID},
		patientID: p.ID,
		readingID: r.ID,
	}
}

func TestGenerateReport(t *testing.T) {
	fx := newReportFixture(t)

	result, err := fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	require.NoError(t, err)
	require.Empty(t, result.ErrorMessage)
	require.NotNil(t, result.Report)

	rep := result.Report
	assert.NotEqual(t, uuid.Nil, rep.ID)
	assert.NotEqual(t, fx.readingID, rep.ID)
	assert.Equal(t, fx.readingID, rep.ReadingID)
	assert.Equal(t, fx.patientID, rep.PatientID)
	assert.Equal(t, "Stage 1 hypertension", rep.Diagnosis)
	assert.Equal(t, report.UrgencyLow, rep.UrgencyLevel)

	assert.Contains(t, fx.generator.prompt, `"bp_systolic":120`)
	assert.Contains(t, fx.generator.prompt, "urgencyLevel")
}

func TestGenerateReportSecondAttemptConflicts(t *testing.T) {
	fx := newReportFixture(t)

	_, err := fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	require.NoError(t, err)

	_, err = fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	assert.ErrorIs(t, err, report.ErrReportAlreadyExists)
}

func TestGenerateReportCollaboratorFailure(t *testing.T) {
	fx := newReportFixture(t)
	fx.generator.err = errors.New("upstream timeout")

	result, err := fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	require.NoError(t, err)
	assert.Nil(t, result.Report)
	assert.Contains(t, result.ErrorMessage, "report generation failed")

	// A failed attempt leaves no report behind; it can be retried.
	fx.generator.err = nil
	result, err = fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	require.NoError(t, err)
	assert.NotNil(t, result.Report)
}

func TestGenerateReportUnknownUrgencyPersistedVerbatim(t *testing.T) {
	fx := newReportFixture(t)
	fx.generator.draft.UrgencyLevel = " Critical "

	result, err := fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	require.NoError(t, err)
	assert.Equal(t, report.Urgency("Critical"), result.Report.UrgencyLevel)
}

func TestGenerateReportForbiddenForOtherDoctor(t *testing.T) {
	fx := newReportFixture(t)
	other := uuid.New()
	caller := Caller{UserID: uuid.New(), Role: domain.RoleDoctor, DoctorID: &other}

	_, err := fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, caller)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGenerateReportNotifiesPatient(t *testing.T) {
	fx := newReportFixture(t)

	_, err := fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	require.NoError(t, err)

	// The notification is sent off the request path.
	require.Eventually(t, func() bool { return fx.mailer.sentCount() == 1 }, time.Second, 10*time.Millisecond)

	fx.mailer.mu.Lock()
	msg := fx.mailer.sent[0]
	fx.mailer.mu.Unlock()
	assert.Equal(t, "jane@example.com", msg.ToAddress)
	assert.Contains(t, msg.Subject, "Dr. Alice Smith")
	assert.True(t, strings.HasPrefix(msg.HTMLBody, "<div"))
	assert.Contains(t, msg.HTMLBody, "Stage 1 hypertension")
}

func TestScheduleAndCancelFollowUp(t *testing.T) {
	fx := newReportFixture(t)

	result, err := fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	require.NoError(t, err)
	repID := result.Report.ID

	rep, err := fx.svc.ScheduleFollowUp(context.Background(), repID, fx.patientID, "0 9 * * *", fx.caller)
	require.NoError(t, err)
	assert.Equal(t, "0 9 * * *", rep.FollowUpSchedule)
	assert.NotEmpty(t, rep.FollowUpJobID)
	assert.Len(t, fx.scheduler.active, 1)

	require.NoError(t, fx.svc.CancelFollowUp(context.Background(), repID, fx.patientID, fx.caller))
	assert.Empty(t, fx.scheduler.active)

	stored, err := fx.reports.GetByID(context.Background(), repID)
	require.NoError(t, err)
	assert.False(t, stored.HasFollowUp())
}

func TestScheduleFollowUpInvalidExpression(t *testing.T) {
	fx := newReportFixture(t)

	result, err := fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	require.NoError(t, err)

	_, err = fx.svc.ScheduleFollowUp(context.Background(), result.Report.ID, fx.patientID, "every tuesday", fx.caller)
	assert.ErrorIs(t, err, report.ErrInvalidSchedule)
}

func TestScheduleFollowUpReplacesExisting(t *testing.T) {
	fx := newReportFixture(t)

	result, err := fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	require.NoError(t, err)
	repID := result.Report.ID

	first, err := fx.svc.ScheduleFollowUp(context.Background(), repID, fx.patientID, "0 9 * * *", fx.caller)
	require.NoError(t, err)
	second, err := fx.svc.ScheduleFollowUp(context.Background(), repID, fx.patientID, "0 18 * * 5", fx.caller)
	require.NoError(t, err)

	assert.NotEqual(t, first.FollowUpJobID, second.FollowUpJobID)
	assert.Contains(t, fx.scheduler.cancelled, first.FollowUpJobID)
	assert.Len(t, fx.scheduler.active, 1)
}

func TestCancelFollowUpsForPatient(t *testing.T) {
	fx := newReportFixture(t)

	result, err := fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	require.NoError(t, err)
	repID := result.Report.ID

	_, err = fx.svc.ScheduleFollowUp(context.Background(), repID, fx.patientID, "0 9 * * *", fx.caller)
	require.NoError(t, err)

	require.NoError(t, fx.svc.CancelFollowUpsForPatient(context.Background(), fx.patientID))
	assert.Empty(t, fx.scheduler.active)

	stored, err := fx.reports.GetByID(context.Background(), repID)
	require.NoError(t, err)
	assert.False(t, stored.HasFollowUp())
	assert.Empty(t, stored.FollowUpJobID)
}

func TestMarkPatientCuredCancelsFollowUps(t *testing.T) {
	fx := newReportFixture(t)

	result, err := fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	require.NoError(t, err)
	repID := result.Report.ID

	_, err = fx.svc.ScheduleFollowUp(context.Background(), repID, fx.patientID, "0 9 * * *", fx.caller)
	require.NoError(t, err)

	require.NoError(t, fx.svc.MarkPatientCured(context.Background(), fx.patientID, true, fx.caller))
	assert.Empty(t, fx.scheduler.active)

	stored, err := fx.reports.GetByID(context.Background(), repID)
	require.NoError(t, err)
	assert.False(t, stored.HasFollowUp())

	// Scheduling new follow-ups is rejected once cured.
	_, err = fx.svc.ScheduleFollowUp(context.Background(), repID, fx.patientID, "0 9 * * *", fx.caller)
	var validErr *ValidationError
	assert.ErrorAs(t, err, &validErr)
}

func TestRenderDocumentEndToEnd(t *testing.T) {
	fx := newReportFixture(t)

	result, err := fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	require.NoError(t, err)

	doc, err := fx.svc.RenderDocument(context.Background(), result.Report.ID, fx.patientID, fx.caller)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, "Jane Roe")
	assert.Contains(t, doc, "120/80 mmHg")
}

func TestDeleteReportCancelsFollowUp(t *testing.T) {
	fx := newReportFixture(t)

	result, err := fx.svc.GenerateReport(context.Background(), fx.readingID, fx.patientID, fx.caller)
	require.NoError(t, err)
	repID := result.Report.ID

	_, err = fx.svc.ScheduleFollowUp(context.Background(), repID, fx.patientID, "0 9 * * *", fx.caller)
	require.NoError(t, err)

	require.NoError(t, fx.svc.DeleteReport(context.Background(), repID, fx.patientID, fx.caller))
	assert.Empty(t, fx.scheduler.active)

	_, err = fx.svc.GetReport(context.Background(), repID, fx.patientID, fx.caller)
	assert.ErrorIs(t, err, report.ErrReportNotFound)
}
