package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartmed/smartmed-api/internal/ai"
	"github.com/smartmed/smartmed-api/internal/config"
	"github.com/smartmed/smartmed-api/internal/document"
	"github.com/smartmed/smartmed-api/internal/domain/doctor"
	"github.com/smartmed/smartmed-api/internal/domain/patient"
	"github.com/smartmed/smartmed-api/internal/domain/reading"
	"github.com/smartmed/smartmed-api/internal/domain/report"
	"github.com/smartmed/smartmed-api/internal/mailer"
	"github.com/smartmed/smartmed-api/internal/schedule"
	"github.com/smartmed/smartmed-api/internal/scheduler"
	"github.com/smartmed/smartmed-api/pkg/metrics"
)

// reportPromptInstruction precedes the serialized clinical data on every
// generation request. The JSON shape it demands matches ai.ReportDraft.
const reportPromptInstruction = `You are a clinical decision-support assistant. Based on the patient
profile and vitals reading below, produce a diagnostic report.

Respond with a single JSON object and nothing else, with exactly these
string fields:
{
  "summary": "one-paragraph overview of the patient's condition",
  "detailedAnalysis": "thorough interpretation of each measured vital",
  "diagnosis": "most likely diagnosis or differential",
  "recommendations": "concrete next steps for the treating doctor",
  "urgencyLevel": "LOW, MEDIUM or HIGH",
  "additionalNotes": "anything else worth flagging, or an empty string"
}

This output assists a licensed doctor and is not shown directly to the
patient.

`

type ReportService struct {
	repo        report.Repository
	readingRepo reading.Repository
	patientRepo patient.Repository
	doctorRepo  doctor.Repository
	generator   ai.Generator
	mailer      mailer.Sender
	scheduler   scheduler.Scheduler
	auditSvc    *AuditService
	metrics     *metrics.Collector
	aiCfg       config.AIConfig
	emailCfg    config.EmailConfig
	log         *zap.Logger
}

type ReportServiceParams struct {
	Repo        report.Repository
	ReadingRepo reading.Repository
	PatientRepo patient.Repository
	DoctorRepo  doctor.Repository
	Generator   ai.Generator
	Mailer      mailer.Sender
	Scheduler   scheduler.Scheduler
	AuditSvc    *AuditService
	Metrics     *metrics.Collector
	AIConfig    config.AIConfig
	EmailConfig config.EmailConfig
	Logger      *zap.Logger
}

func NewReportService(p ReportServiceParams) *ReportService {
	return &ReportService{
		repo:        p.Repo,
		readingRepo: p.ReadingRepo,
		patientRepo: p.PatientRepo,
		doctorRepo:  p.DoctorRepo,
		generator:   p.Generator,
		mailer:      p.Mailer,
		scheduler:   p.Scheduler,
		auditSvc:    p.AuditSvc,
		metrics:     p.Metrics,
		aiCfg:       p.AIConfig,
		emailCfg:    p.EmailConfig,
		log:         p.Logger,
	}
}

// GenerateResult is the outcome of a generation attempt. Collaborator
// failures never surface as errors; they populate ErrorMessage so the
// caller gets a well-formed response either way. Err is reserved for
// authorization, lookup, and persistence problems.
type GenerateResult struct {
	Report       *report.Report
	ErrorMessage string
}

// GenerateReport runs the full pipeline for one reading: authorize,
// prompt the collaborator, normalize, persist, then notify the patient
// off the request path. Each reading gets at most one report.
func (s *ReportService) GenerateReport(ctx context.Context, readingID, patientID uuid.UUID, caller Caller) (*GenerateResult, error) {
	p, err := s.ownedPatient(ctx, patientID, caller)
	if err != nil {
		return nil, err
	}

	r, err := s.readingRepo.GetByID(ctx, readingID)
	if err != nil {
		return nil, err
	}
	if r.PatientID != patientID {
		return nil, reading.ErrReadingPatientMismatch
	}

	if _, err := s.repo.GetByReadingID(ctx, readingID); err == nil {
		return nil, report.ErrReportAlreadyExists
	} else if !errors.Is(err, report.ErrReportNotFound) {
		return nil, err
	}

	d, err := s.doctorRepo.GetByID(ctx, p.DoctorID)
	if err != nil {
		return nil, err
	}

	prompt, err := buildReportPrompt(p, r, time.Now())
	if err != nil {
		return nil, fmt.Errorf("building prompt: %w", err)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.aiCfg.Timeout)
	defer cancel()

	start := time.Now()
	draft, err := s.generator.GenerateDraft(genCtx, prompt)
	s.metrics.AICallDuration.WithLabelValues(s.aiCfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.AICallFailures.Inc()
		s.log.Error("report generation failed",
			zap.String("reading_id", readingID.String()),
			zap.Error(err),
		)
		return &GenerateResult{ErrorMessage: fmt.Sprintf("report generation failed: %v", err)}, nil
	}

	rep := &report.Report{
		ReadingID:        readingID,
		PatientID:        patientID,
		DoctorID:         p.DoctorID,
		Summary:          draft.Summary,
		DetailedAnalysis: draft.DetailedAnalysis,
		Diagnosis:        draft.Diagnosis,
		Recommendations:  draft.Recommendations,
		UrgencyLevel:     report.ParseUrgency(draft.UrgencyLevel),
		AdditionalNotes:  draft.AdditionalNotes,
	}
	if err := s.repo.Create(ctx, rep); err != nil {
		s.log.Error("failed to persist report", zap.Error(err))
		return nil, fmt.Errorf("persisting report: %w", err)
	}

	s.metrics.ReportsGeneratedTotal.WithLabelValues(string(rep.UrgencyLevel)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "create",
		ResourceType: "report",
		ResourceID:   rep.ID.String(),
		IPAddress:    caller.IP,
	})

	s.log.Info("report generated",
		zap.String("report_id", rep.ID.String()),
		zap.String("reading_id", readingID.String()),
		zap.String("urgency", string(rep.UrgencyLevel)),
	)

	s.notifyPatient(rep, r, p, d)

	return &GenerateResult{Report: rep}, nil
}

func (s *ReportService) GetReport(ctx context.Context, id, patientID uuid.UUID, caller Caller) (*report.Report, error) {
	if _, err := s.ownedPatient(ctx, patientID, caller); err != nil {
		return nil, err
	}

	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep.PatientID != patientID {
		return nil, report.ErrReportNotFound
	}
	return rep, nil
}

// GetReportForReading returns the report derived from a reading, if one
// exists.
func (s *ReportService) GetReportForReading(ctx context.Context, readingID, patientID uuid.UUID, caller Caller) (*report.Report, error) {
	if _, err := s.ownedPatient(ctx, patientID, caller); err != nil {
		return nil, err
	}

	rep, err := s.repo.GetByReadingID(ctx, readingID)
	if err != nil {
		return nil, err
	}
	if rep.PatientID != patientID {
		return nil, report.ErrReportNotFound
	}
	return rep, nil
}

func (s *ReportService) ListReports(ctx context.Context, patientID uuid.UUID, caller Caller) ([]*report.Report, error) {
	if _, err := s.ownedPatient(ctx, patientID, caller); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}

// DeleteReport removes a report, cancelling its follow-up first.
func (s *ReportService) DeleteReport(ctx context.Context, id, patientID uuid.UUID, caller Caller) error {
	rep, err := s.GetReport(ctx, id, patientID, caller)
	if err != nil {
		return err
	}

	if rep.FollowUpJobID != "" {
		s.scheduler.Cancel(rep.FollowUpJobID)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "delete",
		ResourceType: "report",
		ResourceID:   id.String(),
		IPAddress:    caller.IP,
	})

	return s.repo.SoftDelete(ctx, id)
}

// RenderDocument produces the standalone printable report document.
func (s *ReportService) RenderDocument(ctx context.Context, id, patientID uuid.UUID, caller Caller) (string, error) {
	p, err := s.ownedPatient(ctx, patientID, caller)
	if err != nil {
		return "", err
	}

	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if rep.PatientID != patientID {
		return "", report.ErrReportNotFound
	}

	r, err := s.readingRepo.GetByID(ctx, rep.ReadingID)
	if err != nil {
		return "", err
	}
	d, err := s.doctorRepo.GetByID(ctx, rep.DoctorID)
	if err != nil {
		return "", err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "read",
		ResourceType: "report_document",
		ResourceID:   id.String(),
		IPAddress:    caller.IP,
	})

	return document.RenderDocument(document.Input{
		Report:  rep,
		Reading: r,
		Patient: p,
		Doctor:  d,
		Now:     time.Now(),
	}), nil
}

// ScheduleFollowUp attaches a recurring reminder to a report. An
// existing schedule is replaced.
func (s *ReportService) ScheduleFollowUp(ctx context.Context, id, patientID uuid.UUID, expr string, caller Caller) (*report.Report, error) {
	p, err := s.ownedPatient(ctx, patientID, caller)
	if err != nil {
		return nil, err
	}
	if p.Cured {
		return nil, &ValidationError{Fields: []string{"patient is marked cured; follow-ups are disabled"}}
	}

	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep.PatientID != patientID {
		return nil, report.ErrReportNotFound
	}

	if err := schedule.Validate(expr); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrInvalidSchedule, err)
	}

	d, err := s.doctorRepo.GetByID(ctx, rep.DoctorID)
	if err != nil {
		return nil, err
	}

	if rep.FollowUpJobID != "" {
		s.scheduler.Cancel(rep.FollowUpJobID)
	}

	jobID, err := s.scheduler.Schedule(expr, scheduler.FollowUp{
		ReportID:     rep.ID,
		PatientName:  p.Name,
		PatientEmail: p.Email,
		DoctorName:   d.DisplayName(),
	})
	if err != nil {
		return nil, err
	}

	cmd := &report.SetFollowUpCommand{Schedule: expr, JobID: jobID}
	if err := s.repo.SetFollowUp(ctx, rep.ID, cmd); err != nil {
		s.scheduler.Cancel(jobID)
		return nil, fmt.Errorf("persisting follow-up: %w", err)
	}

	rep.FollowUpSchedule = expr
	rep.FollowUpJobID = jobID

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "update",
		ResourceType: "report_follow_up",
		ResourceID:   rep.ID.String(),
		IPAddress:    caller.IP,
	})

	return rep, nil
}

// CancelFollowUp removes a report's reminder schedule. Reports with no
// active follow-up are left untouched.
func (s *ReportService) CancelFollowUp(ctx context.Context, id, patientID uuid.UUID, caller Caller) error {
	rep, err := s.GetReport(ctx, id, patientID, caller)
	if err != nil {
		return err
	}
	if !rep.HasFollowUp() {
		return nil
	}

	if rep.FollowUpJobID != "" {
		s.scheduler.Cancel(rep.FollowUpJobID)
	}
	return s.repo.SetFollowUp(ctx, rep.ID, &report.SetFollowUpCommand{})
}

// MarkPatientCured flips the cured flag. Curing a patient cancels every
// active follow-up across their reports; documents rendered afterwards
// omit the follow-up section.
func (s *ReportService) MarkPatientCured(ctx context.Context, patientID uuid.UUID, cured bool, caller Caller) error {
	if _, err := s.ownedPatient(ctx, patientID, caller); err != nil {
		return err
	}

	if err := s.patientRepo.SetCured(ctx, patientID, cured); err != nil {
		return err
	}

	if cured {
		if err := s.CancelFollowUpsForPatient(ctx, patientID); err != nil {
			return err
		}
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "update",
		ResourceType: "patient_cured",
		ResourceID:   patientID.String(),
		IPAddress:    caller.IP,
	})

	s.log.Info("patient cured flag updated",
		zap.String("patient_id", patientID.String()),
		zap.Bool("cured", cured),
	)
	return nil
}

// CancelFollowUpsForPatient cancels every active follow-up job across
// a patient's reports and clears the persisted schedules. Called when
// the patient is cured and when the patient record or its owning
// account goes away; otherwise the jobs would keep emailing until
// process restart.
func (s *ReportService) CancelFollowUpsForPatient(ctx context.Context, patientID uuid.UUID) error {
	reps, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return err
	}
	for _, rep := range reps {
		if !rep.HasFollowUp() {
			continue
		}
		if rep.FollowUpJobID != "" {
			s.scheduler.Cancel(rep.FollowUpJobID)
		}
		if err := s.repo.SetFollowUp(ctx, rep.ID, &report.SetFollowUpCommand{}); err != nil {
			s.log.Error("failed to clear follow-up",
				zap.String("report_id", rep.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *ReportService) ownedPatient(ctx context.Context, patientID uuid.UUID, caller Caller) (*patient.Patient, error) {
	p, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if caller.DoctorID == nil || p.DoctorID != *caller.DoctorID {
		return nil, ErrForbidden
	}
	return p, nil
}

// notifyPatient emails the rendered report fragment off the request
// path. Failures are logged and counted, never propagated; the report
// is already persisted.
func (s *ReportService) notifyPatient(rep *report.Report, r *reading.Reading, p *patient.Patient, d *doctor.Doctor) {
	if p.Email == "" {
		return
	}

	fragment := document.RenderEmailFragment(document.Input{
		Report:  rep,
		Reading: r,
		Patient: p,
		Doctor:  d,
		Now:     time.Now(),
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		msg := &mailer.Message{
			ToName:     p.Name,
			ToAddress:  p.Email,
			Subject:    "Your medical report from " + d.DisplayName(),
			PlainText:  fmt.Sprintf("Hello %s, %s has prepared a medical report for you. Please view this email in an HTML-capable client.", p.Name, d.DisplayName()),
			HTMLBody:   fragment,
			TemplateID: s.emailCfg.ReportTemplateID,
			Params: map[string]any{
				"patient_name": p.Name,
				"doctor_name":  d.DisplayName(),
				"urgency":      string(rep.UrgencyLevel),
			},
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.metrics.EmailsSentTotal.WithLabelValues("failure").Inc()
			s.log.Warn("failed to send report email",
				zap.String("report_id", rep.ID.String()),
				zap.String("to", p.Email),
				zap.Error(err),
			)
			return
		}
		s.metrics.EmailsSentTotal.WithLabelValues("success").Inc()
	}()
}

// buildReportPrompt serializes the clinical context compactly after the
// fixed instruction block.
func buildReportPrompt(p *patient.Patient, r *reading.Reading, now time.Time) (string, error) {
	payload := struct {
		Patient struct {
			Age            int      `json:"age"`
			Gender         string   `json:"gender"`
			BloodGroup     string   `json:"blood_group,omitempty"`
			SmokingStatus  string   `json:"smoking_status,omitempty"`
			MedicalHistory string   `json:"medical_history,omitempty"`
			Allergies      []string `json:"allergies,omitempty"`
		} `json:"patient"`
		Reading *reading.Reading `json:"reading"`
	}{Reading: r}

	payload.Patient.Age = p.Age(now)
	payload.Patient.Gender = string(p.Gender)
	payload.Patient.BloodGroup = string(p.BloodGroup)
	payload.Patient.SmokingStatus = string(p.SmokingStatus)
	payload.Patient.MedicalHistory = p.MedicalHistory
	payload.Patient.Allergies = p.AllergyList()

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return reportPromptInstruction + string(data), nil
}
