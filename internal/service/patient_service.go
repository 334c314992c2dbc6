package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartmed/smartmed-api/internal/domain/patient"
	"github.com/smartmed/smartmed-api/pkg/metrics"
)

// FollowUpCanceller detaches all active follow-up reminders from a
// patient. Satisfied by ReportService.
type FollowUpCanceller interface {
	CancelFollowUpsForPatient(ctx context.Context, patientID uuid.UUID) error
}

type PatientService struct {
	repo      patient.Repository
	followUps FollowUpCanceller
	auditSvc  *AuditService
	metrics   *metrics.Collector
	log       *zap.Logger
}

func NewPatientService(repo patient.Repository, followUps FollowUpCanceller, auditSvc *AuditService, collector *metrics.Collector, log *zap.Logger) *PatientService {
	return &PatientService{
		repo:      repo,
		followUps: followUps,
		auditSvc:  auditSvc,
		metrics:   collector,
		log:       log,
	}
}

func (s *PatientService) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, caller Caller) (*patient.Patient, error) {
	if err := validateCreatePatientCommand(cmd); err != nil {
		return nil, err
	}

	p := &patient.Patient{
		Name:           strings.TrimSpace(cmd.Name),
		DateOfBirth:    cmd.DateOfBirth,
		Gender:         cmd.Gender,
		Phone:          strings.TrimSpace(cmd.Phone),
		Email:          strings.ToLower(strings.TrimSpace(cmd.Email)),
		BloodGroup:     cmd.BloodGroup,
		SmokingStatus:  cmd.SmokingStatus,
		MedicalHistory: cmd.MedicalHistory,
		Allergies:      patient.JoinAllergies(cmd.Allergies),
		DoctorID:       cmd.DoctorID,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.metrics.PatientsCreatedTotal.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "create",
		ResourceType: "patient",
		ResourceID:   p.ID.String(),
		IPAddress:    caller.IP,
	})

	s.log.Info("patient created",
		zap.String("patient_id", p.ID.String()),
		zap.String("doctor_id", cmd.DoctorID.String()),
	)

	return p, nil
}

// GetPatient returns the patient after checking the caller owns it.
func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID, caller Caller) (*patient.Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller.DoctorID == nil || p.DoctorID != *caller.DoctorID {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "read",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    caller.IP,
	})

	return p, nil
}

func (s *PatientService) ListPatients(ctx context.Context, caller Caller) ([]*patient.Patient, error) {
	if caller.DoctorID == nil {
		return nil, ErrForbidden
	}
	return s.repo.ListByDoctor(ctx, *caller.DoctorID)
}

func (s *PatientService) CountPatients(ctx context.Context, caller Caller) (int64, error) {
	if caller.DoctorID == nil {
		return 0, ErrForbidden
	}
	return s.repo.CountByDoctor(ctx, *caller.DoctorID)
}

func (s *PatientService) UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, caller Caller) (*patient.Patient, error) {
	if _, err := s.GetPatient(ctx, id, caller); err != nil {
		return nil, err
	}

	if err := validateUpdatePatientCommand(cmd); err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		s.log.Error("failed to update patient", zap.Error(err))
		return nil, fmt.Errorf("updating patient: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "update",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    caller.IP,
	})

	return p, nil
}

func (s *PatientService) DeletePatient(ctx context.Context, id uuid.UUID, caller Caller) error {
	if _, err := s.GetPatient(ctx, id, caller); err != nil {
		return err
	}

	// Follow-up jobs outlive the row otherwise and keep emailing the
	// deleted patient until the process restarts.
	if err := s.followUps.CancelFollowUpsForPatient(ctx, id); err != nil {
		return fmt.Errorf("cancelling follow-ups: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "delete",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    caller.IP,
	})

	return s.repo.SoftDelete(ctx, id)
}

func validateCreatePatientCommand(cmd *patient.CreatePatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.Name) == "" {
		errs = append(errs, "name is required")
	}
	if cmd.DateOfBirth.IsZero() {
		errs = append(errs, "date_of_birth is required")
	}
	if cmd.DateOfBirth.After(time.Now()) {
		errs = append(errs, "date_of_birth cannot be in the future")
	}
	if !cmd.Gender.IsValid() {
		errs = append(errs, "gender is invalid")
	}
	if cmd.BloodGroup != "" && !cmd.BloodGroup.IsValid() {
		errs = append(errs, "blood_group is invalid")
	}
	if cmd.SmokingStatus != "" && !cmd.SmokingStatus.IsValid() {
		errs = append(errs, "smoking_status is invalid")
	}
	// The storage format is comma-delimited, so entries cannot carry commas.
	for _, a := range cmd.Allergies {
		if strings.Contains(a, ",") {
			errs = append(errs, "allergy entries must not contain commas")
			break
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func validateUpdatePatientCommand(cmd *patient.UpdatePatientCommand) error {
	var errs []string

	if cmd.Name != nil && strings.TrimSpace(*cmd.Name) == "" {
		errs = append(errs, "name cannot be empty")
	}
	if cmd.Gender != nil && !cmd.Gender.IsValid() {
		errs = append(errs, "gender is invalid")
	}
	if cmd.BloodGroup != nil && !cmd.BloodGroup.IsValid() {
		errs = append(errs, "blood_group is invalid")
	}
	if cmd.SmokingStatus != nil && !cmd.SmokingStatus.IsValid() {
		errs = append(errs, "smoking_status is invalid")
	}
	if cmd.Allergies != nil {
		for _, a := range *cmd.Allergies {
			if strings.Contains(a, ",") {
				errs = append(errs, "allergy entries must not contain commas")
				break
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
