package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartmed/smartmed-api/internal/domain/patient"
	"github.com/smartmed/smartmed-api/internal/domain/reading"
	"github.com/smartmed/smartmed-api/pkg/metrics"
)

type ReadingService struct {
	repo        reading.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	metrics     *metrics.Collector
	log         *zap.Logger
}

func NewReadingService(repo reading.Repository, patientRepo patient.Repository, auditSvc *AuditService, collector *metrics.Collector, log *zap.Logger) *ReadingService {
	return &ReadingService{
		repo:        repo,
		patientRepo: patientRepo,
		auditSvc:    auditSvc,
		metrics:     collector,
		log:         log,
	}
}

// RecordReading stores a vitals snapshot for a patient owned by the
// caller. At least one vital must be present.
func (s *ReadingService) RecordReading(ctx context.Context, cmd *reading.CreateReadingCommand, caller Caller) (*reading.Reading, error) {
	if err := s.checkOwnership(ctx, cmd.PatientID, caller); err != nil {
		return nil, err
	}

	r := &reading.Reading{
		PatientID:          cmd.PatientID,
		TemperatureCelsius: cmd.TemperatureCelsius,
		HeartRateBPM:       cmd.HeartRateBPM,
		BPSystolic:         cmd.BPSystolic,
		BPDiastolic:        cmd.BPDiastolic,
		RespiratoryRate:    cmd.RespiratoryRate,
		OxygenSaturation:   cmd.OxygenSaturation,
		GlucoseLevel:       cmd.GlucoseLevel,
		HeightCm:           cmd.HeightCm,
		WeightKg:           cmd.WeightKg,
		DiagnosedFor:       cmd.DiagnosedFor,
	}
	if !hasAnyVital(r) {
		return nil, reading.ErrNoVitalsProvided
	}

	if err := s.repo.Create(ctx, r); err != nil {
		s.log.Error("failed to record reading", zap.Error(err))
		return nil, fmt.Errorf("recording reading: %w", err)
	}

	s.metrics.ReadingsRecordedTotal.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "create",
		ResourceType: "reading",
		ResourceID:   r.ID.String(),
		IPAddress:    caller.IP,
	})

	s.log.Info("reading recorded",
		zap.String("reading_id", r.ID.String()),
		zap.String("patient_id", r.PatientID.String()),
	)

	return r, nil
}

// GetReading loads a reading and verifies it belongs to the given
// patient and that the caller owns the patient.
func (s *ReadingService) GetReading(ctx context.Context, id, patientID uuid.UUID, caller Caller) (*reading.Reading, error) {
	if err := s.checkOwnership(ctx, patientID, caller); err != nil {
		return nil, err
	}

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.PatientID != patientID {
		return nil, reading.ErrReadingPatientMismatch
	}
	return r, nil
}

// ListReadings returns the patient's readings, newest first.
func (s *ReadingService) ListReadings(ctx context.Context, patientID uuid.UUID, caller Caller) ([]*reading.Reading, error) {
	if err := s.checkOwnership(ctx, patientID, caller); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *ReadingService) DeleteReading(ctx context.Context, id, patientID uuid.UUID, caller Caller) error {
	if _, err := s.GetReading(ctx, id, patientID, caller); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "delete",
		ResourceType: "reading",
		ResourceID:   id.String(),
		IPAddress:    caller.IP,
	})

	return s.repo.SoftDelete(ctx, id)
}

func (s *ReadingService) checkOwnership(ctx context.Context, patientID uuid.UUID, caller Caller) error {
	p, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		return err
	}
	if caller.DoctorID == nil || p.DoctorID != *caller.DoctorID {
		return ErrForbidden
	}
	return nil
}

func hasAnyVital(r *reading.Reading) bool {
	vitals := []*float64{
		r.TemperatureCelsius,
		r.HeartRateBPM,
		r.BPSystolic,
		r.BPDiastolic,
		r.RespiratoryRate,
		r.OxygenSaturation,
		r.GlucoseLevel,
		r.HeightCm,
		r.WeightKg,
	}
	for _, v := range vitals {
		if v != nil {
			return true
		}
	}
	return false
}
