package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smartmed/smartmed-api/internal/domain/doctor"
)

type DoctorService struct {
	repo doctor.Repository
	log  *zap.Logger
}

func NewDoctorService(repo doctor.Repository, log *zap.Logger) *DoctorService {
	return &DoctorService{repo: repo, log: log}
}

// GetProfile returns the caller's own doctor profile.
func (s *DoctorService) GetProfile(ctx context.Context, caller Caller) (*doctor.Doctor, error) {
	if caller.DoctorID == nil {
		return nil, ErrForbidden
	}
	return s.repo.GetByID(ctx, *caller.DoctorID)
}

func (s *DoctorService) UpdateProfile(ctx context.Context, cmd *doctor.UpdateDoctorCommand, caller Caller) (*doctor.Doctor, error) {
	if caller.DoctorID == nil {
		return nil, ErrForbidden
	}

	if err := validateUpdateDoctorCommand(cmd); err != nil {
		return nil, err
	}

	d, err := s.repo.Update(ctx, *caller.DoctorID, cmd)
	if err != nil {
		s.log.Error("failed to update doctor profile", zap.Error(err))
		return nil, fmt.Errorf("updating doctor profile: %w", err)
	}

	s.log.Info("doctor profile updated", zap.String("doctor_id", d.ID.String()))
	return d, nil
}

func validateUpdateDoctorCommand(cmd *doctor.UpdateDoctorCommand) error {
	var errs []string

	if cmd.Name != nil && strings.TrimSpace(*cmd.Name) == "" {
		errs = append(errs, "name cannot be empty")
	}
	if cmd.Gender != nil && !cmd.Gender.IsValid() {
		errs = append(errs, "gender is invalid")
	}
	if cmd.PracticeStartYear != nil && *cmd.PracticeStartYear > time.Now().Year() {
		errs = append(errs, "practice_start_year cannot be in the future")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
