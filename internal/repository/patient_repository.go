package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartmed/smartmed-api/internal/domain/patient"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("creating patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("fetching patient: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) Update(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	updates := map[string]any{}
	if cmd.Name != nil {
		updates["name"] = *cmd.Name
	}
	if cmd.Gender != nil {
		updates["gender"] = *cmd.Gender
	}
	if cmd.Phone != nil {
		updates["phone"] = *cmd.Phone
	}
	if cmd.Email != nil {
		updates["email"] = *cmd.Email
	}
	if cmd.BloodGroup != nil {
		updates["blood_group"] = *cmd.BloodGroup
	}
	if cmd.SmokingStatus != nil {
		updates["smoking_status"] = *cmd.SmokingStatus
	}
	if cmd.MedicalHistory != nil {
		updates["medical_history"] = *cmd.MedicalHistory
	}
	if cmd.Allergies != nil {
		updates["allergies"] = patient.JoinAllergies(*cmd.Allergies)
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&patient.Patient{}).
			Where("id = ? AND deleted_at IS NULL", id).
			Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("updating patient: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, patient.ErrPatientNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *PatientRepository) SetCured(ctx context.Context, id uuid.UUID, cured bool) error {
	res := r.db.WithContext(ctx).Model(&patient.Patient{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("cured", cured)
	if res.Error != nil {
		return fmt.Errorf("updating cured flag: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&patient.Patient{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("NOW()"))
	if res.Error != nil {
		return fmt.Errorf("deleting patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*patient.Patient, error) {
	var patients []*patient.Patient
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND deleted_at IS NULL", doctorID).
		Order("name ASC").
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	return patients, nil
}

func (r *PatientRepository) CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&patient.Patient{}).
		Where("doctor_id = ? AND deleted_at IS NULL", doctorID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting patients: %w", err)
	}
	return count, nil
}
