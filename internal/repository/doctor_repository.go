package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartmed/smartmed-api/internal/domain/doctor"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) Create(ctx context.Context, d *doctor.Doctor) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return doctor.ErrDoctorAlreadyExists
		}
		return fmt.Errorf("creating doctor: %w", err)
	}
	return nil
}

func (r *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").First(&d, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("fetching doctor: %w", err)
	}
	return &d, nil
}

func (r *DoctorRepository) Update(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand) (*doctor.Doctor, error) {
	updates := map[string]any{}
	if cmd.Name != nil {
		updates["name"] = *cmd.Name
	}
	if cmd.Gender != nil {
		updates["gender"] = *cmd.Gender
	}
	if cmd.PracticeStartYear != nil {
		updates["practice_start_year"] = *cmd.PracticeStartYear
	}
	if cmd.Degree != nil {
		updates["degree"] = *cmd.Degree
	}
	if cmd.Speciality != nil {
		updates["speciality"] = *cmd.Speciality
	}
	if cmd.Email != nil {
		updates["email"] = *cmd.Email
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&doctor.Doctor{}).
			Where("id = ? AND deleted_at IS NULL", id).
			Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("updating doctor: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, doctor.ErrDoctorNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *DoctorRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&doctor.Doctor{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("NOW()"))
	if res.Error != nil {
		return fmt.Errorf("deleting doctor: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return doctor.ErrDoctorNotFound
	}
	return nil
}
