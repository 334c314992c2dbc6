package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartmed/smartmed-api/internal/domain/reading"
)

type ReadingRepository struct {
	db *gorm.DB
}

func NewReadingRepository(db *gorm.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

func (r *ReadingRepository) Create(ctx context.Context, rec *reading.Reading) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("creating reading: %w", err)
	}
	return nil
}

func (r *ReadingRepository) GetByID(ctx context.Context, id uuid.UUID) (*reading.Reading, error) {
	var rec reading.Reading
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reading.ErrReadingNotFound
		}
		return nil, fmt.Errorf("fetching reading: %w", err)
	}
	return &rec, nil
}

func (r *ReadingRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*reading.Reading, error) {
	var readings []*reading.Reading
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND deleted_at IS NULL", patientID).
		Order("created_at DESC").
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("listing readings: %w", err)
	}
	return readings, nil
}

func (r *ReadingRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&reading.Reading{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("NOW()"))
	if res.Error != nil {
		return fmt.Errorf("deleting reading: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return reading.ErrReadingNotFound
	}
	return nil
}
