package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartmed/smartmed-api/internal/domain/report"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	if err := r.db.WithContext(ctx).Create(rep).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return report.ErrReportAlreadyExists
		}
		return fmt.Errorf("creating report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	var rep report.Report
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").First(&rep, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, report.ErrReportNotFound
		}
		return nil, fmt.Errorf("fetching report: %w", err)
	}
	return &rep, nil
}

func (r *ReportRepository) GetByReadingID(ctx context.Context, readingID uuid.UUID) (*report.Report, error) {
	var rep report.Report
	err := r.db.WithContext(ctx).
		Where("reading_id = ? AND deleted_at IS NULL", readingID).
		First(&rep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, report.ErrReportNotFound
		}
		return nil, fmt.Errorf("fetching report by reading: %w", err)
	}
	return &rep, nil
}

func (r *ReportRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*report.Report, error) {
	var reports []*report.Report
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND deleted_at IS NULL", patientID).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return reports, nil
}

func (r *ReportRepository) SetFollowUp(ctx context.Context, id uuid.UUID, cmd *report.SetFollowUpCommand) error {
	res := r.db.WithContext(ctx).Model(&report.Report{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{
			"follow_up_schedule": cmd.Schedule,
			"follow_up_job_id":   cmd.JobID,
		})
	if res.Error != nil {
		return fmt.Errorf("updating follow-up: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return report.ErrReportNotFound
	}
	return nil
}

func (r *ReportRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&report.Report{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("NOW()"))
	if res.Error != nil {
		return fmt.Errorf("deleting report: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return report.ErrReportNotFound
	}
	return nil
}
