package report

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new report. Returns ErrReportAlreadyExists when the
	// source reading already has one.
	Create(ctx context.Context, r *Report) error

	// GetByID retrieves a report by primary key. Returns ErrReportNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)

	// GetByReadingID retrieves the report derived from a reading, if any.
	GetByReadingID(ctx context.Context, readingID uuid.UUID) (*Report, error)

	// ListByPatient returns a patient's reports, newest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Report, error)

	// SetFollowUp stores or clears the follow-up schedule metadata.
	SetFollowUp(ctx context.Context, id uuid.UUID, cmd *SetFollowUpCommand) error

	// SoftDelete marks the report as deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
