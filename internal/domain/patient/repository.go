package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient record.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// Update applies partial updates to an existing patient record.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdatePatientCommand) (*Patient, error)

	// SetCured flips the cured flag. Scheduled follow-ups are cancelled by the caller.
	SetCured(ctx context.Context, id uuid.UUID, cured bool) error

	// SoftDelete marks the patient as deleted (retention requirement).
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// ListByDoctor returns all patients owned by a doctor, ordered by name.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error)

	// CountByDoctor returns how many non-deleted patients a doctor owns.
	CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error)
}
