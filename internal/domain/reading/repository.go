package reading

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new reading.
	Create(ctx context.Context, r *Reading) error

	// GetByID retrieves a reading by primary key. Returns ErrReadingNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Reading, error)

	// ListByPatient returns a patient's readings, newest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Reading, error)

	// SoftDelete marks the reading as deleted. Readings are otherwise immutable.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
