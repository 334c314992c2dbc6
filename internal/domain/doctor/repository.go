package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new doctor profile.
	Create(ctx context.Context, d *Doctor) error

	// GetByID retrieves a doctor by primary key. Returns ErrDoctorNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// Update applies partial updates to an existing doctor profile.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateDoctorCommand) (*Doctor, error)

	// SoftDelete marks the doctor profile as deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
