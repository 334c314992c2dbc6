package service

import (
	"github.com/google/uuid"

	"github.com/smartmed/smartmed-api/internal/domain"
)

// Caller identifies the authenticated principal behind a request. It is
// built from validated token claims plus request metadata and passed
// explicitly into every operation that needs authorization.
type Caller struct {
	UserID    uuid.UUID
	Role      domain.Role
	DoctorID  *uuid.UUID
	IP        string
	RequestID string
}

// CallerFromClaims pairs token claims with request metadata.
func CallerFromClaims(claims *domain.Claims, ip, requestID string) Caller {
	return Caller{
		UserID:    claims.UserID,
		Role:      claims.Role,
		DoctorID:  claims.DoctorID,
		IP:        ip,
		RequestID: requestID,
	}
}
