package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is a domain entity representing a system user. IsAdmin grants
// the bulk-delete and cross-owner mutation rights.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}
