package ports

import (
	"context"

	"thinkwise/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user account operations
type UserRepository interface {
	// CreateUser creates a new user; duplicate email returns an
	// ALREADY_EXISTS-coded error
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by their ID
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// GetUserByEmail retrieves a user by email (case-insensitive)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdatePassword replaces the stored password hash
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// PasswordResetRepository stores single-use password reset grants
type PasswordResetRepository interface {
	// CreateReset stores a new reset grant (hashed token)
	CreateReset(ctx context.Context, reset *models.PasswordReset) error

	// GetByTokenHash looks up a grant by its token hash
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error)

	// MarkUsed consumes a grant so it cannot redeem twice
	MarkUsed(ctx context.Context, id uuid.UUID) error
}
