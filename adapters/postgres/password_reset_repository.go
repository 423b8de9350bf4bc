package postgres

import (
	"context"
	"database/sql"
	"errors"

	apperrors "thinkwise/internal/errors"
	"thinkwise/models"
	"thinkwise/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PasswordResetRepositoryImpl implements PasswordResetRepository for PostgreSQL
type PasswordResetRepositoryImpl struct {
	db *sqlx.DB
}

// NewPasswordResetRepository creates a new PostgreSQL password reset repository
func NewPasswordResetRepository(db *sqlx.DB) ports.PasswordResetRepository {
	return &PasswordResetRepositoryImpl{db: db}
}

// CreateReset stores a new reset grant
func (r *PasswordResetRepositoryImpl) CreateReset(ctx context.Context, reset *models.PasswordReset) error {
	if reset.ID == uuid.Nil {
		reset.ID = uuid.New()
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO password_resets (id, user_id, token_hash, expires_at, created_at)
		VALUES (:id, :user_id, :token_hash, :expires_at, NOW())
	`, reset)
	return err
}

// GetByTokenHash looks up a grant by its token hash
func (r *PasswordResetRepositoryImpl) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	err := r.db.GetContext(ctx, &reset, `
		SELECT id, user_id, token_hash, expires_at, used_at, created_at
		FROM password_resets
		WHERE token_hash = $1
	`, tokenHash)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("password reset")
		}
		return nil, err
	}

	return &reset, nil
}

// MarkUsed consumes a grant so it cannot redeem twice
func (r *PasswordResetRepositoryImpl) MarkUsed(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE password_resets
		SET used_at = NOW()
		WHERE id = $1 AND used_at IS NULL
	`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("password reset")
	}

	return nil
}
