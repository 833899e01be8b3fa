package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/shelfmark/shelfmark/pkg/domain"
)

// VerificationTokensRepository handles single-use token persistence. It
// implements auth.TokenStore.
type VerificationTokensRepository struct {
	db *sql.DB
}

// NewVerificationTokensRepository creates a new verification tokens repository.
func NewVerificationTokensRepository(db *sql.DB) *VerificationTokensRepository {
	return &VerificationTokensRepository{db: db}
}

// Create inserts a new token.
func (r *VerificationTokensRepository) Create(ctx context.Context, token *domain.VerificationToken) error {
	query := `
		INSERT INTO verification_tokens (id, user_id, token_hash, kind, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.TokenHash, token.Kind,
		token.CreatedAt, token.ExpiresAt,
	)
	return err
}

// GetByTokenHash retrieves a token of the given kind by hash.
func (r *VerificationTokensRepository) GetByTokenHash(ctx context.Context, tokenHash string, kind domain.VerificationTokenKind) (*domain.VerificationToken, error) {
	query := `
		SELECT id, user_id, token_hash, kind, created_at, expires_at, consumed_at
		FROM verification_tokens
		WHERE token_hash = $1 AND kind = $2
	`
	token := &domain.VerificationToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash, kind).Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.Kind,
		&token.CreatedAt, &token.ExpiresAt, &token.ConsumedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVerificationTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

// MarkConsumed stamps the token's consumption time. Only the first call
// wins; a consumed token stays consumed.
func (r *VerificationTokensRepository) MarkConsumed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE verification_tokens
		SET consumed_at = NOW()
		WHERE id = $1 AND consumed_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrVerificationTokenConsumed
	}
	return nil
}

// RevokeActive consumes every outstanding token of the kind for a user,
// so issuing a new token invalidates older ones.
func (r *VerificationTokensRepository) RevokeActive(ctx context.Context, userID uuid.UUID, kind domain.VerificationTokenKind) error {
	query := `
		UPDATE verification_tokens
		SET consumed_at = NOW()
		WHERE user_id = $1 AND kind = $2 AND consumed_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, userID, kind)
	return err
}
