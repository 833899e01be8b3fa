package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shelfmark/shelfmark/pkg/domain"
)

// ItemsRepository handles collection item persistence. Every query is
// scoped by owner; a user can never see or touch another user's shelf.
type ItemsRepository struct {
	db *sql.DB
}

// NewItemsRepository creates a new items repository.
func NewItemsRepository(db *sql.DB) *ItemsRepository {
	return &ItemsRepository{db: db}
}

// Create inserts a new item.
func (r *ItemsRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `
		INSERT INTO items (id, user_id, kind, title, year, rating, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.UserID, item.Kind, item.Title,
		item.Year, item.Rating, item.Notes,
		item.CreatedAt, item.UpdatedAt,
	)
	return err
}

// GetByID retrieves an item owned by userID.
func (r *ItemsRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Item, error) {
	query := `
		SELECT id, user_id, kind, title, year, rating, notes, created_at, updated_at
		FROM items
		WHERE id = $1 AND user_id = $2
	`
	item := &domain.Item{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&item.ID, &item.UserID, &item.Kind, &item.Title,
		&item.Year, &item.Rating, &item.Notes,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListByUser returns a user's items, newest first. kind filters to one
// category when non-empty.
func (r *ItemsRepository) ListByUser(ctx context.Context, userID uuid.UUID, kind domain.ItemKind) ([]*domain.Item, error) {
	query := `
		SELECT id, user_id, kind, title, year, rating, notes, created_at, updated_at
		FROM items
		WHERE user_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		item := &domain.Item{}
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Kind, &item.Title,
			&item.Year, &item.Rating, &item.Notes,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Update rewrites the mutable fields of an item owned by userID.
func (r *ItemsRepository) Update(ctx context.Context, item *domain.Item) error {
	query := `
		UPDATE items
		SET kind = $3, title = $4, year = $5, rating = $6, notes = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		item.ID, item.UserID, item.Kind, item.Title,
		item.Year, item.Rating, item.Notes, time.Now(),
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// Delete removes an item owned by userID.
func (r *ItemsRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM items WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}
