package repository

import (
	"context"

	"movie-night-backend/internal/models"
)

// BlockedUserRepository handles database operations for blocked users
type BlockedUserRepository struct {
	db DBTX
}

// NewBlockedUserRepository creates a new blocked user repository
func NewBlockedUserRepository(db DBTX) *BlockedUserRepository {
	return &BlockedUserRepository{db: db}
}

// Create blocks a user
func (r *BlockedUserRepository) Create(ctx context.Context, blocked *models.BlockedUser) error {
	query := `
		INSERT INTO blocked_users (id, user_id, blocked_user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, blocked.ID, blocked.UserID, blocked.BlockedUserID, blocked.CreatedAt)
	if err != nil {
		return wrapErr("create blocked user", err)
	}
	return nil
}

// ListByUserID retrieves the users blocked by a user
func (r *BlockedUserRepository) ListByUserID(ctx context.Context, userID string) ([]models.BlockedUser, error) {
	query := `
		SELECT id, user_id, blocked_user_id, created_at
		FROM blocked_users
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("list blocked users", err)
	}
	defer rows.Close()

	blocked := []models.BlockedUser{}
	for rows.Next() {
		var b models.BlockedUser
		if err := rows.Scan(&b.ID, &b.UserID, &b.BlockedUserID, &b.CreatedAt); err != nil {
			return nil, wrapErr("scan blocked user", err)
		}
		blocked = append(blocked, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate blocked users", err)
	}
	return blocked, nil
}

// Delete unblocks a user. Missing rows are not an error.
func (r *BlockedUserRepository) Delete(ctx context.Context, userID, blockedUserID string) (int64, error) {
	result, err := r.db.Exec(ctx,
		`DELETE FROM blocked_users WHERE user_id = $1 AND blocked_user_id = $2`, userID, blockedUserID)
	if err != nil {
		return 0, wrapErr("delete blocked user", err)
	}
	return result.RowsAffected(), nil
}
