package repository

import (
	"context"

	"movie-night-backend/internal/models"
)

// FriendRepository handles database operations for friend relations
type FriendRepository struct {
	db DBTX
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db DBTX) *FriendRepository {
	return &FriendRepository{db: db}
}

// Create adds a friend relation
func (r *FriendRepository) Create(ctx context.Context, friend *models.Friend) error {
	query := `
		INSERT INTO friends (id, user_id, friend_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, friend.ID, friend.UserID, friend.FriendID, friend.CreatedAt)
	if err != nil {
		return wrapErr("create friend", err)
	}
	return nil
}

// ListByUserID retrieves the friends of a user
func (r *FriendRepository) ListByUserID(ctx context.Context, userID string) ([]models.Friend, error) {
	query := `
		SELECT id, user_id, friend_id, created_at
		FROM friends
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("list friends", err)
	}
	defer rows.Close()

	friends := []models.Friend{}
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &f.CreatedAt); err != nil {
			return nil, wrapErr("scan friend", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate friends", err)
	}
	return friends, nil
}

// Delete removes a friend relation. Missing rows are not an error.
func (r *FriendRepository) Delete(ctx context.Context, userID, friendID string) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM friends WHERE user_id = $1 AND friend_id = $2`, userID, friendID)
	if err != nil {
		return 0, wrapErr("delete friend", err)
	}
	return result.RowsAffected(), nil
}
