package repository

import (
	"context"
	"strings"

	"movie-night-backend/internal/models"
)

// UserRepository handles database operations for user profiles
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates the profile or refreshes its display name and photo
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, display_name, photo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    photo_url = EXCLUDED.photo_url,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, user.ID, user.DisplayName, user.PhotoURL, user.UpdatedAt).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return wrapErr("upsert user", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, display_name, photo_url, push_token, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.DisplayName, &user.PhotoURL, &user.PushToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("get user", err)
	}
	return &user, nil
}

// SearchByDisplayName returns users whose display name contains query, ignoring case
func (r *UserRepository) SearchByDisplayName(ctx context.Context, query string, limit int) ([]models.User, error) {
	sql := `
		SELECT id, display_name, photo_url, created_at, updated_at
		FROM users
		WHERE display_name <> '' AND strpos(lower(display_name), $1) > 0
		ORDER BY display_name, id
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, sql, strings.ToLower(query), limit)
	if err != nil {
		return nil, wrapErr("search users", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.DisplayName, &user.PhotoURL, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, wrapErr("scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate users", err)
	}
	return users, nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `UPDATE users SET push_token = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return wrapErr("update push token", err)
	}
	if result.RowsAffected() == 0 {
		return wrapErr("update push token", ErrNotFound)
	}
	return nil
}

// PushTokens returns the push tokens of the given users that have one registered
func (r *UserRepository) PushTokens(ctx context.Context, userIDs []string) (map[string]string, error) {
	query := `SELECT id, push_token FROM users WHERE id = ANY($1) AND push_token IS NOT NULL`
	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, wrapErr("get push tokens", err)
	}
	defer rows.Close()

	tokens := make(map[string]string)
	for rows.Next() {
		var id, token string
		if err := rows.Scan(&id, &token); err != nil {
			return nil, wrapErr("scan push token", err)
		}
		tokens[id] = token
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate push tokens", err)
	}
	return tokens, nil
}
