package repository

import (
	"context"

	"movie-night-backend/internal/models"
)

// UserMovieRepository handles the watchlist and watched history rows
type UserMovieRepository struct {
	db DBTX
}

// NewUserMovieRepository creates a new user movie repository
func NewUserMovieRepository(db DBTX) *UserMovieRepository {
	return &UserMovieRepository{db: db}
}

// Create inserts an entry. A user holds at most one entry per movie.
func (r *UserMovieRepository) Create(ctx context.Context, entry *models.UserMovie) error {
	query := `
		INSERT INTO user_movies (id, user_id, movie_id, watch_status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, entry.ID, entry.UserID, entry.MovieID, entry.WatchStatus, entry.CreatedAt)
	if err != nil {
		return wrapErr("create user movie", err)
	}
	return nil
}

// Exists reports whether the user has the movie with the given status
func (r *UserMovieRepository) Exists(ctx context.Context, userID string, movieID int, status string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM user_movies WHERE user_id = $1 AND movie_id = $2 AND watch_status = $3)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, movieID, status).Scan(&exists); err != nil {
		return false, wrapErr("check user movie", err)
	}
	return exists, nil
}

// ListByStatus retrieves a user's entries with the given status
func (r *UserMovieRepository) ListByStatus(ctx context.Context, userID, status string) ([]models.UserMovie, error) {
	query := `
		SELECT id, user_id, movie_id, watch_status, created_at
		FROM user_movies
		WHERE user_id = $1 AND watch_status = $2
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, userID, status)
	if err != nil {
		return nil, wrapErr("list user movies", err)
	}
	defer rows.Close()

	entries := []models.UserMovie{}
	for rows.Next() {
		var e models.UserMovie
		if err := rows.Scan(&e.ID, &e.UserID, &e.MovieID, &e.WatchStatus, &e.CreatedAt); err != nil {
			return nil, wrapErr("scan user movie", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate user movies", err)
	}
	return entries, nil
}

// DeleteByStatus removes the entry if it has the given status. Missing rows are not an error.
func (r *UserMovieRepository) DeleteByStatus(ctx context.Context, userID string, movieID int, status string) (int64, error) {
	query := `DELETE FROM user_movies WHERE user_id = $1 AND movie_id = $2 AND watch_status = $3`
	result, err := r.db.Exec(ctx, query, userID, movieID, status)
	if err != nil {
		return 0, wrapErr("delete user movie", err)
	}
	return result.RowsAffected(), nil
}
