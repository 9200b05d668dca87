package repository

import (
	"context"

	"movie-night-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// ReviewRepository handles database operations for movie reviews
type ReviewRepository struct {
	db DBTX
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, movie_id, user_id, details, rating, created_at, updated_at`

// Create creates a new review. One review per (movie, user).
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (id, movie_id, user_id, details, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	_, err := r.db.Exec(ctx, query,
		review.ID, review.MovieID, review.UserID, review.Details, review.Rating, review.CreatedAt,
	)
	if err != nil {
		return wrapErr("create review", err)
	}
	review.UpdatedAt = review.CreatedAt
	return nil
}

// ListByMovieID retrieves all reviews of a movie, oldest first
func (r *ReviewRepository) ListByMovieID(ctx context.Context, movieID int) ([]models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE movie_id = $1 ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, movieID)
	if err != nil {
		return nil, wrapErr("list reviews", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, wrapErr("scan review", err)
		}
		reviews = append(reviews, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate reviews", err)
	}
	return reviews, nil
}

// Get retrieves the review a user wrote for a movie
func (r *ReviewRepository) Get(ctx context.Context, movieID int, userID string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE movie_id = $1 AND user_id = $2`
	review, err := scanReview(r.db.QueryRow(ctx, query, movieID, userID))
	if err != nil {
		return nil, wrapErr("get review", err)
	}
	return review, nil
}

// Update replaces details and rating of an existing review
func (r *ReviewRepository) Update(ctx context.Context, movieID int, userID, details string, rating int) (*models.Review, error) {
	query := `
		UPDATE reviews SET details = $3, rating = $4, updated_at = now()
		WHERE movie_id = $1 AND user_id = $2
		RETURNING ` + reviewColumns
	review, err := scanReview(r.db.QueryRow(ctx, query, movieID, userID, details, rating))
	if err != nil {
		return nil, wrapErr("update review", err)
	}
	return review, nil
}

// Delete removes a review and returns it
func (r *ReviewRepository) Delete(ctx context.Context, movieID int, userID string) (*models.Review, error) {
	query := `DELETE FROM reviews WHERE movie_id = $1 AND user_id = $2 RETURNING ` + reviewColumns
	review, err := scanReview(r.db.QueryRow(ctx, query, movieID, userID))
	if err != nil {
		return nil, wrapErr("delete review", err)
	}
	return review, nil
}

func scanReview(row pgx.Row) (*models.Review, error) {
	var rv models.Review
	if err := row.Scan(&rv.ID, &rv.MovieID, &rv.UserID, &rv.Details, &rv.Rating, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
		return nil, err
	}
	return &rv, nil
}
