package services

import (
	"context"
	"time"

	"movie-night-backend/internal/models"
	"movie-night-backend/internal/validation"

	"github.com/google/uuid"
)

// ReviewStore is the review persistence used by ReviewService
type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	ListByMovieID(ctx context.Context, movieID int) ([]models.Review, error)
	Get(ctx context.Context, movieID int, userID string) (*models.Review, error)
	Update(ctx context.Context, movieID int, userID, details string, rating int) (*models.Review, error)
	Delete(ctx context.Context, movieID int, userID string) (*models.Review, error)
}

// ReviewService handles movie reviews. A user writes at most one review per movie.
type ReviewService struct {
	reviewRepo ReviewStore
}

// NewReviewService creates a new review service
func NewReviewService(reviewRepo ReviewStore) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo}
}

// ReviewInput carries the writable fields of a review
type ReviewInput struct {
	MovieID int    `json:"movieId"`
	UserID  string `json:"userId" validate:"len=28"`
	Details string `json:"details" validate:"max=5000"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
}

type reviewKey struct {
	UserID string `json:"userId" validate:"len=28"`
}

// Create adds the review, or returns ErrConflict if the user already reviewed the movie
func (s *ReviewService) Create(ctx context.Context, in ReviewInput) (*models.Review, error) {
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, invalid(err)
	}

	review := &models.Review{
		ID:        uuid.NewString(),
		MovieID:   in.MovieID,
		UserID:    in.UserID,
		Details:   in.Details,
		Rating:    in.Rating,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, classify(err)
	}
	return review, nil
}

// List returns the reviews of a movie
func (s *ReviewService) List(ctx context.Context, movieID int) ([]models.Review, error) {
	reviews, err := s.reviewRepo.ListByMovieID(ctx, movieID)
	if err != nil {
		return nil, classify(err)
	}
	return reviews, nil
}

// Get returns the review userID wrote for movieID
func (s *ReviewService) Get(ctx context.Context, movieID int, userID string) (*models.Review, error) {
	if err := validation.ValidateStruct(&reviewKey{UserID: userID}); err != nil {
		return nil, invalid(err)
	}
	review, err := s.reviewRepo.Get(ctx, movieID, userID)
	if err != nil {
		return nil, classify(err)
	}
	return review, nil
}

// Update replaces details and rating of an existing review
func (s *ReviewService) Update(ctx context.Context, in ReviewInput) (*models.Review, error) {
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, invalid(err)
	}
	review, err := s.reviewRepo.Update(ctx, in.MovieID, in.UserID, in.Details, in.Rating)
	if err != nil {
		return nil, classify(err)
	}
	return review, nil
}

// Delete removes the review and returns it
func (s *ReviewService) Delete(ctx context.Context, movieID int, userID string) (*models.Review, error) {
	if err := validation.ValidateStruct(&reviewKey{UserID: userID}); err != nil {
		return nil, invalid(err)
	}
	review, err := s.reviewRepo.Delete(ctx, movieID, userID)
	if err != nil {
		return nil, classify(err)
	}
	return review, nil
}
