package services

import (
	"context"
	"fmt"
	"time"

	"movie-night-backend/internal/models"
	"movie-night-backend/internal/validation"

	"github.com/google/uuid"
)

// Returned by WatchService.Add when the movie already sits in the other list.
// Both match ErrConflict.
var (
	ErrInWatched   = fmt.Errorf("%w: already added in watched movies", ErrConflict)
	ErrInWatchList = fmt.Errorf("%w: already added in watchlist", ErrConflict)
)

// WatchStore is the persistence used by WatchService
type WatchStore interface {
	Create(ctx context.Context, entry *models.UserMovie) error
	Exists(ctx context.Context, userID string, movieID int, status string) (bool, error)
	ListByStatus(ctx context.Context, userID, status string) ([]models.UserMovie, error)
	DeleteByStatus(ctx context.Context, userID string, movieID int, status string) (int64, error)
}

// WatchService manages a user's watchlist and watched history
type WatchService struct {
	store WatchStore
}

// NewWatchService creates a new watch service
func NewWatchService(store WatchStore) *WatchService {
	return &WatchService{store: store}
}

type watchEntryInput struct {
	UserID      string `json:"userId" validate:"len=28"`
	WatchStatus string `json:"watchStatus" validate:"oneof=WatchList Watched"`
}

// List returns the user's entries with status
func (s *WatchService) List(ctx context.Context, userID, status string) ([]models.UserMovie, error) {
	if err := validation.ValidateStruct(&watchEntryInput{UserID: userID, WatchStatus: status}); err != nil {
		return nil, invalid(err)
	}
	entries, err := s.store.ListByStatus(ctx, userID, status)
	if err != nil {
		return nil, classify(err)
	}
	return entries, nil
}

// Add puts movieID in the list named by status. A movie is either on the
// watchlist or watched, never both.
func (s *WatchService) Add(ctx context.Context, userID string, movieID int, status string) (*models.UserMovie, error) {
	if err := validation.ValidateStruct(&watchEntryInput{UserID: userID, WatchStatus: status}); err != nil {
		return nil, invalid(err)
	}

	other, otherErr := models.WatchStatusWatched, ErrInWatched
	if status == models.WatchStatusWatched {
		other, otherErr = models.WatchStatusWatchList, ErrInWatchList
	}
	exists, err := s.store.Exists(ctx, userID, movieID, other)
	if err != nil {
		return nil, classify(err)
	}
	if exists {
		return nil, otherErr
	}

	entry := &models.UserMovie{
		ID:          uuid.NewString(),
		UserID:      userID,
		MovieID:     movieID,
		WatchStatus: status,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Create(ctx, entry); err != nil {
		return nil, classify(err)
	}
	return entry, nil
}

// Remove deletes the entry from the list named by status. Removing a missing entry succeeds.
func (s *WatchService) Remove(ctx context.Context, userID string, movieID int, status string) error {
	if err := validation.ValidateStruct(&watchEntryInput{UserID: userID, WatchStatus: status}); err != nil {
		return invalid(err)
	}
	if _, err := s.store.DeleteByStatus(ctx, userID, movieID, status); err != nil {
		return classify(err)
	}
	return nil
}
