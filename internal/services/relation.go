package services

import (
	"context"
	"time"

	"movie-night-backend/internal/models"
	"movie-night-backend/internal/validation"

	"github.com/google/uuid"
)

// FriendStore is the persistence used by FriendService
type FriendStore interface {
	Create(ctx context.Context, friend *models.Friend) error
	ListByUserID(ctx context.Context, userID string) ([]models.Friend, error)
	Delete(ctx context.Context, userID, friendID string) (int64, error)
}

// BlockedUserStore is the persistence used by BlockService
type BlockedUserStore interface {
	Create(ctx context.Context, blocked *models.BlockedUser) error
	ListByUserID(ctx context.Context, userID string) ([]models.BlockedUser, error)
	Delete(ctx context.Context, userID, blockedUserID string) (int64, error)
}

type relationInput struct {
	UserID  string `json:"userId" validate:"len=28"`
	OtherID string `json:"otherId" validate:"len=28"`
}

// FriendService manages one-directional friend relations
type FriendService struct {
	store FriendStore
}

// NewFriendService creates a new friend service
func NewFriendService(store FriendStore) *FriendService {
	return &FriendService{store: store}
}

// List returns the user's friends
func (s *FriendService) List(ctx context.Context, userID string) ([]models.Friend, error) {
	if err := validation.ValidateStruct(&userKey{UserID: userID}); err != nil {
		return nil, invalid(err)
	}
	friends, err := s.store.ListByUserID(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return friends, nil
}

// Add records friendID as a friend of userID
func (s *FriendService) Add(ctx context.Context, userID, friendID string) (*models.Friend, error) {
	if err := validation.ValidateStruct(&relationInput{UserID: userID, OtherID: friendID}); err != nil {
		return nil, invalid(err)
	}
	friend := &models.Friend{
		ID:        uuid.NewString(),
		UserID:    userID,
		FriendID:  friendID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, friend); err != nil {
		return nil, classify(err)
	}
	return friend, nil
}

// Remove deletes the relation if present
func (s *FriendService) Remove(ctx context.Context, userID, friendID string) error {
	if err := validation.ValidateStruct(&relationInput{UserID: userID, OtherID: friendID}); err != nil {
		return invalid(err)
	}
	if _, err := s.store.Delete(ctx, userID, friendID); err != nil {
		return classify(err)
	}
	return nil
}

// BlockService manages the users a user has blocked
type BlockService struct {
	store BlockedUserStore
}

// NewBlockService creates a new block service
func NewBlockService(store BlockedUserStore) *BlockService {
	return &BlockService{store: store}
}

// List returns the users blocked by userID
func (s *BlockService) List(ctx context.Context, userID string) ([]models.BlockedUser, error) {
	if err := validation.ValidateStruct(&userKey{UserID: userID}); err != nil {
		return nil, invalid(err)
	}
	blocked, err := s.store.ListByUserID(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return blocked, nil
}

// Block records that userID blocked blockedUserID
func (s *BlockService) Block(ctx context.Context, userID, blockedUserID string) (*models.BlockedUser, error) {
	if err := validation.ValidateStruct(&relationInput{UserID: userID, OtherID: blockedUserID}); err != nil {
		return nil, invalid(err)
	}
	blocked := &models.BlockedUser{
		ID:            uuid.NewString(),
		UserID:        userID,
		BlockedUserID: blockedUserID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.Create(ctx, blocked); err != nil {
		return nil, classify(err)
	}
	return blocked, nil
}

// Unblock deletes the relation if present
func (s *BlockService) Unblock(ctx context.Context, userID, blockedUserID string) error {
	if err := validation.ValidateStruct(&relationInput{UserID: userID, OtherID: blockedUserID}); err != nil {
		return invalid(err)
	}
	if _, err := s.store.Delete(ctx, userID, blockedUserID); err != nil {
		return classify(err)
	}
	return nil
}
