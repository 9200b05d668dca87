package services

import (
	"context"
	"time"

	"movie-night-backend/internal/models"
	"movie-night-backend/internal/validation"
)

const searchLimit = 20

// UserStore is the profile persistence used by UserService
type UserStore interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	SearchByDisplayName(ctx context.Context, query string, limit int) ([]models.User, error)
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	PushTokens(ctx context.Context, userIDs []string) (map[string]string, error)
}

// UserService handles user profiles
type UserService struct {
	userRepo UserStore
}

// NewUserService creates a new user service
func NewUserService(userRepo UserStore) *UserService {
	return &UserService{userRepo: userRepo}
}

// SaveProfileInput is the profile the principal registers or updates
type SaveProfileInput struct {
	UserID      string  `json:"userId" validate:"len=28"`
	DisplayName string  `json:"displayName" validate:"required,max=100"`
	PhotoURL    *string `json:"photoUrl" validate:"omitempty,url"`
}

type searchInput struct {
	Query string `json:"query" validate:"min=1,max=100"`
}

type pushTokenInput struct {
	UserID    string `json:"userId" validate:"len=28"`
	PushToken string `json:"pushToken" validate:"omitempty,hexadecimal,max=200"`
}

// SaveProfile creates the user or updates the existing profile
func (s *UserService) SaveProfile(ctx context.Context, in SaveProfileInput) (*models.User, error) {
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, invalid(err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:          in.UserID,
		DisplayName: in.DisplayName,
		PhotoURL:    in.PhotoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, classify(err)
	}
	return user, nil
}

// GetUser returns a profile
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if err := validation.ValidateStruct(&userKey{UserID: userID}); err != nil {
		return nil, invalid(err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return user, nil
}

// Search finds users whose display name contains query, case-insensitively
func (s *UserService) Search(ctx context.Context, query string) ([]models.User, error) {
	if err := validation.ValidateStruct(&searchInput{Query: query}); err != nil {
		return nil, invalid(err)
	}
	users, err := s.userRepo.SearchByDisplayName(ctx, query, searchLimit)
	if err != nil {
		return nil, classify(err)
	}
	return users, nil
}

// SetPushToken stores the APNs device token. An empty token clears it.
func (s *UserService) SetPushToken(ctx context.Context, userID, token string) error {
	if err := validation.ValidateStruct(&pushTokenInput{UserID: userID, PushToken: token}); err != nil {
		return invalid(err)
	}
	var value *string
	if token != "" {
		value = &token
	}
	if err := s.userRepo.UpdatePushToken(ctx, userID, value); err != nil {
		return classify(err)
	}
	return nil
}

// PushTokens returns the device tokens of the given users that have one
func (s *UserService) PushTokens(ctx context.Context, userIDs []string) (map[string]string, error) {
	tokens, err := s.userRepo.PushTokens(ctx, userIDs)
	if err != nil {
		return nil, classify(err)
	}
	return tokens, nil
}
