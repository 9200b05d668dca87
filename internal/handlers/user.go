package handlers

import (
	"net/http"

	"movie-night-backend/internal/middleware"
	"movie-night-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

var userMessages = ErrorMessages{NotFound: "No such user"}

// UserHandler handles user profile requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// SaveProfileRequest is the body of POST /users
type SaveProfileRequest struct {
	DisplayName string  `json:"displayName"`
	PhotoURL    *string `json:"photoUrl"`
}

// PushTokenRequest is the body of PUT /users/{userId}/push-token
type PushTokenRequest struct {
	PushToken string `json:"pushToken"`
}

// SaveProfile handles POST /users for the authenticated principal
func (h *UserHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req SaveProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, userMessages)
		return
	}

	user, err := h.userService.SaveProfile(r.Context(), services.SaveProfileInput{
		UserID:      middleware.GetUserID(r.Context()),
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		respondServiceError(w, r, err, userMessages)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User profile saved")
	respondResult(w, http.StatusOK, "Saved user profile", user)
}

// GetUser handles GET /users/{userId}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondServiceError(w, r, err, userMessages)
		return
	}
	respondResult(w, http.StatusOK, "Retrieved user profile", user)
}

// SearchUsers handles GET /users/search/{query}
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.Search(r.Context(), chi.URLParam(r, "query"))
	if err != nil {
		respondServiceError(w, r, err, userMessages)
		return
	}
	respondResults(w, "Retrieved matching user profiles", users)
}

// UpdatePushToken handles PUT /users/{userId}/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	var req PushTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, userMessages)
		return
	}

	userID := chi.URLParam(r, "userId")
	if err := h.userService.SetPushToken(r.Context(), userID, req.PushToken); err != nil {
		respondServiceError(w, r, err, userMessages)
		return
	}

	log.Info().Str("user_id", userID).Msg("Push token updated")
	respondJSON(w, http.StatusOK, Response{Message: "Updated push token"})
}
