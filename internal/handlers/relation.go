package handlers

import (
	"net/http"

	"movie-night-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// FriendHandler handles friend requests
type FriendHandler struct {
	friendService *services.FriendService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// FriendRequest is the body of POST /users/{userId}/friend
type FriendRequest struct {
	FriendID string `json:"friendId"`
}

var friendMessages = ErrorMessages{Conflict: "Friend is already added"}

// ListFriends handles GET /users/{userId}/friend
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.friendService.List(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondServiceError(w, r, err, friendMessages)
		return
	}
	respondResults(w, "Retrieved friends", friends)
}

// AddFriend handles POST /users/{userId}/friend
func (h *FriendHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	var req FriendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, friendMessages)
		return
	}
	friend, err := h.friendService.Add(r.Context(), chi.URLParam(r, "userId"), req.FriendID)
	if err != nil {
		respondServiceError(w, r, err, friendMessages)
		return
	}
	respondResult(w, http.StatusCreated, "Added friend", friend)
}

// RemoveFriend handles DELETE /users/{userId}/friend/{friendId}
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	if err := h.friendService.Remove(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "friendId")); err != nil {
		respondServiceError(w, r, err, friendMessages)
		return
	}
	respondJSON(w, http.StatusOK, Response{Message: "Removed friend"})
}

// BlockedUserHandler handles blocked user requests
type BlockedUserHandler struct {
	blockService *services.BlockService
}

// NewBlockedUserHandler creates a new blocked user handler
func NewBlockedUserHandler(blockService *services.BlockService) *BlockedUserHandler {
	return &BlockedUserHandler{blockService: blockService}
}

// BlockRequest is the body of POST /users/{userId}/blocked
type BlockRequest struct {
	BlockedUserID string `json:"blockedUserId"`
}

var blockedMessages = ErrorMessages{Conflict: "User is already blocked"}

// ListBlocked handles GET /users/{userId}/blocked
func (h *BlockedUserHandler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	blocked, err := h.blockService.List(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondServiceError(w, r, err, blockedMessages)
		return
	}
	respondResults(w, "Retrieved blocked users", blocked)
}

// Block handles POST /users/{userId}/blocked
func (h *BlockedUserHandler) Block(w http.ResponseWriter, r *http.Request) {
	var req BlockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, blockedMessages)
		return
	}
	blocked, err := h.blockService.Block(r.Context(), chi.URLParam(r, "userId"), req.BlockedUserID)
	if err != nil {
		respondServiceError(w, r, err, blockedMessages)
		return
	}
	respondResult(w, http.StatusCreated, "Added blocked user", blocked)
}

// Unblock handles DELETE /users/{userId}/blocked/{blockedUserId}
func (h *BlockedUserHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	err := h.blockService.Unblock(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "blockedUserId"))
	if err != nil {
		respondServiceError(w, r, err, blockedMessages)
		return
	}
	respondJSON(w, http.StatusOK, Response{Message: "Removed blocked user"})
}
