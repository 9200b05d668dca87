package handlers

import (
	"fmt"
	"net/http"

	"movie-night-backend/internal/models"
	"movie-night-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// WatchHandler serves both the watchlist and the watched history. Status
// selects which one.
type WatchHandler struct {
	watchService *services.WatchService
	status       string
	label        string
	messages     ErrorMessages
}

// NewWatchListHandler creates the handler for /users/{userId}/watchlist
func NewWatchListHandler(watchService *services.WatchService) *WatchHandler {
	return &WatchHandler{
		watchService: watchService,
		status:       models.WatchStatusWatchList,
		label:        "watchlist",
		messages:     ErrorMessages{Conflict: "Watchlist entry already exists"},
	}
}

// NewWatchedHandler creates the handler for /users/{userId}/watched
func NewWatchedHandler(watchService *services.WatchService) *WatchHandler {
	return &WatchHandler{
		watchService: watchService,
		status:       models.WatchStatusWatched,
		label:        "watched",
		messages:     ErrorMessages{Conflict: "Watched entry already exists"},
	}
}

// WatchRequest is the body of add requests
type WatchRequest struct {
	MovieID MovieID `json:"movieId"`
}

// List handles GET
func (h *WatchHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.watchService.List(r.Context(), chi.URLParam(r, "userId"), h.status)
	if err != nil {
		respondServiceError(w, r, err, h.messages)
		return
	}
	respondResults(w, fmt.Sprintf("Retrieved %s entries", h.label), entries)
}

// Add handles POST
func (h *WatchHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req WatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, h.messages)
		return
	}
	entry, err := h.watchService.Add(r.Context(), chi.URLParam(r, "userId"), int(req.MovieID), h.status)
	if err != nil {
		respondServiceError(w, r, err, h.messages)
		return
	}
	respondResult(w, http.StatusCreated, fmt.Sprintf("Created %s entry", h.label), entry)
}

// Remove handles DELETE /{movieId}
func (h *WatchHandler) Remove(w http.ResponseWriter, r *http.Request) {
	movieID, err := movieIDParam(r)
	if err != nil {
		respondServiceError(w, r, err, h.messages)
		return
	}
	if err := h.watchService.Remove(r.Context(), chi.URLParam(r, "userId"), movieID, h.status); err != nil {
		respondServiceError(w, r, err, h.messages)
		return
	}
	respondJSON(w, http.StatusOK, Response{Message: fmt.Sprintf("Removed %s entry", h.label)})
}
