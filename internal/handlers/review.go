package handlers

import (
	"net/http"

	"movie-night-backend/internal/middleware"
	"movie-night-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

var reviewMessages = ErrorMessages{
	NotFound: "No such review",
	Conflict: "Review already exists",
}

// ReviewHandler handles movie review requests
type ReviewHandler struct {
	reviewService *services.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// ReviewRequest is the body of review create and edit requests
type ReviewRequest struct {
	Details string `json:"details"`
	Rating  int    `json:"rating"`
}

// ListReviews handles GET /movies/{movieId}/review
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	movieID, err := movieIDParam(r)
	if err != nil {
		respondServiceError(w, r, err, reviewMessages)
		return
	}
	reviews, err := h.reviewService.List(r.Context(), movieID)
	if err != nil {
		respondServiceError(w, r, err, reviewMessages)
		return
	}
	respondResults(w, "Retrieved list of reviews", reviews)
}

// CreateReview handles POST /movies/{movieId}/review as the authenticated principal
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	movieID, err := movieIDParam(r)
	if err != nil {
		respondServiceError(w, r, err, reviewMessages)
		return
	}
	var req ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, reviewMessages)
		return
	}

	review, err := h.reviewService.Create(r.Context(), services.ReviewInput{
		MovieID: movieID,
		UserID:  middleware.GetUserID(r.Context()),
		Details: req.Details,
		Rating:  req.Rating,
	})
	if err != nil {
		respondServiceError(w, r, err, reviewMessages)
		return
	}

	log.Info().Str("user_id", review.UserID).Int("movie_id", movieID).Msg("Review created")
	respondResult(w, http.StatusCreated, "Created review", review)
}

// GetReview handles GET /movies/{movieId}/review/{userId}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	movieID, err := movieIDParam(r)
	if err != nil {
		respondServiceError(w, r, err, reviewMessages)
		return
	}
	review, err := h.reviewService.Get(r.Context(), movieID, chi.URLParam(r, "userId"))
	if err != nil {
		respondServiceError(w, r, err, reviewMessages)
		return
	}
	respondResult(w, http.StatusOK, "Retrieved review", review)
}

// EditReview handles PATCH /movies/{movieId}/review/{userId}
func (h *ReviewHandler) EditReview(w http.ResponseWriter, r *http.Request) {
	movieID, err := movieIDParam(r)
	if err != nil {
		respondServiceError(w, r, err, reviewMessages)
		return
	}
	var req ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, reviewMessages)
		return
	}

	review, err := h.reviewService.Update(r.Context(), services.ReviewInput{
		MovieID: movieID,
		UserID:  chi.URLParam(r, "userId"),
		Details: req.Details,
		Rating:  req.Rating,
	})
	if err != nil {
		respondServiceError(w, r, err, reviewMessages)
		return
	}
	respondResult(w, http.StatusOK, "Edited review", review)
}

// DeleteReview handles DELETE /movies/{movieId}/review/{userId}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	movieID, err := movieIDParam(r)
	if err != nil {
		respondServiceError(w, r, err, reviewMessages)
		return
	}
	review, err := h.reviewService.Delete(r.Context(), movieID, chi.URLParam(r, "userId"))
	if err != nil {
		respondServiceError(w, r, err, reviewMessages)
		return
	}
	respondResult(w, http.StatusOK, "Deleted review", review)
}
