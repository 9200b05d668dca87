package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"movie-night-backend/internal/models"
	"movie-night-backend/internal/services"
	"movie-night-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Schedules is the coordinator API the schedule routes use
type Schedules interface {
	Create(ctx context.Context, in services.CreateScheduleInput) (*models.Schedule, error)
	Get(ctx context.Context, userID, isoDate string) (*models.Schedule, error)
	List(ctx context.Context, userID string) ([]models.Schedule, error)
	Reschedule(ctx context.Context, in services.RescheduleInput) (*models.Schedule, error)
	Delete(ctx context.Context, userID, isoDate string) (*models.Schedule, error)
}

// ScheduleNotifier is told about committed schedule writes
type ScheduleNotifier interface {
	ScheduleCreated(ctx context.Context, schedule *models.Schedule)
	ScheduleRescheduled(ctx context.Context, previous time.Time, schedule *models.Schedule)
	ScheduleDeleted(ctx context.Context, schedule *models.Schedule)
}

var scheduleMessages = ErrorMessages{
	NotFound: "No such schedule",
	Conflict: "Schedule already exists",
}

// ScheduleHandler handles schedule requests
type ScheduleHandler struct {
	schedules Schedules
	notifier  ScheduleNotifier
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(schedules Schedules, notifier ScheduleNotifier) *ScheduleHandler {
	return &ScheduleHandler{
		schedules: schedules,
		notifier:  notifier,
	}
}

// ScheduleRequest is the body of create and reschedule requests. On reschedule
// ISODate is the new instant. Both movieId and invitedFriendIds must be
// present; an explicit empty list is accepted.
type ScheduleRequest struct {
	ISODate          string   `json:"isoDate"`
	MovieID          *MovieID `json:"movieId" validate:"required"`
	InvitedFriendIDs []string `json:"invitedFriendIds" validate:"required"`
}

func decodeScheduleRequest(w http.ResponseWriter, r *http.Request) (*ScheduleRequest, error) {
	var req ScheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", services.ErrValidation, err)
	}
	return &req, nil
}

// ListSchedules handles GET /users/{userId}/schedule
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.schedules.List(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondServiceError(w, r, err, scheduleMessages)
		return
	}
	respondResults(w, "Retrieved list of schedules", schedules)
}

// CreateSchedule handles POST /users/{userId}/schedule
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	req, err := decodeScheduleRequest(w, r)
	if err != nil {
		respondServiceError(w, r, err, scheduleMessages)
		return
	}

	schedule, err := h.schedules.Create(r.Context(), services.CreateScheduleInput{
		UserID:           chi.URLParam(r, "userId"),
		ISODate:          req.ISODate,
		MovieID:          int(*req.MovieID),
		InvitedFriendIDs: req.InvitedFriendIDs,
	})
	if err != nil {
		respondServiceError(w, r, err, scheduleMessages)
		return
	}

	log.Info().
		Str("user_id", schedule.UserID).
		Str("schedule_id", schedule.ID).
		Time("iso_date", schedule.ISODate).
		Int("invites", len(schedule.ScheduleInvites)).
		Msg("Schedule created")

	h.notifier.ScheduleCreated(r.Context(), schedule)
	respondResult(w, http.StatusCreated, "Created schedule", schedule)
}

// GetSchedule handles GET /users/{userId}/schedule/{isoDate}
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.schedules.Get(r.Context(), chi.URLParam(r, "userId"), isoDateParam(r))
	if err != nil {
		respondServiceError(w, r, err, scheduleMessages)
		return
	}
	respondResult(w, http.StatusOK, "Retrieved schedule", schedule)
}

// RescheduleSchedule handles PATCH /users/{userId}/schedule/{isoDate}
func (h *ScheduleHandler) RescheduleSchedule(w http.ResponseWriter, r *http.Request) {
	req, err := decodeScheduleRequest(w, r)
	if err != nil {
		respondServiceError(w, r, err, scheduleMessages)
		return
	}

	in := services.RescheduleInput{
		UserID:           chi.URLParam(r, "userId"),
		ISODate:          isoDateParam(r),
		NewISODate:       req.ISODate,
		MovieID:          int(*req.MovieID),
		InvitedFriendIDs: req.InvitedFriendIDs,
	}
	schedule, err := h.schedules.Reschedule(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err, scheduleMessages)
		return
	}

	previous, _ := services.ParseISODate(in.ISODate)
	log.Info().
		Str("user_id", schedule.UserID).
		Str("schedule_id", schedule.ID).
		Time("previous_iso_date", previous).
		Time("iso_date", schedule.ISODate).
		Msg("Schedule rescheduled")

	h.notifier.ScheduleRescheduled(r.Context(), previous, schedule)
	respondResult(w, http.StatusOK, "Edited schedule", schedule)
}

// DeleteSchedule handles DELETE /users/{userId}/schedule/{isoDate}
func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.schedules.Delete(r.Context(), chi.URLParam(r, "userId"), isoDateParam(r))
	if err != nil {
		respondServiceError(w, r, err, scheduleMessages)
		return
	}

	log.Info().
		Str("user_id", schedule.UserID).
		Str("schedule_id", schedule.ID).
		Msg("Schedule deleted")

	h.notifier.ScheduleDeleted(r.Context(), schedule)
	respondResult(w, http.StatusOK, "Deleted schedule", schedule)
}

func isoDateParam(r *http.Request) string {
	raw := chi.URLParam(r, "isoDate")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}
