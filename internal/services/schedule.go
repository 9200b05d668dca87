package services

import (
	"context"
	"errors"
	"time"

	"movie-night-backend/internal/metrics"
	"movie-night-backend/internal/models"
	"movie-night-backend/internal/repository"
	"movie-night-backend/internal/validation"

	"github.com/google/uuid"
)

// ScheduleStore is the persistence the coordinator depends on.
// *repository.ScheduleRepository implements it against PostgreSQL.
type ScheduleStore interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	GetByKey(ctx context.Context, userID string, at time.Time) (*models.Schedule, error)
	ListByUserID(ctx context.Context, userID string) ([]models.Schedule, error)
	Delete(ctx context.Context, userID string, at time.Time) (*models.Schedule, error)
	InTx(ctx context.Context, fn func(tx repository.ScheduleWriter) error) error
}

// ScheduleCoordinator owns the rule that a user holds at most one schedule per
// instant and that a reschedule replaces a schedule and its invites atomically.
// It keeps no state between calls; concurrent requests serialize in the store.
type ScheduleCoordinator struct {
	store ScheduleStore
	now   func() time.Time
}

// NewScheduleCoordinator creates a coordinator over the given store
func NewScheduleCoordinator(store ScheduleStore) *ScheduleCoordinator {
	return &ScheduleCoordinator{
		store: store,
		now:   time.Now,
	}
}

// CreateScheduleInput is the input of Create. Duplicate friend ids are kept.
type CreateScheduleInput struct {
	UserID           string   `json:"userId" validate:"len=28"`
	ISODate          string   `json:"isoDate" validate:"required,isodate"`
	MovieID          int      `json:"movieId"`
	InvitedFriendIDs []string `json:"invitedFriendIds" validate:"dive,len=28"`
}

// RescheduleInput is the input of Reschedule. NewISODate may equal ISODate.
type RescheduleInput struct {
	UserID           string   `json:"userId" validate:"len=28"`
	ISODate          string   `json:"isoDate" validate:"required,isodate"`
	NewISODate       string   `json:"newIsoDate" validate:"required,isodate"`
	MovieID          int      `json:"movieId"`
	InvitedFriendIDs []string `json:"invitedFriendIds" validate:"dive,len=28"`
}

type scheduleKey struct {
	UserID  string `json:"userId" validate:"len=28"`
	ISODate string `json:"isoDate" validate:"required,isodate"`
}

type userKey struct {
	UserID string `json:"userId" validate:"len=28"`
}

// Create inserts a schedule with one invite per friend id
func (c *ScheduleCoordinator) Create(ctx context.Context, in CreateScheduleInput) (schedule *models.Schedule, err error) {
	defer observe("create", &err)

	if err := validation.ValidateStruct(&in); err != nil {
		return nil, invalid(err)
	}
	at, err := ParseISODate(in.ISODate)
	if err != nil {
		return nil, invalid(err)
	}

	schedule = c.newSchedule(in.UserID, at, in.MovieID, in.InvitedFriendIDs)
	if err := c.store.Create(ctx, schedule); err != nil {
		return nil, classify(err)
	}
	return schedule, nil
}

// Get fetches one schedule with its invites
func (c *ScheduleCoordinator) Get(ctx context.Context, userID, isoDate string) (schedule *models.Schedule, err error) {
	defer observe("get", &err)

	at, err := parseKey(userID, isoDate)
	if err != nil {
		return nil, err
	}
	schedule, err = c.store.GetByKey(ctx, userID, at)
	if err != nil {
		return nil, classify(err)
	}
	return schedule, nil
}

// List returns every schedule of the user with invites
func (c *ScheduleCoordinator) List(ctx context.Context, userID string) (schedules []models.Schedule, err error) {
	defer observe("list", &err)

	if err := validation.ValidateStruct(&userKey{UserID: userID}); err != nil {
		return nil, invalid(err)
	}
	schedules, err = c.store.ListByUserID(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return schedules, nil
}

// Reschedule deletes the schedule at ISODate (invites cascade) and creates the
// replacement at NewISODate in one transaction. If the replacement collides
// with another schedule, the delete is rolled back and ErrConflict returned.
func (c *ScheduleCoordinator) Reschedule(ctx context.Context, in RescheduleInput) (schedule *models.Schedule, err error) {
	defer observe("reschedule", &err)

	if err := validation.ValidateStruct(&in); err != nil {
		return nil, invalid(err)
	}
	oldAt, err := ParseISODate(in.ISODate)
	if err != nil {
		return nil, invalid(err)
	}
	newAt, err := ParseISODate(in.NewISODate)
	if err != nil {
		return nil, invalid(err)
	}

	replacement := c.newSchedule(in.UserID, newAt, in.MovieID, in.InvitedFriendIDs)
	err = c.store.InTx(ctx, func(tx repository.ScheduleWriter) error {
		if _, err := tx.Delete(ctx, in.UserID, oldAt); err != nil {
			return err
		}
		return tx.Create(ctx, replacement)
	})
	if err != nil {
		return nil, classify(err)
	}
	return replacement, nil
}

// Delete removes a schedule and its invites, returning what was removed
func (c *ScheduleCoordinator) Delete(ctx context.Context, userID, isoDate string) (schedule *models.Schedule, err error) {
	defer observe("delete", &err)

	at, err := parseKey(userID, isoDate)
	if err != nil {
		return nil, err
	}
	schedule, err = c.store.Delete(ctx, userID, at)
	if err != nil {
		return nil, classify(err)
	}
	return schedule, nil
}

func (c *ScheduleCoordinator) newSchedule(userID string, at time.Time, movieID int, friendIDs []string) *models.Schedule {
	now := c.now().UTC()
	schedule := &models.Schedule{
		ID:              uuid.NewString(),
		UserID:          userID,
		ISODate:         at,
		MovieID:         movieID,
		CreatedAt:       now,
		ScheduleInvites: make([]models.ScheduleInvite, 0, len(friendIDs)),
	}
	for _, friendID := range friendIDs {
		schedule.ScheduleInvites = append(schedule.ScheduleInvites, models.ScheduleInvite{
			ID:         uuid.NewString(),
			ScheduleID: schedule.ID,
			FriendID:   friendID,
			CreatedAt:  now,
		})
	}
	return schedule
}

// ParseISODate parses an RFC 3339 instant with offset, normalized to UTC at second precision
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().Truncate(time.Second), nil
}

func parseKey(userID, isoDate string) (time.Time, error) {
	if err := validation.ValidateStruct(&scheduleKey{UserID: userID, ISODate: isoDate}); err != nil {
		return time.Time{}, invalid(err)
	}
	at, err := ParseISODate(isoDate)
	if err != nil {
		return time.Time{}, invalid(err)
	}
	return at, nil
}

func observe(operation string, err *error) {
	metrics.ScheduleOperations.WithLabelValues(operation, outcome(*err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
