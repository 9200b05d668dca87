package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"movie-night-backend/internal/models"
	"movie-night-backend/internal/repository"
	"movie-night-backend/internal/validation"
)

// memScheduleStore is a transactional in-memory ScheduleStore. A transaction
// works on a copy and swaps it in on success, holding the lock throughout.
type memScheduleStore struct {
	mu        sync.Mutex
	rows      []models.Schedule
	createErr error
}

type memScheduleTx struct {
	rows      *[]models.Schedule
	createErr error
}

func (m *memScheduleStore) Create(ctx context.Context, s *models.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memScheduleTx{rows: &m.rows, createErr: m.createErr}).Create(ctx, s)
}

func (m *memScheduleStore) GetByKey(_ context.Context, userID string, at time.Time) (*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.UserID == userID && s.ISODate.Equal(at) {
			c := cloneSchedule(s)
			return &c, nil
		}
	}
	return nil, fmt.Errorf("failed to get schedule: %w", repository.ErrNotFound)
}

func (m *memScheduleStore) ListByUserID(_ context.Context, userID string) ([]models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Schedule{}
	for _, s := range m.rows {
		if s.UserID == userID {
			out = append(out, cloneSchedule(s))
		}
	}
	return out, nil
}

func (m *memScheduleStore) Delete(ctx context.Context, userID string, at time.Time) (*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memScheduleTx{rows: &m.rows}).Delete(ctx, userID, at)
}

func (m *memScheduleStore) InTx(_ context.Context, fn func(tx repository.ScheduleWriter) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]models.Schedule, len(m.rows))
	for i, s := range m.rows {
		snapshot[i] = cloneSchedule(s)
	}
	if err := fn(&memScheduleTx{rows: &snapshot, createErr: m.createErr}); err != nil {
		return err
	}
	m.rows = snapshot
	return nil
}

func (t *memScheduleTx) Create(_ context.Context, s *models.Schedule) error {
	if t.createErr != nil {
		return t.createErr
	}
	for _, existing := range *t.rows {
		if existing.UserID == s.UserID && existing.ISODate.Equal(s.ISODate) {
			return fmt.Errorf("failed to create schedule: %w", repository.ErrConflict)
		}
	}
	*t.rows = append(*t.rows, cloneSchedule(*s))
	return nil
}

func (t *memScheduleTx) Delete(_ context.Context, userID string, at time.Time) (*models.Schedule, error) {
	for i, s := range *t.rows {
		if s.UserID == userID && s.ISODate.Equal(at) {
			*t.rows = append((*t.rows)[:i:i], (*t.rows)[i+1:]...)
			return &s, nil
		}
	}
	return nil, fmt.Errorf("failed to get schedule for delete: %w", repository.ErrNotFound)
}

func cloneSchedule(s models.Schedule) models.Schedule {
	s.ScheduleInvites = append([]models.ScheduleInvite(nil), s.ScheduleInvites...)
	return s
}

var (
	user1   = "u1" + strings.Repeat("x", 26)
	friend1 = "f1" + strings.Repeat("x", 26)
	friend2 = "f2" + strings.Repeat("x", 26)
)

const (
	jan1 = "2024-01-01T20:00:00Z"
	jan2 = "2024-01-02T20:00:00Z"
)

func newTestCoordinator() (*ScheduleCoordinator, *memScheduleStore) {
	store := &memScheduleStore{}
	c := NewScheduleCoordinator(store)
	c.now = func() time.Time { return time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC) }
	return c, store
}

func friendSet(s *models.Schedule) []string {
	ids := s.FriendIDs()
	sort.Strings(ids)
	return ids
}

func TestCreateThenGet(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	created, err := c.Create(ctx, CreateScheduleInput{
		UserID: user1, ISODate: jan1, MovieID: 42, InvitedFriendIDs: []string{friend2, friend1},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" || len(created.ScheduleInvites) != 2 {
		t.Fatalf("unexpected created schedule: %+v", created)
	}
	for _, inv := range created.ScheduleInvites {
		if inv.ScheduleID != created.ID || inv.ID == "" {
			t.Fatalf("invite not linked to schedule: %+v", inv)
		}
	}

	got, err := c.Get(ctx, user1, jan1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != created.ID || got.MovieID != 42 || got.UserID != user1 {
		t.Fatalf("Get() = %+v, want %+v", got, created)
	}
	if want := []string{friend1, friend2}; fmt.Sprint(friendSet(got)) != fmt.Sprint(want) {
		t.Fatalf("invites = %v, want %v", friendSet(got), want)
	}
}

func TestCreateNormalizesInstant(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	created, err := c.Create(ctx, CreateScheduleInput{UserID: user1, ISODate: "2024-01-01T22:00:00.750+02:00", MovieID: 1})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	want := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	if !created.ISODate.Equal(want) || created.ISODate.Location() != time.UTC {
		t.Fatalf("ISODate = %v, want %v", created.ISODate, want)
	}

	// Same instant written with another offset addresses the same schedule
	if _, err := c.Get(ctx, user1, jan1); err != nil {
		t.Fatalf("Get() with equivalent instant error = %v", err)
	}
}

func TestCreateKeepsDuplicateAndEmptyInvites(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	dup, err := c.Create(ctx, CreateScheduleInput{UserID: user1, ISODate: jan1, MovieID: 1, InvitedFriendIDs: []string{friend1, friend1}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(dup.ScheduleInvites) != 2 {
		t.Fatalf("expected duplicate invites kept, got %d", len(dup.ScheduleInvites))
	}

	empty, err := c.Create(ctx, CreateScheduleInput{UserID: user1, ISODate: jan2, MovieID: 1})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if empty.ScheduleInvites == nil || len(empty.ScheduleInvites) != 0 {
		t.Fatalf("expected empty invite set, got %#v", empty.ScheduleInvites)
	}
}

func TestCreateConflictLeavesOriginal(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	if _, err := c.Create(ctx, CreateScheduleInput{UserID: user1, ISODate: jan1, MovieID: 42, InvitedFriendIDs: []string{friend1}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := c.Create(ctx, CreateScheduleInput{UserID: user1, ISODate: jan1, MovieID: 99})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second Create() error = %v, want ErrConflict", err)
	}
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("store cause lost: %v", err)
	}

	got, err := c.Get(ctx, user1, jan1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.MovieID != 42 || len(got.ScheduleInvites) != 1 {
		t.Fatalf("original schedule changed: %+v", got)
	}
}

func TestValidationFailsBeforeStore(t *testing.T) {
	c, store := newTestCoordinator()
	store.createErr = errors.New("store must not be reached")
	ctx := context.Background()

	cases := []struct {
		name string
		run  func() error
	}{
		{"create short user", func() error {
			_, err := c.Create(ctx, CreateScheduleInput{UserID: "u1", ISODate: jan1})
			return err
		}},
		{"create no offset", func() error {
			_, err := c.Create(ctx, CreateScheduleInput{UserID: user1, ISODate: "2024-01-01T20:00:00"})
			return err
		}},
		{"create bad friend", func() error {
			_, err := c.Create(ctx, CreateScheduleInput{UserID: user1, ISODate: jan1, InvitedFriendIDs: []string{"nope"}})
			return err
		}},
		{"get bad date", func() error {
			_, err := c.Get(ctx, user1, "yesterday")
			return err
		}},
		{"list bad user", func() error {
			_, err := c.List(ctx, "")
			return err
		}},
		{"reschedule bad new date", func() error {
			_, err := c.Reschedule(ctx, RescheduleInput{UserID: user1, ISODate: jan1, NewISODate: "2024-13-01T00:00:00Z"})
			return err
		}},
		{"delete bad user", func() error {
			_, err := c.Delete(ctx, strings.Repeat("a", 29), jan1)
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			var verr *validation.RequestValidationError
			if !errors.As(err, &verr) && !strings.Contains(err.Error(), "parsing time") {
				t.Fatalf("expected field details, got %v", err)
			}
		})
	}
}

func TestGetAndDeleteMissing(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	if _, err := c.Get(ctx, user1, jan1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if _, err := c.Delete(ctx, user1, jan1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestListReturnsOnlyUsersSchedules(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()
	other := "zz" + strings.Repeat("y", 26)

	for _, in := range []CreateScheduleInput{
		{UserID: user1, ISODate: jan1, MovieID: 1, InvitedFriendIDs: []string{friend1}},
		{UserID: other, ISODate: jan1, MovieID: 2},
		{UserID: user1, ISODate: jan2, MovieID: 3},
	} {
		if _, err := c.Create(ctx, in); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	list, err := c.List(ctx, user1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].MovieID != 1 || list[1].MovieID != 3 {
		t.Fatalf("List() = %+v", list)
	}
	if len(list[0].ScheduleInvites) != 1 {
		t.Fatalf("invites not loaded: %+v", list[0])
	}

	empty, err := c.List(ctx, friend2)
	if err != nil || len(empty) != 0 {
		t.Fatalf("List() for user without schedules = %v, %v", empty, err)
	}
}

func TestRescheduleMovesSchedule(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	if _, err := c.Create(ctx, CreateScheduleInput{UserID: user1, ISODate: jan1, MovieID: 42, InvitedFriendIDs: []string{friend1}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	replacement, err := c.Reschedule(ctx, RescheduleInput{
		UserID: user1, ISODate: jan1, NewISODate: jan2, MovieID: 100, InvitedFriendIDs: []string{},
	})
	if err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}

	if _, err := c.Get(ctx, user1, jan1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old slot: error = %v, want ErrNotFound", err)
	}
	got, err := c.Get(ctx, user1, jan2)
	if err != nil {
		t.Fatalf("Get(new) error = %v", err)
	}
	if got.MovieID != 100 || len(got.ScheduleInvites) != 0 || got.ID != replacement.ID {
		t.Fatalf("new slot = %+v", got)
	}
}

func TestRescheduleConflictRollsBack(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	for _, in := range []CreateScheduleInput{
		{UserID: user1, ISODate: jan1, MovieID: 42, InvitedFriendIDs: []string{friend1}},
		{UserID: user1, ISODate: jan2, MovieID: 7},
	} {
		if _, err := c.Create(ctx, in); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	_, err := c.Reschedule(ctx, RescheduleInput{UserID: user1, ISODate: jan1, NewISODate: jan2, MovieID: 100})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Reschedule() error = %v, want ErrConflict", err)
	}

	original, err := c.Get(ctx, user1, jan1)
	if err != nil {
		t.Fatalf("original schedule lost: %v", err)
	}
	if original.MovieID != 42 || len(original.ScheduleInvites) != 1 {
		t.Fatalf("original schedule changed: %+v", original)
	}
	other, err := c.Get(ctx, user1, jan2)
	if err != nil || other.MovieID != 7 {
		t.Fatalf("colliding schedule changed: %+v, %v", other, err)
	}
}

func TestRescheduleMissing(t *testing.T) {
	c, _ := newTestCoordinator()
	_, err := c.Reschedule(context.Background(), RescheduleInput{UserID: user1, ISODate: jan1, NewISODate: jan2, MovieID: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Reschedule() error = %v, want ErrNotFound", err)
	}
}

func TestRescheduleSameInstantReplacesContent(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	first, err := c.Create(ctx, CreateScheduleInput{UserID: user1, ISODate: jan1, MovieID: 42, InvitedFriendIDs: []string{friend1}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := c.Reschedule(ctx, RescheduleInput{
		UserID: user1, ISODate: jan1, NewISODate: jan1, MovieID: 43, InvitedFriendIDs: []string{friend2, friend2},
	}); err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}

	got, err := c.Get(ctx, user1, jan1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.MovieID != 43 || got.ID == first.ID {
		t.Fatalf("schedule not replaced: %+v", got)
	}
	if fmt.Sprint(friendSet(got)) != fmt.Sprint([]string{friend2, friend2}) {
		t.Fatalf("invites = %v", friendSet(got))
	}
}

func TestRescheduleStoreFailureRollsBack(t *testing.T) {
	c, store := newTestCoordinator()
	ctx := context.Background()

	if _, err := c.Create(ctx, CreateScheduleInput{UserID: user1, ISODate: jan1, MovieID: 42}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	store.createErr = errors.New("connection reset")

	_, err := c.Reschedule(ctx, RescheduleInput{UserID: user1, ISODate: jan1, NewISODate: jan1, MovieID: 43})
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("Reschedule() error = %v, want ErrUnknown", err)
	}
	store.createErr = nil

	got, err := c.Get(ctx, user1, jan1)
	if err != nil || got.MovieID != 42 {
		t.Fatalf("self-reschedule lost data: %+v, %v", got, err)
	}
}

func TestDeleteCascadesInvites(t *testing.T) {
	c, store := newTestCoordinator()
	ctx := context.Background()

	if _, err := c.Create(ctx, CreateScheduleInput{UserID: user1, ISODate: jan1, MovieID: 42, InvitedFriendIDs: []string{friend1, friend2}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	deleted, err := c.Delete(ctx, user1, jan1)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted.MovieID != 42 || len(deleted.ScheduleInvites) != 2 {
		t.Fatalf("Delete() returned %+v", deleted)
	}
	if _, err := c.Get(ctx, user1, jan1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after delete error = %v", err)
	}
	list, _ := c.List(ctx, user1)
	if len(list) != 0 || len(store.rows) != 0 {
		t.Fatalf("schedule or invites still reachable: %+v", list)
	}
}

func TestConcurrentCreateSameSlot(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(movieID int) {
			defer wg.Done()
			_, err := c.Create(ctx, CreateScheduleInput{UserID: user1, ISODate: jan1, MovieID: movieID})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != workers-1 {
		t.Fatalf("ok=%d conflicts=%d", ok, conflicts)
	}
}

func TestRescheduleNeverExposesGap(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	if _, err := c.Create(ctx, CreateScheduleInput{UserID: user1, ISODate: jan1, MovieID: 1}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	done := make(chan struct{})
	gaps := make(chan string, 1)
	go func() {
		defer close(done)
		from, to := jan1, jan2
		for i := 0; i < 200; i++ {
			if _, err := c.Reschedule(ctx, RescheduleInput{UserID: user1, ISODate: from, NewISODate: to, MovieID: i}); err != nil {
				gaps <- err.Error()
				return
			}
			from, to = to, from
		}
	}()

	for {
		select {
		case <-done:
			select {
			case msg := <-gaps:
				t.Fatalf("reschedule failed: %s", msg)
			default:
			}
			return
		default:
		}
		list, err := c.List(ctx, user1)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("observed %d schedules during reschedule", len(list))
		}
	}
}
