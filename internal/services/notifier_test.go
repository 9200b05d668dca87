package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"movie-night-backend/internal/models"
)

type fakeLive struct {
	mu     sync.Mutex
	online map[string]bool
	fail   map[string]bool
	sent   map[string][]WSMessage
}

func (f *fakeLive) IsOnline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

func (f *fakeLive) SendToUser(userID string, message WSMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[userID] {
		return errors.New("broken pipe")
	}
	if f.sent == nil {
		f.sent = map[string][]WSMessage{}
	}
	f.sent[userID] = append(f.sent[userID], message)
	return nil
}

type fakeTokens map[string]string

func (f fakeTokens) PushTokens(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, id := range ids {
		if tok, ok := f[id]; ok {
			out[id] = tok
		}
	}
	return out, nil
}

type fakePusher struct {
	mu     sync.Mutex
	tokens []string
	alerts []PushAlert
}

func (f *fakePusher) Push(_ context.Context, deviceToken string, alert PushAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, deviceToken)
	f.alerts = append(f.alerts, alert)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []ScheduleEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event ScheduleEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func testSchedule(friendIDs ...string) *models.Schedule {
	c, _ := newTestCoordinator()
	return c.newSchedule(user1, time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC), 42, friendIDs)
}

func TestNotifierPrefersWebSocket(t *testing.T) {
	live := &fakeLive{online: map[string]bool{friend1: true}}
	pusher := &fakePusher{}
	events := &fakePublisher{}
	n := NewNotifier(live, fakeTokens{friend1: "aa", friend2: "bb"}, pusher, events)

	n.ScheduleCreated(context.Background(), testSchedule(friend1, friend2, friend2))
	n.Wait()

	if got := live.sent[friend1]; len(got) != 1 || got[0].Type != WSTypeScheduleInvite {
		t.Fatalf("websocket messages = %+v", got)
	}
	if len(pusher.tokens) != 1 || pusher.tokens[0] != "bb" {
		t.Fatalf("pushed tokens = %v, want [bb]", pusher.tokens)
	}
	if len(events.events) != 1 || events.events[0].Type != EventScheduleCreated {
		t.Fatalf("events = %+v", events.events)
	}
}

func TestNotifierFallsBackToPushOnSendFailure(t *testing.T) {
	live := &fakeLive{online: map[string]bool{friend1: true}, fail: map[string]bool{friend1: true}}
	pusher := &fakePusher{}
	n := NewNotifier(live, fakeTokens{friend1: "aa"}, pusher, nil)

	n.ScheduleDeleted(context.Background(), testSchedule(friend1))
	n.Wait()

	if len(pusher.tokens) != 1 || pusher.tokens[0] != "aa" {
		t.Fatalf("pushed tokens = %v", pusher.tokens)
	}
	if pusher.alerts[0].Data["type"] != WSTypeScheduleCancelled {
		t.Fatalf("alert data = %+v", pusher.alerts[0].Data)
	}
}

func TestNotifierRescheduleEvent(t *testing.T) {
	events := &fakePublisher{err: errors.New("broker down")}
	n := NewNotifier(&fakeLive{}, nil, nil, events)
	previous := time.Date(2023, 12, 31, 20, 0, 0, 0, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	n.ScheduleRescheduled(ctx, previous, testSchedule())
	cancel()
	n.Wait()

	if len(events.events) != 1 {
		t.Fatalf("events = %+v", events.events)
	}
	ev := events.events[0]
	if ev.Type != EventScheduleRescheduled || ev.PreviousISODate == nil || !ev.PreviousISODate.Equal(previous) {
		t.Fatalf("event = %+v", ev)
	}
	if ev.OccurredAt.IsZero() {
		t.Fatal("event has no timestamp")
	}
}

func TestDistinctKeepsOrder(t *testing.T) {
	got := distinct([]string{"b", "a", "b", "c", "a"})
	if len(got) != 3 || got[0] != "b" || got[1] != "a" || got[2] != "c" {
		t.Fatalf("distinct() = %v", got)
	}
	if sort.StringsAreSorted(got) {
		t.Fatal("distinct() should not sort")
	}
}
