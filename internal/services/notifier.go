package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"movie-night-backend/internal/metrics"
	"movie-night-backend/internal/models"

	"github.com/rs/zerolog/log"
)

const notifyTimeout = 10 * time.Second

// LiveSender delivers messages to connected users
type LiveSender interface {
	IsOnline(userID string) bool
	SendToUser(userID string, message WSMessage) error
}

// PushTokenSource looks up device tokens of users
type PushTokenSource interface {
	PushTokens(ctx context.Context, userIDs []string) (map[string]string, error)
}

// Notifier tells invited friends about committed schedule writes and
// publishes the matching event. Delivery runs in the background and never
// fails the write that triggered it.
type Notifier struct {
	live   LiveSender
	tokens PushTokenSource
	push   Pusher
	events EventPublisher
	wg     sync.WaitGroup
}

// NewNotifier creates a notifier. tokens, push and events may be nil.
func NewNotifier(live LiveSender, tokens PushTokenSource, push Pusher, events EventPublisher) *Notifier {
	return &Notifier{
		live:   live,
		tokens: tokens,
		push:   push,
		events: events,
	}
}

// ScheduleCreated notifies the invited friends of a new schedule
func (n *Notifier) ScheduleCreated(ctx context.Context, schedule *models.Schedule) {
	n.dispatch(ctx, ScheduleEvent{
		Type:     EventScheduleCreated,
		UserID:   schedule.UserID,
		ISODate:  schedule.ISODate,
		Schedule: schedule,
	}, WSTypeScheduleInvite, "New movie night", "You are invited to a movie night on %s")
}

// ScheduleRescheduled notifies the friends invited to the replacement schedule
func (n *Notifier) ScheduleRescheduled(ctx context.Context, previous time.Time, schedule *models.Schedule) {
	n.dispatch(ctx, ScheduleEvent{
		Type:            EventScheduleRescheduled,
		UserID:          schedule.UserID,
		ISODate:         schedule.ISODate,
		PreviousISODate: &previous,
		Schedule:        schedule,
	}, WSTypeScheduleUpdated, "Movie night moved", "A movie night you are invited to is now on %s")
}

// ScheduleDeleted notifies the friends that were invited to a deleted schedule
func (n *Notifier) ScheduleDeleted(ctx context.Context, schedule *models.Schedule) {
	n.dispatch(ctx, ScheduleEvent{
		Type:     EventScheduleDeleted,
		UserID:   schedule.UserID,
		ISODate:  schedule.ISODate,
		Schedule: schedule,
	}, WSTypeScheduleCancelled, "Movie night cancelled", "The movie night on %s was cancelled")
}

// Wait blocks until in-flight deliveries finish
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(ctx context.Context, event ScheduleEvent, wsType, title, bodyFormat string) {
	event.OccurredAt = time.Now().UTC()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		n.deliver(ctx, event, wsType, PushAlert{
			Title: title,
			Body:  fmt.Sprintf(bodyFormat, event.ISODate.Format(time.RFC1123)),
			Data: map[string]interface{}{
				"type":    wsType,
				"userId":  event.UserID,
				"isoDate": event.ISODate.Format(time.RFC3339),
				"movieId": event.Schedule.MovieID,
			},
		})
		n.publish(ctx, event)
	}()
}

func (n *Notifier) deliver(ctx context.Context, event ScheduleEvent, wsType string, alert PushAlert) {
	offline := []string{}
	for _, friendID := range distinct(event.Schedule.FriendIDs()) {
		if n.live != nil && n.live.IsOnline(friendID) {
			err := n.live.SendToUser(friendID, WSMessage{Type: wsType, Data: event.Schedule})
			if err == nil {
				metrics.NotificationsSent.WithLabelValues("websocket", "ok").Inc()
				continue
			}
			metrics.NotificationsSent.WithLabelValues("websocket", "error").Inc()
			log.Warn().Err(err).Str("user_id", friendID).Msg("Failed to send schedule notification")
		}
		offline = append(offline, friendID)
	}

	if len(offline) == 0 || n.push == nil || n.tokens == nil {
		return
	}
	tokens, err := n.tokens.PushTokens(ctx, offline)
	if err != nil {
		log.Error().Err(err).Str("schedule_id", event.Schedule.ID).Msg("Failed to load push tokens")
		return
	}
	for _, friendID := range offline {
		deviceToken, ok := tokens[friendID]
		if !ok {
			continue
		}
		if err := n.push.Push(ctx, deviceToken, alert); err != nil {
			metrics.NotificationsSent.WithLabelValues("apns", "error").Inc()
			log.Warn().Err(err).Str("user_id", friendID).Msg("Failed to push schedule notification")
			continue
		}
		metrics.NotificationsSent.WithLabelValues("apns", "ok").Inc()
	}
}

func (n *Notifier) publish(ctx context.Context, event ScheduleEvent) {
	if n.events == nil {
		return
	}
	if err := n.events.Publish(ctx, event); err != nil {
		metrics.NotificationsSent.WithLabelValues("amqp", "error").Inc()
		log.Error().Err(err).
			Str("type", event.Type).
			Str("schedule_id", event.Schedule.ID).
			Msg("Failed to publish schedule event")
		return
	}
	metrics.NotificationsSent.WithLabelValues("amqp", "ok").Inc()
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
