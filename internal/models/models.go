package models

import "time"

// Watch statuses stored on UserMovie rows
const (
	WatchStatusWatchList = "WatchList"
	WatchStatusWatched   = "Watched"
)

// User represents a user profile known to the backend
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	PhotoURL    *string   `json:"photoUrl,omitempty"`
	PushToken   *string   `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Schedule is a planned movie viewing owned by a user at an exact instant
type Schedule struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	ISODate         time.Time        `json:"isoDate"`
	MovieID         int              `json:"movieId"`
	CreatedAt       time.Time        `json:"createdAt"`
	ScheduleInvites []ScheduleInvite `json:"scheduleInvites"`
}

// ScheduleInvite is a friend invited to a schedule. It has no lifecycle of its own.
type ScheduleInvite struct {
	ID         string    `json:"id"`
	ScheduleID string    `json:"scheduleId"`
	FriendID   string    `json:"friendId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FriendIDs returns the invited friend ids in invite order
func (s *Schedule) FriendIDs() []string {
	ids := make([]string, 0, len(s.ScheduleInvites))
	for _, inv := range s.ScheduleInvites {
		ids = append(ids, inv.FriendID)
	}
	return ids
}

// Review represents a user's review of a movie
type Review struct {
	ID        string    `json:"id"`
	MovieID   int       `json:"movieId"`
	UserID    string    `json:"userId"`
	Details   string    `json:"details"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserMovie links a user to a movie in their watchlist or watched history
type UserMovie struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	MovieID     int       `json:"movieId"`
	WatchStatus string    `json:"watchStatus"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Friend represents a one-directional friend relation
type Friend struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	FriendID  string    `json:"friendId"`
	CreatedAt time.Time `json:"createdAt"`
}

// BlockedUser represents a user blocked by another user
type BlockedUser struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	BlockedUserID string    `json:"blockedUserId"`
	CreatedAt     time.Time `json:"createdAt"`
}
