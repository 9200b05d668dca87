package repository

import (
	"context"
	"time"

	"movie-night-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// ScheduleWriter is the transaction-scoped handle passed to ScheduleRepository.InTx
type ScheduleWriter interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, userID string, at time.Time) (*models.Schedule, error)
}

// ScheduleRepository handles database operations for schedules and their invites
type ScheduleRepository struct {
	db DBTX
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db DBTX) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// InTx runs fn inside a single transaction. Any error returned by fn rolls
// back every write made through the handle.
func (r *ScheduleRepository) InTx(ctx context.Context, fn func(tx ScheduleWriter) error) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&ScheduleRepository{db: tx})
	})
}

// Create inserts a schedule and all of its invites atomically. A second
// schedule for the same (user_id, scheduled_at) yields ErrConflict.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO schedules (id, user_id, scheduled_at, movie_id, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		_, err := tx.Exec(ctx, query,
			schedule.ID, schedule.UserID, schedule.ISODate, schedule.MovieID, schedule.CreatedAt,
		)
		if err != nil {
			return wrapErr("create schedule", err)
		}

		if len(schedule.ScheduleInvites) == 0 {
			return nil
		}

		rows := make([][]any, len(schedule.ScheduleInvites))
		for i, inv := range schedule.ScheduleInvites {
			rows[i] = []any{inv.ID, inv.ScheduleID, inv.FriendID, i, inv.CreatedAt}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"schedule_invites"},
			[]string{"id", "schedule_id", "friend_id", "position", "created_at"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return wrapErr("create schedule invites", err)
		}
		return nil
	})
}

// GetByKey retrieves a schedule with its invites by (user id, instant)
func (r *ScheduleRepository) GetByKey(ctx context.Context, userID string, at time.Time) (*models.Schedule, error) {
	query := `
		SELECT id, user_id, scheduled_at, movie_id, created_at
		FROM schedules
		WHERE user_id = $1 AND scheduled_at = $2
	`
	schedule, err := scanSchedule(r.db.QueryRow(ctx, query, userID, at))
	if err != nil {
		return nil, wrapErr("get schedule", err)
	}

	invites, err := r.invitesFor(ctx, []string{schedule.ID})
	if err != nil {
		return nil, err
	}
	schedule.ScheduleInvites = invites[schedule.ID]
	return schedule, nil
}

// ListByUserID retrieves every schedule of a user with invites, in insertion order
func (r *ScheduleRepository) ListByUserID(ctx context.Context, userID string) ([]models.Schedule, error) {
	query := `
		SELECT id, user_id, scheduled_at, movie_id, created_at
		FROM schedules
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("list schedules", err)
	}
	defer rows.Close()

	schedules := []models.Schedule{}
	var ids []string
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, wrapErr("scan schedule", err)
		}
		schedules = append(schedules, *schedule)
		ids = append(ids, schedule.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate schedules", err)
	}

	if len(ids) == 0 {
		return schedules, nil
	}
	invites, err := r.invitesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range schedules {
		schedules[i].ScheduleInvites = invites[schedules[i].ID]
	}
	return schedules, nil
}

// Delete removes a schedule (its invites cascade) and returns it as it was
func (r *ScheduleRepository) Delete(ctx context.Context, userID string, at time.Time) (*models.Schedule, error) {
	var deleted *models.Schedule
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			SELECT id, user_id, scheduled_at, movie_id, created_at
			FROM schedules
			WHERE user_id = $1 AND scheduled_at = $2
			FOR UPDATE
		`
		schedule, err := scanSchedule(tx.QueryRow(ctx, query, userID, at))
		if err != nil {
			return wrapErr("get schedule for delete", err)
		}

		inner := &ScheduleRepository{db: tx}
		invites, err := inner.invitesFor(ctx, []string{schedule.ID})
		if err != nil {
			return err
		}
		schedule.ScheduleInvites = invites[schedule.ID]

		if _, err := tx.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, schedule.ID); err != nil {
			return wrapErr("delete schedule", err)
		}
		deleted = schedule
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// invitesFor loads invites for the given schedules keyed by schedule id. Every
// requested id gets a non-nil slice.
func (r *ScheduleRepository) invitesFor(ctx context.Context, scheduleIDs []string) (map[string][]models.ScheduleInvite, error) {
	query := `
		SELECT id, schedule_id, friend_id, created_at
		FROM schedule_invites
		WHERE schedule_id = ANY($1::uuid[])
		ORDER BY schedule_id, position
	`
	rows, err := r.db.Query(ctx, query, scheduleIDs)
	if err != nil {
		return nil, wrapErr("list schedule invites", err)
	}
	defer rows.Close()

	out := make(map[string][]models.ScheduleInvite, len(scheduleIDs))
	for _, id := range scheduleIDs {
		out[id] = []models.ScheduleInvite{}
	}
	for rows.Next() {
		var inv models.ScheduleInvite
		if err := rows.Scan(&inv.ID, &inv.ScheduleID, &inv.FriendID, &inv.CreatedAt); err != nil {
			return nil, wrapErr("scan schedule invite", err)
		}
		inv.CreatedAt = inv.CreatedAt.UTC()
		out[inv.ScheduleID] = append(out[inv.ScheduleID], inv)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate schedule invites", err)
	}
	return out, nil
}

func scanSchedule(row pgx.Row) (*models.Schedule, error) {
	var s models.Schedule
	if err := row.Scan(&s.ID, &s.UserID, &s.ISODate, &s.MovieID, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.ISODate = s.ISODate.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}
