package repository

import (
	"context"
	"fmt"
)

// schemaStatements bootstraps the tables. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           VARCHAR(28) PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		photo_url    TEXT,
		push_token   TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS users_display_name_lower_idx ON users (lower(display_name))`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id           UUID PRIMARY KEY,
		user_id      VARCHAR(28) NOT NULL,
		scheduled_at TIMESTAMPTZ NOT NULL,
		movie_id     BIGINT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT schedules_user_id_scheduled_at_key UNIQUE (user_id, scheduled_at)
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_invites (
		id          UUID PRIMARY KEY,
		schedule_id UUID NOT NULL REFERENCES schedules (id) ON DELETE CASCADE,
		friend_id   VARCHAR(28) NOT NULL,
		position    INTEGER NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS schedule_invites_schedule_id_idx ON schedule_invites (schedule_id)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id         UUID PRIMARY KEY,
		movie_id   BIGINT NOT NULL,
		user_id    VARCHAR(28) NOT NULL,
		details    TEXT NOT NULL,
		rating     SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT reviews_movie_id_user_id_key UNIQUE (movie_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_movies (
		id           UUID PRIMARY KEY,
		user_id      VARCHAR(28) NOT NULL,
		movie_id     BIGINT NOT NULL,
		watch_status TEXT NOT NULL CHECK (watch_status IN ('WatchList', 'Watched')),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT user_movies_user_id_movie_id_key UNIQUE (user_id, movie_id)
	)`,
	`CREATE TABLE IF NOT EXISTS friends (
		id         UUID PRIMARY KEY,
		user_id    VARCHAR(28) NOT NULL,
		friend_id  VARCHAR(28) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT friends_user_id_friend_id_key UNIQUE (user_id, friend_id)
	)`,
	`CREATE TABLE IF NOT EXISTS blocked_users (
		id              UUID PRIMARY KEY,
		user_id         VARCHAR(28) NOT NULL,
		blocked_user_id VARCHAR(28) NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT blocked_users_user_id_blocked_user_id_key UNIQUE (user_id, blocked_user_id)
	)`,
}

// Migrate creates any missing tables and indexes
func Migrate(ctx context.Context, db DBTX) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
