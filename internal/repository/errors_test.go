package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapErrClassifies(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "schedules_user_id_scheduled_at_key"}, ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := wrapErr("create schedule", tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("wrapErr(%v) = %v, want %v", tc.in, err, tc.want)
			}
		})
	}
}

func TestWrapErrKeepsOtherErrors(t *testing.T) {
	cause := &pgconn.PgError{Code: "23503"}
	err := wrapErr("create schedule invites", cause)
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign key violation must not be classified: %v", err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23503" {
		t.Fatalf("cause lost: %v", err)
	}
	if got := err.Error(); got != "failed to create schedule invites: "+cause.Error() {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestSchemaDeclaresScheduleKeys(t *testing.T) {
	var schedules, invites bool
	for _, stmt := range schemaStatements {
		if strings.Contains(stmt, "UNIQUE (user_id, scheduled_at)") {
			schedules = true
		}
		if strings.Contains(stmt, "REFERENCES schedules (id) ON DELETE CASCADE") {
			invites = true
		}
	}
	if !schedules || !invites {
		t.Fatalf("schema missing unique key (%v) or cascade (%v)", schedules, invites)
	}
}
