// Package store persists family members, chores and completions. The SQL
// stores run on SQLite or Postgres through sqlx; the in-memory stores serve
// tests and ephemeral runs; CachedChoreStore fronts a chore store with redis.
package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/dukerupert/chorely/internal/dateutil"
)

var ErrNotFound = errors.New("not found")

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: dateutil.Format(*t), Valid: true}
}

func datePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := dateutil.Parse(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
