package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/chorely/internal/dateutil"
	"github.com/dukerupert/chorely/internal/model"
)

type CompletionStore struct {
	db *sqlx.DB
}

func NewCompletionStore(db *sqlx.DB) *CompletionStore {
	return &CompletionStore{db: db}
}

type completionRow struct {
	ID            int64         `db:"id"`
	ChoreID       int64         `db:"chore_id"`
	CompletedBy   sql.NullInt64 `db:"completed_by"`
	CompletedAt   time.Time     `db:"completed_at"`
	ScheduledFor  string        `db:"scheduled_for"`
	WasOnTime     bool          `db:"was_on_time"`
	WasPostponed  bool          `db:"was_postponed"`
	PostponeCount int           `db:"postpone_count"`
	Notes         string        `db:"notes"`
}

const completionCols = `id, chore_id, completed_by, completed_at, scheduled_for, was_on_time, was_postponed, postpone_count, notes`

func (r completionRow) toModel() (model.Completion, error) {
	scheduled, err := dateutil.Parse(r.ScheduledFor)
	if err != nil {
		return model.Completion{}, err
	}
	return model.Completion{
		ID:            r.ID,
		ChoreID:       r.ChoreID,
		CompletedBy:   idPtr(r.CompletedBy),
		CompletedAt:   r.CompletedAt,
		ScheduledFor:  scheduled,
		WasOnTime:     r.WasOnTime,
		WasPostponed:  r.WasPostponed,
		PostponeCount: r.PostponeCount,
		Notes:         r.Notes,
	}, nil
}

// Create appends a completion. CompletedAt is stored in UTC so that text
// timestamps sort chronologically.
func (s *CompletionStore) Create(ctx context.Context, c *model.Completion) (*model.Completion, error) {
	row := completionRow{
		ChoreID:       c.ChoreID,
		CompletedBy:   nullID(c.CompletedBy),
		CompletedAt:   c.CompletedAt.UTC(),
		ScheduledFor:  dateutil.Format(c.ScheduledFor),
		WasOnTime:     c.WasOnTime,
		WasPostponed:  c.WasPostponed,
		PostponeCount: c.PostponeCount,
		Notes:         c.Notes,
	}

	stmt, err := s.db.PrepareNamedContext(ctx, `INSERT INTO completions (
		chore_id, completed_by, completed_at, scheduled_for, was_on_time, was_postponed, postpone_count, notes
	) VALUES (
		:chore_id, :completed_by, :completed_at, :scheduled_for, :was_on_time, :was_postponed, :postpone_count, :notes
	) RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert completion: %w", err)
	}
	defer stmt.Close()

	if err := stmt.GetContext(ctx, &row.ID, row); err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}

	out, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CompletionStore) list(ctx context.Context, query string, args ...any) ([]model.Completion, error) {
	var rows []completionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}

	completions := make([]model.Completion, 0, len(rows))
	for _, r := range rows {
		c, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("scan completion %d: %w", r.ID, err)
		}
		completions = append(completions, c)
	}
	return completions, nil
}

// List returns every completion, newest first.
func (s *CompletionStore) List(ctx context.Context) ([]model.Completion, error) {
	return s.list(ctx, `SELECT `+completionCols+` FROM completions ORDER BY completed_at DESC, id DESC`)
}

// ListByChore returns one chore's completions, newest first.
func (s *CompletionStore) ListByChore(ctx context.Context, choreID int64) ([]model.Completion, error) {
	return s.list(ctx, `SELECT `+completionCols+` FROM completions WHERE chore_id = ? ORDER BY completed_at DESC, id DESC`, choreID)
}

func (s *CompletionStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM completions`); err != nil {
		return fmt.Errorf("clear completions: %w", err)
	}
	return nil
}
