package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/chorely/internal/dateutil"
	"github.com/dukerupert/chorely/internal/model"
)

type ChoreStore struct {
	db *sqlx.DB
}

func NewChoreStore(db *sqlx.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

// choreRow is the column layout of the chores table. Weekdays and rotation
// members are JSON arrays; dates are YYYY-MM-DD text.
type choreRow struct {
	ID                    int64          `db:"id"`
	Title                 string         `db:"title"`
	Description           string         `db:"description"`
	Category              string         `db:"category"`
	Priority              string         `db:"priority"`
	Effort                string         `db:"effort"`
	Frequency             string         `db:"frequency"`
	IntervalDays          int            `db:"interval_days"`
	WeeklyDays            string         `db:"weekly_days"`
	MonthlyDay            int            `db:"monthly_day"`
	StartDate             string         `db:"start_date"`
	NextDue               sql.NullString `db:"next_due"`
	PreferredTime         string         `db:"preferred_time"`
	Status                string         `db:"status"`
	SlackDays             int            `db:"slack_days"`
	MaxPostpones          int            `db:"max_postpones"`
	AutoReschedule        bool           `db:"auto_reschedule"`
	SnoozeDays            int            `db:"snooze_days"`
	AssignedTo            sql.NullInt64  `db:"assigned_to"`
	RotationEnabled       bool           `db:"rotation_enabled"`
	RotationMembers       string         `db:"rotation_members"`
	RotationIndex         int            `db:"rotation_index"`
	CompletionCount       int            `db:"completion_count"`
	CurrentStreak         int            `db:"current_streak"`
	BestStreak            int            `db:"best_streak"`
	CurrentPostponeStreak int            `db:"current_postpone_streak"`
	LastCompleted         sql.NullString `db:"last_completed"`
	Notes                 string         `db:"notes"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

const choreCols = `id, title, description, category, priority, effort,
	frequency, interval_days, weekly_days, monthly_day, start_date, next_due, preferred_time,
	status, slack_days, max_postpones, auto_reschedule, snooze_days,
	assigned_to, rotation_enabled, rotation_members, rotation_index,
	completion_count, current_streak, best_streak, current_postpone_streak, last_completed,
	notes, created_at, updated_at`

func toChoreRow(c *model.Chore) (choreRow, error) {
	weekly, err := json.Marshal(nonNil(c.WeeklyDays))
	if err != nil {
		return choreRow{}, fmt.Errorf("marshal weekly days: %w", err)
	}
	rotation, err := json.Marshal(nonNil(c.RotationMembers))
	if err != nil {
		return choreRow{}, fmt.Errorf("marshal rotation members: %w", err)
	}

	return choreRow{
		ID:                    c.ID,
		Title:                 c.Title,
		Description:           c.Description,
		Category:              string(c.Category),
		Priority:              string(c.Priority),
		Effort:                string(c.Effort),
		Frequency:             string(c.Frequency),
		IntervalDays:          c.IntervalDays,
		WeeklyDays:            string(weekly),
		MonthlyDay:            c.MonthlyDay,
		StartDate:             dateutil.Format(c.StartDate),
		NextDue:               nullDate(c.NextDue),
		PreferredTime:         c.PreferredTime,
		Status:                string(c.Status),
		SlackDays:             c.SlackDays,
		MaxPostpones:          c.MaxPostpones,
		AutoReschedule:        c.AutoReschedule,
		SnoozeDays:            c.SnoozeDays,
		AssignedTo:            nullID(c.AssignedTo),
		RotationEnabled:       c.RotationEnabled,
		RotationMembers:       string(rotation),
		RotationIndex:         c.RotationIndex,
		CompletionCount:       c.CompletionCount,
		CurrentStreak:         c.CurrentStreak,
		BestStreak:            c.BestStreak,
		CurrentPostponeStreak: c.CurrentPostponeStreak,
		LastCompleted:         nullDate(c.LastCompleted),
		Notes:                 c.Notes,
		CreatedAt:             c.CreatedAt.UTC(),
		UpdatedAt:             c.UpdatedAt.UTC(),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (r choreRow) toModel() (*model.Chore, error) {
	c := &model.Chore{
		ID:                    r.ID,
		Title:                 r.Title,
		Description:           r.Description,
		Category:              model.Category(r.Category),
		Priority:              model.Priority(r.Priority),
		Effort:                model.Effort(r.Effort),
		Frequency:             model.Frequency(r.Frequency),
		IntervalDays:          r.IntervalDays,
		MonthlyDay:            r.MonthlyDay,
		PreferredTime:         r.PreferredTime,
		Status:                model.ChoreStatus(r.Status),
		SlackDays:             r.SlackDays,
		MaxPostpones:          r.MaxPostpones,
		AutoReschedule:        r.AutoReschedule,
		SnoozeDays:            r.SnoozeDays,
		AssignedTo:            idPtr(r.AssignedTo),
		RotationEnabled:       r.RotationEnabled,
		RotationIndex:         r.RotationIndex,
		CompletionCount:       r.CompletionCount,
		CurrentStreak:         r.CurrentStreak,
		BestStreak:            r.BestStreak,
		CurrentPostponeStreak: r.CurrentPostponeStreak,
		Notes:                 r.Notes,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}

	var err error
	if err = json.Unmarshal([]byte(r.WeeklyDays), &c.WeeklyDays); err != nil {
		return nil, fmt.Errorf("unmarshal weekly days: %w", err)
	}
	if len(c.WeeklyDays) == 0 {
		c.WeeklyDays = nil
	}
	if err = json.Unmarshal([]byte(r.RotationMembers), &c.RotationMembers); err != nil {
		return nil, fmt.Errorf("unmarshal rotation members: %w", err)
	}
	if len(c.RotationMembers) == 0 {
		c.RotationMembers = nil
	}
	if c.StartDate, err = dateutil.Parse(r.StartDate); err != nil {
		return nil, err
	}
	if c.NextDue, err = datePtr(r.NextDue); err != nil {
		return nil, err
	}
	if c.LastCompleted, err = datePtr(r.LastCompleted); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChoreStore) Create(ctx context.Context, c *model.Chore) (*model.Chore, error) {
	row, err := toChoreRow(c)
	if err != nil {
		return nil, err
	}

	stmt, err := s.db.PrepareNamedContext(ctx, `INSERT INTO chores (
		title, description, category, priority, effort,
		frequency, interval_days, weekly_days, monthly_day, start_date, next_due, preferred_time,
		status, slack_days, max_postpones, auto_reschedule, snooze_days,
		assigned_to, rotation_enabled, rotation_members, rotation_index,
		completion_count, current_streak, best_streak, current_postpone_streak, last_completed,
		notes, created_at, updated_at
	) VALUES (
		:title, :description, :category, :priority, :effort,
		:frequency, :interval_days, :weekly_days, :monthly_day, :start_date, :next_due, :preferred_time,
		:status, :slack_days, :max_postpones, :auto_reschedule, :snooze_days,
		:assigned_to, :rotation_enabled, :rotation_members, :rotation_index,
		:completion_count, :current_streak, :best_streak, :current_postpone_streak, :last_completed,
		:notes, :created_at, :updated_at
	) RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert chore: %w", err)
	}
	defer stmt.Close()

	var id int64
	if err := stmt.GetContext(ctx, &id, row); err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) GetByID(ctx context.Context, id int64) (*model.Chore, error) {
	var row choreRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+choreCols+` FROM chores WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return row.toModel()
}

// List returns chores in insertion order.
func (s *ChoreStore) List(ctx context.Context) ([]model.Chore, error) {
	var rows []choreRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+choreCols+` FROM chores ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}

	chores := make([]model.Chore, 0, len(rows))
	for _, r := range rows {
		c, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("scan chore %d: %w", r.ID, err)
		}
		chores = append(chores, *c)
	}
	return chores, nil
}

// Update replaces every column of the chore. It returns (nil, nil) when the
// chore no longer exists.
func (s *ChoreStore) Update(ctx context.Context, c *model.Chore) (*model.Chore, error) {
	row, err := toChoreRow(c)
	if err != nil {
		return nil, err
	}

	_, err = s.db.NamedExecContext(ctx, `UPDATE chores SET
		title = :title, description = :description, category = :category,
		priority = :priority, effort = :effort,
		frequency = :frequency, interval_days = :interval_days, weekly_days = :weekly_days,
		monthly_day = :monthly_day, start_date = :start_date, next_due = :next_due,
		preferred_time = :preferred_time,
		status = :status, slack_days = :slack_days, max_postpones = :max_postpones,
		auto_reschedule = :auto_reschedule, snooze_days = :snooze_days,
		assigned_to = :assigned_to, rotation_enabled = :rotation_enabled,
		rotation_members = :rotation_members, rotation_index = :rotation_index,
		completion_count = :completion_count, current_streak = :current_streak,
		best_streak = :best_streak, current_postpone_streak = :current_postpone_streak,
		last_completed = :last_completed, notes = :notes, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(ctx, c.ID)
}

func (s *ChoreStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM chores WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}
