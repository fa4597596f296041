package chore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/chorely/internal/dateutil"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

const (
	DefaultMaxPostpones = 3
	DefaultSnoozeDays   = 1
)

// Input carries the editable fields of a chore. Zero values pick the
// defaults; MaxPostpones is a pointer because 0 means "never".
type Input struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Category        model.Category  `json:"category"`
	Priority        model.Priority  `json:"priority"`
	Effort          model.Effort    `json:"effort"`
	Frequency       model.Frequency `json:"frequency"`
	IntervalDays    int             `json:"interval_days"`
	WeeklyDays      []int           `json:"weekly_days"`
	MonthlyDay      int             `json:"monthly_day"`
	StartDate       string          `json:"start_date"`
	PreferredTime   string          `json:"preferred_time"`
	SlackDays       int             `json:"slack_days"`
	MaxPostpones    *int            `json:"max_postpones"`
	AutoReschedule  bool            `json:"auto_reschedule"`
	SnoozeDays      int             `json:"snooze_days"`
	AssignedTo      *int64          `json:"assigned_to"`
	RotationEnabled bool            `json:"rotation_enabled"`
	RotationMembers []int64         `json:"rotation_members"`
	Notes           string          `json:"notes"`
}

// apply copies in onto c with defaults and validates the result.
func (in Input) apply(c *model.Chore, today time.Time) error {
	c.Title = strings.TrimSpace(in.Title)
	c.Description = strings.TrimSpace(in.Description)
	c.Category = in.Category
	if c.Category == "" {
		c.Category = model.CategoryGeneral
	}
	c.Priority = in.Priority
	if c.Priority == "" {
		c.Priority = model.PriorityMedium
	}
	c.Effort = in.Effort
	if c.Effort == "" {
		c.Effort = model.EffortMedium
	}

	c.Frequency = in.Frequency
	c.IntervalDays = in.IntervalDays
	if c.IntervalDays == 0 {
		c.IntervalDays = recurrence.DefaultIntervalDays
	}
	c.WeeklyDays = model.NormalizeWeekdays(in.WeeklyDays)
	c.MonthlyDay = in.MonthlyDay
	if c.MonthlyDay == 0 {
		c.MonthlyDay = recurrence.DefaultMonthlyDay
	}

	switch {
	case in.StartDate != "":
		start, err := dateutil.Parse(in.StartDate)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidChore, err)
		}
		c.StartDate = start
	case c.StartDate.IsZero():
		c.StartDate = today
	}
	c.PreferredTime = strings.TrimSpace(in.PreferredTime)

	c.SlackDays = in.SlackDays
	c.MaxPostpones = DefaultMaxPostpones
	if in.MaxPostpones != nil {
		c.MaxPostpones = *in.MaxPostpones
	}
	c.AutoReschedule = in.AutoReschedule
	c.SnoozeDays = in.SnoozeDays
	if c.SnoozeDays == 0 {
		c.SnoozeDays = DefaultSnoozeDays
	}

	c.AssignedTo = in.AssignedTo
	c.RotationEnabled = in.RotationEnabled
	c.RotationMembers = model.NormalizeRotation(in.RotationMembers)
	if c.RotationIndex >= len(c.RotationMembers) {
		c.RotationIndex = 0
	}
	if c.RotationActive() && c.AssignedTo == nil {
		id := c.RotationMembers[c.RotationIndex]
		c.AssignedTo = &id
	}
	c.Notes = strings.TrimSpace(in.Notes)

	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChore, err)
	}
	return nil
}

// Create stores a new active chore with its first due date seeded from the
// start date.
func (ctl *Controller) Create(ctx context.Context, in Input) (*model.Chore, error) {
	c := &model.Chore{Status: model.ChoreActive}
	if err := in.apply(c, ctl.today()); err != nil {
		return nil, err
	}
	c.NextDue = dateutil.Ptr(recurrence.InitialDue(c))

	now := ctl.clock.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	ctl.mu.Lock()
	defer ctl.mu.Unlock()

	created, err := ctl.chores.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create chore: %w", err)
	}
	ctl.logger.Debug("chore created", "chore_id", created.ID, "frequency", created.Frequency)
	return created, nil
}

// Update replaces the editable fields of a chore. Lifecycle state and
// counters are kept; the due date is reseeded only when the frequency or the
// start date changed.
func (ctl *Controller) Update(ctx context.Context, id int64, in Input) (*model.Chore, error) {
	return ctl.mutate(ctx, id, "update chore", func(c *model.Chore) error {
		prevFreq, prevStart := c.Frequency, c.StartDate
		if err := in.apply(c, ctl.today()); err != nil {
			return err
		}
		if c.Frequency != prevFreq || !c.StartDate.Equal(prevStart) {
			c.NextDue = dateutil.Ptr(recurrence.InitialDue(c))
		}
		return nil
	})
}

// Delete removes a chore. Its completions are kept.
func (ctl *Controller) Delete(ctx context.Context, id int64) error {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()

	if err := ctl.chores.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	ctl.logger.Debug("chore deleted", "chore_id", id)
	return nil
}

// Complete records a completion by memberID (nil for anyone) and advances
// the chore: streaks, rotation and the next due date. The completion record
// is nil when the chore does not exist.
func (ctl *Controller) Complete(ctx context.Context, id int64, memberID *int64, notes string) (*model.Chore, *model.Completion, error) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()

	c, err := ctl.chores.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("complete chore: %w", err)
	}
	if c == nil {
		return nil, nil, nil
	}
	if c.Status == model.ChoreCompleted {
		return nil, nil, ErrChoreCompleted
	}

	now := ctl.clock.Now()
	today := dateutil.Day(now)

	onTime := c.NextDue == nil || dateutil.DaysBetween(*c.NextDue, today) <= 0
	if StatusOf(c, today) == StatusGracePeriod {
		onTime = false
	}

	scheduled := today
	if c.NextDue != nil {
		scheduled = *c.NextDue
	}
	completion, err := ctl.completions.Create(ctx, &model.Completion{
		ChoreID:       c.ID,
		CompletedBy:   memberID,
		CompletedAt:   now,
		ScheduledFor:  scheduled,
		WasOnTime:     onTime,
		WasPostponed:  c.CurrentPostponeStreak > 0,
		PostponeCount: c.CurrentPostponeStreak,
		Notes:         strings.TrimSpace(notes),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("record completion: %w", err)
	}

	c.LastCompleted = dateutil.Ptr(today)
	c.CompletionCount++
	c.CurrentPostponeStreak = 0

	if onTime {
		c.CurrentStreak++
		c.BestStreak = max(c.BestStreak, c.CurrentStreak)
	} else {
		c.CurrentStreak = 0
	}

	if c.RotationActive() {
		c.RotationIndex = (c.RotationIndex + 1) % len(c.RotationMembers)
		next := c.RotationMembers[c.RotationIndex]
		c.AssignedTo = &next
	}

	if c.Frequency == model.FrequencyOnce {
		c.Status = model.ChoreCompleted
		c.NextDue = nil
	} else {
		c.NextDue = recurrence.NextDue(c, today)
		if c.NextDue == nil {
			ctl.logger.Warn("recurrence exhausted", "chore_id", c.ID, "frequency", c.Frequency)
		}
	}

	c.UpdatedAt = now
	updated, err := ctl.chores.Update(ctx, c)
	if err != nil {
		return nil, nil, fmt.Errorf("complete chore: %w", err)
	}
	ctl.logger.Debug("chore completed",
		"chore_id", c.ID,
		"on_time", onTime,
		"streak", c.CurrentStreak,
		"next_due", dateutil.FormatPtr(c.NextDue),
	)
	return updated, completion, nil
}

// Postpone defers a chore by its snooze days. It fails with a
// *PostponeLimitError, leaving the chore untouched, once the consecutive
// postpone cap is reached.
func (ctl *Controller) Postpone(ctx context.Context, id int64) (*model.Chore, error) {
	return ctl.mutate(ctx, id, "postpone chore", func(c *model.Chore) error {
		if !c.CanPostpone() {
			ctl.logger.Info("postpone rejected", "chore_id", c.ID, "max", c.MaxPostpones)
			return &PostponeLimitError{Max: c.MaxPostpones, Streak: c.CurrentPostponeStreak}
		}

		c.CurrentPostponeStreak++
		if c.AutoReschedule && c.NextDue != nil {
			snooze := c.SnoozeDays
			if snooze < 1 {
				snooze = DefaultSnoozeDays
			}
			c.NextDue = dateutil.Ptr(dateutil.AddDays(*c.NextDue, snooze))
		}
		c.CurrentStreak = 0
		return nil
	})
}

// TogglePause flips a chore between active and paused. Resuming pulls a
// stale due date forward to today.
func (ctl *Controller) TogglePause(ctx context.Context, id int64) (*model.Chore, error) {
	return ctl.mutate(ctx, id, "toggle pause", func(c *model.Chore) error {
		switch c.Status {
		case model.ChoreActive:
			c.Status = model.ChorePaused
		case model.ChorePaused:
			c.Status = model.ChoreActive
			today := ctl.today()
			if c.NextDue != nil && c.NextDue.Before(today) {
				c.NextDue = dateutil.Ptr(today)
			}
		}
		return nil
	})
}

// SkipCycle moves the due date past one natural occurrence without counting
// a completion or a postpone. Completed one-time chores are left alone, as
// they are by DoTomorrow and DoThisWeekend. A chore without a due date has
// no cycle to skip and stays dateless until edited.
func (ctl *Controller) SkipCycle(ctx context.Context, id int64) (*model.Chore, error) {
	return ctl.mutate(ctx, id, "skip chore", func(c *model.Chore) error {
		if c.Status == model.ChoreCompleted || c.NextDue == nil {
			return nil
		}
		next := recurrence.NextDue(c, *c.NextDue)
		if next == nil {
			next = dateutil.Ptr(dateutil.AddDays(*c.NextDue, 7))
		}
		c.NextDue = next
		c.CurrentPostponeStreak = 0
		c.CurrentStreak = 0
		return nil
	})
}

// Reassign sets the assignee; nil means anyone.
func (ctl *Controller) Reassign(ctx context.Context, id int64, memberID *int64) (*model.Chore, error) {
	return ctl.mutate(ctx, id, "reassign chore", func(c *model.Chore) error {
		c.AssignedTo = memberID
		return nil
	})
}

// DoTomorrow moves the due date to tomorrow.
func (ctl *Controller) DoTomorrow(ctx context.Context, id int64) (*model.Chore, error) {
	return ctl.mutate(ctx, id, "do tomorrow", func(c *model.Chore) error {
		if c.Status == model.ChoreCompleted {
			return nil
		}
		c.NextDue = dateutil.Ptr(dateutil.AddDays(ctl.today(), 1))
		return nil
	})
}

// DoThisWeekend moves the due date to the coming Saturday, or the one after
// when today is Saturday.
func (ctl *Controller) DoThisWeekend(ctx context.Context, id int64) (*model.Chore, error) {
	return ctl.mutate(ctx, id, "do this weekend", func(c *model.Chore) error {
		if c.Status == model.ChoreCompleted {
			return nil
		}
		c.NextDue = dateutil.Ptr(NextSaturday(ctl.today()))
		return nil
	})
}

// NextSaturday returns the first Saturday strictly after today.
func NextSaturday(today time.Time) time.Time {
	days := int(time.Saturday - today.Weekday())
	if days == 0 {
		days = 7
	}
	return dateutil.AddDays(today, days)
}

// Completions lists the completion log, newest first, optionally for one
// chore.
func (ctl *Controller) Completions(ctx context.Context, choreID *int64) ([]model.Completion, error) {
	if choreID != nil {
		return ctl.completions.ListByChore(ctx, *choreID)
	}
	return ctl.completions.List(ctx)
}

// ClearCompletions deletes the whole completion log. Chore counters are kept.
func (ctl *Controller) ClearCompletions(ctx context.Context) error {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()

	if err := ctl.completions.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear completions: %w", err)
	}
	ctl.logger.Info("completion log cleared")
	return nil
}
