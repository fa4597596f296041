// Package chore holds the scheduling core: status classification, the
// lifecycle controller that mutates chores, and the ranking and view helpers
// built on top of them.
package chore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dukerupert/chorely/internal/dateutil"
	"github.com/dukerupert/chorely/internal/model"
)

var (
	ErrPostponeLimitExceeded = errors.New("postpone limit exceeded")
	ErrInvalidChore          = errors.New("invalid chore")
	ErrChoreCompleted        = errors.New("chore is already completed")
)

// PostponeLimitError reports a rejected postpone together with the limit
// that blocked it.
type PostponeLimitError struct {
	Max    int
	Streak int
}

func (e *PostponeLimitError) Error() string {
	return fmt.Sprintf("cannot postpone: max consecutive postpones (%d) reached", e.Max)
}

func (e *PostponeLimitError) Is(target error) bool {
	return target == ErrPostponeLimitExceeded
}

// ChoreStore persists chore records. GetByID returns (nil, nil) for a
// missing id.
type ChoreStore interface {
	Create(ctx context.Context, c *model.Chore) (*model.Chore, error)
	GetByID(ctx context.Context, id int64) (*model.Chore, error)
	List(ctx context.Context) ([]model.Chore, error)
	Update(ctx context.Context, c *model.Chore) (*model.Chore, error)
	Delete(ctx context.Context, id int64) error
}

// CompletionStore persists the append-only completion log. List methods
// return newest first.
type CompletionStore interface {
	Create(ctx context.Context, c *model.Completion) (*model.Completion, error)
	List(ctx context.Context) ([]model.Completion, error)
	ListByChore(ctx context.Context, choreID int64) ([]model.Completion, error)
	DeleteAll(ctx context.Context) error
}

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// RandSource is satisfied by *rand.Rand from math/rand/v2.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Controller applies lifecycle operations to stored chores. Mutations are
// serialized so each one reads and replaces a whole record without
// interleaving with another.
type Controller struct {
	chores      ChoreStore
	completions CompletionStore
	clock       Clock
	rand        RandSource
	logger      *slog.Logger

	mu sync.Mutex
}

type Option func(*Controller)

func WithClock(c Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

func WithRand(r RandSource) Option {
	return func(ctl *Controller) { ctl.rand = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

func NewController(chores ChoreStore, completions CompletionStore, opts ...Option) *Controller {
	ctl := &Controller{
		chores:      chores,
		completions: completions,
		clock:       ClockFunc(time.Now),
		rand:        globalRand{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(ctl)
	}
	ctl.logger = ctl.logger.With("component", "chore")
	return ctl
}

// Now returns the controller clock's current time.
func (ctl *Controller) Now() time.Time {
	return ctl.clock.Now()
}

func (ctl *Controller) today() time.Time {
	return dateutil.Day(ctl.clock.Now())
}

func (ctl *Controller) Get(ctx context.Context, id int64) (*model.Chore, error) {
	return ctl.chores.GetByID(ctx, id)
}

func (ctl *Controller) List(ctx context.Context) ([]model.Chore, error) {
	return ctl.chores.List(ctx)
}

// mutate loads a chore, applies fn and persists the result. A missing chore
// is a no-op reported as (nil, nil).
func (ctl *Controller) mutate(ctx context.Context, id int64, op string, fn func(c *model.Chore) error) (*model.Chore, error) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()

	c, err := ctl.chores.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if c == nil {
		ctl.logger.Debug("chore not found", "op", op, "chore_id", id)
		return nil, nil
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	c.UpdatedAt = ctl.clock.Now()
	updated, err := ctl.chores.Update(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ctl.logger.Debug("chore updated", "op", op, "chore_id", id)
	return updated, nil
}
