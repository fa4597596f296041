// Package reminder announces due chores to connected dashboards once a day.
package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/dateutil"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/websocket"
)

// maxTitles bounds the chore titles carried in one reminder.
const maxTitles = 10

type ChoreLister interface {
	List(ctx context.Context) ([]model.Chore, error)
}

type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

type Config struct {
	Interval time.Duration
	// Hour is the local hour from which the daily reminder may go out.
	Hour int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Scheduler periodically checks for due chores and broadcasts a single
// reminder per calendar day.
type Scheduler struct {
	mu       sync.RWMutex
	chores   ChoreLister
	hub      Broadcaster
	interval time.Duration
	hour     int
	now      func() time.Time
	logger   *slog.Logger

	lastSent time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(chores ChoreLister, hub Broadcaster, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		chores:   chores,
		hub:      hub,
		interval: cfg.Interval,
		hour:     cfg.Hour,
		now:      cfg.Now,
		logger:   logger.With("component", "reminder"),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Summary is the payload of a reminder.
type Summary struct {
	Overdue  int      `json:"overdue"`
	Grace    int      `json:"grace"`
	DueToday int      `json:"due_today"`
	Titles   []string `json:"titles"`
}

func (s Summary) Total() int {
	return s.Overdue + s.Grace + s.DueToday
}

// Summarize counts the chores needing attention on today, most urgent first.
func Summarize(chores []model.Chore, today time.Time) Summary {
	var sum Summary
	for _, ws := range chore.FilterChores(chores, chore.Filter{Status: chore.FilterAll}, today) {
		switch ws.Due.Status {
		case chore.StatusOverdue:
			sum.Overdue++
		case chore.StatusGracePeriod:
			sum.Grace++
		case chore.StatusDueToday:
			sum.DueToday++
		default:
			continue
		}
		if len(sum.Titles) < maxTitles {
			sum.Titles = append(sum.Titles, ws.Title)
		}
	}
	return sum
}

// tick sends today's reminder once the configured hour has passed. A day
// with nothing due is checked again on the next tick.
func (s *Scheduler) tick(ctx context.Context) bool {
	now := s.now()
	today := dateutil.Day(now)
	if now.Hour() < s.hour {
		return false
	}

	s.mu.RLock()
	sent := s.lastSent.Equal(today)
	s.mu.RUnlock()
	if sent {
		return false
	}

	chores, err := s.chores.List(ctx)
	if err != nil {
		s.logger.Error("list chores", "error", err)
		return false
	}

	sum := Summarize(chores, today)
	if sum.Total() == 0 {
		return false
	}

	s.hub.Broadcast(websocket.NewMessage(websocket.EntityReminder, websocket.ActionDue, 0, map[string]any{
		"date":      dateutil.Format(today),
		"overdue":   sum.Overdue,
		"grace":     sum.Grace,
		"due_today": sum.DueToday,
		"titles":    sum.Titles,
	}))

	s.mu.Lock()
	s.lastSent = today
	s.mu.Unlock()

	s.logger.Info("reminder sent", "date", dateutil.Format(today), "due", sum.Total())
	return true
}
