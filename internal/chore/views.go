package chore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dukerupert/chorely/internal/dateutil"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

// completedOn returns the local calendar day a completion happened on, in
// the zone of now.
func completedOn(c model.Completion, now time.Time) time.Time {
	return dateutil.Day(c.CompletedAt.In(now.Location()))
}

func completionsOn(completions []model.Completion, now time.Time) []model.Completion {
	today := dateutil.Day(now)
	var out []model.Completion
	for _, c := range completions {
		if completedOn(c, now).Equal(today) {
			out = append(out, c)
		}
	}
	return out
}

func byPriority(a, b WithStatus) int {
	return a.Priority.Rank() - b.Priority.Rank()
}

type Dashboard struct {
	Overdue       []WithStatus `json:"overdue"`
	Today         []WithStatus `json:"today"`
	DueTodayCount int          `json:"due_today_count"`
	OverdueCount  int          `json:"overdue_count"`
	DoneToday     int          `json:"done_today"`
}

// BuildDashboard splits the active chores into an overdue bucket and a
// today bucket (due today or in grace), each ordered by priority.
func BuildDashboard(chores []model.Chore, completions []model.Completion, now time.Time) Dashboard {
	today := dateutil.Day(now)
	d := Dashboard{Overdue: []WithStatus{}, Today: []WithStatus{}}

	for _, ws := range Annotate(chores, today) {
		if ws.Status != model.ChoreActive {
			continue
		}
		switch ws.Due.Status {
		case StatusOverdue:
			d.Overdue = append(d.Overdue, ws)
		case StatusDueToday, StatusGracePeriod:
			d.Today = append(d.Today, ws)
		}
	}
	slices.SortStableFunc(d.Overdue, byPriority)
	slices.SortStableFunc(d.Today, byPriority)

	d.DueTodayCount = len(d.Today)
	d.OverdueCount = len(d.Overdue)
	d.DoneToday = len(completionsOn(completions, now))
	return d
}

// MemberCompletionCount counts completions by memberID at or after since.
// A zero since counts everything.
func MemberCompletionCount(completions []model.Completion, memberID int64, since time.Time) int {
	n := 0
	for _, c := range completions {
		if c.CompletedBy == nil || *c.CompletedBy != memberID {
			continue
		}
		if !since.IsZero() && c.CompletedAt.Before(since) {
			continue
		}
		n++
	}
	return n
}

type LeaderboardEntry struct {
	Rank   int                `json:"rank"`
	Member model.FamilyMember `json:"member"`
	Count  int                `json:"count"`
}

// Leaderboard ranks members by completions since the Monday of the current
// week.
func Leaderboard(members []model.FamilyMember, completions []model.Completion, now time.Time) []LeaderboardEntry {
	monday := dateutil.StartOfWeek(dateutil.Day(now))
	y, m, d := monday.Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	entries := make([]LeaderboardEntry, 0, len(members))
	for _, member := range members {
		entries = append(entries, LeaderboardEntry{
			Member: member,
			Count:  MemberCompletionCount(completions, member.ID, since),
		})
	}
	slices.SortStableFunc(entries, func(a, b LeaderboardEntry) int {
		return b.Count - a.Count
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// StatusFilter selects chores in FilterChores.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterPaused    StatusFilter = "paused"
	FilterCompleted StatusFilter = "completed"
	FilterToday     StatusFilter = "today"
	FilterOverdue   StatusFilter = "overdue"
	FilterGrace     StatusFilter = "grace"
	FilterUpcoming  StatusFilter = "upcoming"
)

// upcomingWindow is how far ahead FilterUpcoming looks, in days.
const upcomingWindow = 7

func (f StatusFilter) Valid() bool {
	switch f {
	case FilterAll, FilterPaused, FilterCompleted, FilterToday, FilterOverdue, FilterGrace, FilterUpcoming:
		return true
	}
	return false
}

// Filter narrows the chore list. Zero values match everything.
type Filter struct {
	Status   StatusFilter
	Member   *int64
	Category model.Category
	Priority model.Priority
}

func (f Filter) match(ws WithStatus) bool {
	switch f.Status {
	case FilterPaused:
		if ws.Status != model.ChorePaused {
			return false
		}
	case FilterCompleted:
		if ws.Status != model.ChoreCompleted {
			return false
		}
	default:
		if ws.Status != model.ChoreActive {
			return false
		}
	}

	switch f.Status {
	case FilterToday:
		if ws.Due.Status != StatusDueToday && ws.Due.Status != StatusGracePeriod {
			return false
		}
	case FilterOverdue:
		if ws.Due.Status != StatusOverdue {
			return false
		}
	case FilterGrace:
		if ws.Due.Status != StatusGracePeriod {
			return false
		}
	case FilterUpcoming:
		if ws.NextDue == nil || ws.Due.DaysUntil < 0 || ws.Due.DaysUntil > upcomingWindow {
			return false
		}
	}

	if f.Member != nil && (ws.AssignedTo == nil || *ws.AssignedTo != *f.Member) {
		return false
	}
	if f.Category != "" && ws.Category != f.Category {
		return false
	}
	if f.Priority != "" && ws.Priority != f.Priority {
		return false
	}
	return true
}

// FilterChores applies f and orders the result by urgency, then priority,
// then due date.
func FilterChores(chores []model.Chore, f Filter, today time.Time) []WithStatus {
	out := []WithStatus{}
	for _, ws := range Annotate(chores, today) {
		if f.match(ws) {
			out = append(out, ws)
		}
	}

	slices.SortStableFunc(out, func(a, b WithStatus) int {
		if c := cmp.Compare(a.Due.Status.urgency(), b.Due.Status.urgency()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); c != 0 {
			return c
		}
		if a.NextDue != nil && b.NextDue != nil {
			return a.NextDue.Compare(*b.NextDue)
		}
		return 0
	})
	return out
}

// Challenge is the bonus goal of the day.
type Challenge struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Target      int    `json:"target"`
}

var challenges = []Challenge{
	{"Speed Clean", "Complete 3 chores in under 30 minutes", 3},
	{"Deep Clean One Room", "Pick any room and do ALL chores for it", 0},
	{"Overdue Blitz", "Clear all overdue chores today", 0},
	{"Helping Hand", "Complete 2 chores assigned to someone else", 2},
	{"Streak Builder", "Complete 3 chores that have an active streak", 3},
	{"Quick Win Spree", "Do 5 quick-effort chores", 5},
	{"Category Sweep", "Complete 3 chores from the same category", 3},
}

// DailyChallenge picks the challenge for the calendar day of today. Every
// household sees the same one on the same day.
func DailyChallenge(today time.Time) Challenge {
	day := dateutil.Day(today).Unix() / 86400
	return challenges[day%int64(len(challenges))]
}

type Progress struct {
	Current int  `json:"current"`
	Target  int  `json:"target"`
	Done    bool `json:"done"`
}

// ChallengeProgress measures today's completions against ch.
func ChallengeProgress(ch Challenge, chores []model.Chore, completions []model.Completion, now time.Time) Progress {
	today := dateutil.Day(now)
	done := completionsOn(completions, now)

	byID := make(map[int64]*model.Chore, len(chores))
	for i := range chores {
		byID[chores[i].ID] = &chores[i]
	}

	var p Progress
	switch ch.Title {
	case "Speed Clean":
		p = Progress{Current: len(done), Target: ch.Target}

	case "Streak Builder":
		n := 0
		for _, c := range done {
			if c.WasOnTime {
				n++
			}
		}
		p = Progress{Current: n, Target: ch.Target}

	case "Quick Win Spree":
		n := 0
		for _, c := range done {
			if chore, ok := byID[c.ChoreID]; ok && chore.Effort == model.EffortQuick {
				n++
			}
		}
		p = Progress{Current: n, Target: ch.Target}

	case "Helping Hand":
		n := 0
		for _, c := range done {
			chore, ok := byID[c.ChoreID]
			if !ok || chore.AssignedTo == nil {
				continue
			}
			if c.CompletedBy == nil || *c.CompletedBy != *chore.AssignedTo {
				n++
			}
		}
		p = Progress{Current: n, Target: ch.Target}

	case "Overdue Blitz":
		p = Progress{Current: 1, Target: 1}
		for i := range chores {
			if StatusOf(&chores[i], today) == StatusOverdue {
				p.Current = 0
				break
			}
		}

	case "Category Sweep":
		counts := map[model.Category]int{}
		best := 0
		for _, c := range done {
			if chore, ok := byID[c.ChoreID]; ok {
				counts[chore.Category]++
				best = max(best, counts[chore.Category])
			}
		}
		p = Progress{Current: best, Target: ch.Target}

	case "Deep Clean One Room":
		p = Progress{Current: len(done), Target: max(1, len(done))}

	default:
		p = Progress{Target: 1}
	}

	p.Done = p.Current >= p.Target
	return p
}

// Dashboard loads chores and completions and builds the dashboard for now.
func (ctl *Controller) Dashboard(ctx context.Context) (Dashboard, error) {
	chores, err := ctl.chores.List(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list chores: %w", err)
	}
	completions, err := ctl.completions.List(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list completions: %w", err)
	}
	return BuildDashboard(chores, completions, ctl.clock.Now()), nil
}

// Leaderboard ranks members by this week's completions.
func (ctl *Controller) Leaderboard(ctx context.Context, members []model.FamilyMember) ([]LeaderboardEntry, error) {
	completions, err := ctl.completions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return Leaderboard(members, completions, ctl.clock.Now()), nil
}

// Filter lists stored chores matching f.
func (ctl *Controller) Filter(ctx context.Context, f Filter) ([]WithStatus, error) {
	chores, err := ctl.chores.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	return FilterChores(chores, f, ctl.today()), nil
}

type ChallengeStatus struct {
	Challenge Challenge `json:"challenge"`
	Progress  Progress  `json:"progress"`
}

// Challenge returns today's challenge and the household's progress on it.
func (ctl *Controller) Challenge(ctx context.Context) (ChallengeStatus, error) {
	chores, err := ctl.chores.List(ctx)
	if err != nil {
		return ChallengeStatus{}, fmt.Errorf("list chores: %w", err)
	}
	completions, err := ctl.completions.List(ctx)
	if err != nil {
		return ChallengeStatus{}, fmt.Errorf("list completions: %w", err)
	}
	now := ctl.clock.Now()
	ch := DailyChallenge(now)
	return ChallengeStatus{
		Challenge: ch,
		Progress:  ChallengeProgress(ch, chores, completions, now),
	}, nil
}

// Schedule previews upcoming due dates of a chore.
type Schedule struct {
	Description string   `json:"description"`
	Dates       []string `json:"dates"`
}

// MaxSchedulePreview caps the number of dates PreviewSchedule returns.
const MaxSchedulePreview = 52

// PreviewSchedule lists up to count due dates starting at the chore's
// current due date.
func PreviewSchedule(c *model.Chore, count int) Schedule {
	rule := recurrence.FromChore(c)
	s := Schedule{Description: rule.Describe(), Dates: []string{}}
	if c.NextDue == nil || c.Status == model.ChoreCompleted {
		return s
	}
	count = min(max(count, 1), MaxSchedulePreview)

	until := dateutil.AddDays(*c.NextDue, 366*5)
	for _, d := range recurrence.Expand(rule, *c.NextDue, until, count) {
		s.Dates = append(s.Dates, dateutil.Format(d))
	}
	return s
}
