package chore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

const (
	maxSuggestions = 8
	jobPool        = 3
	maxRelated     = 3
)

// EffortAll disables effort filtering when ranking.
const EffortAll = "all"

var priorityWeight = map[model.Priority]int{
	model.PriorityCritical: 50,
	model.PriorityHigh:     30,
	model.PriorityMedium:   15,
}

var statusWeight = map[Status]int{
	StatusOverdue:     40,
	StatusGracePeriod: 25,
	StatusDueToday:    20,
}

// Suggestion is a ranked chore.
type Suggestion struct {
	Chore model.Chore    `json:"chore"`
	Score int            `json:"score"`
	Due   Classification `json:"due"`
}

func effortAllowed(filter string, e model.Effort) bool {
	switch model.Effort(filter) {
	case model.EffortQuick:
		return e == model.EffortQuick
	case model.EffortMedium:
		return e != model.EffortLong
	}
	return true
}

func score(c *model.Chore, cl Classification) int {
	s := priorityWeight[c.Priority]
	if w, ok := statusWeight[cl.Status]; ok {
		s += w
	} else if cl.Status == StatusUpcoming {
		if cl.DaysUntil <= 2 {
			s += 10
		} else {
			s += 2
		}
	}
	if c.CurrentStreak > 0 {
		s += 10
	}
	if c.AssignedTo == nil {
		s += 5
	}
	return s
}

// RankForAvailability scores the active chores that fit the effort filter
// ("quick", "medium" or "all") and returns the best eight. Equal scores keep
// input order.
func RankForAvailability(chores []model.Chore, effort string, today time.Time) []Suggestion {
	var ranked []Suggestion
	for i := range chores {
		c := &chores[i]
		if c.Status != model.ChoreActive || !effortAllowed(effort, c.Effort) {
			continue
		}
		cl := Classify(c, today)
		ranked = append(ranked, Suggestion{Chore: *c, Score: score(c, cl), Due: cl})
	}

	slices.SortStableFunc(ranked, func(a, b Suggestion) int {
		return b.Score - a.Score
	})
	if len(ranked) > maxSuggestions {
		ranked = ranked[:maxSuggestions]
	}
	return ranked
}

// PickJob draws one chore uniformly from the top three of the unfiltered
// ranking. ok is false when nothing is active.
func PickJob(chores []model.Chore, today time.Time, r RandSource) (Suggestion, bool) {
	ranked := RankForAvailability(chores, EffortAll, today)
	if len(ranked) == 0 {
		return Suggestion{}, false
	}
	pool := min(len(ranked), jobPool)
	return ranked[r.IntN(pool)], true
}

// RelatedSuggestions proposes up to three other active chores after done was
// completed: ones in the same category, or ones that are due now. Same
// category ranks first, then urgency.
func RelatedSuggestions(done *model.Chore, chores []model.Chore, today time.Time) []WithStatus {
	var related []WithStatus
	for i := range chores {
		c := &chores[i]
		if c.ID == done.ID || c.Status != model.ChoreActive {
			continue
		}
		cl := Classify(c, today)
		if c.Category != done.Category && !cl.Status.Due() {
			continue
		}
		related = append(related, WithStatus{Chore: *c, Due: cl})
	}

	slices.SortStableFunc(related, func(a, b WithStatus) int {
		sameA, sameB := a.Category == done.Category, b.Category == done.Category
		if sameA != sameB {
			if sameA {
				return -1
			}
			return 1
		}
		return a.Due.Status.urgency() - b.Due.Status.urgency()
	})
	if len(related) > maxRelated {
		related = related[:maxRelated]
	}
	return related
}

// Suggestions ranks the stored chores for the given effort filter.
func (ctl *Controller) Suggestions(ctx context.Context, effort string) ([]Suggestion, error) {
	chores, err := ctl.chores.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	return RankForAvailability(chores, effort, ctl.today()), nil
}

// GiveJob picks a single chore to do now.
func (ctl *Controller) GiveJob(ctx context.Context) (Suggestion, bool, error) {
	chores, err := ctl.chores.List(ctx)
	if err != nil {
		return Suggestion{}, false, fmt.Errorf("list chores: %w", err)
	}
	s, ok := PickJob(chores, ctl.today(), ctl.rand)
	return s, ok, nil
}

// Related returns follow-up suggestions for the chore with the given id, or
// nil when it does not exist.
func (ctl *Controller) Related(ctx context.Context, id int64) ([]WithStatus, error) {
	chores, err := ctl.chores.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	idx := slices.IndexFunc(chores, func(c model.Chore) bool { return c.ID == id })
	if idx < 0 {
		return nil, nil
	}
	return RelatedSuggestions(&chores[idx], chores, ctl.today()), nil
}
