package chore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/model"
)

func completion(choreID int64, by *int64, at time.Time) model.Completion {
	return model.Completion{ChoreID: choreID, CompletedBy: by, CompletedAt: at, WasOnTime: true}
}

func withStatusIDs(ws []chore.WithStatus) []int64 {
	return ids(ws, func(w chore.WithStatus) int64 { return w.ID })
}

func TestBuildDashboard(t *testing.T) {
	lowOverdue := active(1, model.PriorityLow, model.EffortQuick, -5)
	critOverdue := active(2, model.PriorityCritical, model.EffortQuick, -2)
	medToday := active(3, model.PriorityMedium, model.EffortQuick, 0)
	highGrace := active(4, model.PriorityHigh, model.EffortQuick, -1)
	highGrace.SlackDays = 1
	upcoming := active(5, model.PriorityCritical, model.EffortQuick, 1)
	paused := active(6, model.PriorityCritical, model.EffortQuick, -9)
	paused.Status = model.ChorePaused

	completions := []model.Completion{
		completion(3, nil, monday.Add(-time.Hour)),
		completion(5, nil, monday.Add(-24*time.Hour)),
		completion(5, nil, monday.Add(2*time.Hour)),
	}

	d := chore.BuildDashboard([]model.Chore{lowOverdue, critOverdue, medToday, highGrace, upcoming, paused}, completions, monday)

	assert.Equal(t, []int64{2, 1}, withStatusIDs(d.Overdue))
	assert.Equal(t, []int64{4, 3}, withStatusIDs(d.Today))
	assert.Equal(t, 2, d.OverdueCount)
	assert.Equal(t, 2, d.DueTodayCount)
	assert.Equal(t, 2, d.DoneToday)
}

func TestBuildDashboardUsesLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, loc)

	// 22:30 UTC on the 18th is 08:30 on the 19th in UTC+10.
	completions := []model.Completion{
		completion(1, nil, time.Date(2026, 10, 18, 22, 30, 0, 0, time.UTC)),
		completion(1, nil, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)),
	}
	d := chore.BuildDashboard(nil, completions, now)
	assert.Equal(t, 1, d.DoneToday)
	assert.NotNil(t, d.Overdue)
	assert.NotNil(t, d.Today)
}

func TestLeaderboard(t *testing.T) {
	members := []model.FamilyMember{
		{ID: 1, Name: "Sam"},
		{ID: 2, Name: "Alex"},
		{ID: 3, Name: "Jo"},
	}
	sunday := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	completions := []model.Completion{
		completion(1, ptr(int64(2)), monday.Add(time.Hour)),
		completion(1, ptr(int64(2)), monday),
		completion(1, ptr(int64(3)), monday.Add(-9*time.Hour)),
		completion(1, ptr(int64(1)), sunday),
		completion(1, nil, monday),
	}

	got := chore.Leaderboard(members, completions, monday)
	require.Len(t, got, 3)

	assert.Equal(t, int64(2), got[0].Member.ID)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, 1, got[0].Rank)

	assert.Equal(t, int64(3), got[1].Member.ID)
	assert.Equal(t, 1, got[1].Count)

	assert.Equal(t, int64(1), got[2].Member.ID)
	assert.Equal(t, 0, got[2].Count)
	assert.Equal(t, 3, got[2].Rank)
}

func TestMemberCompletionCount(t *testing.T) {
	completions := []model.Completion{
		completion(1, ptr(int64(1)), monday),
		completion(1, ptr(int64(1)), monday.AddDate(0, 0, -10)),
		completion(1, ptr(int64(2)), monday),
	}
	assert.Equal(t, 2, chore.MemberCompletionCount(completions, 1, time.Time{}))
	assert.Equal(t, 1, chore.MemberCompletionCount(completions, 1, monday.AddDate(0, 0, -1)))
	assert.Equal(t, 0, chore.MemberCompletionCount(completions, 3, time.Time{}))
}

func TestFilterChores(t *testing.T) {
	overdue := active(1, model.PriorityLow, model.EffortQuick, -3)
	grace := active(2, model.PriorityLow, model.EffortQuick, -1)
	grace.SlackDays = 2
	todayHigh := active(3, model.PriorityHigh, model.EffortQuick, 0)
	todayCrit := active(4, model.PriorityCritical, model.EffortQuick, 0)
	week := active(5, model.PriorityMedium, model.EffortQuick, 7)
	week.Category = model.CategoryKitchen
	week.AssignedTo = ptr(int64(9))
	soon := active(6, model.PriorityMedium, model.EffortQuick, 3)
	far := active(7, model.PriorityMedium, model.EffortQuick, 30)
	paused := active(8, model.PriorityMedium, model.EffortQuick, 1)
	paused.Status = model.ChorePaused
	finished := active(9, model.PriorityMedium, model.EffortQuick, 0)
	finished.Status = model.ChoreCompleted
	finished.NextDue = nil

	all := []model.Chore{far, week, soon, paused, todayHigh, overdue, finished, todayCrit, grace}

	tests := []struct {
		name   string
		filter chore.Filter
		want   []int64
	}{
		{"zero filter lists active chores by urgency", chore.Filter{}, []int64{1, 2, 4, 3, 6, 5, 7}},
		{"all", chore.Filter{Status: chore.FilterAll}, []int64{1, 2, 4, 3, 6, 5, 7}},
		{"paused", chore.Filter{Status: chore.FilterPaused}, []int64{8}},
		{"completed", chore.Filter{Status: chore.FilterCompleted}, []int64{9}},
		{"today includes grace", chore.Filter{Status: chore.FilterToday}, []int64{2, 4, 3}},
		{"overdue", chore.Filter{Status: chore.FilterOverdue}, []int64{1}},
		{"grace", chore.Filter{Status: chore.FilterGrace}, []int64{2}},
		{"upcoming within a week", chore.Filter{Status: chore.FilterUpcoming}, []int64{4, 3, 6, 5}},
		{"member", chore.Filter{Member: ptr(int64(9))}, []int64{5}},
		{"category", chore.Filter{Category: model.CategoryKitchen}, []int64{5}},
		{"priority", chore.Filter{Priority: model.PriorityLow}, []int64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chore.FilterChores(all, tt.filter, monday)
			assert.Equal(t, tt.want, withStatusIDs(got))
		})
	}

	t.Run("empty result is not nil", func(t *testing.T) {
		got := chore.FilterChores(nil, chore.Filter{}, monday)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestStatusFilterValid(t *testing.T) {
	assert.True(t, chore.FilterUpcoming.Valid())
	assert.False(t, chore.StatusFilter("later").Valid())
}

func TestDailyChallenge(t *testing.T) {
	assert.Equal(t, "Streak Builder", chore.DailyChallenge(monday).Title)
	assert.Equal(t, "Speed Clean", chore.DailyChallenge(monday.AddDate(0, 0, 3)).Title)
	assert.Equal(t, "Streak Builder", chore.DailyChallenge(monday.AddDate(0, 0, 7)).Title)

	// Time of day and zone do not change the pick.
	late := time.Date(2026, 10, 19, 23, 59, 0, 0, time.FixedZone("UTC-9", -9*3600))
	assert.Equal(t, "Streak Builder", chore.DailyChallenge(late).Title)

	seen := map[string]bool{}
	for i := range 7 {
		seen[chore.DailyChallenge(monday.AddDate(0, 0, i)).Title] = true
	}
	assert.Len(t, seen, 7)
}

func TestChallengeProgress(t *testing.T) {
	quick := active(1, model.PriorityMedium, model.EffortQuick, 1)
	quick.Category = model.CategoryKitchen
	quick.AssignedTo = ptr(int64(1))
	long := active(2, model.PriorityMedium, model.EffortLong, 1)
	long.Category = model.CategoryKitchen
	garden := active(3, model.PriorityMedium, model.EffortQuick, 1)
	garden.Category = model.CategoryGarden
	garden.AssignedTo = ptr(int64(2))

	chores := []model.Chore{quick, long, garden}
	lateOne := completion(2, ptr(int64(1)), monday)
	lateOne.WasOnTime = false
	completions := []model.Completion{
		completion(1, ptr(int64(2)), monday),
		completion(1, ptr(int64(1)), monday),
		lateOne,
		completion(3, ptr(int64(1)), monday),
		completion(3, ptr(int64(1)), monday.AddDate(0, 0, -1)),
	}

	challenge := func(title string) chore.Challenge {
		for i := range 7 {
			if c := chore.DailyChallenge(monday.AddDate(0, 0, i)); c.Title == title {
				return c
			}
		}
		t.Fatalf("no challenge %q", title)
		return chore.Challenge{}
	}

	tests := []struct {
		title   string
		current int
		target  int
		done    bool
	}{
		{"Speed Clean", 4, 3, true},
		{"Streak Builder", 3, 3, true},
		{"Quick Win Spree", 3, 5, false},
		{"Helping Hand", 2, 2, true},
		{"Category Sweep", 3, 3, true},
		{"Deep Clean One Room", 4, 4, true},
		{"Overdue Blitz", 1, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			p := chore.ChallengeProgress(challenge(tt.title), chores, completions, monday)
			assert.Equal(t, tt.current, p.Current)
			assert.Equal(t, tt.target, p.Target)
			assert.Equal(t, tt.done, p.Done)
		})
	}

	t.Run("overdue chores block the blitz", func(t *testing.T) {
		overdue := active(4, model.PriorityMedium, model.EffortQuick, -2)
		p := chore.ChallengeProgress(challenge("Overdue Blitz"), append(chores, overdue), completions, monday)
		assert.Equal(t, 0, p.Current)
		assert.False(t, p.Done)
	})

	t.Run("deep clean with nothing done", func(t *testing.T) {
		p := chore.ChallengeProgress(challenge("Deep Clean One Room"), chores, nil, monday)
		assert.Equal(t, 0, p.Current)
		assert.Equal(t, 1, p.Target)
	})
}

func TestPreviewSchedule(t *testing.T) {
	c := active(1, model.PriorityMedium, model.EffortQuick, 3) // Thursday
	c.Frequency = model.FrequencyWeekly
	c.WeeklyDays = []int{1, 4}

	s := chore.PreviewSchedule(&c, 4)
	assert.Equal(t, "Repeats weekly on Mon, Thu", s.Description)
	assert.Equal(t, []string{"2026-10-22", "2026-10-26", "2026-10-29", "2026-11-02"}, s.Dates)

	t.Run("count is capped", func(t *testing.T) {
		d := active(2, model.PriorityMedium, model.EffortQuick, 0)
		d.Frequency = model.FrequencyDaily
		assert.Len(t, chore.PreviewSchedule(&d, 500).Dates, chore.MaxSchedulePreview)
		assert.Len(t, chore.PreviewSchedule(&d, 0).Dates, 1)
	})

	t.Run("one time chore", func(t *testing.T) {
		o := active(3, model.PriorityMedium, model.EffortQuick, 2)
		o.Frequency = model.FrequencyOnce
		assert.Equal(t, []string{"2026-10-21"}, chore.PreviewSchedule(&o, 5).Dates)

		o.Status = model.ChoreCompleted
		o.NextDue = nil
		assert.Empty(t, chore.PreviewSchedule(&o, 5).Dates)
	})
}
