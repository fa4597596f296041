package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/dateutil"
	"github.com/dukerupert/chorely/internal/model"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// setupPostgres connects to CHORELY_TEST_POSTGRES_DSN and empties the tables,
// skipping when no server is available.
func setupPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("CHORELY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CHORELY_TEST_POSTGRES_DSN not set")
	}
	db, err := database.Open(database.DriverPostgres, dsn)
	if err != nil {
		t.Skipf("skipping postgres tests: %v", err)
	}
	truncate := func() {
		if _, err := db.Exec("TRUNCATE TABLE completions, chores, family_members RESTART IDENTITY"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		db.Close()
	})
	return db
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := dateutil.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func sampleChore(t *testing.T) *model.Chore {
	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	assignee := int64(2)
	return &model.Chore{
		Title:           "Take out bins",
		Description:     "All bins to the curb",
		Category:        model.CategoryKitchen,
		Priority:        model.PriorityHigh,
		Effort:          model.EffortQuick,
		Frequency:       model.FrequencyWeekly,
		IntervalDays:    3,
		WeeklyDays:      []int{2, 5},
		MonthlyDay:      1,
		StartDate:       mustDate(t, "2026-10-19"),
		NextDue:         dateutil.Ptr(mustDate(t, "2026-10-20")),
		PreferredTime:   "morning",
		Status:          model.ChoreActive,
		SlackDays:       1,
		MaxPostpones:    model.UnlimitedPostpones,
		AutoReschedule:  true,
		SnoozeDays:      2,
		AssignedTo:      &assignee,
		RotationEnabled: true,
		RotationMembers: []int64{2, 1},
		Notes:           "before 7am",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func testChoreBackend(t *testing.T, s ChoreBackend) {
	ctx := context.Background()

	in := sampleChore(t)
	created, err := s.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected chore, got nil")
	}

	if got.Title != in.Title || got.Description != in.Description || got.PreferredTime != in.PreferredTime || got.Notes != in.Notes {
		t.Errorf("text fields = %q %q %q %q", got.Title, got.Description, got.PreferredTime, got.Notes)
	}
	if got.Category != in.Category || got.Priority != in.Priority || got.Effort != in.Effort || got.Frequency != in.Frequency {
		t.Errorf("enums = %s %s %s %s", got.Category, got.Priority, got.Effort, got.Frequency)
	}
	if len(got.WeeklyDays) != 2 || got.WeeklyDays[0] != 2 || got.WeeklyDays[1] != 5 {
		t.Errorf("weekly days = %v, want [2 5]", got.WeeklyDays)
	}
	if len(got.RotationMembers) != 2 || got.RotationMembers[0] != 2 || got.RotationMembers[1] != 1 {
		t.Errorf("rotation members = %v, want [2 1]", got.RotationMembers)
	}
	if !got.StartDate.Equal(in.StartDate) {
		t.Errorf("start date = %v, want %v", got.StartDate, in.StartDate)
	}
	if got.NextDue == nil || !got.NextDue.Equal(*in.NextDue) {
		t.Errorf("next due = %v, want %v", got.NextDue, in.NextDue)
	}
	if got.LastCompleted != nil {
		t.Errorf("last completed = %v, want nil", got.LastCompleted)
	}
	if got.AssignedTo == nil || *got.AssignedTo != 2 {
		t.Errorf("assigned to = %v, want 2", got.AssignedTo)
	}
	if got.MaxPostpones != model.UnlimitedPostpones || got.SnoozeDays != 2 || got.SlackDays != 1 || !got.AutoReschedule || !got.RotationEnabled {
		t.Errorf("postpone config = %+v", got)
	}
	if !got.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("created at = %v, want %v", got.CreatedAt, in.CreatedAt)
	}

	// Full record replace.
	got.NextDue = nil
	got.LastCompleted = dateutil.Ptr(mustDate(t, "2026-10-19"))
	got.AssignedTo = nil
	got.WeeklyDays = nil
	got.Status = model.ChoreCompleted
	got.CompletionCount = 3
	got.CurrentStreak = 2
	got.BestStreak = 5
	got.CurrentPostponeStreak = 1
	got.RotationIndex = 1

	updated, err := s.Update(ctx, got)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.NextDue != nil {
		t.Errorf("next due = %v, want nil", updated.NextDue)
	}
	if updated.LastCompleted == nil || dateutil.Format(*updated.LastCompleted) != "2026-10-19" {
		t.Errorf("last completed = %v", updated.LastCompleted)
	}
	if updated.AssignedTo != nil {
		t.Errorf("assigned to = %v, want nil", updated.AssignedTo)
	}
	if len(updated.WeeklyDays) != 0 {
		t.Errorf("weekly days = %v, want empty", updated.WeeklyDays)
	}
	if updated.Status != model.ChoreCompleted || updated.CompletionCount != 3 || updated.CurrentStreak != 2 ||
		updated.BestStreak != 5 || updated.CurrentPostponeStreak != 1 || updated.RotationIndex != 1 {
		t.Errorf("counters = %+v", updated)
	}

	second, err := s.Create(ctx, sampleChore(t))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != created.ID || list[1].ID != second.ID {
		t.Fatalf("list = %+v, want insertion order", list)
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if gone != nil {
		t.Error("expected nil after delete")
	}

	missing, err := s.Update(ctx, &model.Chore{ID: 9999, Title: "x", StartDate: mustDate(t, "2026-10-19")})
	if err != nil {
		t.Fatalf("update missing: %v", err)
	}
	if missing != nil {
		t.Errorf("update missing = %+v, want nil", missing)
	}
}

func TestChoreStoreSQLite(t *testing.T) {
	testChoreBackend(t, NewChoreStore(setupTestDB(t)))
}

func TestChoreStorePostgres(t *testing.T) {
	testChoreBackend(t, NewChoreStore(setupPostgres(t)))
}

func TestInMemoryChoreStore(t *testing.T) {
	testChoreBackend(t, NewInMemoryChoreStore())
}

func TestInMemoryChoreStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryChoreStore()

	in := sampleChore(t)
	created, err := s.Create(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	in.WeeklyDays[0] = 6
	created.RotationMembers[0] = 99
	*created.NextDue = mustDate(t, "2030-01-01")

	got, _ := s.GetByID(ctx, created.ID)
	if got.WeeklyDays[0] != 2 || got.RotationMembers[0] != 2 || dateutil.Format(*got.NextDue) != "2026-10-20" {
		t.Errorf("stored chore changed through caller references: %+v", got)
	}
}
