package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestChoreJSONUsesCalendarDates(t *testing.T) {
	next := day("2026-10-22")
	c := validChore()
	c.ID = 9
	c.StartDate = day("2026-10-19")
	c.NextDue = &next
	c.CreatedAt = time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`"start_date":"2026-10-19"`,
		`"next_due":"2026-10-22"`,
		`"last_completed":null`,
		`"created_at":"2026-10-19T08:30:00Z"`,
		`"title":"Water plants"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("json %s missing %s", out, want)
		}
	}

	var back Chore
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != 9 || back.Title != c.Title || !back.StartDate.Equal(c.StartDate) {
		t.Errorf("round trip = %+v", back)
	}
	if back.NextDue == nil || !back.NextDue.Equal(next) || back.LastCompleted != nil {
		t.Errorf("round trip dates: next=%v last=%v", back.NextDue, back.LastCompleted)
	}
}

func TestChoreJSONRejectsBadDate(t *testing.T) {
	var c Chore
	if err := json.Unmarshal([]byte(`{"next_due":"next week"}`), &c); err == nil {
		t.Error("expected error for malformed next_due")
	}
}

func TestCompletionJSON(t *testing.T) {
	c := Completion{ID: 1, ChoreID: 2, ScheduledFor: day("2026-10-18"), WasOnTime: true}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"scheduled_for":"2026-10-18"`) {
		t.Errorf("json %s missing scheduled_for date", data)
	}

	var back Completion
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.ScheduledFor.Equal(c.ScheduledFor) || !back.WasOnTime || back.ChoreID != 2 {
		t.Errorf("round trip = %+v", back)
	}
}
