package model

import (
	"encoding/json"
	"time"

	"github.com/dukerupert/chorely/internal/dateutil"
)

// Calendar dates travel as YYYY-MM-DD so a chore read from the API can be
// sent back unchanged. Timestamps (created_at, completed_at) stay RFC 3339.

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := dateutil.Format(*t)
	return &s
}

func parseDateString(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := dateutil.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// choreFields drops Chore's methods so encoding it does not recurse.
type choreFields Chore

type choreJSON struct {
	*choreFields
	StartDate     string  `json:"start_date"`
	NextDue       *string `json:"next_due"`
	LastCompleted *string `json:"last_completed"`
}

func (c Chore) MarshalJSON() ([]byte, error) {
	out := choreJSON{
		choreFields:   (*choreFields)(&c),
		NextDue:       dateString(c.NextDue),
		LastCompleted: dateString(c.LastCompleted),
	}
	if !c.StartDate.IsZero() {
		out.StartDate = dateutil.Format(c.StartDate)
	}
	return json.Marshal(out)
}

func (c *Chore) UnmarshalJSON(data []byte) error {
	in := choreJSON{choreFields: (*choreFields)(c)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	c.StartDate = time.Time{}
	if in.StartDate != "" {
		d, err := dateutil.Parse(in.StartDate)
		if err != nil {
			return err
		}
		c.StartDate = d
	}
	var err error
	if c.NextDue, err = parseDateString(in.NextDue); err != nil {
		return err
	}
	c.LastCompleted, err = parseDateString(in.LastCompleted)
	return err
}

type completionFields Completion

type completionJSON struct {
	*completionFields
	ScheduledFor string `json:"scheduled_for"`
}

func (c Completion) MarshalJSON() ([]byte, error) {
	out := completionJSON{completionFields: (*completionFields)(&c)}
	if !c.ScheduledFor.IsZero() {
		out.ScheduledFor = dateutil.Format(c.ScheduledFor)
	}
	return json.Marshal(out)
}

func (c *Completion) UnmarshalJSON(data []byte) error {
	in := completionJSON{completionFields: (*completionFields)(c)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.ScheduledFor = time.Time{}
	if in.ScheduledFor != "" {
		d, err := dateutil.Parse(in.ScheduledFor)
		if err != nil {
			return err
		}
		c.ScheduledFor = d
	}
	return nil
}
