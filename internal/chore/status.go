package chore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/chorely/internal/dateutil"
	"github.com/dukerupert/chorely/internal/model"
)

// Status is the derived due state of a chore. It is never persisted.
type Status string

const (
	StatusPaused      Status = "paused"
	StatusCompleted   Status = "completed"
	StatusNoDate      Status = "no-date"
	StatusUpcoming    Status = "upcoming"
	StatusDueToday    Status = "due-today"
	StatusGracePeriod Status = "grace-period"
	StatusOverdue     Status = "overdue"
)

// urgency orders statuses for listing: overdue first, then grace, today,
// upcoming and paused.
var urgency = map[Status]int{
	StatusOverdue:     0,
	StatusGracePeriod: 1,
	StatusDueToday:    2,
	StatusUpcoming:    3,
	StatusPaused:      4,
}

func (s Status) urgency() int {
	if u, ok := urgency[s]; ok {
		return u
	}
	return 5
}

// Due reports whether the chore needs doing today or is already late.
func (s Status) Due() bool {
	return s == StatusDueToday || s == StatusGracePeriod || s == StatusOverdue
}

// Classification is the result of evaluating a chore against a date.
type Classification struct {
	Status    Status `json:"status"`
	DaysUntil int    `json:"days_until"`
	DaysLate  int    `json:"days_late"`
	Text      string `json:"text"`
}

// Classify evaluates the due status of c on the calendar day of today.
func Classify(c *model.Chore, today time.Time) Classification {
	var cl Classification

	switch {
	case c.Status == model.ChorePaused:
		cl.Status = StatusPaused
	case c.Status == model.ChoreCompleted:
		cl.Status = StatusCompleted
	case c.NextDue == nil:
		cl.Status = StatusNoDate
	default:
		cl.DaysUntil = dateutil.DaysBetween(today, *c.NextDue)
		switch {
		case cl.DaysUntil > 0:
			cl.Status = StatusUpcoming
		case cl.DaysUntil == 0:
			cl.Status = StatusDueToday
		default:
			cl.DaysLate = -cl.DaysUntil
			if cl.DaysLate <= c.SlackDays {
				cl.Status = StatusGracePeriod
			} else {
				cl.Status = StatusOverdue
			}
		}
	}

	cl.Text = dueText(cl, c.SlackDays)
	return cl
}

// StatusOf is Classify without the text.
func StatusOf(c *model.Chore, today time.Time) Status {
	return Classify(c, today).Status
}

func dueText(cl Classification, slackDays int) string {
	switch cl.Status {
	case StatusPaused:
		return "Paused"
	case StatusCompleted:
		return "Completed"
	case StatusNoDate:
		return "No date"
	case StatusOverdue:
		if cl.DaysLate == 1 {
			return "1 day overdue"
		}
		return fmt.Sprintf("%d days overdue", cl.DaysLate)
	case StatusGracePeriod:
		return fmt.Sprintf("Grace period (%dd left)", slackDays-cl.DaysLate)
	case StatusDueToday:
		return "Due today"
	case StatusUpcoming:
		if cl.DaysUntil == 1 {
			return "Due tomorrow"
		}
		return fmt.Sprintf("Due in %d days", cl.DaysUntil)
	}
	return ""
}

// WithStatus pairs a chore with its classification for rendering.
type WithStatus struct {
	model.Chore
	Due Classification `json:"due"`
}

// MarshalJSON flattens the chore fields and adds "due". The explicit method
// keeps model.Chore's promoted encoder from dropping Due.
func (ws WithStatus) MarshalJSON() ([]byte, error) {
	obj, err := json.Marshal(ws.Chore)
	if err != nil {
		return nil, err
	}
	due, err := json.Marshal(ws.Due)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(obj)+len(due)+8)
	out = append(out, obj[:len(obj)-1]...)
	out = append(out, `,"due":`...)
	out = append(out, due...)
	return append(out, '}'), nil
}

func (ws *WithStatus) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &ws.Chore); err != nil {
		return err
	}
	var aux struct {
		Due Classification `json:"due"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ws.Due = aux.Due
	return nil
}

// Annotate classifies every chore in order.
func Annotate(chores []model.Chore, today time.Time) []WithStatus {
	out := make([]WithStatus, 0, len(chores))
	for i := range chores {
		out = append(out, WithStatus{Chore: chores[i], Due: Classify(&chores[i], today)})
	}
	return out
}
