package model

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"time"
)

var (
	ErrTitleEmpty        = errors.New("chore title cannot be empty")
	ErrTitleTooLong      = errors.New("chore title is too long (max 100 chars)")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidEffort     = errors.New("invalid effort")
	ErrInvalidWeekdays   = errors.New("invalid weekdays (must be 0-6)")
	ErrInvalidMonthlyDay = errors.New("invalid monthly day (must be 1-31)")
	ErrInvalidInterval   = errors.New("interval days must be positive")
	ErrInvalidSlack      = errors.New("slack days cannot be negative")
	ErrInvalidPostpones  = errors.New("max postpones must be -1 (unlimited) or >= 0")
	ErrInvalidSnooze     = errors.New("snooze days must be positive")
)

const MaxTitleLen = 100

// UnlimitedPostpones disables the consecutive postpone cap.
const UnlimitedPostpones = -1

type Frequency string

const (
	FrequencyOnce       Frequency = "once"
	FrequencyDaily      Frequency = "daily"
	FrequencyEveryXDays Frequency = "every_x_days"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyBiweekly   Frequency = "biweekly"
	FrequencyMonthly    Frequency = "monthly"
)

var frequencyLabels = map[Frequency]string{
	FrequencyOnce:       "One Time",
	FrequencyDaily:      "Daily",
	FrequencyEveryXDays: "Every X Days",
	FrequencyWeekly:     "Weekly",
	FrequencyBiweekly:   "Biweekly",
	FrequencyMonthly:    "Monthly",
}

func (f Frequency) Valid() bool {
	_, ok := frequencyLabels[f]
	return ok
}

func (f Frequency) Label() string {
	return frequencyLabels[f]
}

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Rank orders priorities critical < high < medium < low. Unknown values rank
// as medium.
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return priorityRank[PriorityMedium]
}

type Category string

const (
	CategoryKitchen    Category = "kitchen"
	CategoryBathroom   Category = "bathroom"
	CategoryBedroom    Category = "bedroom"
	CategoryLivingRoom Category = "living_room"
	CategoryGarden     Category = "garden"
	CategoryLaundry    Category = "laundry"
	CategoryShopping   Category = "shopping"
	CategoryPets       Category = "pets"
	CategoryGeneral    Category = "general"
	CategoryOther      Category = "other"
)

var categoryLabels = map[Category]string{
	CategoryKitchen:    "Kitchen",
	CategoryBathroom:   "Bathroom",
	CategoryBedroom:    "Bedroom",
	CategoryLivingRoom: "Living Room",
	CategoryGarden:     "Garden",
	CategoryLaundry:    "Laundry",
	CategoryShopping:   "Shopping",
	CategoryPets:       "Pets",
	CategoryGeneral:    "General",
	CategoryOther:      "Other",
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

type Effort string

const (
	EffortQuick  Effort = "quick"
	EffortMedium Effort = "medium"
	EffortLong   Effort = "long"
)

var effortLabels = map[Effort]string{
	EffortQuick:  "Quick (< 15 min)",
	EffortMedium: "Medium (15-45 min)",
	EffortLong:   "Long (45+ min)",
}

func (e Effort) Valid() bool {
	_, ok := effortLabels[e]
	return ok
}

func (e Effort) Label() string {
	return effortLabels[e]
}

// ChoreStatus is the persisted lifecycle state. The derived due status lives
// in the chore package.
type ChoreStatus string

const (
	ChoreActive    ChoreStatus = "active"
	ChorePaused    ChoreStatus = "paused"
	ChoreCompleted ChoreStatus = "completed"
)

type Chore struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`
	Effort      Effort   `json:"effort"`

	Frequency     Frequency  `json:"frequency"`
	IntervalDays  int        `json:"interval_days"`
	WeeklyDays    []int      `json:"weekly_days"`
	MonthlyDay    int        `json:"monthly_day"`
	StartDate     time.Time  `json:"start_date"`
	NextDue       *time.Time `json:"next_due"`
	PreferredTime string     `json:"preferred_time"`

	Status         ChoreStatus `json:"status"`
	SlackDays      int         `json:"slack_days"`
	MaxPostpones   int         `json:"max_postpones"`
	AutoReschedule bool        `json:"auto_reschedule"`
	SnoozeDays     int         `json:"snooze_days"`

	AssignedTo      *int64  `json:"assigned_to"`
	RotationEnabled bool    `json:"rotation_enabled"`
	RotationMembers []int64 `json:"rotation_members"`
	RotationIndex   int     `json:"rotation_index"`

	CompletionCount       int        `json:"completion_count"`
	CurrentStreak         int        `json:"current_streak"`
	BestStreak            int        `json:"best_streak"`
	CurrentPostponeStreak int        `json:"current_postpone_streak"`
	LastCompleted         *time.Time `json:"last_completed"`

	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanPostpone reports whether another consecutive postpone is allowed.
func (c *Chore) CanPostpone() bool {
	return c.MaxPostpones == UnlimitedPostpones || c.CurrentPostponeStreak < c.MaxPostpones
}

// RotationActive reports whether completions should rotate the assignee.
func (c *Chore) RotationActive() bool {
	return c.RotationEnabled && len(c.RotationMembers) > 0
}

// Validate checks the editable configuration of a chore.
func (c *Chore) Validate() error {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return ErrTitleEmpty
	}
	if len(title) > MaxTitleLen {
		return ErrTitleTooLong
	}
	if !c.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if !c.Priority.Valid() {
		return ErrInvalidPriority
	}
	if !c.Category.Valid() {
		return ErrInvalidCategory
	}
	if !c.Effort.Valid() {
		return ErrInvalidEffort
	}
	for _, d := range c.WeeklyDays {
		if d < 0 || d > 6 {
			return ErrInvalidWeekdays
		}
	}
	if c.MonthlyDay < 1 || c.MonthlyDay > 31 {
		return ErrInvalidMonthlyDay
	}
	if c.IntervalDays < 1 {
		return ErrInvalidInterval
	}
	if c.SlackDays < 0 {
		return ErrInvalidSlack
	}
	if c.MaxPostpones < UnlimitedPostpones {
		return ErrInvalidPostpones
	}
	if c.SnoozeDays < 1 {
		return ErrInvalidSnooze
	}
	return nil
}

// NormalizeWeekdays removes duplicates and sorts the weekday set.
func NormalizeWeekdays(days []int) []int {
	if len(days) == 0 {
		return nil
	}
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}

// NormalizeRotation removes duplicate member ids, keeping first occurrence
// order since it is the rotation order.
func NormalizeRotation(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

var hexColorRegexp = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
