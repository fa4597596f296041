package recurrence

import "time"

// maxOccurrences bounds Expand for rules that advance slowly.
const maxOccurrences = 366

// Expand lists the due dates of r starting at first (inclusive) up to and
// including until, stopping early after limit dates when limit > 0. first is
// normally the chore's current nextDue.
func Expand(r Rule, first, until time.Time, limit int) []time.Time {
	if limit <= 0 || limit > maxOccurrences {
		limit = maxOccurrences
	}

	var out []time.Time
	current := first
	for len(out) < limit && !current.After(until) {
		out = append(out, current)
		next, ok := r.NextAfter(current)
		if !ok {
			break
		}
		current = next
	}
	return out
}
