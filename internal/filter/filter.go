// Package filter turns named task lists and explicit dates into declarative
// query constraints. It knows the host's scheduling model but no SQL beyond
// column predicates; the repo layer owns query assembly.
package filter

import (
	"fmt"
	"time"

	"thingslens/internal/dates"
	"thingslens/internal/domain"
)

// Bucket is one of the host's temporal lists.
type Bucket int

const (
	All Bucket = iota
	Today
	Tomorrow
	Upcoming
	Anytime
	Someday
	Inbox
)

var bucketNames = map[Bucket]string{
	All:      "all",
	Today:    "today",
	Tomorrow: "tomorrow",
	Upcoming: "upcoming",
	Anytime:  "anytime",
	Someday:  "someday",
	Inbox:    "inbox",
}

func (b Bucket) String() string {
	if name, ok := bucketNames[b]; ok {
		return name
	}
	return fmt.Sprintf("bucket(%d)", int(b))
}

// ParseBucket resolves a list name. Unknown names are a caller error.
func ParseBucket(name string) (Bucket, error) {
	for b, n := range bucketNames {
		if n == name {
			return b, nil
		}
	}
	return 0, CriteriaError{Field: "list", Reason: fmt.Sprintf("unknown list %q", name)}
}

// CriteriaError reports caller-supplied criteria that failed validation.
// It is always raised before any store access.
type CriteriaError struct {
	Field  string
	Reason string
}

func (e CriteriaError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Constraint is a conjunction of column predicates with bound arguments.
type Constraint struct {
	Clauses []string
	Args    []any
}

func (c *Constraint) add(clause string, args ...any) {
	c.Clauses = append(c.Clauses, clause)
	c.Args = append(c.Args, args...)
}

// Classifier builds constraints for the host's lists. The reference instant
// is always passed in by the caller so relative lists stay testable.
type Classifier struct {
	Codec       dates.Codec
	SomedayArea string
}

// base covers every list: not trashed, actions only, and incomplete unless
// the caller asked for completed tasks too.
func (cl Classifier) base(includeCompleted bool) Constraint {
	var c Constraint
	c.add("t.trashed = 0")
	c.add("t.type = ?", int(domain.TypeAction))
	if !includeCompleted {
		c.add("t.status = ?", int(domain.StatusIncomplete))
	}
	return c
}

// ForBucket returns the constraint selecting the given list at the given
// moment. The start field and the scheduled date are independent in the
// host's model; membership must consult the right one per list, never
// date-field presence alone.
func (cl Classifier) ForBucket(b Bucket, now time.Time, includeCompleted bool) (Constraint, error) {
	c := cl.base(includeCompleted)
	switch b {
	case All:
	case Today:
		c.add("t.start = ?", int(domain.StartToday))
	case Tomorrow:
		// Upcoming narrowed to exactly one local calendar day. Both bounds
		// go through the encoder so a configured offset cancels out.
		c.add("t.start = ?", int(domain.StartUpcoming))
		lo, hi := cl.Codec.DayBounds(dates.FromTime(now).AddDays(1))
		c.add("t.startDate >= ? AND t.startDate < ?", lo, hi)
	case Upcoming:
		c.add("t.start = ?", int(domain.StartUpcoming))
	case Anytime:
		c.add("t.start = ?", int(domain.StartNone))
	case Someday:
		// Host convention: Someday tasks live in an area by that name.
		if includeCompleted {
			c.add("t.status = ?", int(domain.StatusIncomplete))
		}
		c.add("t.area IN (SELECT uuid FROM TMArea WHERE title = ?)", cl.SomedayArea)
	case Inbox:
		c.add("t.area IS NULL AND t.project IS NULL")
	default:
		return Constraint{}, fmt.Errorf("unhandled bucket %v", b)
	}
	return c, nil
}

// ForDate selects tasks scheduled on day, or carried into it via the
// today-reference date the host writes when rolling tasks forward.
func (cl Classifier) ForDate(day dates.Date, includeCompleted bool) Constraint {
	c := cl.base(includeCompleted)
	lo, hi := cl.Codec.DayBounds(day)
	c.add("((t.startDate >= ? AND t.startDate < ?) OR (t.todayIndexReferenceDate >= ? AND t.todayIndexReferenceDate < ?))",
		lo, hi, lo, hi)
	return c
}

// ForRange selects tasks scheduled or carried into [from, to], endpoints
// inclusive. A reversed range is a caller error, not something to swap.
func (cl Classifier) ForRange(from, to dates.Date, includeCompleted bool) (Constraint, error) {
	if to.Before(from) {
		return Constraint{}, CriteriaError{Field: "range", Reason: fmt.Sprintf("end %s before start %s", to, from)}
	}
	c := cl.base(includeCompleted)
	lo := cl.Codec.Encode(from)
	hi := cl.Codec.Encode(to.AddDays(1))
	c.add("((t.startDate >= ? AND t.startDate < ?) OR (t.todayIndexReferenceDate >= ? AND t.todayIndexReferenceDate < ?))",
		lo, hi, lo, hi)
	return c, nil
}

// ForSearch matches a substring of title, notes, or both.
func (cl Classifier) ForSearch(query, searchIn string, includeCompleted bool) (Constraint, error) {
	c := cl.base(includeCompleted)
	pattern := "%" + query + "%"
	switch searchIn {
	case "title":
		c.add("t.title LIKE ?", pattern)
	case "notes":
		c.add("t.notes LIKE ?", pattern)
	case "", "both":
		c.add("(t.title LIKE ? OR t.notes LIKE ?)", pattern, pattern)
	default:
		return Constraint{}, CriteriaError{Field: "in", Reason: fmt.Sprintf("must be title, notes or both, got %q", searchIn)}
	}
	return c, nil
}
