package filter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"thingslens/internal/dates"
)

var noon = time.Date(2025, time.August, 30, 12, 0, 0, 0, time.UTC)

func clauseString(c Constraint) string {
	return strings.Join(c.Clauses, " AND ")
}

func TestParseBucket(t *testing.T) {
	for _, name := range []string{"all", "today", "tomorrow", "upcoming", "anytime", "someday", "inbox"} {
		b, err := ParseBucket(name)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		if b.String() != name {
			t.Fatalf("round trip %s -> %s", name, b)
		}
	}
	_, err := ParseBucket("logbook")
	var ce CriteriaError
	if !errors.As(err, &ce) || ce.Field != "list" {
		t.Fatalf("expected criteria error for unknown list, got %v", err)
	}
}

func TestBaseConstraint(t *testing.T) {
	cl := Classifier{SomedayArea: "Someday"}
	c, err := cl.ForBucket(All, noon, false)
	if err != nil {
		t.Fatal(err)
	}
	s := clauseString(c)
	for _, want := range []string{"t.trashed = 0", "t.type = ?", "t.status = ?"} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q in %q", want, s)
		}
	}
	c, _ = cl.ForBucket(All, noon, true)
	if strings.Contains(clauseString(c), "t.status") {
		t.Error("includeCompleted should drop the status clause")
	}
}

func TestStartFieldDrivesBuckets(t *testing.T) {
	cl := Classifier{SomedayArea: "Someday"}
	cases := []struct {
		bucket Bucket
		want   int
	}{
		{Today, 1},
		{Upcoming, 2},
		{Anytime, 0},
	}
	for _, tc := range cases {
		c, err := cl.ForBucket(tc.bucket, noon, false)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(clauseString(c), "t.start = ?") {
			t.Errorf("%v: missing start clause", tc.bucket)
		}
		// The start value is the argument right after type and status.
		if got := c.Args[len(c.Args)-1].(int); got != tc.want {
			t.Errorf("%v: start arg = %d, want %d", tc.bucket, got, tc.want)
		}
	}
}

// A given start value satisfies exactly one of today/upcoming/anytime.
func TestBucketPartitionByStart(t *testing.T) {
	cl := Classifier{SomedayArea: "Someday"}
	for start := 0; start <= 2; start++ {
		matches := 0
		for _, b := range []Bucket{Today, Upcoming, Anytime} {
			c, err := cl.ForBucket(b, noon, false)
			if err != nil {
				t.Fatal(err)
			}
			if c.Args[len(c.Args)-1].(int) == start {
				matches++
			}
		}
		if matches != 1 {
			t.Errorf("start=%d matched %d buckets, want exactly 1", start, matches)
		}
	}
}

func TestTomorrowIsOneDayOfUpcoming(t *testing.T) {
	codec := dates.Codec{}
	cl := Classifier{Codec: codec, SomedayArea: "Someday"}
	c, err := cl.ForBucket(Tomorrow, noon, false)
	if err != nil {
		t.Fatal(err)
	}
	s := clauseString(c)
	if !strings.Contains(s, "t.start = ?") || !strings.Contains(s, "t.startDate >= ? AND t.startDate < ?") {
		t.Fatalf("unexpected clauses %q", s)
	}
	lo := c.Args[len(c.Args)-2].(int64)
	hi := c.Args[len(c.Args)-1].(int64)
	wantLo, wantHi := codec.DayBounds(dates.New(2025, time.August, 31))
	if lo != wantLo || hi != wantHi {
		t.Fatalf("bounds [%d,%d), want [%d,%d)", lo, hi, wantLo, wantHi)
	}
	// Midnight of now+1 is inside the window; midnight of now+2 is not.
	atMidnight := codec.Encode(dates.New(2025, time.August, 31))
	dayAfter := codec.Encode(dates.New(2025, time.September, 1))
	if !(atMidnight >= lo && atMidnight < hi) {
		t.Error("task at local midnight of tomorrow excluded")
	}
	if dayAfter >= lo && dayAfter < hi {
		t.Error("task at local midnight of the day after included")
	}
}

func TestTomorrowCrossesYearBoundary(t *testing.T) {
	codec := dates.Codec{}
	cl := Classifier{Codec: codec, SomedayArea: "Someday"}
	newYearsEve := time.Date(2025, time.December, 31, 18, 0, 0, 0, time.UTC)
	c, err := cl.ForBucket(Tomorrow, newYearsEve, false)
	if err != nil {
		t.Fatal(err)
	}
	lo := c.Args[len(c.Args)-2].(int64)
	if got, _ := dates.Decode(lo); got != dates.New(2026, time.January, 1) {
		t.Fatalf("lower bound decodes to %v", got)
	}
}

func TestSomedayScopedToArea(t *testing.T) {
	cl := Classifier{SomedayArea: "Later"}
	c, err := cl.ForBucket(Someday, noon, false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(clauseString(c), "SELECT uuid FROM TMArea WHERE title = ?") {
		t.Fatalf("missing area subquery in %q", clauseString(c))
	}
	if c.Args[len(c.Args)-1].(string) != "Later" {
		t.Fatal("area title not bound")
	}
	// Someday stays incomplete-only even when completed tasks are requested.
	c, _ = cl.ForBucket(Someday, noon, true)
	if !strings.Contains(clauseString(c), "t.status = ?") {
		t.Fatal("someday must keep the incomplete constraint")
	}
}

func TestInboxUnfiled(t *testing.T) {
	cl := Classifier{SomedayArea: "Someday"}
	c, err := cl.ForBucket(Inbox, noon, false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(clauseString(c), "t.area IS NULL AND t.project IS NULL") {
		t.Fatalf("got %q", clauseString(c))
	}
}

func TestForDateIncludesCarryover(t *testing.T) {
	cl := Classifier{SomedayArea: "Someday"}
	c := cl.ForDate(dates.New(2025, time.August, 30), false)
	s := clauseString(c)
	if !strings.Contains(s, "t.todayIndexReferenceDate >= ?") {
		t.Fatalf("carryover field missing in %q", s)
	}
}

func TestForRangeRejectsReversedEndpoints(t *testing.T) {
	cl := Classifier{SomedayArea: "Someday"}
	_, err := cl.ForRange(dates.New(2025, time.May, 10), dates.New(2025, time.May, 9), false)
	var ce CriteriaError
	if !errors.As(err, &ce) || ce.Field != "range" {
		t.Fatalf("expected range criteria error, got %v", err)
	}
}

func TestForRangeInclusiveEndpoints(t *testing.T) {
	codec := dates.Codec{}
	cl := Classifier{Codec: codec, SomedayArea: "Someday"}
	from := dates.New(2025, time.May, 1)
	to := dates.New(2025, time.May, 3)
	c, err := cl.ForRange(from, to, false)
	if err != nil {
		t.Fatal(err)
	}
	lo := c.Args[len(c.Args)-4].(int64)
	hi := c.Args[len(c.Args)-3].(int64)
	if lo != codec.Encode(from) {
		t.Error("start endpoint not inclusive")
	}
	if hi != codec.Encode(to.AddDays(1)) {
		t.Error("end endpoint should extend to the start of the next day")
	}
	// Single-day range is valid.
	if _, err := cl.ForRange(from, from, false); err != nil {
		t.Fatalf("single-day range: %v", err)
	}
}

func TestForSearchTargets(t *testing.T) {
	cl := Classifier{SomedayArea: "Someday"}
	c, err := cl.ForSearch("milk", "title", false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(clauseString(c), "t.title LIKE ?") {
		t.Fatal("title clause missing")
	}
	c, err = cl.ForSearch("milk", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(clauseString(c), "t.title LIKE ? OR t.notes LIKE ?") {
		t.Fatal("both clause missing")
	}
	if _, err := cl.ForSearch("milk", "checklist", false); err == nil {
		t.Fatal("expected criteria error for bad search target")
	}
}
