package clock

import (
	"fmt"
	"time"
)

// DateLayout is the civil date wire format used across the API and in Firestore.
// Lexicographic order on these strings equals chronological order, which is what
// makes range queries on date fields correct.
const DateLayout = "2006-01-02"

// PlatformZone is the fixed civil time zone of the platform. All "today"
// computations (ini_date validation, active-list scoping, daily cache keys)
// happen in this zone regardless of where the server runs.
const PlatformZone = "Europe/Madrid"

// Clock provides the current time and today's civil date in the platform zone.
type Clock interface {
	Now() time.Time
	// Today returns the current civil date as a "YYYY-MM-DD" string.
	Today() string
}

// FixedZoneClock is the production Clock. It loads the platform zone once at
// construction.
type FixedZoneClock struct {
	loc *time.Location
}

// NewFixedZoneClock creates a Clock pinned to the platform time zone.
func NewFixedZoneClock() (*FixedZoneClock, error) {
	loc, err := time.LoadLocation(PlatformZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load platform time zone %q: %w", PlatformZone, err)
	}
	return &FixedZoneClock{loc: loc}, nil
}

func (c *FixedZoneClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *FixedZoneClock) Today() string {
	return c.Now().Format(DateLayout)
}

// FakeClock is a Clock frozen at a given instant. Intended for tests.
type FakeClock struct {
	Instant time.Time
}

// NewFakeClock builds a FakeClock frozen at noon of the given civil date.
func NewFakeClock(date string) (*FakeClock, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return &FakeClock{Instant: t.Add(12 * time.Hour)}, nil
}

func (c *FakeClock) Now() time.Time { return c.Instant }

func (c *FakeClock) Today() string { return c.Instant.Format(DateLayout) }

// ValidDate reports whether s is a well-formed "YYYY-MM-DD" civil date.
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}
