// Package biztime pins the business timezone used for billing calendar
// boundaries. Storage and transport are always UTC; the business location
// only decides where a billing day or month starts. Implicit time.Local is
// never used.
package biztime

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTimezone applies when no timezone is configured.
const DefaultTimezone = "Asia/Almaty"

var (
	mu       sync.Mutex
	location *time.Location
)

// Init loads the business timezone. Call once at startup; an empty tz picks
// the default.
func Init(tz string) error {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("load business timezone %q: %w", tz, err)
	}

	mu.Lock()
	location = loc
	mu.Unlock()
	return nil
}

// Location returns the business timezone, initializing the default when Init
// was never called.
func Location() *time.Location {
	mu.Lock()
	defer mu.Unlock()
	if location == nil {
		loc, err := time.LoadLocation(DefaultTimezone)
		if err != nil {
			panic(fmt.Sprintf("biztime: default timezone unavailable: %v", err))
		}
		location = loc
	}
	return location
}

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// StartOfDayUTC returns business-timezone midnight of t's day, in UTC.
func StartOfDayUTC(t time.Time) time.Time {
	local := t.In(Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location()).UTC()
}

// InBusinessTime converts a UTC instant to the business timezone for display.
func InBusinessTime(t time.Time) time.Time {
	return t.In(Location())
}
