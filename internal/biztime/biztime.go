// Package biztime centralizes operational-timezone handling. All storage and
// comparison uses UTC; the fixed operational zone is applied exactly once, at
// the presentation boundary (API responses and email bodies).
package biztime

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTimezone is the credentialing department's operational zone.
const DefaultTimezone = "Asia/Karachi"

var (
	opLocation *time.Location
	initOnce   sync.Once
	initErr    error
)

// Init loads the operational timezone. Called once at startup; an empty tz
// selects the default.
func Init(tz string) error {
	initOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		opLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// MustInit initializes the operational timezone and panics on error.
func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(fmt.Sprintf("failed to initialize operational timezone %q: %v", tz, err))
	}
}

// Location returns the operational timezone, auto-initializing with the
// default when Init was never called.
func Location() *time.Location {
	if opLocation == nil {
		if err := Init(""); err != nil {
			panic(fmt.Sprintf("biztime: failed to auto-initialize: %v", err))
		}
	}
	return opLocation
}

// NowUTC returns the current instant in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ToOperational converts a stored UTC instant for display.
func ToOperational(t time.Time) time.Time {
	return t.In(Location())
}

// FormatOperational formats a UTC instant in the operational zone.
func FormatOperational(t time.Time, layout string) string {
	return t.In(Location()).Format(layout)
}
