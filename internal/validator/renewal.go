package validator

import (
	"errors"
	"time"
)

const (
	// MaxRenewalDays is how far past today a renewal may push a due date.
	MaxRenewalDays = 28

	// DefaultRenewalDays is the renewal period proposed when none is given.
	DefaultRenewalDays = 21
)

var (
	ErrDateInPast      = errors.New("invalid date - renewal in past")
	ErrDateTooFarAhead = errors.New("invalid date - renewal more than 4 weeks ahead")
)

// ValidateRenewalDate checks that candidate falls between today and
// today+MaxRenewalDays inclusive, comparing calendar days only. The rules are
// applied in order and the first failure is returned. A valid candidate is
// returned unchanged.
func ValidateRenewalDate(candidate, today time.Time) (time.Time, error) {
	day, start := calendarDay(candidate), calendarDay(today)

	if day.Before(start) {
		return time.Time{}, ErrDateInPast
	}
	if day.After(start.AddDate(0, 0, MaxRenewalDays)) {
		return time.Time{}, ErrDateTooFarAhead
	}
	return candidate, nil
}

// DefaultRenewalDate is the due date proposed for a renewal started today.
func DefaultRenewalDate(today time.Time) time.Time {
	return calendarDay(today).AddDate(0, 0, DefaultRenewalDays)
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
