package model

import (
	"errors"
	"math"
	"time"
)

var (
	ErrDatesRequired    = errors.New("check-in and check-out dates are required")
	ErrCheckOutNotAfter = errors.New("check-out must be after check-in")
	ErrCheckInTooEarly  = errors.New("check-in must be tomorrow or later")
)

// StayWindow is the check-in/check-out date pair defining a stay. Dates are
// calendar dates; any time-of-day component is ignored.
type StayWindow struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Validate checks the window against the current clock.
func (w StayWindow) Validate() error {
	return w.ValidateAt(time.Now())
}

// ValidateAt checks the window relative to now: both dates set, check-out
// strictly after check-in, and check-in no earlier than the next calendar day.
// Calendar dates are compared, not instants: the window may have been parsed
// in a different zone than the clock.
func (w StayWindow) ValidateAt(now time.Time) error {
	if w.CheckIn.IsZero() || w.CheckOut.IsZero() {
		return ErrDatesRequired
	}
	checkIn := dateIn(w.CheckIn, now.Location())
	checkOut := dateIn(w.CheckOut, now.Location())
	if !checkOut.After(checkIn) {
		return ErrCheckOutNotAfter
	}
	earliest := TruncateDate(now).AddDate(0, 0, 1)
	if checkIn.Before(earliest) {
		return ErrCheckInTooEarly
	}
	return nil
}

// Nights is ceil((checkOut - checkIn) / 1 day). Always >= 1 for a valid
// window. Both dates are rebuilt as UTC midnights first, so mixed-zone
// windows and DST-day deltas count calendar nights, not elapsed hours.
func (w StayWindow) Nights() int {
	in := dateIn(w.CheckIn, time.UTC)
	out := dateIn(w.CheckOut, time.UTC)
	delta := out.Sub(in)
	nights := int(math.Ceil(delta.Hours() / 24))
	if nights < 1 && delta > 0 {
		return 1
	}
	return nights
}

// dateIn rebuilds t's calendar date at midnight in loc.
func dateIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func (w StayWindow) CheckInISO() string {
	return w.CheckIn.Format(time.DateOnly)
}

func (w StayWindow) CheckOutISO() string {
	return w.CheckOut.Format(time.DateOnly)
}

func TruncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// TotalPrice recomputes the stay total from the current window and room
// selection. Falls back to the catalog base price when the availability check
// did not report a per-night rate.
func TotalPrice(w StayWindow, rt RoomType, perNight Decimal) Decimal {
	price := perNight
	if price <= 0 {
		price = rt.BasePrice
	}
	return Decimal(float64(w.Nights()) * price.Float())
}
