package booking

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted on every surface.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// DateRange is a stay from check-in (first night) to check-out
// (departure day).  Both ends are UTC midnight and the range always
// spans at least one night.
type DateRange struct {
	start time.Time
	end   time.Time
}

// Date drops the clock part of t, keeping t's calendar day, and returns
// it as UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, newError(ErrValidation, "", "dates must use the YYYY-MM-DD format")
	}
	return Date(t), nil
}

// NewDateRange builds a range, rejecting check-out on or before check-in.
func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	checkIn, checkOut = Date(checkIn), Date(checkOut)
	if daysBetween(checkIn, checkOut) < 1 {
		return DateRange{}, newError(ErrInvalidRange, "check_out", "")
	}
	return DateRange{start: checkIn, end: checkOut}, nil
}

// rangeOf returns the stored dates of a booking without validating them.
func rangeOf(checkIn, checkOut time.Time) DateRange {
	return DateRange{start: Date(checkIn), end: Date(checkOut)}
}

func (r DateRange) Start() time.Time { return r.start }
func (r DateRange) End() time.Time   { return r.end }

// Nights is the number of nights in the range, always >= 1 for a range
// built by NewDateRange.
func (r DateRange) Nights() int { return daysBetween(r.start, r.end) }

func (r DateRange) String() string {
	return r.start.Format(DateLayout) + ".." + r.end.Format(DateLayout)
}

// Overlaps reports whether two stays collide.  The shared span is
// counted inclusively, so two ranges that only touch on a single day
// (one check-out on the other's check-in) do not collide and same-day
// turnover is allowed.
func Overlaps(a, b DateRange) bool {
	latestStart := a.start
	if b.start.After(latestStart) {
		latestStart = b.start
	}
	earliestEnd := a.end
	if b.end.Before(earliestEnd) {
		earliestEnd = b.end
	}
	if latestStart.After(earliestEnd) {
		return false
	}
	return daysBetween(latestStart, earliestEnd)+1 > 1
}

// daysBetween counts whole days from a to b.  Both must be UTC midnight.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / day)
}
