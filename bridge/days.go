/*
days.go - Per-day decomposition of a leave request

PURPOSE:
  A leave request becomes one deviation per calendar day. The per-day
  breakdown comes from the request's slots when present; otherwise every
  day in the inclusive [first_date, last_date] range is enumerated at
  the default full-day duration.

DATE HANDLING:
  Slot dates arrive as ISO datetimes, possibly with a timezone suffix
  ("2025-03-14T23:00:00.000Z"). The calendar day is taken by slicing
  the first ten characters of the string. Reparsing through a timezone
  aware date type would shift "23:00Z" into the next day on some hosts;
  string slicing cannot.

DURATION:
  Minutes = round(hours x 60), computed with shopspring/decimal so that
  fractional hours (7.6 etc.) round exactly. Slots without usable hours
  get the default of 8 hours.
*/
package bridge

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDayMinutes is the duration assigned to a day when the slot
// carries no usable hours, and to every day of a slotless range.
const DefaultDayMinutes = 8 * 60

var sixty = decimal.NewFromInt(60)

// DaySlot is one calendar day of absence.
type DaySlot struct {
	Date    string // YYYY-MM-DD
	Minutes int
}

// TruncateDate reduces an ISO datetime string to its calendar day.
func TruncateDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// Decompose turns a request into its per-day slots. Slots are
// preferred; the coarse date range is the fallback.
func Decompose(req LeaveRequest) ([]DaySlot, error) {
	if len(req.Slots) > 0 {
		days := make([]DaySlot, 0, len(req.Slots))
		for _, s := range req.Slots {
			days = append(days, DaySlot{
				Date:    TruncateDate(s.Date),
				Minutes: slotMinutes(s),
			})
		}
		return days, nil
	}
	return enumerateRange(req.FirstDate, req.LastDate)
}

// slotMinutes converts a slot's hours to minutes, defaulting when the
// hours field is missing or zero.
func slotMinutes(s Slot) int {
	if s.Hours.IsZero() {
		return DefaultDayMinutes
	}
	return int(s.Hours.Mul(sixty).Round(0).IntPart())
}

// enumerateRange expands an inclusive date range into full days.
func enumerateRange(first, last string) ([]DaySlot, error) {
	start, err := time.Parse("2006-01-02", TruncateDate(first))
	if err != nil {
		return nil, fmt.Errorf("%w: first_date %q", ErrInvalidDateRange, first)
	}
	end, err := time.Parse("2006-01-02", TruncateDate(last))
	if err != nil {
		return nil, fmt.Errorf("%w: last_date %q", ErrInvalidDateRange, last)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s after %s", ErrInvalidDateRange, first, last)
	}

	var days []DaySlot
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, DaySlot{
			Date:    d.Format("2006-01-02"),
			Minutes: DefaultDayMinutes,
		})
	}
	return days, nil
}
