/*
errors.go - Centralized error types for the bridge domain

PURPOSE:
  All bridge error values in one place. Resource-not-found is
  deliberately NOT here: an unmatched name is a normal outcome carried
  as a boolean, never an error.

SEE ALSO:
  - days.go, sync.go, importer.go: Producers of these errors
*/
package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDateRange is returned when a request has no slots and its
	// first/last dates cannot be enumerated (unparseable or inverted).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrMissingRequestID is returned when a request carries no id; the
	// external reference tag cannot be formed without one.
	ErrMissingRequestID = errors.New("missing request id")
)

// DayError records the failure of a single day's create or delete.
// It never aborts sibling days; summaries collect them.
type DayError struct {
	Date string
	Err  error
}

func (e *DayError) Error() string {
	return fmt.Sprintf("day %s: %v", e.Date, e.Err)
}

func (e *DayError) Unwrap() error { return e.Err }
