/*
reftag.go - Structured external reference tag

PURPOSE:
  The only linkage between a Rework request and the deviations it
  produced in vPlan is the external_ref string on each deviation:

      rework_{requestID}_{date}

  There is no mapping table. Ownership is recovered by parsing the tag.

STRICTNESS:
  Tags are parsed and compared field by field, never by substring.
  A naive contains-check would let request id "4" claim the records of
  request "42"; BelongsTo compares the id for exact equality instead.
*/
package bridge

import "strings"

const refPrefix = "rework_"

// RefTag is the parsed form of a deviation's external reference.
type RefTag struct {
	RequestID string
	Date      string // YYYY-MM-DD
}

// NewRefTag builds the tag for one request-day.
func NewRefTag(requestID FlexID, date string) RefTag {
	return RefTag{RequestID: string(requestID), Date: date}
}

// String renders the wire form: rework_{id}_{date}.
func (t RefTag) String() string {
	return refPrefix + t.RequestID + "_" + t.Date
}

// BelongsTo reports whether the tag was written for the given request.
func (t RefTag) BelongsTo(requestID FlexID) bool {
	return t.RequestID != "" && t.RequestID == string(requestID)
}

// ParseRefTag parses an external reference. Returns false for refs that
// were not written by this bridge (foreign refs are common: vPlan
// deviations may carry refs from other integrations).
func ParseRefTag(s string) (RefTag, bool) {
	if !strings.HasPrefix(s, refPrefix) {
		return RefTag{}, false
	}
	rest := s[len(refPrefix):]

	// The date is the final underscore-delimited segment. Request ids
	// are opaque and may themselves contain underscores.
	i := strings.LastIndex(rest, "_")
	if i < 1 {
		return RefTag{}, false
	}
	id, date := rest[:i], rest[i+1:]
	if !isCalendarDay(date) {
		return RefTag{}, false
	}
	return RefTag{RequestID: id, Date: date}, true
}

// isCalendarDay checks the YYYY-MM-DD shape without going through a
// time zone aware parser.
func isCalendarDay(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, c := range s {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
