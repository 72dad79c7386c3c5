package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefTagRoundTrip(t *testing.T) {
	tag := NewRefTag("42", "2025-06-02")
	assert.Equal(t, "rework_42_2025-06-02", tag.String())

	parsed, ok := ParseRefTag(tag.String())
	assert.True(t, ok)
	assert.Equal(t, tag, parsed)
}

func TestParseRefTag(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		id   string
		date string
	}{
		{"rework_42_2025-06-02", true, "42", "2025-06-02"},
		{"rework_req_7_2024-12-31", true, "req_7", "2024-12-31"}, // id with underscore
		{"rework_42_2025-6-2", false, "", ""},                    // malformed date
		{"rework_42", false, "", ""},                             // no date segment
		{"rework__2025-06-02", false, "", ""},                    // empty id
		{"something_else_2025-06-02", false, "", ""},             // foreign ref
		{"", false, "", ""},
	}
	for _, c := range cases {
		tag, ok := ParseRefTag(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.Equal(t, c.id, tag.RequestID, c.in)
			assert.Equal(t, c.date, tag.Date, c.in)
		}
	}
}

// Request id 4 must never claim the records of request 42. The old
// substring check had exactly that bug.
func TestBelongsToIsExact(t *testing.T) {
	tag, ok := ParseRefTag("rework_42_2025-06-02")
	if !ok {
		t.Fatal("tag should parse")
	}
	assert.True(t, tag.BelongsTo("42"))
	assert.False(t, tag.BelongsTo("4"))
	assert.False(t, tag.BelongsTo("2"))
	assert.False(t, tag.BelongsTo(""))
}
