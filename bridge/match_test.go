package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var directory = []Resource{
	{ID: "r1", Name: "Jan de Vries"},
	{ID: "r2", Name: "Pieter Jansen"},
	{ID: "r3", Name: "Jan Jansen"},
	{ID: "r4", Name: "Annemarie van den Berg"},
}

func TestMatchExact(t *testing.T) {
	r, ok := MatchResource("Jan Jansen", directory)
	assert.True(t, ok)
	assert.Equal(t, "r3", r.ID)

	// Case-insensitive
	r, ok = MatchResource("jan jansen", directory)
	assert.True(t, ok)
	assert.Equal(t, "r3", r.ID)
}

func TestMatchSubstring(t *testing.T) {
	// Search name contained in candidate
	r, ok := MatchResource("Annemarie", directory)
	assert.True(t, ok)
	assert.Equal(t, "r4", r.ID)

	// Candidate contained in search name
	r, ok = MatchResource("Jan de Vries (extern)", directory)
	assert.True(t, ok)
	assert.Equal(t, "r1", r.ID)
}

func TestMatchTokens(t *testing.T) {
	// Tokens out of order, every search token overlaps a candidate token
	r, ok := MatchResource("Jansen Pieter", directory)
	assert.True(t, ok)
	assert.Equal(t, "r2", r.ID)
}

func TestMatchFirstInAPIOrder(t *testing.T) {
	// "Jan" is a substring of r1, r2 and r3; the first listed wins.
	r, ok := MatchResource("Jan", directory)
	assert.True(t, ok)
	assert.Equal(t, "r1", r.ID)
}

// If "Jan" matches "Jan de Vries", then "Jan de Vries" must match it too.
func TestMatchContainmentIsCommutative(t *testing.T) {
	one := []Resource{{ID: "r1", Name: "Jan de Vries"}}

	_, ok := MatchResource("Jan", one)
	assert.True(t, ok)

	_, ok = MatchResource("Jan de Vries", one)
	assert.True(t, ok)
}

func TestMatchNotFound(t *testing.T) {
	_, ok := MatchResource("Klaas Visser", directory)
	assert.False(t, ok)

	_, ok = MatchResource("", directory)
	assert.False(t, ok)

	_, ok = MatchResource("Jan", nil)
	assert.False(t, ok)
}
