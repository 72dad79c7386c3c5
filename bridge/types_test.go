package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexIDAcceptsNumberAndString(t *testing.T) {
	cases := []struct {
		raw  string
		want FlexID
	}{
		{`{"id": 42}`, "42"},
		{`{"id": "42"}`, "42"},
		{`{"id": "req_abc"}`, "req_abc"},
		{`{"id": null}`, ""},
		{`{}`, ""},
	}
	for _, tc := range cases {
		var req LeaveRequest
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &req), tc.raw)
		assert.Equal(t, tc.want, req.ID, tc.raw)
	}
}

func TestTypeNameDefaults(t *testing.T) {
	req := LeaveRequest{}
	assert.Equal(t, DefaultTypeName, req.TypeName())

	req.Type.Name = "Vacation"
	assert.Equal(t, "Vacation", req.TypeName())
}
