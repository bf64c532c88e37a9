package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePendingID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  PendingID
		ok    bool
	}{
		{name: "valid", input: "offline-q1", want: "q1", ok: true},
		{name: "real server id", input: "t_502", ok: false},
		{name: "prefix only", input: "offline-", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePendingID(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPendingIDRoundTrip(t *testing.T) {
	pending := PendingID("1693526400000-0000abcd")
	parsed, ok := ParsePendingID(pending.String())
	require.True(t, ok)
	assert.Equal(t, pending, parsed)
}

func TestEntryClone(t *testing.T) {
	entry := Entry{
		ID:       "q1",
		BodyKind: BodyForm,
		JSONBody: []byte(`{"a":1}`),
		FormFields: []FormField{
			{Key: "photo", Kind: FieldFile, Data: []byte{1, 2, 3}},
		},
	}

	clone := entry.Clone()
	clone.JSONBody[0] = 'x'
	clone.FormFields[0].Data[0] = 9
	clone.FormFields[0].Key = "other"

	assert.Equal(t, byte('{'), entry.JSONBody[0])
	assert.Equal(t, byte(1), entry.FormFields[0].Data[0])
	assert.Equal(t, "photo", entry.FormFields[0].Key)
}

func TestNewIdempotencyKeyUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := NewIdempotencyKey()
		require.NotEmpty(t, key)
		require.False(t, seen[key], "duplicate idempotency key: %s", key)
		seen[key] = true
	}
}
