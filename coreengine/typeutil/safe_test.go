package typeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeString(t *testing.T) {
	s, ok := SafeString("hello")
	assert.True(t, ok)
	assert.Equal(t, "hello", s)

	_, ok = SafeString(nil)
	assert.False(t, ok)

	_, ok = SafeString(42)
	assert.False(t, ok)

	assert.Equal(t, "fallback", SafeStringDefault(42, "fallback"))
	assert.Equal(t, "x", SafeStringDefault("x", "fallback"))
}

func TestSafeBool(t *testing.T) {
	b, ok := SafeBool(true)
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = SafeBool("true")
	assert.False(t, ok)

	assert.True(t, SafeBoolDefault(nil, true))
	assert.False(t, SafeBoolDefault(false, true))
}

func TestSafeInt(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
		ok    bool
	}{
		{"int", 7, 7, true},
		{"int64", int64(7), 7, true},
		{"json_float", float64(7), 7, true},
		{"string", "7", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SafeInt(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSafeMapStringAny(t *testing.T) {
	m, ok := SafeMapStringAny(map[string]any{"next": "Coder"})
	assert.True(t, ok)
	assert.Equal(t, "Coder", m["next"])

	_, ok = SafeMapStringAny([]any{"next"})
	assert.False(t, ok)
}

func TestCoerceString(t *testing.T) {
	assert.Equal(t, "", CoerceString(nil))
	assert.Equal(t, "plain", CoerceString("plain"))
	assert.Equal(t, "42", CoerceString(42))
	assert.Equal(t, "true", CoerceString(true))
	assert.Equal(t, `{"next":"Search"}`, CoerceString(map[string]any{"next": "Search"}))
	assert.Equal(t, `["a","b"]`, CoerceString([]any{"a", "b"}))
}
