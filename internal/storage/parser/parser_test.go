package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwatch/datagen/internal/storage"
)

func TestParser_Parse(t *testing.T) {
	p := New()

	tests := []struct {
		name string
		line string
		want any
	}{
		{"object", `{"json_field": 1}`, map[string]any{"json_field": 1.0}},
		{"nested", `{"a": {"b": [1, "two", null, true]}}`, map[string]any{"a": map[string]any{"b": []any{1.0, "two", nil, true}}}},
		{"array", `[1, 2, 3]`, []any{1.0, 2.0, 3.0}},
		{"string", `"hello"`, "hello"},
		{"number", `42`, 42.0},
		{"null", `null`, nil},
		{"surrounding whitespace", "  {\"k\": \"v\"}\t", map[string]any{"k": "v"}},
		{"largest exact integer", `{"id": 9007199254740992}`, map[string]any{"id": 9007199254740992.0}},
		{"negative integer", `-9007199254740992`, -9007199254740992.0},
		{"large float", `1.5e300`, 1.5e300},
		{"underflow", `1e-400`, 0.0},
		{"generator entry", `{"time": 1700000000123, "random_value": 7}`, map[string]any{"time": 1700000000123.0, "random_value": 7.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := p.Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry.Interface())
		})
	}
}

func TestParser_ParseInvalid(t *testing.T) {
	p := New()

	tests := []struct {
		name    string
		line    string
		wantErr error
	}{
		{"empty", "", ErrEmptyLine},
		{"blank", "   ", ErrEmptyLine},
		{"unterminated", `{"bad_json_field , spam}`, ErrInvalidJSON},
		{"bare word", `spam`, ErrInvalidJSON},
		{"trailing garbage", `{"a":1} x`, ErrInvalidJSON},
		{"two documents", `{"a":1} {"b":2}`, ErrInvalidJSON},
		{"float overflow", `{"b":1e400}`, ErrInvalidJSON},
		{"negative float overflow", `[-1e400]`, ErrInvalidJSON},
		{"nested overflow", `{"a":{"b":[1, 2e999]}}`, ErrInvalidJSON},
		{"integer beyond float precision", `{"id":9007199254740993}`, ErrInvalidJSON},
		{"integer beyond int64", `{"id":12345678901234567890}`, ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.line)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Zero(t, pe.Line)
		})
	}
}

func TestParser_ParseAll(t *testing.T) {
	p := New()

	lines := []string{
		`{"json_field": 0}`,
		`not json`,
		`{"json_field": 1}`,
		``,
	}

	entries, failures := p.ParseAll(lines)
	require.Len(t, entries, 2)
	require.Len(t, failures, 2)

	want, err := storage.NewEntry(map[string]any{"json_field": 1.0})
	require.NoError(t, err)
	assert.True(t, want.Equal(entries[1]))

	assert.Equal(t, 2, failures[0].Line)
	assert.Equal(t, "not json", failures[0].Raw)
	assert.ErrorIs(t, failures[0], ErrInvalidJSON)
	assert.Equal(t, 4, failures[1].Line)
	assert.ErrorIs(t, failures[1], ErrEmptyLine)
	assert.Contains(t, failures[0].Error(), "line 2")
}

func TestParser_OutOfRangeReason(t *testing.T) {
	_, err := New().Parse(`{"b":1e400}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "number out of range")
}

func TestParser_TruncatesLongRaw(t *testing.T) {
	long := "{" + string(make([]byte, 1000))
	_, err := New().Parse(long)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.LessOrEqual(t, len(pe.Raw), maxRawLen+3)
}
