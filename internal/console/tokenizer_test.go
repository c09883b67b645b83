package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantName string
		wantArgs []string
	}{
		{"bare command", "quit", "quit", []string{}},
		{"padded", "   send  1 true\tfalse  ", "send", []string{"1", "true", "false"}},
		{"compact json", `store {"a":1} {"b":2}`, "store", []string{`{"a":1}`, `{"b":2}`}},
		{"json with spaces", `store {"a": 1, "b": [1, 2]}`, "store", []string{`{"a": 1, "b": [1, 2]}`}},
		{"array and string", `store [1, 2] "hello world"`, "store", []string{`[1, 2]`, `"hello world"`}},
		{"escaped quote", `store {"q": "a \" } b"}`, "store", []string{`{"q": "a \" } b"}`}},
		{"unbalanced keeps rest", `store {"a": 1 x y`, "store", []string{`{"a": 1 x y`}},
		{"garbage after object", `store {"a":1}x y`, "store", []string{`{"a":1}x`, "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, err := Split(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			if len(tt.wantArgs) == 0 {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestSplit_Empty(t *testing.T) {
	for _, line := range []string{"", "   ", "\t\r"} {
		_, _, err := Split(line)
		assert.ErrorIs(t, err, ErrEmptyCommand)
	}
}
