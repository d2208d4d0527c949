package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "empty", input: "", wantOK: false},
		{name: "no braces", input: "I cannot help with that.", wantOK: false},
		{name: "only opening", input: "{ unfinished", wantOK: false},
		{name: "only closing", input: "done }", wantOK: false},
		{name: "closing before opening", input: "} then {", wantOK: false},
		{name: "bare object", input: `{"a":1}`, want: `{"a":1}`, wantOK: true},
		{
			name:   "braces in prose",
			input:  `Here is the result: {"match_level":"Partial","rationale":"ok enough","risk_signals":["x","y"]} Thanks!`,
			want:   `{"match_level":"Partial","rationale":"ok enough","risk_signals":["x","y"]}`,
			wantOK: true,
		},
		{
			name:   "markdown fence",
			input:  "```json\n{\"a\":{\"b\":2}}\n```",
			want:   `{"a":{"b":2}}`,
			wantOK: true,
		},
		{
			name:   "greedy over two objects",
			input:  `{"a":1} and {"b":2}`,
			want:   `{"a":1} and {"b":2}`,
			wantOK: true,
		},
		{name: "empty braces", input: "x {} y", want: "{}", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Extract(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
