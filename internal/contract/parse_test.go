package contract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		span    string
		wantErr bool
	}{
		{name: "object", span: `{"a":"b","n":1}`},
		{name: "trailing comma", span: `{"a":"b",}`, wantErr: true},
		{name: "unterminated string", span: `{"a":"b}`, wantErr: true},
		{name: "two objects", span: `{"a":1} and {"b":2}`, wantErr: true},
		{name: "array", span: `[1,2]`, wantErr: true},
		{name: "string", span: `"text"`, wantErr: true},
		{name: "null", span: `null`, wantErr: true},
	}

	parser := NewParser(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			obj, err := parser.Parse(tt.span)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.NotNil(t, obj)
				return
			}

			require.Error(t, err)
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.span, parseErr.Span)
			assert.NotNil(t, parseErr.Unwrap())
			assert.Equal(t, StageParse, StageOf(err))
		})
	}
}

func TestParserRepair(t *testing.T) {
	t.Parallel()

	obj, err := NewParser(true).Parse(`{"match_level":"Weak","risk_signals":["a","b",],}`)
	require.NoError(t, err)
	assert.Equal(t, "Weak", obj["match_level"])
	assert.Len(t, obj["risk_signals"], 2)

	_, err = NewParser(false).Parse(`{"match_level":"Weak",}`)
	require.Error(t, err)
}

func TestParserRepairKeepsOriginalError(t *testing.T) {
	t.Parallel()

	span := `[1,2,3]`
	_, err := NewParser(true).Parse(span)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, span, parseErr.Span)
}

func TestParserRepairSurvivesRepairPanic(t *testing.T) {
	t.Parallel()

	span := `{'Strong-summary1e999risk_signalsalignment_signals:}`
	var err error
	require.NotPanics(t, func() {
		_, err = NewParser(true).Parse(span)
	})

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, span, parseErr.Span)
}
