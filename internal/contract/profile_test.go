package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProfile(t *testing.T) {
	t.Parallel()

	result, err := Normalize(decode(t, validProfile), ProfileVariant())
	require.NoError(t, err)

	report, err := DecodeProfile(result)
	require.NoError(t, err)

	assert.Equal(t, "Backend Engineer", report.JobProfile["title"])
	assert.Equal(t, MatchScores{Overall: 72, Skills: 80, Experience: 65}, report.MatchScores)
	assert.Equal(t, []Suggestion{{Priority: "high", Text: "Quantify the latency work"}}, report.Suggestions)
	assert.Equal(t, []InterviewNote{{Question: "How did you size Kafka partitions?", Intent: "depth"}}, report.InterviewPrep)
	assert.Equal(t, "Solid backend match with a database gap.", report.Summary)
}

func TestDecodeProfileFallback(t *testing.T) {
	t.Parallel()

	report, err := DecodeProfile(DefaultFallback(ProfileVariant(), "parse failure"))
	require.NoError(t, err)

	assert.Equal(t, "parse failure", report.Summary)
	assert.Empty(t, report.Suggestions)
	assert.Zero(t, report.MatchScores.Overall)
}
