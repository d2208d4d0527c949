package contract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackRisk(t *testing.T) {
	t.Parallel()

	result := DefaultFallback(RiskVariant(), "format mismatch")

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"match_level": "Weak",
		"rationale": "format mismatch",
		"risk_signals": ["information insufficient", "evidence insufficient"]
	}`, string(data))
}

func TestFallbackDefaultReason(t *testing.T) {
	t.Parallel()

	for _, reason := range []string{"", "   "} {
		result := DefaultFallback(RiskVariant(), reason)
		assert.Equal(t, DefaultReason, result.String("rationale"))
	}
}

func TestFallbackIsIdempotent(t *testing.T) {
	t.Parallel()

	for _, v := range DefaultRegistry().Variants() {
		first := DefaultFallback(v, "parse failure")
		second := DefaultFallback(v, "parse failure")
		assert.Equal(t, first, second, v.Name)

		// Results are fresh values.
		first[0].Value = "mutated"
		assert.NotEqual(t, first, DefaultFallback(v, "parse failure"), v.Name)
	}
}

func TestFallbackSatisfiesEveryVariant(t *testing.T) {
	t.Parallel()

	for _, v := range DefaultRegistry().Variants() {
		t.Run(v.Name, func(t *testing.T) {
			t.Parallel()

			fallback := DefaultFallback(v, "non-conformant output")
			data, err := json.Marshal(fallback)
			require.NoError(t, err)

			normalized, err := Normalize(decode(t, string(data)), v)
			require.NoError(t, err)

			again, err := json.Marshal(normalized)
			require.NoError(t, err)
			assert.JSONEq(t, string(data), string(again))
			assert.Equal(t, "non-conformant output", fallback.String(v.ReasonField()))
		})
	}
}

func TestFallbackCustomFillers(t *testing.T) {
	t.Parallel()

	fallback := NewFallback("信息不足", " ", "")
	result := fallback.Build(AlignmentVariant(), "服务暂不可用")

	assert.Equal(t, LevelWeak, result.String("match_level"))
	assert.Equal(t, "服务暂不可用", result.String("rationale"))
	assert.Equal(t, []string{"信息不足", "信息不足"}, result.Strings("alignment_signals"))
	assert.Equal(t, []string{"信息不足", "信息不足"}, result.Strings("risk_signals"))

	assert.Equal(t, DefaultFillers, NewFallback().fillers)
	assert.Equal(t, DefaultFillers, Fallback{}.Build(RiskVariant(), "x").Strings("risk_signals"))
}

func TestFallbackProfileShape(t *testing.T) {
	t.Parallel()

	result := DefaultFallback(ProfileVariant(), "service unavailable")
	data, err := json.Marshal(result)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"job_profile": {},
		"candidate_profile": {},
		"match_scores": {"overall": 0, "skills": 0, "experience": 0},
		"suggestions": [],
		"interview_prep": [],
		"summary": "service unavailable"
	}`, string(data))
}
