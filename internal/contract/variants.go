package contract

import (
	_ "embed"
)

// Match levels of the flat variants, strongest first.
const (
	LevelStrong  = "Strong"
	LevelPartial = "Partial"
	LevelWeak    = "Weak"
)

// Variant names registered by DefaultRegistry.
const (
	VariantRisk      = "risk"
	VariantAlignment = "alignment"
	VariantProfile   = "profile"
)

// SignalCount is the exact length of every signal list of the flat variants.
const SignalCount = 2

//go:embed schemas/profile.schema.json
var profileDocument string

func matchLevel() Field {
	return Enum("match_level", LevelStrong, LevelPartial, LevelWeak).
		Describe(`one of "Strong", "Partial", "Weak"`)
}

func rationale() Field {
	return Text("rationale").
		AsReason().
		Describe("one or two sentences grounded in the job description and resume")
}

// RiskVariant is the three-field contract: level, rationale and two risk signals.
func RiskVariant() *Variant {
	return NewVariant(VariantRisk, "match level with two risk signals", NewSchema(
		matchLevel(),
		rationale(),
		StringList("risk_signals", SignalCount).
			Describe("exactly 2 short gaps or risks visible in the resume"),
	), "v1")
}

// AlignmentVariant extends the risk contract with two alignment signals.
func AlignmentVariant() *Variant {
	return NewVariant(VariantAlignment, "match level with alignment and risk signals", NewSchema(
		matchLevel(),
		rationale(),
		StringList("alignment_signals", SignalCount).
			Describe("exactly 2 short requirements the resume clearly meets"),
		StringList("risk_signals", SignalCount).
			Describe("exactly 2 short gaps or risks visible in the resume"),
	), "v2")
}

// ProfileVariant is the nested multi-section contract. Its document is also
// checked against the embedded JSON Schema.
func ProfileVariant() *Variant {
	scores := NewSchema(
		Number("overall", 0, 100).Describe("0-100"),
		Number("skills", 0, 100).Describe("0-100"),
		Number("experience", 0, 100).Describe("0-100"),
	)

	v := NewVariant(VariantProfile, "job and candidate profiles with scores and preparation notes", NewSchema(
		Passthrough("job_profile", JSONObject).
			Describe("object with title, seniority, must_have and nice_to_have"),
		Passthrough("candidate_profile", JSONObject).
			Describe("object with headline, years_of_experience and skills"),
		Object("match_scores", scores).
			Describe("object with overall, skills and experience scores from 0 to 100"),
		Passthrough("suggestions", JSONArray).
			Describe(`array of {"priority": "high|medium|low", "text": "..."}`),
		Passthrough("interview_prep", JSONArray).
			Describe(`array of {"question": "...", "intent": "..."}`),
		Text("summary").
			AsReason().
			Describe("short neutral summary of the fit"),
	), "v3")

	v, err := v.WithDocumentSchema(profileDocument)
	if err != nil {
		panic(err)
	}
	return v
}
