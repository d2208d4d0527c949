package contract

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ProfileReport is the typed form of a canonical profile result.
type ProfileReport struct {
	JobProfile       map[string]any  `mapstructure:"job_profile"`
	CandidateProfile map[string]any  `mapstructure:"candidate_profile"`
	MatchScores      MatchScores     `mapstructure:"match_scores"`
	Suggestions      []Suggestion    `mapstructure:"suggestions"`
	InterviewPrep    []InterviewNote `mapstructure:"interview_prep"`
	Summary          string          `mapstructure:"summary"`
}

// MatchScores are 0-100 scores.
type MatchScores struct {
	Overall    float64 `mapstructure:"overall"`
	Skills     float64 `mapstructure:"skills"`
	Experience float64 `mapstructure:"experience"`
}

type Suggestion struct {
	Priority string `mapstructure:"priority"`
	Text     string `mapstructure:"text"`
}

type InterviewNote struct {
	Question string `mapstructure:"question"`
	Intent   string `mapstructure:"intent"`
}

// DecodeProfile converts a canonical profile result into a ProfileReport.
func DecodeProfile(result Result) (*ProfileReport, error) {
	var report ProfileReport
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &report,
		ErrorUnused: false,
	})
	if err != nil {
		return nil, fmt.Errorf("create profile decoder: %w", err)
	}

	if err := decoder.Decode(result.Map()); err != nil {
		return nil, fmt.Errorf("decode profile result: %w", err)
	}
	return &report, nil
}
