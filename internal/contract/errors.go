package contract

import (
	"errors"
	"fmt"
)

// Stage names the step of the resolution pipeline that produced an outcome.
type Stage string

const (
	StageOK        Stage = "ok"
	StageExtract   Stage = "extract"
	StageParse     Stage = "parse"
	StageNormalize Stage = "normalize"
	StageUpstream  Stage = "upstream"
)

// ErrUnknownVariant is returned by Registry.Lookup for unregistered names.
var ErrUnknownVariant = errors.New("unknown schema variant")

// ExtractionError reports model text without a candidate JSON object.
type ExtractionError struct {
	Length int
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no JSON object found in %d bytes of model output", e.Length)
}

// ParseError reports a span that is not valid JSON or not an object.
type ParseError struct {
	Span string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model output: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NormalizationError reports an object that violates the variant's rules.
type NormalizationError struct {
	Variant string
	Field   string
	Message string
}

func (e *NormalizationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("variant %s: field %s: %s", e.Variant, e.Field, e.Message)
	}
	return fmt.Sprintf("variant %s: %s", e.Variant, e.Message)
}

// UpstreamError wraps a failed or timed out completion call.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream completion failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StageOf maps a pipeline error to the stage that raised it.
func StageOf(err error) Stage {
	var (
		extractErr   *ExtractionError
		parseErr     *ParseError
		normalizeErr *NormalizationError
		upstreamErr  *UpstreamError
	)

	switch {
	case err == nil:
		return StageOK
	case errors.As(err, &extractErr):
		return StageExtract
	case errors.As(err, &parseErr):
		return StageParse
	case errors.As(err, &normalizeErr):
		return StageNormalize
	case errors.As(err, &upstreamErr):
		return StageUpstream
	default:
		return StageUpstream
	}
}
