package contract

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/fit-signals/internal/utils"
)

const defaultMaxLogLength = 200

// Reasons are the human-readable fallback reasons per failed stage.
type Reasons struct {
	FormatMismatch  string `mapstructure:"format-mismatch"`
	ParseFailure    string `mapstructure:"parse-failure"`
	NonConformant   string `mapstructure:"non-conformant"`
	UpstreamFailure string `mapstructure:"upstream-failure"`
	Insufficient    string `mapstructure:"insufficient"`
}

// DefaultReasons returns the English reason strings.
func DefaultReasons() Reasons {
	return Reasons{
		FormatMismatch:  "format mismatch",
		ParseFailure:    "parse failure",
		NonConformant:   "non-conformant output",
		UpstreamFailure: "service unavailable",
		Insufficient:    DefaultReason,
	}
}

// For returns the reason for stage; blank entries fall back to the defaults.
func (r Reasons) For(stage Stage) string {
	defaults := DefaultReasons()
	pick := func(value, def string) string {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
		return def
	}

	switch stage {
	case StageExtract:
		return pick(r.FormatMismatch, defaults.FormatMismatch)
	case StageParse:
		return pick(r.ParseFailure, defaults.ParseFailure)
	case StageNormalize:
		return pick(r.NonConformant, defaults.NonConformant)
	case StageUpstream:
		return pick(r.UpstreamFailure, defaults.UpstreamFailure)
	default:
		return pick(r.Insufficient, defaults.Insufficient)
	}
}

// Outcome is the resolved value plus diagnostics for the operator channel.
// Only Result belongs in a response body.
type Outcome struct {
	Variant string
	Result  Result
	Stage   Stage
	Reason  string
	Err     error
}

// IsFallback reports whether Result was generated without model content.
func (o Outcome) IsFallback() bool {
	return o.Stage != StageOK
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRepair enables the jsonrepair retry in the parser.
func WithRepair(enabled bool) Option {
	return func(r *Resolver) {
		r.parser = NewParser(enabled)
	}
}

// WithReasons overrides the per-stage fallback reasons.
func WithReasons(reasons Reasons) Option {
	return func(r *Resolver) {
		r.reasons = reasons
	}
}

// WithFallback overrides the fallback generator.
func WithFallback(fallback Fallback) Option {
	return func(r *Resolver) {
		r.fallback = fallback
	}
}

// WithLogger sets the operator diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMaxLogLength caps raw model text written to the log, in runes.
func WithMaxLogLength(limit int) Option {
	return func(r *Resolver) {
		r.maxLogLen = limit
	}
}

// Resolver turns raw model text into a canonical result of one variant.
// It holds only immutable configuration and is safe for concurrent use.
type Resolver struct {
	variant   *Variant
	parser    Parser
	fallback  Fallback
	reasons   Reasons
	logger    *zap.Logger
	maxLogLen int
}

// NewResolver builds a resolver for variant.
func NewResolver(variant *Variant, opts ...Option) *Resolver {
	r := &Resolver{
		variant:   variant,
		parser:    NewParser(false),
		fallback:  NewFallback(),
		reasons:   DefaultReasons(),
		logger:    zap.NewNop(),
		maxLogLen: defaultMaxLogLength,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("variant", variant.Name))
	return r
}

// Variant returns the variant this resolver enforces.
func (r *Resolver) Variant() *Variant {
	return r.variant
}

// Fallback returns a fresh fallback result for reason.
func (r *Resolver) Fallback(reason string) Result {
	return r.fallback.Build(r.variant, reason)
}

// Resolve runs extract, parse and normalize over raw. It always returns a
// result conforming to the variant; failures produce a stage-specific fallback.
func (r *Resolver) Resolve(raw RawModelText) Outcome {
	text := raw.Flatten()

	span, ok := Extract(text)
	if !ok {
		return r.fail(&ExtractionError{Length: len(text)}, text)
	}

	obj, err := r.parser.Parse(span)
	if err != nil {
		return r.fail(err, span)
	}

	result, err := Normalize(obj, r.variant)
	if err != nil {
		return r.fail(err, span)
	}

	r.logger.Debug("model output accepted", zap.String("shape", raw.Shape()))
	return Outcome{Variant: r.variant.Name, Result: result, Stage: StageOK}
}

// ResolveFailure converts a failed completion call into an upstream fallback.
func (r *Resolver) ResolveFailure(err error) Outcome {
	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		err = &UpstreamError{Err: err}
	}
	return r.fail(err, "")
}

func (r *Resolver) fail(err error, raw string) Outcome {
	stage := StageOf(err)
	reason := r.reasons.For(stage)

	fields := []zap.Field{
		zap.String("stage", string(stage)),
		zap.String("reason", reason),
		zap.Error(err),
	}
	if preview := utils.TruncateForLog(raw, r.maxLogLen); preview != "" {
		fields = append(fields, zap.String("raw_preview", preview))
	}
	r.logger.Warn("model output rejected, using fallback", fields...)

	return Outcome{
		Variant: r.variant.Name,
		Result:  r.fallback.Build(r.variant, reason),
		Stage:   stage,
		Reason:  reason,
		Err:     err,
	}
}
