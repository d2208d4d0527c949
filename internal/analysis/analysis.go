package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/fit-signals/internal/ai"
	"github.com/spigell/fit-signals/internal/contract"
	"github.com/spigell/fit-signals/internal/logger"
	"github.com/spigell/fit-signals/internal/preprocess"
	"github.com/spigell/fit-signals/internal/utils"
)

// Sampling temperatures per completion kind.
const (
	AnalysisTemperature  = 0.2
	AdviceTemperature    = 0.4
	InterviewTemperature = 0.5
)

const defaultMaxLogLength = 200

var (
	ErrMissingResume         = errors.New("missing resume text")
	ErrMissingJobDescription = errors.New("missing job description text")
)

// Input is the pair of documents every analysis compares.
type Input struct {
	JobDescription string
	Resume         string
}

// Validate requires both documents to be non-blank.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Resume) == "" {
		return ErrMissingResume
	}
	if strings.TrimSpace(in.JobDescription) == "" {
		return ErrMissingJobDescription
	}
	return nil
}

// Advice is the free-text output of the advice flow.
type Advice struct {
	ResumeAdvice       string `json:"resume_advice"`
	InterviewQuestions string `json:"interview_questions"`
}

// Config tunes the analyzer. Zero values select defaults.
type Config struct {
	Timeout      time.Duration
	MaxLogLength int
	Repair       bool
	Reasons      contract.Reasons
	Fillers      []string
}

// Analyzer prompts the completer and resolves its output through the
// contract of the requested variant.
type Analyzer struct {
	completer ai.Completer
	registry  *contract.Registry
	resolvers map[string]*contract.Resolver
	pipeline  *preprocess.Pipeline
	timeout   time.Duration
	maxLogLen int
	logger    *zap.Logger
}

// New builds an analyzer with one resolver per registered variant.
func New(completer ai.Completer, registry *contract.Registry, pipeline *preprocess.Pipeline, log *zap.Logger, cfg Config) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	if pipeline == nil {
		pipeline = preprocess.New(log)
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	log = logger.WithCommonFields(log, completer.Provider(), completer.Model())

	fallback := contract.NewFallback(cfg.Fillers...)
	resolvers := make(map[string]*contract.Resolver)
	for _, v := range registry.Variants() {
		resolvers[v.Name] = contract.NewResolver(v,
			contract.WithRepair(cfg.Repair),
			contract.WithReasons(cfg.Reasons),
			contract.WithFallback(fallback),
			contract.WithLogger(log),
			contract.WithMaxLogLength(maxLogLen),
		)
	}

	return &Analyzer{
		completer: completer,
		registry:  registry,
		resolvers: resolvers,
		pipeline:  pipeline,
		timeout:   cfg.Timeout,
		maxLogLen: maxLogLen,
		logger:    log,
	}
}

// Registry returns the variants the analyzer serves.
func (a *Analyzer) Registry() *contract.Registry {
	return a.registry
}

// Analyze runs one completion for the variant and always yields a canonical
// result. Errors are returned only for unknown variants, invalid input or a
// failing preprocessing step; upstream failures become fallbacks.
func (a *Analyzer) Analyze(ctx context.Context, variant string, in Input) (contract.Outcome, error) {
	v, err := a.registry.Lookup(variant)
	if err != nil {
		return contract.Outcome{}, err
	}
	resolver := a.resolvers[v.Name]

	in, err = a.prepare(ctx, in)
	if err != nil {
		return contract.Outcome{}, err
	}

	log := a.requestLogger(ctx).With(zap.String(logger.FieldVariant, v.Name))
	prompt := BuildInstruction(v) + "\n\n" + UserPrompt(in)
	log.Debug("analysis request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	started := time.Now()
	raw, err := a.complete(ctx, ai.Request{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: systemPrompt},
			{Role: ai.RoleUser, Content: prompt},
		},
		Temperature: ai.Temperature(AnalysisTemperature),
	})

	var outcome contract.Outcome
	if err != nil {
		outcome = resolver.ResolveFailure(err)
	} else {
		outcome = resolver.Resolve(raw)
	}

	log.Info("analysis resolved",
		zap.String(logger.FieldStage, string(outcome.Stage)),
		zap.Bool("fallback", outcome.IsFallback()),
		zap.Duration("elapsed", time.Since(started)),
	)
	return outcome, nil
}

// Advise runs the resume advice and interview question completions
// concurrently. Any failure fails the whole call.
func (a *Analyzer) Advise(ctx context.Context, in Input) (*Advice, error) {
	in, err := a.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	log := a.requestLogger(ctx)
	var advice Advice

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := a.completeText(gctx, adviceSystemPrompt, renderDocuments(adviceTemplate, in), AdviceTemperature)
		if err != nil {
			return fmt.Errorf("resume advice: %w", err)
		}
		advice.ResumeAdvice = text
		return nil
	})
	g.Go(func() error {
		text, err := a.completeText(gctx, interviewSystemPrompt, renderDocuments(interviewTemplate, in), InterviewTemperature)
		if err != nil {
			return fmt.Errorf("interview questions: %w", err)
		}
		advice.InterviewQuestions = text
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Warn("advice failed", zap.Error(err))
		return nil, &contract.UpstreamError{Err: err}
	}

	log.Info("advice completed",
		zap.Int("resume_advice_length", utf8.RuneCountInString(advice.ResumeAdvice)),
		zap.Int("interview_questions_length", utf8.RuneCountInString(advice.InterviewQuestions)),
	)
	return &advice, nil
}

func (a *Analyzer) completeText(ctx context.Context, system, user string, temperature float64) (string, error) {
	raw, err := a.complete(ctx, ai.Request{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: system},
			{Role: ai.RoleUser, Content: user},
		},
		Temperature: ai.Temperature(temperature),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw.Flatten()), nil
}

func (a *Analyzer) complete(ctx context.Context, req ai.Request) (contract.RawModelText, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.completer.Complete(ctx, req)
}

func (a *Analyzer) prepare(ctx context.Context, in Input) (Input, error) {
	if err := in.Validate(); err != nil {
		return in, err
	}

	jd, _, err := a.pipeline.Run(ctx, "job_description", in.JobDescription)
	if err != nil {
		return in, fmt.Errorf("preprocess job description: %w", err)
	}
	resume, _, err := a.pipeline.Run(ctx, "resume", in.Resume)
	if err != nil {
		return in, fmt.Errorf("preprocess resume: %w", err)
	}

	out := Input{JobDescription: jd, Resume: resume}
	if err := out.Validate(); err != nil {
		return in, err
	}
	return out, nil
}

func (a *Analyzer) requestLogger(ctx context.Context) *zap.Logger {
	return logger.WithFields(a.logger, logger.StringFields(
		logger.StringField{Key: logger.FieldRequestID, Value: logger.RequestID(ctx)},
	)...)
}
