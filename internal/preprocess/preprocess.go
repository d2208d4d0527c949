package preprocess

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Step is a single cleaning pass applied to an input document.
type Step interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, text string) (string, error)
}

// Report describes the result of executing a step, in runes.
type Report struct {
	Name    string
	Initial int
	Left    int
}

// Status represents runtime information about a step.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// Pipeline runs steps in order over job descriptions and resumes.
type Pipeline struct {
	steps  []Step
	logger *zap.Logger
}

// New returns a pipeline over steps.
func New(logger *zap.Logger, steps ...Step) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{steps: steps, logger: logger}
}

// Default returns the html, whitespace and truncate steps.
func Default(logger *zap.Logger, maxRunes int) *Pipeline {
	return New(logger, NewHTML(), NewWhitespace(), NewTruncate(maxRunes))
}

// DisableByName marks a step with the provided name as disabled while keeping it in the list.
func (p *Pipeline) DisableByName(name, reason string) {
	for _, step := range p.steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run applies the enabled steps to text. document labels the log entries.
func (p *Pipeline) Run(ctx context.Context, document, text string) (string, []Report, error) {
	reports := make([]Report, 0, len(p.steps))
	for _, step := range p.steps {
		if !step.IsEnabled() {
			continue
		}

		initial := utf8.RuneCountInString(text)
		next, err := step.Apply(ctx, text)
		if err != nil {
			return "", reports, fmt.Errorf("%s: %w", step.Name(), err)
		}

		report := Report{Name: step.Name(), Initial: initial, Left: utf8.RuneCountInString(next)}
		reports = append(reports, report)
		p.logger.Debug("preprocess step",
			zap.String("document", document),
			zap.String("name", report.Name),
			zap.Int("initial", report.Initial),
			zap.Int("left", report.Left),
		)

		text = next
	}
	return text, reports, nil
}

// Describe returns status entries for the pipeline steps.
func (p *Pipeline) Describe() []Status {
	statuses := make([]Status, 0, len(p.steps))
	for _, step := range p.steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// toggle is embedded by steps to implement Disable and IsEnabled.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }
