package preprocess

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const (
	StepHTML       = "html"
	StepWhitespace = "whitespace"
	StepTruncate   = "truncate"
)

var markupPattern = regexp.MustCompile(`(?i)<(?:p|div|br|ul|ol|li|h[1-6]|span|strong|b|em|i|a|table|tr|td|section|article)\b[^>]*>`)

type htmlStep struct {
	toggle
}

// NewHTML creates a step that converts HTML input, such as a pasted job
// posting, into markdown text. Plain text passes through unchanged.
func NewHTML() Step {
	return &htmlStep{}
}

func (s *htmlStep) Name() string { return StepHTML }

func (s *htmlStep) Apply(_ context.Context, text string) (string, error) {
	if !markupPattern.MatchString(text) {
		return text, nil
	}

	markdown, err := htmltomarkdown.ConvertString(text)
	if err != nil {
		return "", err
	}
	return markdown, nil
}

func (s *htmlStep) Status() Status {
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason}
}

var (
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

type whitespaceStep struct {
	toggle
}

// NewWhitespace creates a step that normalizes line endings, strips trailing
// spaces, collapses runs of blank lines and trims the document.
func NewWhitespace() Step {
	return &whitespaceStep{}
}

func (s *whitespaceStep) Name() string { return StepWhitespace }

func (s *whitespaceStep) Apply(_ context.Context, text string) (string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = trailingSpace.ReplaceAllString(text, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}

func (s *whitespaceStep) Status() Status {
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason}
}

type truncateStep struct {
	toggle
	maxRunes int
}

// NewTruncate creates a step that caps a document at maxRunes runes.
// A non-positive limit disables the step.
func NewTruncate(maxRunes int) Step {
	s := &truncateStep{maxRunes: maxRunes}
	if maxRunes <= 0 {
		s.Disable("no limit configured")
	}
	return s
}

func (s *truncateStep) Name() string { return StepTruncate }

func (s *truncateStep) Apply(_ context.Context, text string) (string, error) {
	if utf8.RuneCountInString(text) <= s.maxRunes {
		return text, nil
	}
	runes := []rune(text)
	return string(runes[:s.maxRunes]), nil
}

func (s *truncateStep) Status() Status {
	return Status{
		Name:    s.Name(),
		Enabled: s.IsEnabled(),
		Reason:  s.reason,
		Details: map[string]string{"max_runes": strconv.Itoa(s.maxRunes)},
	}
}
