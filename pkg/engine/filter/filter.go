// Package filter decides whether a candidate file's text is admissible and
// reports its token cost.
package filter

import (
	"errors"
	"fmt"
)

// Defaults.
const (
	DefaultMinLines  = 10
	DefaultMaxLines  = 10000
	DefaultMaxTokens = 128000
)

// ErrRejected marks content that failed admission.
var ErrRejected = errors.New("content rejected")

// Reason identifies the threshold a rejected candidate failed.
type Reason string

const (
	ReasonEmpty     Reason = "empty"
	ReasonLineCount Reason = "line_count"
	ReasonTooLong   Reason = "token_count"
)

// RejectionError describes a failed admission.
type RejectionError struct {
	Reason Reason
	Lines  int
	Tokens int
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonLineCount:
		return fmt.Sprintf("content rejected: %d lines", e.Lines)
	case ReasonTooLong:
		return fmt.Sprintf("content rejected: %d tokens", e.Tokens)
	default:
		return "content rejected: empty"
	}
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrRejected
}

// Counter returns the number of tokens in text.
type Counter interface {
	CountTokens(text string) (int, error)
}

// Limits are the admission thresholds. Line bounds are inclusive.
type Limits struct {
	MinLines  int `mapstructure:"min_lines"`
	MaxLines  int `mapstructure:"max_lines"`
	MaxTokens int `mapstructure:"max_tokens"`
}

// DefaultLimits returns the standard thresholds.
func DefaultLimits() Limits {
	return Limits{
		MinLines:  DefaultMinLines,
		MaxLines:  DefaultMaxLines,
		MaxTokens: DefaultMaxTokens,
	}
}

// Admission is proof that content passed the filter. Only Admit creates one.
type Admission struct {
	tokens int
}

// Tokens is the exact token count measured during admission.
func (a Admission) Tokens() int { return a.tokens }

// Filter applies Limits using a token Counter.
type Filter struct {
	limits  Limits
	counter Counter
}

// New returns a Filter. Zero-valued limits fall back to the defaults.
func New(counter Counter, limits Limits) *Filter {
	def := DefaultLimits()
	if limits.MinLines <= 0 {
		limits.MinLines = def.MinLines
	}
	if limits.MaxLines <= 0 {
		limits.MaxLines = def.MaxLines
	}
	if limits.MaxTokens <= 0 {
		limits.MaxTokens = def.MaxTokens
	}
	return &Filter{limits: limits, counter: counter}
}

// Limits returns the thresholds in effect.
func (f *Filter) Limits() Limits { return f.limits }

// Admit checks content against the line bounds, then the token ceiling.
// The tokenizer only runs when the line count is admissible. A non-rejection
// error means the counter itself failed.
func (f *Filter) Admit(content string) (Admission, error) {
	if content == "" {
		return Admission{}, &RejectionError{Reason: ReasonEmpty}
	}

	lines := CountLines(content)
	if lines < f.limits.MinLines || lines > f.limits.MaxLines {
		return Admission{}, &RejectionError{Reason: ReasonLineCount, Lines: lines}
	}

	tokens, err := f.counter.CountTokens(content)
	if err != nil {
		return Admission{}, fmt.Errorf("count tokens: %w", err)
	}
	if tokens > f.limits.MaxTokens {
		return Admission{}, &RejectionError{Reason: ReasonTooLong, Lines: lines, Tokens: tokens}
	}

	return Admission{tokens: tokens}, nil
}

// CountLines counts lines the way a universal-newline split does: \r\n is one
// boundary, a trailing boundary does not open an empty line, and the vertical
// tab, form feed, file/group/record separators, NEL, LS and PS all end a line.
func CountLines(s string) int {
	lines := 0
	open := false
	prevCR := false
	for _, r := range s {
		if r == '\n' && prevCR {
			prevCR = false
			continue
		}
		prevCR = r == '\r'
		if isLineBoundary(r) {
			lines++
			open = false
			continue
		}
		open = true
	}
	if open {
		lines++
	}
	return lines
}

func isLineBoundary(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
