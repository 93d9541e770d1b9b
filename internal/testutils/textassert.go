package testutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/mcuadros/go-defaults"
)

// TestingT is an interface that matches the methods we need from testing.T
type TestingT interface {
	Helper()
	Errorf(format string, args ...interface{})
}

// TranscriptOptions controls how console transcripts are normalized before comparison.
type TranscriptOptions struct {
	StripANSI        bool `default:"true"`
	TrimSpace        bool `default:"true"`
	IgnoreEmptyLines bool `default:"false"`
	EnableColors     bool `default:"false"`
}

// TranscriptOption is a functional option for TranscriptAsserter
type TranscriptOption func(*TranscriptOptions)

// WithStripANSI sets whether colour escape sequences are removed before comparing.
func WithStripANSI(strip bool) TranscriptOption {
	return func(o *TranscriptOptions) { o.StripANSI = strip }
}

// WithIgnoreEmptyLines sets whether to ignore empty lines
func WithIgnoreEmptyLines(ignore bool) TranscriptOption {
	return func(o *TranscriptOptions) { o.IgnoreEmptyLines = ignore }
}

// WithDiffColors sets whether the failure diff is coloured.
func WithDiffColors(enable bool) TranscriptOption {
	return func(o *TranscriptOptions) { o.EnableColors = enable }
}

// TranscriptAsserter compares console output line by line and reports a unified diff.
type TranscriptAsserter struct {
	t       TestingT
	options TranscriptOptions
}

// NewTranscriptAsserter creates an asserter with default options.
func NewTranscriptAsserter(t TestingT, opts ...TranscriptOption) *TranscriptAsserter {
	o := TranscriptOptions{}
	defaults.SetDefaults(&o)
	for _, opt := range opts {
		opt(&o)
	}
	return &TranscriptAsserter{t: t, options: o}
}

// Options returns a copy of the current options.
func (ta *TranscriptAsserter) Options() TranscriptOptions {
	return ta.options
}

// Equal fails the test when actual differs from expected after normalization.
func (ta *TranscriptAsserter) Equal(expected, actual string) bool {
	ta.t.Helper()
	if diff := ta.Diff(expected, actual); diff != "" {
		ta.t.Errorf("transcript mismatch - unified diff:\n%s", diff)
		return false
	}
	return true
}

// Diff returns the unified diff between expected and actual, or "" when equal.
func (ta *TranscriptAsserter) Diff(expected, actual string) string {
	want := ta.normalize(expected)
	got := ta.normalize(actual)
	if want == got {
		return ""
	}

	edits := myers.ComputeEdits("", want, got)
	unified := fmt.Sprint(gotextdiff.ToUnified("expected", "actual", want, edits))
	if !ta.options.EnableColors {
		return unified
	}
	return colorize(unified)
}

var ansiSequence = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes SGR colour sequences.
func StripANSI(s string) string {
	return ansiSequence.ReplaceAllString(s, "")
}

func (ta *TranscriptAsserter) normalize(text string) string {
	if ta.options.StripANSI {
		text = StripANSI(text)
	}
	if ta.options.TrimSpace {
		text = strings.TrimSpace(text)
	}

	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if ta.options.IgnoreEmptyLines && strings.TrimSpace(line) == "" {
			continue
		}
		result = append(result, line)
	}
	return strings.Join(result, "\n") + "\n"
}

func colorize(diff string) string {
	red := color.New(color.FgRed)
	red.EnableColor()
	green := color.New(color.FgGreen)
	green.EnableColor()
	cyan := color.New(color.FgCyan)
	cyan.EnableColor()

	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++"):
		case strings.HasPrefix(line, "@@"):
			lines[i] = cyan.Sprint(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = red.Sprint(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = green.Sprint(line)
		}
	}
	return strings.Join(lines, "\n")
}
