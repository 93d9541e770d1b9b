package testutils

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingT captures Errorf calls instead of failing the enclosing test.
type recordingT struct {
	errors []string
}

func (r *recordingT) Helper() {}
func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func TestTranscriptAsserter_Defaults(t *testing.T) {
	opts := NewTranscriptAsserter(t).Options()

	assert.True(t, opts.StripANSI)
	assert.True(t, opts.TrimSpace)
	assert.False(t, opts.IgnoreEmptyLines)
	assert.False(t, opts.EnableColors)
}

func TestTranscriptAsserter_EqualIgnoresColorsAndOuterWhitespace(t *testing.T) {
	rec := &recordingT{}
	ta := NewTranscriptAsserter(rec)

	ok := ta.Equal("READING\nData read: [1]\n", "\n\x1b[32mREADING\x1b[0m\r\nData read: [1]\n\n")

	assert.True(t, ok)
	assert.Empty(t, rec.errors)
}

func TestTranscriptAsserter_ReportsUnifiedDiff(t *testing.T) {
	rec := &recordingT{}
	ta := NewTranscriptAsserter(rec)

	ok := ta.Equal("WRITING\nData written: [1 2 3]", "WRITING\nError writing data: boom")

	assert.False(t, ok)
	if assert.Len(t, rec.errors, 1) {
		msg := rec.errors[0]
		assert.Contains(t, msg, "--- expected")
		assert.Contains(t, msg, "+++ actual")
		assert.Contains(t, msg, "-Data written: [1 2 3]")
		assert.Contains(t, msg, "+Error writing data: boom")
		assert.NotContains(t, msg, "\x1b[", "diff MUST be plain when colors are disabled")
	}
}

func TestTranscriptAsserter_Options(t *testing.T) {
	ta := NewTranscriptAsserter(t, WithIgnoreEmptyLines(true), WithStripANSI(false))
	assert.Empty(t, ta.Diff("a\nb", "a\n\n\nb"))
	assert.NotEmpty(t, ta.Diff("a", "\x1b[31ma\x1b[0m"), "ANSI sequences MUST matter when stripping is off")

	colored := NewTranscriptAsserter(t, WithDiffColors(true)).Diff("a", "b")
	assert.True(t, strings.Contains(colored, "\x1b["), "diff MUST be coloured when enabled")
}
