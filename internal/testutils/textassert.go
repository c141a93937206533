//go:build test

package testutils

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/mcuadros/go-defaults"
)

// TestingT is the subset of *testing.T the asserters need.
type TestingT interface {
	Helper()
	Errorf(format string, args ...interface{})
}

// TextAssertOptions controls how CLI output is normalized before comparison.
type TextAssertOptions struct {
	TrimTrailingWhitespace bool `default:"true"`
	IgnoreEmptyLines       bool `default:"false"`
	StripCarriageReturns   bool `default:"true"`
	EnableColors           bool `default:"false"`
}

// TextOption is a functional option for configuring TextAsserter
type TextOption func(*TextAssertOptions)

// TextAsserter compares command output and reports a unified diff on mismatch.
type TextAsserter struct {
	t       TestingT
	options TextAssertOptions
}

// NewTextAsserter creates a TextAsserter with default options
func NewTextAsserter(t *testing.T, opts ...TextOption) *TextAsserter {
	return NewTextAsserterWithInterface(t, opts...)
}

// NewTextAsserterWithInterface is NewTextAsserter for any TestingT.
func NewTextAsserterWithInterface(t TestingT, opts ...TextOption) *TextAsserter {
	options := TextAssertOptions{}
	defaults.SetDefaults(&options)
	for _, opt := range opts {
		opt(&options)
	}
	return &TextAsserter{t: t, options: options}
}

// WithIgnoreEmptyLines drops blank lines on both sides.
func WithIgnoreEmptyLines(ignore bool) TextOption {
	return func(o *TextAssertOptions) { o.IgnoreEmptyLines = ignore }
}

// WithColors colorizes the reported diff.
func WithColors(enable bool) TextOption {
	return func(o *TextAssertOptions) { o.EnableColors = enable }
}

// Assert fails the test when actual differs from expected.
func (ta *TextAsserter) Assert(actual, expected string) bool {
	ta.t.Helper()
	if diff := ta.Diff(actual, expected); diff != "" {
		ta.t.Errorf("Text assertion failed - unified diff:\n%s", diff)
		return false
	}
	return true
}

// Diff returns a unified diff from expected to actual, or "" when they match.
func (ta *TextAsserter) Diff(actual, expected string) string {
	a := ta.normalize(actual)
	e := ta.normalize(expected)
	if a == e {
		return ""
	}

	edits := myers.ComputeEdits("", e, a)
	unified := fmt.Sprint(gotextdiff.ToUnified("expected", "actual", e, edits))
	if !ta.options.EnableColors {
		return unified
	}
	return colorize(unified)
}

func (ta *TextAsserter) normalize(text string) string {
	if ta.options.StripCarriageReturns {
		text = strings.ReplaceAll(text, "\r", "")
	}

	lines := strings.Split(text, "\n")
	result := lines[:0]
	for _, line := range lines {
		if ta.options.TrimTrailingWhitespace {
			line = strings.TrimRight(line, " \t")
		}
		if ta.options.IgnoreEmptyLines && line == "" {
			continue
		}
		result = append(result, line)
	}
	return strings.Join(result, "\n")
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
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
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
