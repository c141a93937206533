//go:build test

package testutils

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// JSONAsserter compares JSON documents structurally and reports an ASCII diff
// on mismatch. Key order and formatting are ignored.
type JSONAsserter struct {
	t TestingT
}

// NewJSONAsserter creates a JSONAsserter
func NewJSONAsserter(t *testing.T) *JSONAsserter {
	return &JSONAsserter{t: t}
}

// Assert fails the test when actualJSON and expectedJSON differ.
func (ja *JSONAsserter) Assert(actualJSON, expectedJSON string) bool {
	ja.t.Helper()
	if diff := JSONDiff(actualJSON, expectedJSON); diff != "" {
		ja.t.Errorf("JSON assertion failed:\n%s", diff)
		return false
	}
	return true
}

// JSONDiff returns a readable diff from expected to actual, or "" when both
// documents hold the same data.
func JSONDiff(actualJSON, expectedJSON string) string {
	var expected, actual interface{}
	if err := json.Unmarshal([]byte(expectedJSON), &expected); err != nil {
		return fmt.Sprintf("invalid expected JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(actualJSON), &actual); err != nil {
		return fmt.Sprintf("invalid actual JSON: %v", err)
	}

	// gojsondiff only compares objects at the root
	expectedObj, ok := expected.(map[string]interface{})
	if !ok {
		expectedObj = map[string]interface{}{"root": expected}
	}
	actualObj, ok := actual.(map[string]interface{})
	if !ok {
		actualObj = map[string]interface{}{"root": actual}
	}

	diff := gojsondiff.New().CompareObjects(expectedObj, actualObj)
	if !diff.Modified() {
		return ""
	}

	f := formatter.NewAsciiFormatter(expectedObj, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       false,
	})
	out, err := f.Format(diff)
	if err != nil {
		return fmt.Sprintf("JSON documents differ (diff formatting failed: %v)", err)
	}
	return out
}
