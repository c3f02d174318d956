package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/roach88/arangoq/internal/ir"
	"github.com/roach88/arangoq/internal/queryaql"
)

// AssertionError is returned when an assertion fails.
// It includes the assembled AQL to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	AQL      string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.AQL != "" {
		fmt.Fprintf(&buf, "\nAQL:\n")
		for _, line := range strings.Split(e.AQL, "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// the failure messages.
//
// A compile error fails every assertion except error_contains, and an
// unexpected compile error is reported once even if no assertion mentions it.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	expectsError := false
	for _, a := range assertions {
		if a.Type == AssertErrorContains {
			expectsError = true
		}
	}
	if result.CompileError != "" && !expectsError {
		errs = append(errs, fmt.Sprintf("compile failed: %s", result.CompileError))
		return errs
	}

	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion[%d] (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertAQLContains:
		return assertAQLContains(result, a)
	case AssertAQLExcludes:
		return assertAQLExcludes(result, a)
	case AssertBindCount:
		return assertBindCount(result, a)
	case AssertBindValue:
		return assertBindValue(result, a)
	case AssertWarningCount:
		return assertWarningCount(result, a)
	case AssertErrorContains:
		return assertErrorContains(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertAQLContains(result *Result, a Assertion) error {
	if strings.Contains(result.AQL, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertAQLContains,
		Expected: fmt.Sprintf("AQL containing %q", a.Text),
		Actual:   "not found",
		AQL:      result.AQL,
	}
}

func assertAQLExcludes(result *Result, a Assertion) error {
	if !strings.Contains(result.AQL, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertAQLExcludes,
		Expected: fmt.Sprintf("AQL without %q", a.Text),
		Actual:   "found",
		AQL:      result.AQL,
	}
}

// assertBindCount counts value bind variables; the @source collection
// parameter is not counted.
func assertBindCount(result *Result, a Assertion) error {
	count := len(result.BindVars)
	if _, ok := result.BindVars[queryaql.SourceParam]; ok {
		count--
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertBindCount,
		Expected: fmt.Sprintf("%d bind variables", a.Count),
		Actual:   fmt.Sprintf("%d bind variables", count),
		AQL:      result.AQL,
	}
}

// assertBindValue compares canonical JSON encodings, so 5 and 5.0 match and
// object member order matters.
func assertBindValue(result *Result, a Assertion) error {
	actual, ok := result.BindVars[a.Name]
	if !ok {
		return &AssertionError{
			Type:     AssertBindValue,
			Expected: fmt.Sprintf("bind variable %q", a.Name),
			Actual:   "missing",
			AQL:      result.AQL,
		}
	}

	expected, err := ir.FromYAMLNode(&a.Value)
	if err != nil {
		return fmt.Errorf("expected value: %w", err)
	}
	want, err := ir.MarshalCanonical(expected)
	if err != nil {
		return fmt.Errorf("expected value: %w", err)
	}
	got, err := ir.MarshalCanonical(actual)
	if err != nil {
		return fmt.Errorf("actual value: %w", err)
	}
	if bytes.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     AssertBindValue,
		Expected: fmt.Sprintf("%s = %s", a.Name, want),
		Actual:   fmt.Sprintf("%s = %s", a.Name, got),
		AQL:      result.AQL,
	}
}

func assertWarningCount(result *Result, a Assertion) error {
	if len(result.Warnings) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertWarningCount,
		Expected: fmt.Sprintf("%d warnings", a.Count),
		Actual:   fmt.Sprintf("%d warnings %v", len(result.Warnings), result.Warnings),
		AQL:      result.AQL,
	}
}

func assertErrorContains(result *Result, a Assertion) error {
	if result.CompileError == "" {
		return &AssertionError{
			Type:     AssertErrorContains,
			Expected: fmt.Sprintf("compile error containing %q", a.Text),
			Actual:   "compiled successfully",
			AQL:      result.AQL,
		}
	}
	if strings.Contains(result.CompileError, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertErrorContains,
		Expected: fmt.Sprintf("compile error containing %q", a.Text),
		Actual:   result.CompileError,
	}
}
