package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/arangoq/internal/ir"
)

// Snapshot renders a result for golden comparison: the assembled AQL, a
// blank line and the canonical JSON of the bind variables. Warnings follow
// one per line. A failed compile renders as its error.
func Snapshot(result *Result) ([]byte, error) {
	if result.CompileError != "" {
		return []byte("error: " + result.CompileError + "\n"), nil
	}

	vars, err := ir.MarshalCanonical(result.BindVars)
	if err != nil {
		return nil, fmt.Errorf("snapshot bind vars: %w", err)
	}

	var b strings.Builder
	b.WriteString(result.AQL)
	b.WriteString("\n\n")
	b.Write(vars)
	b.WriteString("\n")
	for _, w := range result.Warnings {
		b.WriteString("warning: " + w + "\n")
	}
	return []byte(b.String()), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
