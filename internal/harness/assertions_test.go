package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func yamlValue(t *testing.T, src string) yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	return *doc.Content[0]
}

func TestEvaluateAssertions(t *testing.T) {
	result := &Result{
		AQL: "FOR doc IN @@source\nFILTER doc.age >= @value0\nRETURN doc",
		BindVars: map[string]any{
			"@source": "people",
			"value0":  int64(18),
			"value1":  []any{"a", "b"},
		},
		Warnings: []string{},
	}

	tests := []struct {
		name      string
		assertion Assertion
		pass      bool
	}{
		{"contains", Assertion{Type: AssertAQLContains, Text: "doc.age >= @value0"}, true},
		{"contains missing", Assertion{Type: AssertAQLContains, Text: "SORT"}, false},
		{"excludes", Assertion{Type: AssertAQLExcludes, Text: "LIMIT"}, true},
		{"excludes present", Assertion{Type: AssertAQLExcludes, Text: "FILTER"}, false},
		{"bind count skips source", Assertion{Type: AssertBindCount, Count: 2}, true},
		{"bind count wrong", Assertion{Type: AssertBindCount, Count: 3}, false},
		{"bind value int", Assertion{Type: AssertBindValue, Name: "value0", Value: yamlValue(t, "18")}, true},
		{"bind value float equals int", Assertion{Type: AssertBindValue, Name: "value0", Value: yamlValue(t, "18.0")}, true},
		{"bind value string is not int", Assertion{Type: AssertBindValue, Name: "value0", Value: yamlValue(t, `"18"`)}, false},
		{"bind value array", Assertion{Type: AssertBindValue, Name: "value1", Value: yamlValue(t, "[a, b]")}, true},
		{"bind value missing", Assertion{Type: AssertBindValue, Name: "value9", Value: yamlValue(t, "1")}, false},
		{"warning count", Assertion{Type: AssertWarningCount, Count: 0}, true},
		{"error expected", Assertion{Type: AssertErrorContains, Text: "boom"}, false},
		{"unknown", Assertion{Type: "nope"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.assertion})
			if tt.pass {
				assert.Empty(t, errs)
			} else {
				assert.Len(t, errs, 1)
			}
		})
	}
}

func TestEvaluateAssertions_CompileError(t *testing.T) {
	result := &Result{CompileError: "query object nested too deeply: more than 1 levels at doc.a"}

	errs := EvaluateAssertions(result, []Assertion{{Type: AssertErrorContains, Text: "nested too deeply"}})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(result, []Assertion{{Type: AssertErrorContains, Text: "other"}})
	assert.Len(t, errs, 1)

	errs = EvaluateAssertions(result, []Assertion{{Type: AssertBindCount, Count: 0}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "compile failed")
}

func TestAssertionError_Message(t *testing.T) {
	err := &AssertionError{
		Type:     AssertAQLContains,
		Expected: `AQL containing "SORT"`,
		Actual:   "not found",
		AQL:      "FOR doc IN @@source\nRETURN doc",
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: aql_contains")
	assert.Contains(t, msg, "  FOR doc IN @@source\n  RETURN doc\n")
}
