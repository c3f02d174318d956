package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/arangoq/internal/ir"
	"github.com/roach88/arangoq/internal/qparams"
)

// Scenario defines one compile scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Collection is the collection the query object targets.
	Collection string `yaml:"collection"`

	// Source is bound to @@source. Defaults to Collection.
	Source string `yaml:"source,omitempty"`

	Alias       string `yaml:"alias,omitempty"`
	ReturnAlias string `yaml:"return_alias,omitempty"`
	MaxDepth    int    `yaml:"max_depth,omitempty"`

	// Profiles is a search profile file (YAML, JSON or CUE). Relative paths
	// are resolved against the scenario file. Empty uses the built-in
	// profiles.
	Profiles string `yaml:"profiles,omitempty"`

	// Query is the query object. Mapping key order is preserved.
	Query yaml.Node `yaml:"query,omitempty"`

	// QueryString is an HTTP query string decoded into the query object.
	QueryString string `yaml:"query_string,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one property of a scenario result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Text is used by aql_contains, aql_excludes and error_contains.
	Text string `yaml:"text,omitempty"`

	// Name is the bind variable name (used by bind_value).
	Name string `yaml:"name,omitempty"`

	// Value is the expected bind variable value (used by bind_value).
	Value yaml.Node `yaml:"value,omitempty"`

	// Count is used by bind_count and warning_count.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertAQLContains   = "aql_contains"
	AssertAQLExcludes   = "aql_excludes"
	AssertBindCount     = "bind_count"
	AssertBindValue     = "bind_value"
	AssertWarningCount  = "warning_count"
	AssertErrorContains = "error_contains"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields so typos like "assertion:" fail loudly
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the profile path relative to the scenario BEFORE validation
	if scenario.Profiles != "" && !filepath.IsAbs(scenario.Profiles) {
		scenario.Profiles = filepath.Join(filepath.Dir(path), scenario.Profiles)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// QueryValue returns the scenario's query object.
func (s *Scenario) QueryValue() (any, error) {
	if s.QueryString != "" {
		obj, err := qparams.Parse(s.QueryString)
		if err != nil {
			return nil, fmt.Errorf("query_string: %w", err)
		}
		return obj, nil
	}
	if s.Query.Kind == 0 {
		return ir.Object{}, nil
	}
	v, err := ir.FromYAMLNode(&s.Query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return v, nil
}

// SourceName returns the value bound to @@source.
func (s *Scenario) SourceName() string {
	if s.Source != "" {
		return s.Source
	}
	return s.Collection
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Collection == "" {
		return fmt.Errorf("collection is required")
	}

	if s.QueryString != "" && s.Query.Kind != 0 {
		return fmt.Errorf("query and query_string are mutually exclusive")
	}

	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Profiles != "" {
		if _, err := os.Stat(s.Profiles); os.IsNotExist(err) {
			return fmt.Errorf("profiles file not found: %s", s.Profiles)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertAQLContains, AssertAQLExcludes, AssertErrorContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertBindValue:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for bind_value", index)
		}
		if a.Value.Kind == 0 {
			return fmt.Errorf("assertions[%d]: value is required for bind_value", index)
		}
	case AssertBindCount, AssertWarningCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
