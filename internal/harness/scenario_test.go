package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arangoq/internal/ir"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/range_and_or.yaml")
	require.NoError(t, err)

	assert.Equal(t, "range_and_or", s.Name)
	assert.Equal(t, "person", s.Collection)
	assert.Equal(t, "person", s.SourceName())
	assert.Len(t, s.Assertions, 7)

	q, err := s.QueryValue()
	require.NoError(t, err)
	obj, ok := q.(ir.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"age", "$or", "$sort", "$limit", "$skip"}, obj.Keys())
}

func TestLoadScenario_ResolvesProfilesPath(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/custom_profiles.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "profiles", "products.yaml"), s.Profiles)
}

func TestLoadScenario_QueryString(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/query_string.yaml")
	require.NoError(t, err)

	q, err := s.QueryValue()
	require.NoError(t, err)
	obj := q.(ir.Object)
	assert.Equal(t, []string{"name", "age", "$sort", "$limit"}, obj.Keys())
}

func TestScenario_EmptyQuery(t *testing.T) {
	s := &Scenario{}
	q, err := s.QueryValue()
	require.NoError(t, err)
	assert.Equal(t, ir.Object{}, q)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\ncollection: c\nassertions: [{type: bind_count, count: 0}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\ncollection: c\nassertions: [{type: bind_count, count: 0}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing collection",
			content: "name: n\ndescription: d\nassertions: [{type: bind_count, count: 0}]\n",
			wantErr: "collection is required",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\ncollection: c\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "query and query_string",
			content: "name: n\ndescription: d\ncollection: c\nquery: {a: 1}\nquery_string: a=1\nassertions: [{type: bind_count, count: 1}]\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "unknown field",
			content: "name: n\ndescription: d\ncollection: c\nassertion: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "unknown assertion type",
			content: "name: n\ndescription: d\ncollection: c\nassertions: [{type: nope}]\n",
			wantErr: `unknown assertion type "nope"`,
		},
		{
			name:    "aql_contains without text",
			content: "name: n\ndescription: d\ncollection: c\nassertions: [{type: aql_contains}]\n",
			wantErr: "text is required for aql_contains",
		},
		{
			name:    "bind_value without value",
			content: "name: n\ndescription: d\ncollection: c\nassertions: [{type: bind_value, name: value0}]\n",
			wantErr: "value is required for bind_value",
		},
		{
			name:    "negative count",
			content: "name: n\ndescription: d\ncollection: c\nassertions: [{type: bind_count, count: -1}]\n",
			wantErr: "count must be non-negative",
		},
		{
			name:    "missing profiles file",
			content: "name: n\ndescription: d\ncollection: c\nprofiles: nope.yaml\nassertions: [{type: bind_count, count: 0}]\n",
			wantErr: "profiles file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	assert.ErrorContains(t, err, "failed to read scenario file")
}
