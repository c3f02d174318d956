package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arangoq/internal/search"
)

func executeProfiles(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewProfilesCommand(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestProfiles_ListText(t *testing.T) {
	out, err := executeProfiles(t, "text")
	require.NoError(t, err)

	hash, err := search.Default().Hash()
	require.NoError(t, err)

	assert.Contains(t, out, "4 profile(s), hash "+hash)
	assert.Contains(t, out, "person: firstName~2, lastName~2, displayName~3, email~2, personID==int")
	assert.Contains(t, out, "person_role: _from IN (search person over person_view RETURN r._id)")
	assert.Contains(t, out, "country: nameEn~2, nameNo~2")
}

func TestProfiles_ListJSON(t *testing.T) {
	out, err := executeProfiles(t, "json", "--profiles", "testdata/profiles.yaml")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   ProfilesOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Hash, 64)
	require.Len(t, resp.Data.Profiles, 1)
	assert.Equal(t, "products", resp.Data.Profiles[0].Name)
	assert.Equal(t, "sku", resp.Data.Profiles[0].ExactInt)
}

func TestProfiles_SingleCollection(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		want       string
	}{
		{name: "registered", collection: "org", want: "org: name~2, churchID==int\n"},
		{name: "fallback", collection: "widgets", want: "widgets (fallback): name~2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeProfiles(t, "text", tt.collection)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestProfiles_SingleCollectionJSON(t *testing.T) {
	out, err := executeProfiles(t, "json", "widgets")
	require.NoError(t, err)

	var resp struct {
		Data ProfileOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "widgets", resp.Data.Collection)
	assert.False(t, resp.Data.Registered)
	require.Len(t, resp.Data.Profile.Fuzzy, 1)
	assert.Equal(t, "name", resp.Data.Profile.Fuzzy[0].Field)
}

func TestProfiles_YAMLRoundTrip(t *testing.T) {
	out, err := executeProfiles(t, "text", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "profiles:")

	reparsed, err := search.ParseYAML([]byte(out))
	require.NoError(t, err)

	want, err := search.Default().Hash()
	require.NoError(t, err)
	got, err := reparsed.Hash()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestProfiles_InvalidCUE(t *testing.T) {
	out, err := executeProfiles(t, "json", "--profiles", "testdata/bad_profiles.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeProfiles, resp.Error.Code)
}
