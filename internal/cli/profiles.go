package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/arangoq/internal/search"
)

// ProfilesOptions holds flags for the profiles command.
type ProfilesOptions struct {
	*RootOptions
	Profiles string
	YAML     bool // print the registry in profile file form
}

// ProfilesOutput is the profiles command's result.
type ProfilesOutput struct {
	Hash     string           `json:"hash"`
	Profiles []search.Profile `json:"profiles"`
}

// ProfileOutput describes the profile a single collection resolves to.
type ProfileOutput struct {
	Collection string         `json:"collection"`
	Registered bool           `json:"registered"`
	Profile    search.Profile `json:"profile"`
}

// NewProfilesCommand creates the profiles command.
func NewProfilesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProfilesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "profiles [collection]",
		Short: "List search profiles",
		Long: `List the search profiles $search uses, or show the profile one
collection resolves to. Collections with no profile fall back to a fuzzy
match on "name".

Examples:
  arangoq profiles
  arangoq profiles person_role
  arangoq profiles --profiles ./profiles.cue --yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfiles(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Profiles, "profiles", "", "search profile file (overrides config)")
	cmd.Flags().BoolVar(&opts.YAML, "yaml", false, "print the registry as a profile file")

	return cmd
}

func runProfiles(opts *ProfilesOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return outputError(formatter, ExitCommandError, err)
	}
	path := opts.Profiles
	if path == "" {
		path = cfg.Profiles
	}
	registry, err := LoadProfiles(path)
	if err != nil {
		return outputError(formatter, ExitCommandError, err)
	}

	if len(args) == 1 {
		p, ok := registry.Lookup(args[0])
		return outputProfile(formatter, ProfileOutput{Collection: args[0], Registered: ok, Profile: p})
	}

	if opts.YAML {
		data, err := yaml.Marshal(registry)
		if err != nil {
			return outputError(formatter, ExitCommandError, err)
		}
		_, err = formatter.Writer.Write(data)
		return err
	}

	hash, err := registry.Hash()
	if err != nil {
		return outputError(formatter, ExitCommandError, err)
	}
	out := ProfilesOutput{Hash: hash, Profiles: registry.Profiles()}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%d profile(s), hash %s\n\n", len(out.Profiles), hash)
	for _, p := range out.Profiles {
		fmt.Fprintf(w, "  %s: %s\n", p.Name, describeProfile(p))
	}
	return nil
}

func outputProfile(formatter *OutputFormatter, out ProfileOutput) error {
	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	name := out.Collection
	if !out.Registered {
		name += " (fallback)"
	}
	fmt.Fprintf(formatter.Writer, "%s: %s\n", name, describeProfile(out.Profile))
	return nil
}

// describeProfile summarizes a profile on one line.
func describeProfile(p search.Profile) string {
	if rel := p.Related; rel != nil {
		return fmt.Sprintf("%s IN (search %s over %s RETURN %s.%s)", rel.Field, rel.Profile, rel.View, rel.Alias, rel.Return)
	}

	parts := make([]string, 0, len(p.Fuzzy)+1)
	for _, f := range p.Fuzzy {
		parts = append(parts, fmt.Sprintf("%s~%d", f.Field, f.Threshold))
	}
	if p.ExactInt != "" {
		parts = append(parts, p.ExactInt+"==int")
	}
	return strings.Join(parts, ", ")
}
