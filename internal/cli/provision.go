package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/arangoq/internal/provision"
)

// ProvisionOptions holds flags for the provision command.
type ProvisionOptions struct {
	*RootOptions
	Database string // overrides the manifest's database
	DryRun   bool
}

// ProvisionOutput is the provision command's result.
type ProvisionOutput struct {
	DryRun bool             `json:"dry_run"`
	Steps  []provision.Step `json:"steps"`
}

// NewProvisionCommand creates the provision command.
func NewProvisionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProvisionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "provision <manifest>",
		Short: "Create the database, graph, collections and views a manifest names",
		Long: `Ensure every object in a YAML manifest exists, creating what is missing.
Objects that already exist, or that another client creates concurrently,
are left as they are, so provisioning can be re-run safely.

Connection settings come from the config file or ARANGOQ_ARANGO_*
environment variables.

Examples:
  arangoq provision ./schema.yaml
  arangoq provision ./schema.yaml --dry-run
  ARANGOQ_ARANGO_PASSWORD=secret arangoq provision ./schema.yaml --database staging`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "database", "", "database name (overrides the manifest)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the steps without connecting")

	return cmd
}

func runProvision(opts *ProvisionOptions, manifestPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	m, err := provision.LoadManifest(manifestPath)
	if err != nil {
		return outputError(formatter, ExitCommandError, &LoadError{Code: ErrCodeParseFailed, Message: err.Error()})
	}
	if opts.Database != "" {
		m.Database = opts.Database
	}

	if opts.DryRun {
		steps, err := provision.Plan(m)
		if err != nil {
			return outputError(formatter, ExitCommandError, &LoadError{Code: ErrCodeParseFailed, Message: err.Error()})
		}
		return outputProvision(formatter, ProvisionOutput{DryRun: true, Steps: steps})
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return outputError(formatter, ExitCommandError, err)
	}
	client, err := provision.Connect(cfg.Arango)
	if err != nil {
		return outputError(formatter, ExitCommandError, &LoadError{Code: ErrCodeConfig, Message: err.Error()})
	}
	logger.Info("provisioning", "manifest", manifestPath, "database", m.Database, "endpoints", cfg.Arango.Endpoints)

	steps, err := provision.Apply(cmd.Context(), client, m, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeProvision, err.Error(), ProvisionOutput{Steps: steps})
		return WrapExitError(ExitFailure, ErrCodeProvision, err)
	}
	return outputProvision(formatter, ProvisionOutput{Steps: steps})
}

func outputProvision(formatter *OutputFormatter, out ProvisionOutput) error {
	if out.Steps == nil {
		out.Steps = []provision.Step{}
	}
	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	verb := "ensured"
	if out.DryRun {
		verb = "would ensure"
	}
	for _, s := range out.Steps {
		fmt.Fprintf(w, "%s %s %s\n", verb, s.Kind, s.Name)
	}
	return nil
}
