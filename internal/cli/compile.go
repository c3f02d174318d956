package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/arangoq/internal/ir"
	"github.com/roach88/arangoq/internal/queryaql"
	"github.com/roach88/arangoq/internal/querybuilder"
	"github.com/roach88/arangoq/internal/search"
	"github.com/roach88/arangoq/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Collection  string
	Alias       string
	ReturnAlias string
	Source      string // bound to @@source; defaults to Collection
	Query       string // HTTP query string
	File        string // query object file (.json, .yaml)
	Profiles    string
	MaxDepth    int
	Strict      bool // fail on validation warnings
	Record      bool
	History     string
}

// CompileOutput is the compile command's result.
type CompileOutput struct {
	QueryID   string         `json:"query_id"`
	AQL       string         `json:"aql"`
	BindVars  map[string]any `json:"bind_vars"`
	Fragments Fragments      `json:"fragments"`
	Warnings  []string       `json:"warnings"`
	Recorded  *Recorded      `json:"recorded,omitempty"`
}

// Fragments are the individual clauses, without the FOR line.
type Fragments struct {
	Filter     string `json:"filter,omitempty"`
	Sort       string `json:"sort,omitempty"`
	Search     string `json:"search,omitempty"`
	Pagination string `json:"pagination,omitempty"`
	Projection string `json:"projection"`
}

// Recorded identifies the history row a compilation was written to.
type Recorded struct {
	ID  string `json:"id"`
	Seq int64  `json:"seq"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a query object to AQL",
		Long: `Compile a REST query object into AQL with bind variables.

The query object comes from an HTTP query string (--query) or a JSON or
YAML file (--file). The collection name selects the search profile used
by $search.

Exit codes:
  0 - Compiled
  1 - Validation warnings with --strict
  2 - Command error (bad input, unreadable profiles, etc.)

Examples:
  arangoq compile --collection person --query 'age[$gte]=18&$sort[age]=-1'
  arangoq compile --collection person --source person_view --query '$search=ada'
  arangoq compile --collection org --file query.yaml --format json --record`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Collection, "collection", "c", "", "target collection (required)")
	_ = cmd.MarkFlagRequired("collection")
	cmd.Flags().StringVar(&opts.Alias, "alias", "", "document alias (default \"doc\")")
	cmd.Flags().StringVar(&opts.ReturnAlias, "return-alias", "", "alias used in RETURN (default: --alias)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "collection or view bound to @@source (default: --collection)")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "query string, e.g. 'a[$gt]=1&$limit=5'")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "query object file (.json, .yaml)")
	cmd.Flags().StringVar(&opts.Profiles, "profiles", "", "search profile file (overrides config)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "maximum object nesting (default 32)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when field names are not plain identifiers")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "record the compilation in the history database")
	cmd.Flags().StringVar(&opts.History, "history", "", "history database path (overrides config)")

	return cmd
}

func runCompile(opts *CompileOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	cfg, err := opts.loadConfig()
	if err != nil {
		return outputError(formatter, ExitCommandError, err)
	}

	query, err := LoadQuery(opts.Query, opts.File)
	if err != nil {
		return outputError(formatter, ExitCommandError, err)
	}

	profilesPath := opts.Profiles
	if profilesPath == "" {
		profilesPath = cfg.Profiles
	}
	registry, err := LoadProfiles(profilesPath)
	if err != nil {
		return outputError(formatter, ExitCommandError, err)
	}
	formatter.VerboseLog("Using %d search profile(s)", len(registry.Names()))

	compiled, err := querybuilder.Compile(opts.Collection, query, querybuilder.Options{
		DocAlias:    opts.Alias,
		ReturnAlias: opts.ReturnAlias,
		Registry:    registry,
		Logger:      logger,
		MaxDepth:    opts.MaxDepth,
	})
	if err != nil {
		return outputError(formatter, ExitCommandError, &LoadError{Code: ErrCodeCompileFailed, Message: err.Error()})
	}

	if opts.Strict && len(compiled.Warnings) > 0 {
		_ = formatter.Error(ErrCodeUnsafe, "query has unsafe field names", compiled.Warnings)
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d warning(s)", ErrCodeUnsafe, len(compiled.Warnings)))
	}

	source := opts.Source
	if source == "" {
		source = opts.Collection
	}
	aql, bindVars := compiled.AQL(source)

	queryID, err := ir.QueryID(compiled.Collection, compiled.Alias, query)
	if err != nil {
		return outputError(formatter, ExitCommandError, err)
	}

	out := CompileOutput{
		QueryID:  queryID,
		AQL:      aql,
		BindVars: bindVars,
		Fragments: Fragments{
			Filter:     compiled.Filter,
			Sort:       compiled.Sort,
			Search:     compiled.Search.String(),
			Pagination: compiled.Pagination,
			Projection: compiled.Projection,
		},
		Warnings: compiled.Warnings,
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}

	if opts.Record {
		historyPath := opts.History
		if historyPath == "" {
			historyPath = cfg.History
		}
		rec, err := recordCompilation(cmd.Context(), historyPath, source, query, compiled, registry)
		if err != nil {
			return outputError(formatter, ExitCommandError, err)
		}
		logger.Info("recorded compilation", "id", rec.ID, "seq", rec.Seq, "query_id", queryID)
		out.Recorded = rec
	}

	return outputCompileSuccess(formatter, out)
}

// recordCompilation appends the compilation to the history database at path.
func recordCompilation(ctx context.Context, path, source string, query any, compiled *queryaql.Compiled, registry *search.Registry) (*Recorded, error) {
	if path == "" {
		return nil, &LoadError{Code: ErrCodeInvalidArgs, Message: "--record needs --history or history in the config"}
	}

	profileHash, err := registry.Hash()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeProfiles, Message: err.Error()}
	}
	rec, err := store.NewCompilation(source, query, compiled, profileHash)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeHistory, Message: err.Error()}
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeHistory, Message: fmt.Sprintf("open history: %v", err)}
	}
	defer st.Close()

	seq, err := st.Record(ctx, rec)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeHistory, Message: err.Error()}
	}
	return &Recorded{ID: rec.ID, Seq: seq}, nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, out CompileOutput) error {
	if formatter.Format == "json" {
		return formatter.SuccessWithTrace(out, uuid.NewString())
	}

	w := formatter.Writer
	fmt.Fprintln(w, out.AQL)
	fmt.Fprintln(w)

	vars, err := json.MarshalIndent(out.BindVars, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bind vars: %w", err)
	}
	fmt.Fprintf(w, "Bind variables:\n%s\n", vars)

	for _, warning := range out.Warnings {
		fmt.Fprintf(formatter.GetErrWriter(), "warning: %s\n", warning)
	}
	if out.Recorded != nil {
		fmt.Fprintf(w, "\nRecorded %s (seq %d)\n", out.Recorded.ID, out.Recorded.Seq)
	}
	return nil
}
