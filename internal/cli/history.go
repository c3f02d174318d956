package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/arangoq/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database   string
	Collection string
	QueryID    string
	Limit      int
}

// HistoryEntry is one compilation as the history command prints it.
type HistoryEntry struct {
	Seq         int64          `json:"seq"`
	ID          string         `json:"id"`
	QueryID     string         `json:"query_id"`
	Collection  string         `json:"collection"`
	Alias       string         `json:"alias"`
	Query       any            `json:"query"`
	AQL         string         `json:"aql"`
	BindVars    map[string]any `json:"bind_vars"`
	ProfileHash string         `json:"profile_hash,omitempty"`
	Warnings    []string       `json:"warnings"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Show recorded compilations",
		Long: `List compilations recorded with "compile --record", oldest first,
or show a single compilation by id.

Examples:
  arangoq history --db ./history.db
  arangoq history --db ./history.db --collection person --limit 10
  arangoq history --db ./history.db 01926f3e-... --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "history database path (overrides config)")
	cmd.Flags().StringVar(&opts.Collection, "collection", "", "only compilations for this collection")
	cmd.Flags().StringVar(&opts.QueryID, "query-id", "", "only compilations of this query")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of entries (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	path := opts.Database
	if path == "" {
		cfg, err := opts.loadConfig()
		if err != nil {
			return outputError(formatter, ExitCommandError, err)
		}
		path = cfg.History
	}
	if path == "" {
		return outputError(formatter, ExitCommandError, &LoadError{Code: ErrCodeInvalidArgs, Message: "no history database: pass --db or set history in the config"})
	}
	// Opening would create the file; a missing history is an error instead.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return outputError(formatter, ExitCommandError, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("history database not found: %s", path)})
	}

	st, err := store.Open(path)
	if err != nil {
		return outputError(formatter, ExitCommandError, &LoadError{Code: ErrCodeHistory, Message: err.Error()})
	}
	defer st.Close()

	if len(args) == 1 {
		c, err := st.Get(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return outputError(formatter, ExitFailure, &LoadError{Code: ErrCodeNotFound, Message: err.Error()})
		}
		if err != nil {
			return outputError(formatter, ExitCommandError, &LoadError{Code: ErrCodeHistory, Message: err.Error()})
		}
		return outputHistoryEntry(formatter, toHistoryEntry(c))
	}

	list, err := st.List(ctx, store.Filter{
		Collection: opts.Collection,
		QueryID:    opts.QueryID,
		Limit:      opts.Limit,
	})
	if err != nil {
		return outputError(formatter, ExitCommandError, &LoadError{Code: ErrCodeHistory, Message: err.Error()})
	}

	entries := make([]HistoryEntry, len(list))
	for i, c := range list {
		entries[i] = toHistoryEntry(c)
	}
	return outputHistory(formatter, entries)
}

func toHistoryEntry(c store.Compilation) HistoryEntry {
	return HistoryEntry{
		Seq:         c.Seq,
		ID:          c.ID,
		QueryID:     c.QueryID,
		Collection:  c.Collection,
		Alias:       c.Alias,
		Query:       c.Query,
		AQL:         c.AQL,
		BindVars:    c.BindVars,
		ProfileHash: c.ProfileHash,
		Warnings:    c.Warnings,
	}
}

func outputHistory(formatter *OutputFormatter, entries []HistoryEntry) error {
	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	w := formatter.Writer
	if len(entries) == 0 {
		fmt.Fprintln(w, "No compilations recorded.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "[%d] %s %s query %s, %d bind var(s)\n", e.Seq, e.ID, e.Collection, shortHash(e.QueryID), len(e.BindVars))
	}
	return nil
}

func outputHistoryEntry(formatter *OutputFormatter, e HistoryEntry) error {
	if formatter.Format == "json" {
		return formatter.Success(e)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Seq:        %d\n", e.Seq)
	fmt.Fprintf(w, "ID:         %s\n", e.ID)
	fmt.Fprintf(w, "Query ID:   %s\n", e.QueryID)
	fmt.Fprintf(w, "Collection: %s\n", e.Collection)
	fmt.Fprintf(w, "\n%s\n", e.AQL)
	for _, warning := range e.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}

// shortHash truncates a hex hash for display.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
