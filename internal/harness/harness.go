package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/arangoq/internal/querybuilder"
	"github.com/roach88/arangoq/internal/search"
	"github.com/roach88/arangoq/internal/store"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory history store for isolation.
//
// Execution flow:
// 1. Build the query object and load the search profiles
// 2. Compile
// 3. Record the compilation and read it back
// 4. Evaluate assertions against the stored record
//
// A compile failure is not an error of Run; it is reported through
// Result.CompileError and checked by error_contains assertions.
func Run(scenario *Scenario) (*Result, error) {
	query, err := scenario.QueryValue()
	if err != nil {
		return nil, err
	}

	registry := search.Default()
	if scenario.Profiles != "" {
		if registry, err = search.LoadFile(scenario.Profiles); err != nil {
			return nil, fmt.Errorf("failed to load profiles: %w", err)
		}
	}
	profileHash, err := registry.Hash()
	if err != nil {
		return nil, fmt.Errorf("failed to hash profiles: %w", err)
	}

	opts := querybuilder.Options{
		DocAlias:    scenario.Alias,
		ReturnAlias: scenario.ReturnAlias,
		Registry:    registry,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		MaxDepth:    scenario.MaxDepth,
	}

	result := NewResult()
	compiled, err := querybuilder.Compile(scenario.Collection, query, opts)
	if err != nil {
		result.CompileError = err.Error()
		for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
			result.AddError(msg)
		}
		return result, nil
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	rec, err := store.NewCompilation(scenario.SourceName(), query, compiled, profileHash)
	if err != nil {
		return nil, err
	}
	if _, err := st.Record(ctx, rec); err != nil {
		return nil, err
	}
	stored, err := st.Get(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	result.QueryID = stored.QueryID
	result.AQL = stored.AQL
	result.BindVars = stored.BindVars
	result.Warnings = stored.Warnings

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}
