package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/arangoq/internal/ir"
	"github.com/roach88/arangoq/internal/queryaql"
)

// Compilation is one recorded compile.
type Compilation struct {
	ID          string
	Seq         int64
	QueryID     string
	Collection  string
	Alias       string
	Query       any
	AQL         string
	BindVars    map[string]any
	ProfileHash string
	Warnings    []string
}

// NewCompilation builds a history record for query compiled over source.
// The AQL and bind variables are the assembled form from Compiled.AQL.
func NewCompilation(source string, query any, c *queryaql.Compiled, profileHash string) (Compilation, error) {
	queryID, err := ir.QueryID(c.Collection, c.Alias, query)
	if err != nil {
		return Compilation{}, fmt.Errorf("new compilation: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Compilation{}, fmt.Errorf("new compilation: %w", err)
	}

	aql, bindVars := c.AQL(source)
	return Compilation{
		ID:          id.String(),
		QueryID:     queryID,
		Collection:  c.Collection,
		Alias:       c.Alias,
		Query:       query,
		AQL:         aql,
		BindVars:    bindVars,
		ProfileHash: profileHash,
		Warnings:    c.Warnings,
	}, nil
}

// Record inserts a compilation and returns its assigned seq.
// Uses ON CONFLICT(id) DO NOTHING for idempotency; a duplicate ID returns
// the seq of the existing row.
//
// Query and BindVars are stored as canonical JSON.
func (s *Store) Record(ctx context.Context, c Compilation) (int64, error) {
	if c.ID == "" {
		return 0, fmt.Errorf("record compilation: empty id")
	}

	queryJSON, err := ir.MarshalCanonical(c.Query)
	if err != nil {
		return 0, fmt.Errorf("record compilation: marshal query: %w", err)
	}
	bindJSON, err := ir.MarshalCanonical(c.BindVars)
	if err != nil {
		return 0, fmt.Errorf("record compilation: marshal bind vars: %w", err)
	}
	warnings := c.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warnJSON, err := json.Marshal(warnings)
	if err != nil {
		return 0, fmt.Errorf("record compilation: marshal warnings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("record compilation: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO compilations
		(id, query_id, collection, alias, query, aql, bind_vars, profile_hash, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.QueryID,
		c.Collection,
		c.Alias,
		string(queryJSON),
		c.AQL,
		string(bindJSON),
		c.ProfileHash,
		string(warnJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("record compilation: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT seq FROM compilations WHERE id = ?`, c.ID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("record compilation: read seq: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("record compilation: commit: %w", err)
	}
	return seq, nil
}
