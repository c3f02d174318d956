package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/arangoq/internal/ir"
)

// ErrNotFound is returned by Get when no compilation has the given id.
var ErrNotFound = errors.New("compilation not found")

const selectCompilation = `
	SELECT seq, id, query_id, collection, alias, query, aql, bind_vars, profile_hash, warnings
	FROM compilations`

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Collection string
	QueryID    string
	// Limit caps the number of rows; 0 means no cap.
	Limit int
}

// Get retrieves a single compilation by ID.
func (s *Store) Get(ctx context.Context, id string) (Compilation, error) {
	row := s.db.QueryRowContext(ctx, selectCompilation+` WHERE id = ?`, id)
	c, err := scanCompilation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Compilation{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return c, err
}

// List returns compilations matching f, ordered by seq ASC.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) List(ctx context.Context, f Filter) ([]Compilation, error) {
	var where []string
	var args []any
	if f.Collection != "" {
		where = append(where, "collection = ?")
		args = append(args, f.Collection)
	}
	if f.QueryID != "" {
		where = append(where, "query_id = ?")
		args = append(args, f.QueryID)
	}

	q := selectCompilation
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq ASC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query compilations: %w", err)
	}
	defer rows.Close()

	out := []Compilation{}
	for rows.Next() {
		c, err := scanCompilation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompilation(row scanner) (Compilation, error) {
	var c Compilation
	var queryJSON, bindJSON, warnJSON string
	err := row.Scan(&c.Seq, &c.ID, &c.QueryID, &c.Collection, &c.Alias,
		&queryJSON, &c.AQL, &bindJSON, &c.ProfileHash, &warnJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Compilation{}, err
		}
		return Compilation{}, fmt.Errorf("scan compilation: %w", err)
	}

	if c.Query, err = ir.DecodeJSON([]byte(queryJSON)); err != nil {
		return Compilation{}, fmt.Errorf("unmarshal query: %w", err)
	}

	bindVars, err := ir.DecodeJSON([]byte(bindJSON))
	if err != nil {
		return Compilation{}, fmt.Errorf("unmarshal bind vars: %w", err)
	}
	m, ok := ir.Plain(bindVars).(map[string]any)
	if !ok {
		return Compilation{}, fmt.Errorf("unmarshal bind vars: not an object")
	}
	c.BindVars = m

	if err := json.Unmarshal([]byte(warnJSON), &c.Warnings); err != nil {
		return Compilation{}, fmt.Errorf("unmarshal warnings: %w", err)
	}
	return c, nil
}
