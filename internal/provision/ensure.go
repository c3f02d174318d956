package provision

import (
	"context"
	"fmt"

	driver "github.com/arangodb/go-driver"
)

// errDuplicateName is the ArangoDB error number for a name already in use.
const errDuplicateName = 1207

// DatabaseClient is the part of driver.Client EnsureDatabase uses.
type DatabaseClient interface {
	DatabaseExists(ctx context.Context, name string) (bool, error)
	Database(ctx context.Context, name string) (driver.Database, error)
	CreateDatabase(ctx context.Context, name string, options *driver.CreateDatabaseOptions) (driver.Database, error)
}

// CollectionStore is the part of driver.Database EnsureCollection uses.
type CollectionStore interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	Collection(ctx context.Context, name string) (driver.Collection, error)
	CreateCollection(ctx context.Context, name string, options *driver.CreateCollectionOptions) (driver.Collection, error)
}

// GraphStore is the part of driver.Database EnsureGraph uses.
type GraphStore interface {
	GraphExists(ctx context.Context, name string) (bool, error)
	Graph(ctx context.Context, name string) (driver.Graph, error)
	CreateGraphV2(ctx context.Context, name string, options *driver.CreateGraphOptions) (driver.Graph, error)
}

// VertexStore is the part of driver.Graph EnsureCollection uses for
// collections owned by a graph.
type VertexStore interface {
	VertexCollectionExists(ctx context.Context, name string) (bool, error)
	VertexCollection(ctx context.Context, name string) (driver.Collection, error)
	CreateVertexCollection(ctx context.Context, name string) (driver.Collection, error)
}

// ViewStore is the part of driver.Database EnsureView uses.
type ViewStore interface {
	ViewExists(ctx context.Context, name string) (bool, error)
	View(ctx context.Context, name string) (driver.View, error)
	CreateArangoSearchView(ctx context.Context, name string, options *driver.ArangoSearchViewProperties) (driver.ArangoSearchView, error)
}

// isDuplicate reports whether err means another process created the
// object first.
func isDuplicate(err error) bool {
	return driver.IsArangoErrorWithErrorNum(err, errDuplicateName)
}

// EnsureDatabase returns the named database, creating it if needed.
func EnsureDatabase(ctx context.Context, client DatabaseClient, name string) (driver.Database, error) {
	exists, err := client.DatabaseExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("ensure database %q: %w", name, err)
	}
	if !exists {
		db, err := client.CreateDatabase(ctx, name, nil)
		if err == nil {
			return db, nil
		}
		if !isDuplicate(err) {
			return nil, fmt.Errorf("ensure database %q: %w", name, err)
		}
	}

	db, err := client.Database(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("ensure database %q: %w", name, err)
	}
	return db, nil
}

// EnsureGraph returns the named graph, creating it with options if needed.
// An existing graph is returned as is; its definition is not compared.
func EnsureGraph(ctx context.Context, db GraphStore, name string, options *driver.CreateGraphOptions) (driver.Graph, error) {
	exists, err := db.GraphExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("ensure graph %q: %w", name, err)
	}
	if !exists {
		g, err := db.CreateGraphV2(ctx, name, options)
		if err == nil {
			return g, nil
		}
		if !isDuplicate(err) {
			return nil, fmt.Errorf("ensure graph %q: %w", name, err)
		}
	}

	g, err := db.Graph(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("ensure graph %q: %w", name, err)
	}
	return g, nil
}

// EnsureCollection returns the named document collection, creating it
// with synchronous writes if needed. When graph is non-nil the collection
// is a vertex collection of that graph instead.
func EnsureCollection(ctx context.Context, db CollectionStore, name string, graph VertexStore) (driver.Collection, error) {
	if graph != nil {
		return ensureVertexCollection(ctx, graph, name)
	}

	exists, err := db.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("ensure collection %q: %w", name, err)
	}
	if !exists {
		col, err := db.CreateCollection(ctx, name, &driver.CreateCollectionOptions{WaitForSync: true})
		if err == nil {
			return col, nil
		}
		if !isDuplicate(err) {
			return nil, fmt.Errorf("ensure collection %q: %w", name, err)
		}
	}

	col, err := db.Collection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("ensure collection %q: %w", name, err)
	}
	return col, nil
}

func ensureVertexCollection(ctx context.Context, graph VertexStore, name string) (driver.Collection, error) {
	exists, err := graph.VertexCollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("ensure vertex collection %q: %w", name, err)
	}
	if !exists {
		col, err := graph.CreateVertexCollection(ctx, name)
		if err == nil {
			return col, nil
		}
		if !isDuplicate(err) {
			return nil, fmt.Errorf("ensure vertex collection %q: %w", name, err)
		}
	}

	col, err := graph.VertexCollection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("ensure vertex collection %q: %w", name, err)
	}
	return col, nil
}

// EnsureView returns the named ArangoSearch view, creating it with
// properties if needed. An empty name returns nil and no error.
func EnsureView(ctx context.Context, db ViewStore, name string, properties *driver.ArangoSearchViewProperties) (driver.View, error) {
	if name == "" {
		return nil, nil
	}

	exists, err := db.ViewExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("ensure view %q: %w", name, err)
	}
	if !exists {
		v, err := db.CreateArangoSearchView(ctx, name, properties)
		if err == nil {
			return v, nil
		}
		if !isDuplicate(err) {
			return nil, fmt.Errorf("ensure view %q: %w", name, err)
		}
	}

	v, err := db.View(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("ensure view %q: %w", name, err)
	}
	return v, nil
}
