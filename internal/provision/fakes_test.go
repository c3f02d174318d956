package provision

import (
	"context"

	driver "github.com/arangodb/go-driver"
)

// duplicateErr is what the server answers when a concurrent create won.
var duplicateErr = driver.ArangoError{HasError: true, Code: 409, ErrorNum: errDuplicateName, ErrorMessage: "duplicate name"}

// forbiddenErr is an unrelated server failure.
var forbiddenErr = driver.ArangoError{HasError: true, Code: 403, ErrorNum: 11, ErrorMessage: "forbidden"}

type fakeCollection struct {
	driver.Collection
	name string
}

func (c fakeCollection) Name() string { return c.name }

// searchView aliases driver.ArangoSearchView so the embedded field name does
// not collide with the View.ArangoSearchView method.
type searchView = driver.ArangoSearchView

type fakeView struct {
	searchView
	name string
}

func (v fakeView) Name() string { return v.name }

// fakeStore is an in-memory object namespace with optional injected
// failures, used for databases, collections, graphs and views alike.
type fakeStore struct {
	names     map[string]bool
	existsErr error
	createErr error
	creates   []string
}

func newFakeStore(existing ...string) *fakeStore {
	s := &fakeStore{names: map[string]bool{}}
	for _, n := range existing {
		s.names[n] = true
	}
	return s
}

func (s *fakeStore) exists(name string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.names[name], nil
}

func (s *fakeStore) create(name string) error {
	s.creates = append(s.creates, name)
	if s.createErr != nil {
		return s.createErr
	}
	s.names[name] = true
	return nil
}

type fakeClient struct {
	dbs *fakeStore
	db  *fakeDB
}

func (c *fakeClient) DatabaseExists(_ context.Context, name string) (bool, error) {
	return c.dbs.exists(name)
}

func (c *fakeClient) Database(_ context.Context, name string) (driver.Database, error) {
	return c.db, nil
}

func (c *fakeClient) CreateDatabase(_ context.Context, name string, _ *driver.CreateDatabaseOptions) (driver.Database, error) {
	if err := c.dbs.create(name); err != nil {
		return nil, err
	}
	return c.db, nil
}

type fakeDB struct {
	driver.Database
	collections *fakeStore
	graphs      *fakeStore
	views       *fakeStore
	graph       *fakeGraph
	syncCreates int
	viewProps   map[string]*driver.ArangoSearchViewProperties
	graphOpts   map[string]*driver.CreateGraphOptions
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		collections: newFakeStore(),
		graphs:      newFakeStore(),
		views:       newFakeStore(),
		graph:       &fakeGraph{vertices: newFakeStore()},
		viewProps:   map[string]*driver.ArangoSearchViewProperties{},
		graphOpts:   map[string]*driver.CreateGraphOptions{},
	}
}

func (d *fakeDB) CollectionExists(_ context.Context, name string) (bool, error) {
	return d.collections.exists(name)
}

func (d *fakeDB) Collection(_ context.Context, name string) (driver.Collection, error) {
	return fakeCollection{name: name}, nil
}

func (d *fakeDB) CreateCollection(_ context.Context, name string, options *driver.CreateCollectionOptions) (driver.Collection, error) {
	if options != nil && options.WaitForSync {
		d.syncCreates++
	}
	if err := d.collections.create(name); err != nil {
		return nil, err
	}
	return fakeCollection{name: name}, nil
}

func (d *fakeDB) GraphExists(_ context.Context, name string) (bool, error) {
	return d.graphs.exists(name)
}

func (d *fakeDB) Graph(_ context.Context, name string) (driver.Graph, error) {
	return d.graph, nil
}

func (d *fakeDB) CreateGraphV2(_ context.Context, name string, options *driver.CreateGraphOptions) (driver.Graph, error) {
	d.graphOpts[name] = options
	if err := d.graphs.create(name); err != nil {
		return nil, err
	}
	return d.graph, nil
}

func (d *fakeDB) ViewExists(_ context.Context, name string) (bool, error) {
	return d.views.exists(name)
}

func (d *fakeDB) View(_ context.Context, name string) (driver.View, error) {
	return fakeView{name: name}, nil
}

func (d *fakeDB) CreateArangoSearchView(_ context.Context, name string, options *driver.ArangoSearchViewProperties) (driver.ArangoSearchView, error) {
	d.viewProps[name] = options
	if err := d.views.create(name); err != nil {
		return nil, err
	}
	return fakeView{name: name}, nil
}

type fakeGraph struct {
	driver.Graph
	vertices *fakeStore
}

func (g *fakeGraph) VertexCollectionExists(_ context.Context, name string) (bool, error) {
	return g.vertices.exists(name)
}

func (g *fakeGraph) VertexCollection(_ context.Context, name string) (driver.Collection, error) {
	return fakeCollection{name: name}, nil
}

func (g *fakeGraph) CreateVertexCollection(_ context.Context, name string) (driver.Collection, error) {
	if err := g.vertices.create(name); err != nil {
		return nil, err
	}
	return fakeCollection{name: name}, nil
}
