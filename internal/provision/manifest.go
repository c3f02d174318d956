package provision

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	driver "github.com/arangodb/go-driver"
	"gopkg.in/yaml.v3"
)

// Manifest lists the objects a deployment needs.
type Manifest struct {
	Database    string       `yaml:"database"`
	Graph       *GraphSpec   `yaml:"graph,omitempty"`
	Collections []Collection `yaml:"collections,omitempty"`
	Views       []View       `yaml:"views,omitempty"`
}

// GraphSpec defines a named graph.
type GraphSpec struct {
	Name    string   `yaml:"name"`
	Edges   []Edge   `yaml:"edges,omitempty"`
	Orphans []string `yaml:"orphans,omitempty"`
}

// Edge is one edge definition of a graph.
type Edge struct {
	Collection string   `yaml:"collection"`
	From       []string `yaml:"from"`
	To         []string `yaml:"to"`
}

// Collection is a document collection, optionally a vertex collection of
// the manifest graph.
type Collection struct {
	Name    string `yaml:"name"`
	InGraph bool   `yaml:"inGraph,omitempty"`
}

// View is an ArangoSearch view over linked collections.
type View struct {
	Name  string `yaml:"name"`
	Links []Link `yaml:"links,omitempty"`
}

// Link indexes one collection into a view.
type Link struct {
	Collection       string   `yaml:"collection"`
	Analyzers        []string `yaml:"analyzers,omitempty"`
	IncludeAllFields bool     `yaml:"includeAllFields,omitempty"`
}

// LoadManifest reads a YAML manifest.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("%s: decode manifest: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Validate checks names are present and graph collections have a graph.
func (m Manifest) Validate() error {
	if m.Database == "" {
		return fmt.Errorf("manifest: database is required")
	}
	if m.Graph != nil && m.Graph.Name == "" {
		return fmt.Errorf("manifest: graph name is required")
	}
	for _, c := range m.Collections {
		if c.Name == "" {
			return fmt.Errorf("manifest: collection without a name")
		}
		if c.InGraph && m.Graph == nil {
			return fmt.Errorf("manifest: collection %q is inGraph but no graph is defined", c.Name)
		}
	}
	for _, v := range m.Views {
		if v.Name == "" {
			return fmt.Errorf("manifest: view without a name")
		}
	}
	return nil
}

func (g GraphSpec) options() *driver.CreateGraphOptions {
	opts := &driver.CreateGraphOptions{OrphanVertexCollections: g.Orphans}
	for _, e := range g.Edges {
		opts.EdgeDefinitions = append(opts.EdgeDefinitions, driver.EdgeDefinition{
			Collection: e.Collection,
			From:       e.From,
			To:         e.To,
		})
	}
	return opts
}

func (v View) properties() *driver.ArangoSearchViewProperties {
	if len(v.Links) == 0 {
		return nil
	}
	links := make(driver.ArangoSearchLinks, len(v.Links))
	for _, l := range v.Links {
		includeAll := l.IncludeAllFields
		links[l.Collection] = driver.ArangoSearchElementProperties{
			Analyzers:        l.Analyzers,
			IncludeAllFields: &includeAll,
		}
	}
	return &driver.ArangoSearchViewProperties{Links: links}
}

// Step records one ensured object.
type Step struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Plan lists the steps Apply would take for m, without contacting a server.
func Plan(m Manifest) ([]Step, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	steps := []Step{{Kind: "database", Name: m.Database}}
	if m.Graph != nil {
		steps = append(steps, Step{Kind: "graph", Name: m.Graph.Name})
	}
	for _, c := range m.Collections {
		steps = append(steps, Step{Kind: c.kind(), Name: c.Name})
	}
	for _, v := range m.Views {
		steps = append(steps, Step{Kind: "view", Name: v.Name})
	}
	return steps, nil
}

func (c Collection) kind() string {
	if c.InGraph {
		return "vertex collection"
	}
	return "collection"
}

// Apply ensures every object in m, in dependency order: database, graph,
// collections, views. It stops at the first failure and returns the steps
// completed so far.
//
// TODO: ensure the "lowercase" analyzer search views rely on once
// manifests carry analyzer definitions.
func Apply(ctx context.Context, client DatabaseClient, m Manifest, logger *slog.Logger) ([]Step, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	var steps []Step
	record := func(kind, name string) {
		logger.Info("ensured", "kind", kind, "name", name)
		steps = append(steps, Step{Kind: kind, Name: name})
	}

	db, err := EnsureDatabase(ctx, client, m.Database)
	if err != nil {
		return steps, err
	}
	record("database", m.Database)

	var graph driver.Graph
	if m.Graph != nil {
		graph, err = EnsureGraph(ctx, db, m.Graph.Name, m.Graph.options())
		if err != nil {
			return steps, err
		}
		record("graph", m.Graph.Name)
	}

	for _, c := range m.Collections {
		var owner VertexStore
		if c.InGraph {
			owner = graph
		}
		if _, err := EnsureCollection(ctx, db, c.Name, owner); err != nil {
			return steps, err
		}
		record(c.kind(), c.Name)
	}

	for _, v := range m.Views {
		if _, err := EnsureView(ctx, db, v.Name, v.properties()); err != nil {
			return steps, err
		}
		record("view", v.Name)
	}

	return steps, nil
}
