package search

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/arangoq/internal/ir"
)

//go:embed profiles.yaml
var defaultProfilesYAML []byte

//go:embed schema.cue
var schemaCUE string

// fileConfig is the on-disk shape of a profile file.
type fileConfig struct {
	Profiles []Profile `yaml:"profiles" json:"profiles"`
}

// Default returns the built-in registry.
// It panics if the embedded profiles are invalid, which a test guards.
var Default = sync.OnceValue(func() *Registry {
	r, err := ParseYAML(defaultProfilesYAML)
	if err != nil {
		panic(fmt.Sprintf("search: embedded profiles: %v", err))
	}
	return r
})

// LoadFile reads a registry from a .yaml, .yml, .json or .cue file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var r *Registry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		r, err = ParseCUE(data, path)
	case ".yaml", ".yml", ".json":
		r, err = ParseYAML(data)
	default:
		return nil, fmt.Errorf("%s: unsupported profile file type (want .yaml, .json or .cue)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ParseYAML builds a registry from YAML (or JSON, a YAML subset). The
// decoded profiles are checked against the embedded #Config schema, as
// ParseCUE does.
func ParseYAML(data []byte) (*Registry, error) {
	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}

	ctx := cuecontext.New()
	value := ctx.Encode(cfg)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("encode profiles: %w", err)
	}
	return fromSchema(ctx, value)
}

// ParseCUE builds a registry from CUE source, checked against the
// embedded #Config schema first.
func ParseCUE(data []byte, filename string) (*Registry, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile profiles: %w", err)
	}
	return fromSchema(ctx, value)
}

// fromSchema unifies value with #Config, which also fills the relation
// defaults, and builds the registry from the result.
func fromSchema(ctx *cue.Context, value cue.Value) (*Registry, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate profiles: %w", err)
	}

	var cfg fileConfig
	if err := unified.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return NewRegistry(cfg.Profiles...)
}

// Hash identifies the registry contents, so compilations can record which
// profiles produced them.
func (r *Registry) Hash() (string, error) {
	data, err := json.Marshal(fileConfig{Profiles: r.Profiles()})
	if err != nil {
		return "", fmt.Errorf("encode profiles: %w", err)
	}
	v, err := ir.DecodeJSON(data)
	if err != nil {
		return "", fmt.Errorf("decode profiles: %w", err)
	}
	return ir.ProfileHash(v)
}

// MarshalYAML writes the registry back in profile file form.
func (r *Registry) MarshalYAML() (any, error) {
	return fileConfig{Profiles: r.Profiles()}, nil
}
