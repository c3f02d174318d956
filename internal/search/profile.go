package search

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/arangoq/internal/queryir"
)

var (
	// ErrInvalidProfile is returned for a profile that cannot be rendered.
	ErrInvalidProfile = errors.New("invalid search profile")
	// ErrProfileCycle is returned when related profiles refer back to themselves.
	ErrProfileCycle = errors.New("search profile cycle")
)

// MaxThreshold is the largest edit distance LEVENSHTEIN_MATCH accepts.
const MaxThreshold = 4

// FuzzyField is one field matched approximately, within Threshold edits.
type FuzzyField struct {
	Field     string `yaml:"field" json:"field"`
	Threshold int    `yaml:"threshold" json:"threshold"`
}

// Relation delegates an edge collection's search to a vertex profile.
// An edge matches when its Field (_from or _to) is one of the Return values
// of a search over View with the related profile.
type Relation struct {
	Profile string `yaml:"profile" json:"profile"`
	View    string `yaml:"view" json:"view"`
	Field   string `yaml:"field,omitempty" json:"field,omitempty"`
	Alias   string `yaml:"alias,omitempty" json:"alias,omitempty"`
	Return  string `yaml:"return,omitempty" json:"return,omitempty"`
}

// Profile describes how one collection is searched.
type Profile struct {
	Name     string       `yaml:"name" json:"name"`
	Fuzzy    []FuzzyField `yaml:"fuzzy,omitempty" json:"fuzzy,omitempty"`
	ExactInt string       `yaml:"exactInt,omitempty" json:"exactInt,omitempty"`
	Related  *Relation    `yaml:"related,omitempty" json:"related,omitempty"`
}

// Fallback is the profile used for collections with no registered profile.
func Fallback() Profile {
	return Profile{Fuzzy: []FuzzyField{{Field: "name", Threshold: 2}}}
}

// withDefaults fills in the relation defaults.
func (p Profile) withDefaults() Profile {
	if p.Related == nil {
		return p
	}
	rel := *p.Related
	if rel.Field == "" {
		rel.Field = "_from"
	}
	if rel.Alias == "" {
		rel.Alias = "r"
	}
	if rel.Return == "" {
		rel.Return = "_id"
	}
	p.Related = &rel
	return p
}

func (p Profile) validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: profile has no name", ErrInvalidProfile)
	}

	if p.Related != nil {
		if len(p.Fuzzy) > 0 || p.ExactInt != "" {
			return fmt.Errorf("%w: %s: a related profile cannot declare its own fields", ErrInvalidProfile, p.Name)
		}
		rel := p.Related
		if rel.Profile == "" || !queryir.IsIdentifier(rel.View) {
			return fmt.Errorf("%w: %s: related profile and view are required", ErrInvalidProfile, p.Name)
		}
		if rel.Field != "_from" && rel.Field != "_to" {
			return fmt.Errorf("%w: %s: related field must be _from or _to, got %q", ErrInvalidProfile, p.Name, rel.Field)
		}
		if !queryir.IsIdentifier(rel.Alias) || !queryir.IsPath(rel.Return) {
			return fmt.Errorf("%w: %s: related alias and return must be identifiers", ErrInvalidProfile, p.Name)
		}
		return nil
	}

	if len(p.Fuzzy) == 0 {
		return fmt.Errorf("%w: %s: no fuzzy fields", ErrInvalidProfile, p.Name)
	}
	for _, f := range p.Fuzzy {
		if !queryir.IsPath(f.Field) {
			return fmt.Errorf("%w: %s: field %q is not an identifier path", ErrInvalidProfile, p.Name, f.Field)
		}
		if f.Threshold < 0 || f.Threshold > MaxThreshold {
			return fmt.Errorf("%w: %s: threshold %d for %s outside 0..%d", ErrInvalidProfile, p.Name, f.Threshold, f.Field, MaxThreshold)
		}
	}
	if p.ExactInt != "" && !queryir.IsPath(p.ExactInt) {
		return fmt.Errorf("%w: %s: exactInt %q is not an identifier path", ErrInvalidProfile, p.Name, p.ExactInt)
	}
	return nil
}

// Registry maps collection names to search profiles.
// A Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry validates profiles and builds a registry.
// Names must be unique, related profiles must exist, and relation chains
// must not loop.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}

	for _, p := range profiles {
		p = p.withDefaults()
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.profiles[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate profile %q", ErrInvalidProfile, p.Name)
		}
		r.profiles[p.Name] = p
	}

	for _, name := range r.Names() {
		if err := r.checkChain(name); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// checkChain follows related profiles from name and fails on a missing
// target or a loop.
func (r *Registry) checkChain(name string) error {
	seen := []string{name}
	p := r.profiles[name]
	for p.Related != nil {
		next, ok := r.profiles[p.Related.Profile]
		if !ok {
			return fmt.Errorf("%w: %s: related profile %q is not registered", ErrInvalidProfile, p.Name, p.Related.Profile)
		}
		if slices.Contains(seen, next.Name) {
			return fmt.Errorf("%w: %v -> %s", ErrProfileCycle, seen, next.Name)
		}
		seen = append(seen, next.Name)
		p = next
	}
	return nil
}

// Lookup returns the profile for collection, or Fallback when none is
// registered. ok reports whether a registered profile was found.
func (r *Registry) Lookup(collection string) (p Profile, ok bool) {
	if r != nil {
		if p, ok := r.profiles[collection]; ok {
			return p, true
		}
	}
	return Fallback(), false
}

// Names returns the registered profile names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profiles returns the registered profiles sorted by name.
func (r *Registry) Profiles() []Profile {
	names := r.Names()
	out := make([]Profile, len(names))
	for i, name := range names {
		out[i] = r.profiles[name]
	}
	return out
}
