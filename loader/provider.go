// Package loader implements the DSL provider contract: an external module
// exposing an ordered primitive map, per-type samplers, optional per-type
// equality predicates, an optional target type, and an optional
// skip-exception set. The contract is realized two ways: a declarative YAML
// manifest bound against a builtin callable registry, and a Go plugin
// provider for DSLs that need arbitrary code.
package loader

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/grapeloop/gpoe/evaluator"
)

// Entry is one DSL primitive or constant. ManifestProvider returns its
// entries sorted by name.
type Entry struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Spec is the fully resolved DSL provider contract.
type Spec struct {
	DSL            []Entry
	Callables      map[string]evaluator.Callable
	SampleDict     map[string]func() any
	EqualDict      map[string]evaluator.EqualFunc
	TargetType     string // empty means "every type is a potential target"
	SkipExceptions []string
}

// Provider resolves a DSL provider contract from some backing source.
type Provider interface {
	GetSpec() (*Spec, error)
}

// Registry binds DSL entry names from a manifest to Go callables and
// samplers, since a YAML manifest can only name behavior, not express it.
type Registry struct {
	Callables  map[string]evaluator.Callable
	Samplers   map[string]func() any
	Equalities map[string]evaluator.EqualFunc
}

// ManifestProvider reads a YAML manifest (DSL entries, target type, skip
// exception kinds) and resolves each entry's behavior against a Registry.
type ManifestProvider struct {
	path     string
	registry Registry
}

// NewManifestProvider builds a ManifestProvider reading manifest YAML at
// path, resolving callables/samplers/equalities from registry.
func NewManifestProvider(path string, registry Registry) *ManifestProvider {
	return &ManifestProvider{path: path, registry: registry}
}

type manifestFile struct {
	DSL            []Entry  `yaml:"dsl"`
	SampleTypes    []string `yaml:"sample_types"`
	TargetType     string   `yaml:"target_type"`
	SkipExceptions []string `yaml:"skip_exceptions"`
}

// GetSpec loads and validates the manifest.
func (m *ManifestProvider) GetSpec() (*Spec, error) {
	raw, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("loader: reading manifest %s: %w", m.path, err)
	}
	var mf manifestFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("loader: parsing manifest %s: %w", m.path, err)
	}
	if len(mf.DSL) == 0 {
		return nil, fmt.Errorf("loader: manifest %s declares no dsl entries", m.path)
	}
	if len(mf.SampleTypes) == 0 {
		return nil, fmt.Errorf("loader: manifest %s missing required attribute sample_types", m.path)
	}

	sort.Slice(mf.DSL, func(i, j int) bool { return mf.DSL[i].Name < mf.DSL[j].Name })

	callables := make(map[string]evaluator.Callable, len(mf.DSL))
	for _, e := range mf.DSL {
		fn, ok := m.registry.Callables[e.Name]
		if !ok {
			return nil, fmt.Errorf("loader: manifest entry %q has no registered callable", e.Name)
		}
		callables[e.Name] = fn
	}

	samples := make(map[string]func() any, len(mf.SampleTypes))
	for _, t := range mf.SampleTypes {
		fn, ok := m.registry.Samplers[t]
		if !ok {
			return nil, fmt.Errorf("loader: manifest sample type %q has no registered sampler", t)
		}
		samples[t] = fn
	}

	return &Spec{
		DSL:            mf.DSL,
		Callables:      callables,
		SampleDict:     samples,
		EqualDict:      m.registry.Equalities,
		TargetType:     mf.TargetType,
		SkipExceptions: mf.SkipExceptions,
	}, nil
}
