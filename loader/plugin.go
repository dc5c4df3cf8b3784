//go:build !windows

// Plugin DSL loading is POSIX-only: the standard plugin package does not
// support Windows, matching the same constraint every Go tool that loads
// .so DSL plugins inherits from the runtime itself.
package loader

import (
	"fmt"
	"plugin"

	"github.com/grapeloop/gpoe/evaluator"
)

// PluginProvider loads a DSL provider contract from a compiled Go plugin
// (.so) exposing the symbols:
//
//	DSL() []loader.Entry
//	Callables() map[string]evaluator.Callable
//	SampleDict() map[string]func() any
//	EqualDict() map[string]evaluator.EqualFunc   (optional)
//	TargetType() string                          (optional)
//	SkipExceptions() []string                    (optional)
type PluginProvider struct {
	path string
}

// NewPluginProvider builds a PluginProvider for the .so at path.
func NewPluginProvider(path string) *PluginProvider {
	return &PluginProvider{path: path}
}

// GetSpec opens the plugin and resolves its exported symbols into a Spec.
func (p *PluginProvider) GetSpec() (*Spec, error) {
	plg, err := plugin.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("loader: opening plugin %s: %w", p.path, err)
	}

	dslFn, err := lookup[func() []Entry](plg, "DSL")
	if err != nil {
		return nil, err
	}
	callablesFn, err := lookup[func() map[string]evaluator.Callable](plg, "Callables")
	if err != nil {
		return nil, err
	}
	sampleFn, err := lookup[func() map[string]func() any](plg, "SampleDict")
	if err != nil {
		return nil, err
	}

	spec := &Spec{
		DSL:        dslFn(),
		Callables:  callablesFn(),
		SampleDict: sampleFn(),
	}

	if equalFn, err := lookup[func() map[string]evaluator.EqualFunc](plg, "EqualDict"); err == nil {
		spec.EqualDict = equalFn()
	}
	if targetFn, err := lookup[func() string](plg, "TargetType"); err == nil {
		spec.TargetType = targetFn()
	}
	if skipFn, err := lookup[func() []string](plg, "SkipExceptions"); err == nil {
		spec.SkipExceptions = skipFn()
	}

	if len(spec.DSL) == 0 {
		return nil, fmt.Errorf("loader: plugin %s declares no dsl entries", p.path)
	}
	return spec, nil
}

func lookup[T any](plg *plugin.Plugin, symbol string) (T, error) {
	var zero T
	sym, err := plg.Lookup(symbol)
	if err != nil {
		return zero, fmt.Errorf("loader: plugin missing required symbol %s: %w", symbol, err)
	}
	fn, ok := sym.(T)
	if !ok {
		return zero, fmt.Errorf("loader: plugin symbol %s has wrong type", symbol)
	}
	return fn, nil
}
