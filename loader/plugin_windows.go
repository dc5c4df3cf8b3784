//go:build windows

package loader

import "fmt"

// PluginProvider is unavailable on Windows: the standard plugin package does
// not support it.
type PluginProvider struct {
	path string
}

// NewPluginProvider builds a PluginProvider for the .so at path.
func NewPluginProvider(path string) *PluginProvider {
	return &PluginProvider{path: path}
}

// GetSpec always fails on Windows.
func (p *PluginProvider) GetSpec() (*Spec, error) {
	return nil, fmt.Errorf("loader: plugin DSL providers are not supported on windows")
}
