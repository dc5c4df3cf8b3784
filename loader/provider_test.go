package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grapeloop/gpoe/evaluator"
	"github.com/grapeloop/gpoe/loader"
	"github.com/stretchr/testify/require"
)

const manifestYAML = `
dsl:
  - name: "+"
    type: "int -> int -> int"
  - name: "0"
    type: "int"
sample_types:
  - int
target_type: int
skip_exceptions:
  - division
`

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dsl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifestYAML), 0o644))
	return path
}

func TestManifestProviderResolvesSpec(t *testing.T) {
	path := writeManifest(t)
	registry := loader.Registry{
		Callables: map[string]evaluator.Callable{
			"+": func(args []any) (any, error) { return args[0].(int) + args[1].(int), nil },
			"0": func(args []any) (any, error) { return 0, nil },
		},
		Samplers: map[string]func() any{
			"int": func() any { return 1 },
		},
	}
	provider := loader.NewManifestProvider(path, registry)

	spec, err := provider.GetSpec()
	require.NoError(t, err)
	require.Len(t, spec.DSL, 2)
	require.Equal(t, "int", spec.TargetType)
	require.Contains(t, spec.SkipExceptions, "division")
	require.NotNil(t, spec.Callables["+"])
	require.NotNil(t, spec.SampleDict["int"])
}

func TestManifestProviderMissingSampleTypesErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dsl.yaml")
	noSamples := `
dsl:
  - name: "0"
    type: "int"
`
	require.NoError(t, os.WriteFile(path, []byte(noSamples), 0o644))
	registry := loader.Registry{
		Callables: map[string]evaluator.Callable{
			"0": func(args []any) (any, error) { return 0, nil },
		},
	}
	provider := loader.NewManifestProvider(path, registry)

	_, err := provider.GetSpec()
	require.Error(t, err)
	require.Contains(t, err.Error(), "sample_types")
}

func TestManifestProviderMissingCallableErrors(t *testing.T) {
	path := writeManifest(t)
	registry := loader.Registry{
		Callables: map[string]evaluator.Callable{
			"0": func(args []any) (any, error) { return 0, nil },
		},
		Samplers: map[string]func() any{"int": func() any { return 1 }},
	}
	provider := loader.NewManifestProvider(path, registry)

	_, err := provider.GetSpec()
	require.Error(t, err)
}
