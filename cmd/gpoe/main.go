package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/projectdiscovery/gologger"

	"github.com/grapeloop/gpoe"
	"github.com/grapeloop/gpoe/internal/runner"
	"github.com/grapeloop/gpoe/loader"
	"github.com/grapeloop/gpoe/pruner"
)

func main() {
	cliOpts := runner.ParseFlags()

	strategy := gpoe.Strategy(strings.ToLower(cliOpts.Strategy))
	switch strategy {
	case gpoe.StrategyGRAPE, gpoe.StrategyObservationalEquivalence, gpoe.StrategyNone:
	default:
		gologger.Fatal().Msgf("invalid strategy: %s (must be 'grape', 'observational_equivalence', or 'none')", cliOpts.Strategy)
	}

	provider := resolveProvider(cliOpts.DSL)

	result, err := gpoe.Run(provider, gpoe.RunOptions{
		MaxSize:  cliOpts.Size,
		Samples:  cliOpts.Samples,
		Optimize: cliOpts.Optimize,
		Strategy: strategy,
		From:     cliOpts.From,
	})
	if err != nil {
		gologger.Fatal().Msgf("gpoe: pruning failed: %v", err)
	}

	if err := os.WriteFile(cliOpts.Output, []byte(gpoe.WriteGrammar(result.Grammar)), 0644); err != nil {
		gologger.Fatal().Msgf("gpoe: failed to write grammar to %v got %v", cliOpts.Output, err)
	}
	gologger.Info().Msgf("Wrote pruned grammar to %v", cliOpts.Output)

	if err := writeAllowedCSV(cliOpts.Allowed, result.Allowed); err != nil {
		gologger.Fatal().Msgf("gpoe: failed to write allowed CSV to %v got %v", cliOpts.Allowed, err)
	}
	gologger.Info().Msgf("Wrote %d canonical representative(s) to %v", len(result.Allowed), cliOpts.Allowed)

	if cliOpts.Classes != "" {
		if err := writeClassesJSON(cliOpts.Classes, result); err != nil {
			gologger.Error().Msgf("gpoe: failed to write classes dump to %v got %v", cliOpts.Classes, err)
		} else {
			gologger.Info().Msgf("Wrote %d equivalence class(es) to %v", result.ClassCount, cliOpts.Classes)
		}
	}
}

// resolveProvider picks the DSL provider contract by the file's extension:
// a compiled Go plugin (.so) or a declarative YAML manifest bound against
// the builtin callable registry.
func resolveProvider(path string) loader.Provider {
	if filepath.Ext(path) == ".so" {
		return loader.NewPluginProvider(path)
	}
	return loader.NewManifestProvider(path, loader.BuiltinRegistry())
}

func writeAllowedCSV(path string, allowed []pruner.AllowedProgram) error {
	var b strings.Builder
	b.WriteString("program,type_request\n")
	for _, a := range allowed {
		b.WriteString(a.Program.String())
		b.WriteString(",")
		b.WriteString(a.TypeReq)
		b.WriteString("\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

func writeClassesJSON(path string, result *gpoe.Result) error {
	type classEntry struct {
		Program string `json:"program"`
		TypeReq string `json:"type_request"`
	}
	entries := make([]classEntry, 0, len(result.Allowed))
	for _, a := range result.Allowed {
		entries = append(entries, classEntry{Program: a.Program.String(), TypeReq: a.TypeReq})
	}
	bin, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, bin, 0644)
}
