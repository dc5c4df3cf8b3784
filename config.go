package gpoe

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/projectdiscovery/fasttemplate"
)

var (
	DefaultConfigFilePath = filepath.Join(getUserHomeDir(), ".config/gpoe/config.yaml")

	// DefaultConfig holds the run-level defaults the CLI starts from; the
	// runner's init loads the user's config file over it when one exists.
	DefaultConfig = Config{Strategy: "grape"}
)

// Config is the optional run-level configuration file: a seed automaton to
// refine (`--from`) instead of building from scratch, and a default for the
// loop-closure strategy. CLI flags override both.
type Config struct {
	FromAutomaton string `yaml:"from_automaton"`
	Strategy      string `yaml:"strategy"`
}

// NewConfig reads a Config from file.
func NewConfig(filePath string) (*Config, error) {
	bin, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err = yaml.Unmarshal(bin, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// sampleConfigTemplate is the scaffold GenerateSample writes the first time
// the binary runs, so the user edits a commented file rather than starting
// from a blank one.
const sampleConfigTemplate = `# gpoe run defaults, loaded before CLI flags apply
# from_automaton: path to a pruned grammar to refine instead of building from scratch
from_automaton: ""
strategy: ${strategy}
`

// GenerateSample writes a sample config file with default values.
func GenerateSample(filePath string) error {
	values := map[string]interface{}{"strategy": DefaultConfig.Strategy}
	rendered := fasttemplate.ExecuteStringStd(sampleConfigTemplate, "${", "}", values)
	return os.WriteFile(filePath, []byte(rendered), 0644)
}

func getUserHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return homeDir
}
