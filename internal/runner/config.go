package runner

import (
	"os"
	"path/filepath"

	"github.com/projectdiscovery/gologger"
	fileutil "github.com/projectdiscovery/utils/file"

	"github.com/grapeloop/gpoe"
)

func getUserHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return homeDir
}

func init() {
	// load run defaults from the user's config file if one exists
	if fileutil.FileExists(gpoe.DefaultConfigFilePath) {
		cfg, err := gpoe.NewConfig(gpoe.DefaultConfigFilePath)
		if err != nil {
			gologger.Error().Msgf("gpoe yaml configuration syntax error.\n %v\n.", err)
			os.Exit(1)
		}
		gpoe.DefaultConfig = *cfg
		return
	}
	// first run: create the config dir and a commented sample config
	if err := validateDir(filepath.Join(getUserHomeDir(), ".config/gpoe")); err != nil {
		gologger.Error().Msgf("gpoe config dir not found and failed to create got: %v", err)
		return
	}
	if err := gpoe.GenerateSample(gpoe.DefaultConfigFilePath); err != nil {
		gologger.Error().Msgf("failed to save default config to %v got: %v", gpoe.DefaultConfigFilePath, err)
	}
}

// validateDir checks if dir exists if not creates it
func validateDir(dirPath string) error {
	if fileutil.FolderExists(dirPath) {
		return nil
	}
	return fileutil.CreateFolder(dirPath)
}
