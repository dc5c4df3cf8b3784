package runner

import (
	"github.com/projectdiscovery/gologger"
	updateutils "github.com/projectdiscovery/utils/update"
)

var banner = (`
   ___  ____  ____  ___
  / _ \/ __ \/ __ \/ _ \
 / ___/ /_/ / /_/ /  __/
/_/   \____/\____/\___/
`)

var version = "v0.0.1"

// showBanner is used to show the banner to the user
func showBanner() {
	gologger.Print().Msgf("%s\n", banner)
	gologger.Print().Msgf("\t\tobservational-equivalence DSL pruner\n\n")
}

// GetUpdateCallback returns a callback function that updates gpoe
func GetUpdateCallback() func() {
	return func() {
		showBanner()
		updateutils.GetUpdateToolCallback("gpoe", version)()
	}
}
