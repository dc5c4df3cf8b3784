package runner

import (
	"os"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
	fileutil "github.com/projectdiscovery/utils/file"
	updateutils "github.com/projectdiscovery/utils/update"

	"github.com/grapeloop/gpoe"
)

// Options is the "prune" command's flag surface: one goflags.FlagSet,
// grouped sections, a single ParseFlags() entry point.
type Options struct {
	DSL                string
	Size               int
	Samples            int
	Output             string
	Allowed            string
	Optimize           bool
	NoLoop             bool
	Strategy           string
	From               string
	Classes            string
	Config             string
	DisableUpdateCheck bool
	Verbose            bool
	Silent             bool
}

func ParseFlags() *Options {
	opts := &Options{}
	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`Prunes a typed DSL's program space into a minimal, observationally-equivalence-deduped tree grammar.`)

	// run defaults come from the user's config file (loaded in init); flags
	// override them.
	defaultStrategy := gpoe.DefaultConfig.Strategy
	if defaultStrategy == "" {
		defaultStrategy = "grape"
	}

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&opts.DSL, "dsl", "d", "", "path to the DSL provider file (YAML manifest or compiled Go plugin)"),
		flagSet.StringVar(&opts.From, "from", gpoe.DefaultConfig.FromAutomaton, "seed automaton to refine instead of building from scratch"),
	)

	flagSet.CreateGroup("prune", "Prune",
		flagSet.IntVar(&opts.Size, "size", 7, "maximum program size"),
		flagSet.IntVar(&opts.Samples, "samples", 1000, "input suite size per type"),
		flagSet.BoolVar(&opts.Optimize, "optimize", false, "enable post-hoc optimization pass"),
		flagSet.BoolVar(&opts.NoLoop, "no-loop", false, "disable loop closure entirely (equivalent to --strategy none)"),
		flagSet.StringVar(&opts.Strategy, "strategy", defaultStrategy, "loop closure strategy (grape, observational_equivalence, none)"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&opts.Output, "output", "o", "./grammar.txt", "pruned grammar destination"),
		flagSet.StringVar(&opts.Allowed, "allowed", "./allowed.csv", "CSV of program,type_request for every canonical representative"),
		flagSet.StringVar(&opts.Classes, "classes", "", "optional JSON dump of the equivalence class registry"),
		flagSet.BoolVarP(&opts.Verbose, "verbose", "v", false, "display verbose output"),
		flagSet.BoolVar(&opts.Silent, "silent", false, "display results only"),
		flagSet.CallbackVar(printVersion, "version", "display gpoe version"),
	)

	flagSet.CreateGroup("config", "Config",
		flagSet.StringVar(&opts.Config, "config", "", `gpoe cli config file (default '$HOME/.config/gpoe/config.yaml')`),
	)

	flagSet.CreateGroup("update", "Update",
		flagSet.CallbackVarP(GetUpdateCallback(), "update", "up", "update gpoe to latest version"),
		flagSet.BoolVarP(&opts.DisableUpdateCheck, "disable-update-check", "duc", false, "disable automatic gpoe update check"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("Could not read flags: %s\n", err)
	}

	if opts.Config != "" {
		if err := flagSet.MergeConfigFile(opts.Config); err != nil {
			gologger.Error().Msgf("failed to read config file got %v", err)
		}
	}

	if opts.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	} else if opts.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	showBanner()

	if !opts.DisableUpdateCheck {
		latestVersion, err := updateutils.GetVersionCheckCallback("gpoe")()
		if err != nil {
			if opts.Verbose {
				gologger.Error().Msgf("gpoe version check failed: %v", err.Error())
			}
		} else {
			gologger.Info().Msgf("Current gpoe version %v %v", version, updateutils.GetVersionDescription(version, latestVersion))
		}
	}

	if opts.NoLoop {
		opts.Strategy = "none"
	}

	if opts.DSL == "" {
		gologger.Fatal().Msgf("gpoe: no DSL provider file given")
	}
	if !fileutil.FileExists(opts.DSL) {
		gologger.Fatal().Msgf("gpoe: DSL provider file %v does not exist", opts.DSL)
	}

	return opts
}

func printVersion() {
	gologger.Info().Msgf("Current version: %s", version)
	os.Exit(0)
}
