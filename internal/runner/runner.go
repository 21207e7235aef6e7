package runner

import (
	"os"
	"strconv"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
	updateutils "github.com/projectdiscovery/utils/update"
)

// Options holds mdr's CLI configuration, mirroring the teacher's
// goflags-grouped Options struct.
type Options struct {
	// Input is the tag tree file (JSON or YAML) to mine.
	Input string
	// Output is the file to write the mined result to (JSON); empty
	// means stdout.
	Output             string
	Config             string
	K                  int
	T                  float64
	Parallel           bool
	DisableUpdateCheck bool
	Verbose            bool
	Silent             bool
	// internal/unexported fields
	threshold string
}

// ParseFlags builds Options from argv, applying DefaultConfig as the
// K/T/Parallel defaults the way the teacher seeds Domains/Patterns
// defaults from its own on-disk config.
func ParseFlags() *Options {
	opts := &Options{}
	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`Mining Data Records engine: locate repeating structural regions in a tag tree and extract data records from them.`)

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&opts.Input, "tree", "t", "", "tag tree input file (json or yaml)"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&opts.Output, "output", "o", "", "output file to write mined records (default stdout)"),
		flagSet.BoolVarP(&opts.Verbose, "verbose", "v", false, "display verbose output"),
		flagSet.BoolVar(&opts.Silent, "silent", false, "display results only"),
		flagSet.CallbackVar(printVersion, "version", "display mdr version"),
	)

	flagSet.CreateGroup("algorithm", "Algorithm",
		flagSet.IntVar(&opts.K, "k", DefaultConfig.K, "maximum generalized-node length explored"),
		flagSet.StringVar(&opts.threshold, "threshold", "", "similarity threshold in [0,1] (default from config)"),
		flagSet.BoolVarP(&opts.Parallel, "parallel", "pl", DefaultConfig.Parallel, "run region scan phases concurrently"),
	)

	flagSet.CreateGroup("config", "Config",
		flagSet.StringVar(&opts.Config, "config", "", `mdr cli config file (default '$HOME/.config/mdr/config.yaml')`),
	)

	flagSet.CreateGroup("update", "Update",
		flagSet.CallbackVarP(GetUpdateCallback(), "update", "up", "update mdr to latest version"),
		flagSet.BoolVarP(&opts.DisableUpdateCheck, "disable-update-check", "duc", false, "disable automatic mdr update check"),
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
		latestVersion, err := updateutils.GetVersionCheckCallback("mdr")()
		if err != nil {
			if opts.Verbose {
				gologger.Error().Msgf("mdr version check failed: %v", err.Error())
			}
		} else {
			gologger.Info().Msgf("Current mdr version %v %v", version, updateutils.GetVersionDescription(version, latestVersion))
		}
	}

	if opts.K == 0 {
		opts.K = DefaultConfig.K
	}
	opts.T = DefaultConfig.T
	if opts.threshold != "" {
		t, err := strconv.ParseFloat(opts.threshold, 64)
		if err != nil {
			gologger.Fatal().Msgf("mdr: invalid -threshold value %q: %v", opts.threshold, err)
		}
		opts.T = t
	}

	if opts.Input == "" {
		gologger.Fatal().Msgf("mdr: no input tree file given, use -tree")
	}

	return opts
}

func printVersion() {
	gologger.Info().Msgf("Current version: %s", version)
	os.Exit(0)
}
