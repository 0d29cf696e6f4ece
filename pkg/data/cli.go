// CLI flag parsing for tourating, built on jessevdk/go-flags. Precedence is
// defaults < config file < environment < flags.
package data

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
)

// CLIOptions defines the command-line flags of the tourating binary.
type CLIOptions struct {
	// Configuration file options
	ConfigFile string `long:"config" short:"c" description:"Configuration file path" default:"tourating.yaml"`
	NoConfig   bool   `long:"no-config" description:"Skip loading configuration file"`

	// Run inputs
	RatingsFile    string `long:"ratings" short:"r" description:"Prior rating list (.dat or .csv)"`
	ResultsFile    string `long:"results" short:"g" description:"Tournament results file (.tou or .csv)"`
	TournamentName string `long:"name" short:"n" description:"Tournament name (required for CSV results)"`
	TournamentDate string `long:"date" short:"d" description:"Tournament date, e.g. 2024-05-12 (required for CSV results)"`
	OutputDir      string `long:"output-dir" short:"o" description:"Directory for the output files" default:"."`

	// Rating constant overrides
	DefaultRating        int `long:"default-rating" description:"Rating assumed for unrated participants" default:"1500"`
	ProvisionalThreshold int `long:"provisional-threshold" description:"Lifetime games below which a player is provisional" default:"30"`
	KStandard            int `long:"k-standard" description:"Development coefficient for established players" default:"15"`
	KProvisional         int `long:"k-provisional" description:"Development coefficient for provisional players" default:"30"`
	RatingFloor          int `long:"rating-floor" description:"Minimum permitted rating after update" default:"100"`

	// Report overrides
	ReportFile string `long:"report-file" description:"Human-readable report file name"`
	TableFile  string `long:"table-file" description:"Machine-readable rating table file name"`

	// Global options
	Interactive bool `long:"interactive" short:"i" description:"Open the interactive setup screen"`
	Verbose     bool `long:"verbose" short:"v" description:"Print per-player rating changes"`
	Version     bool `long:"version" description:"Show version information"`
}

// ParseCLI parses command-line arguments and returns the resolved
// configuration alongside the raw options.
func ParseCLI(args []string) (*Config, *CLIOptions, error) {
	var opts CLIOptions

	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] --ratings prior.dat --results event.tou"

	remaining, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil, &opts, err
		}
		return nil, nil, fmt.Errorf("failed to parse command-line arguments: %w", err)
	}

	if opts.Version {
		return nil, &opts, nil
	}

	if len(remaining) > 0 {
		return nil, nil, fmt.Errorf("unexpected arguments: %v", remaining)
	}

	if !opts.Interactive {
		if opts.RatingsFile == "" {
			return nil, nil, fmt.Errorf("%w: rating list path is required (use --ratings)", ErrConfig)
		}
		if opts.ResultsFile == "" {
			return nil, nil, fmt.Errorf("%w: result file path is required (use --results)", ErrConfig)
		}
	}

	var config *Config
	if !opts.NoConfig {
		configPath := opts.ConfigFile
		if !filepath.IsAbs(configPath) {
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				for _, alt := range ConfigSearchPaths(configPath)[1:] {
					if _, err := os.Stat(alt); err == nil {
						configPath = alt
						break
					}
				}
			}
		}

		loaded, err := LoadWithEnvironment(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		config = loaded
	} else {
		defaults := DefaultConfig()
		config = &defaults
		applyEnvironmentOverrides(config)
	}

	applyCLIOverrides(config, &opts)

	if err := config.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	return config, &opts, nil
}

// applyCLIOverrides applies flag values to the configuration. Only flags
// that differ from their declared defaults override, so a config file value
// survives unless the user explicitly sets the flag.
func applyCLIOverrides(config *Config, opts *CLIOptions) {
	ratingDefaults := DefaultRatingConfig()

	if opts.DefaultRating != ratingDefaults.DefaultRating {
		config.Rating.DefaultRating = opts.DefaultRating
	}
	if opts.ProvisionalThreshold != ratingDefaults.ProvisionalThreshold {
		config.Rating.ProvisionalThreshold = opts.ProvisionalThreshold
	}
	if opts.KStandard != ratingDefaults.KStandard {
		config.Rating.KStandard = opts.KStandard
	}
	if opts.KProvisional != ratingDefaults.KProvisional {
		config.Rating.KProvisional = opts.KProvisional
	}
	if opts.RatingFloor != ratingDefaults.RatingFloor {
		config.Rating.RatingFloor = opts.RatingFloor
	}

	if opts.ReportFile != "" {
		config.Report.ReportFile = opts.ReportFile
	}
	if opts.TableFile != "" {
		config.Report.TableFile = opts.TableFile
	}
}
