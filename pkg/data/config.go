// Configuration management for tourating. Engine constants are never inline
// literals in the algorithm: they live here with defaults, YAML file loading,
// environment variable overrides, and validation.
package data

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Error types for configuration validation
var (
	ErrInvalidRatingConfig = errors.New("invalid rating configuration")
	ErrInvalidReportConfig = errors.New("invalid report configuration")
	ErrConfigNotFound      = errors.New("configuration file not found")
	ErrConfigParseError    = errors.New("failed to parse configuration file")
)

// Config is the top-level configuration for a rating run.
type Config struct {
	Rating RatingConfig `yaml:"rating" json:"rating"`
	Report ReportConfig `yaml:"report" json:"report"`
}

// RatingConfig holds the constants of the rating algorithm.
type RatingConfig struct {
	DefaultRating        int `yaml:"default_rating" json:"default_rating"`               // Rating assumed for unrated participants (default 1500)
	ProvisionalThreshold int `yaml:"provisional_threshold" json:"provisional_threshold"` // Lifetime games below which a player is provisional (default 30)
	KStandard            int `yaml:"k_standard" json:"k_standard"`                       // Development coefficient for established players (default 15)
	KProvisional         int `yaml:"k_provisional" json:"k_provisional"`                 // Development coefficient for provisional players (default 30)
	RatingFloor          int `yaml:"rating_floor" json:"rating_floor"`                   // Minimum permitted rating after update (default 100)
}

// ReportConfig holds output rendering settings.
type ReportConfig struct {
	ReportFile string `yaml:"report_file" json:"report_file"` // Human-readable report file name
	TableFile  string `yaml:"table_file" json:"table_file"`   // Machine-readable rating table file name
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Rating: DefaultRatingConfig(),
		Report: DefaultReportConfig(),
	}
}

// DefaultRatingConfig returns the standard constants of the rating system.
func DefaultRatingConfig() RatingConfig {
	return RatingConfig{
		DefaultRating:        1500,
		ProvisionalThreshold: 30,
		KStandard:            15,
		KProvisional:         30,
		RatingFloor:          100,
	}
}

// DefaultReportConfig returns the fixed output file names.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		ReportFile: "tournament-report.txt",
		TableFile:  "new-ratings.csv",
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.Rating.Validate(); err != nil {
		return fmt.Errorf("rating config validation failed: %w", err)
	}
	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("report config validation failed: %w", err)
	}
	return nil
}

// Validate checks that the rating constants are consistent.
func (rc *RatingConfig) Validate() error {
	if rc.KStandard <= 0 {
		return fmt.Errorf("%w: k_standard must be positive, got %d", ErrInvalidRatingConfig, rc.KStandard)
	}
	if rc.KProvisional <= 0 {
		return fmt.Errorf("%w: k_provisional must be positive, got %d", ErrInvalidRatingConfig, rc.KProvisional)
	}
	if rc.KProvisional < rc.KStandard {
		return fmt.Errorf("%w: k_provisional (%d) must be at least k_standard (%d)", ErrInvalidRatingConfig, rc.KProvisional, rc.KStandard)
	}
	if rc.ProvisionalThreshold < 0 {
		return fmt.Errorf("%w: provisional_threshold must be non-negative, got %d", ErrInvalidRatingConfig, rc.ProvisionalThreshold)
	}
	if rc.RatingFloor < 0 {
		return fmt.Errorf("%w: rating_floor must be non-negative, got %d", ErrInvalidRatingConfig, rc.RatingFloor)
	}
	if rc.DefaultRating <= rc.RatingFloor {
		return fmt.Errorf("%w: default_rating (%d) must be above rating_floor (%d)", ErrInvalidRatingConfig, rc.DefaultRating, rc.RatingFloor)
	}
	return nil
}

// Validate checks that the report settings are usable.
func (rc *ReportConfig) Validate() error {
	if rc.ReportFile == "" {
		return fmt.Errorf("%w: report_file cannot be empty", ErrInvalidReportConfig)
	}
	if rc.TableFile == "" {
		return fmt.Errorf("%w: table_file cannot be empty", ErrInvalidReportConfig)
	}
	if rc.ReportFile == rc.TableFile {
		return fmt.Errorf("%w: report_file and table_file must differ", ErrInvalidReportConfig)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(filename string) (*Config, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var config Config
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, filename, err)
	}

	config = mergeWithDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filename, err)
	}

	return &config, nil
}

// LoadWithEnvironment loads configuration from file, if present, and applies
// environment variable overrides on top.
func LoadWithEnvironment(filename string) (*Config, error) {
	config := DefaultConfig()

	if filename != "" {
		fileConfig, err := LoadFromFile(filename)
		if err != nil && !errors.Is(err, ErrConfigNotFound) {
			return nil, err
		}
		if err == nil {
			config = *fileConfig
		}
	}

	applyEnvironmentOverrides(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid final configuration: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(filename string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, raw, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}
	return nil
}

// ConfigSearchPaths returns the locations probed for a configuration file.
func ConfigSearchPaths(filename string) []string {
	paths := []string{filename}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "tourating", filename))
	}
	return paths
}

// mergeWithDefaults fills in zero values with defaults so a partial YAML
// file stays valid.
func mergeWithDefaults(config Config) Config {
	defaults := DefaultConfig()

	if config.Rating.DefaultRating == 0 {
		config.Rating.DefaultRating = defaults.Rating.DefaultRating
	}
	if config.Rating.ProvisionalThreshold == 0 {
		config.Rating.ProvisionalThreshold = defaults.Rating.ProvisionalThreshold
	}
	if config.Rating.KStandard == 0 {
		config.Rating.KStandard = defaults.Rating.KStandard
	}
	if config.Rating.KProvisional == 0 {
		config.Rating.KProvisional = defaults.Rating.KProvisional
	}
	if config.Rating.RatingFloor == 0 {
		config.Rating.RatingFloor = defaults.Rating.RatingFloor
	}

	if config.Report.ReportFile == "" {
		config.Report.ReportFile = defaults.Report.ReportFile
	}
	if config.Report.TableFile == "" {
		config.Report.TableFile = defaults.Report.TableFile
	}

	return config
}

// applyEnvironmentOverrides applies TOURATING_* environment variables.
func applyEnvironmentOverrides(config *Config) {
	intVars := []struct {
		name   string
		target *int
	}{
		{"TOURATING_DEFAULT_RATING", &config.Rating.DefaultRating},
		{"TOURATING_PROVISIONAL_THRESHOLD", &config.Rating.ProvisionalThreshold},
		{"TOURATING_K_STANDARD", &config.Rating.KStandard},
		{"TOURATING_K_PROVISIONAL", &config.Rating.KProvisional},
		{"TOURATING_RATING_FLOOR", &config.Rating.RatingFloor},
	}
	for _, v := range intVars {
		if val := os.Getenv(v.name); val != "" {
			if parsed, err := strconv.Atoi(val); err == nil {
				*v.target = parsed
			}
		}
	}

	if val := os.Getenv("TOURATING_REPORT_FILE"); val != "" {
		config.Report.ReportFile = val
	}
	if val := os.Getenv("TOURATING_TABLE_FILE"); val != "" {
		config.Report.TableFile = val
	}
}
