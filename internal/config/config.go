// Package config defines the configuration model for the timekeeping export
// tools. A single config.yaml at the project root drives every binary: the
// Access source location, the table set to stage, the transformation scripts
// to run against a snapshot, the report query, and the CSV validation rules.
//
// Field names in Go mirror the YAML keys used in config.yaml. Decoding is
// performed by gopkg.in/yaml.v3; no other configuration sources exist beyond
// command-line flags, which always override config values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level object decoded from config.yaml.
type Config struct {
	// AccessDB is the path to the Access database file (.accdb/.mdb).
	AccessDB string `yaml:"path_to_access_db"`

	// MainTable is the billing table staged with the optional date filter
	// applied. RelatedTables are staged unfiltered unless --filter-project
	// reduces them to rows referenced by the filtered main table.
	MainTable     string   `yaml:"main_table"`
	RelatedTables []string `yaml:"related_tables"`

	// DateField names the date column of MainTable used for range filtering.
	DateField string `yaml:"date_field"`

	// StartDate / EndDate are optional default filter bounds, in any of the
	// accepted date layouts. Flags override them.
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`

	// OutputDir is the root under which timestamped export_* snapshot
	// directories are created. Defaults to "output".
	OutputDir string `yaml:"output_dir"`

	// TransformationScripts lists SQL script paths executed in order against
	// the latest snapshot by the transform step.
	TransformationScripts []string `yaml:"transformation_scripts"`

	// ReportQuery is the SQL file whose result set becomes the results CSV.
	ReportQuery string `yaml:"report_query"`

	// ValidationRules are applied to a results CSV by validatecsv.
	ValidationRules []ValidationRule `yaml:"csv_validation_rules"`
}

// ValidationRule describes one check applied to a results CSV column.
type ValidationRule struct {
	// Column is the CSV header the rule applies to.
	Column string `yaml:"column"`

	// Rule is one of: "required" (column must exist), "non_empty",
	// "numeric", "date".
	Rule string `yaml:"rule"`
}

// Defaults used when config.yaml omits the corresponding keys.
const (
	DefaultOutputDir = "output"
	DefaultDateField = "date"
)

// Load reads and decodes path. Missing optional keys are filled with
// defaults; validation is a separate step (see Validate).
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.DateField == "" {
		c.DateField = DefaultDateField
	}
}
