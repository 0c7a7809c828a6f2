package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure. Candidate column lists live here rather than
// in package-level tables so every component receives its configuration
// explicitly.
type Global struct {
	DataDir       string `mapstructure:"data_dir" yaml:"data_dir"`
	Port          int    `mapstructure:"port" yaml:"port"`
	DataGovAPIKey string `mapstructure:"data_gov_api_key" yaml:"data_gov_api_key"`

	// Defaults for question parsing
	DefaultWindowYears int `mapstructure:"default_window_years" yaml:"default_window_years"`
	DefaultTopCrops    int `mapstructure:"default_top_crops" yaml:"default_top_crops"`

	// Column-role candidate names, in priority order
	YearColumns             []string `mapstructure:"year_columns" yaml:"year_columns"`
	RegionColumns           []string `mapstructure:"region_columns" yaml:"region_columns"`
	CropColumns             []string `mapstructure:"crop_columns" yaml:"crop_columns"`
	ClimateMetricColumns    []string `mapstructure:"climate_metric_columns" yaml:"climate_metric_columns"`
	ProductionMetricColumns []string `mapstructure:"production_metric_columns" yaml:"production_metric_columns"`

	// HTTP/Retry configuration for the dataset fetch client
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
}

// Defaults returns the built-in configuration used when no file or environment
// overrides are present.
func Defaults() *Global {
	return &Global{
		DataDir:                 "data",
		Port:                    5000,
		DefaultWindowYears:      5,
		DefaultTopCrops:         3,
		YearColumns:             []string{"year", "yy", "yr", "season", "reporting year", "financial year"},
		RegionColumns:           []string{"state", "region", "subdivision", "district", "state name"},
		CropColumns:             []string{"crop", "commodity", "crop name", "crops"},
		ClimateMetricColumns:    []string{"annual mean temp c", "annual rainfall mm", "rainfall mm", "mean temp c"},
		ProductionMetricColumns: []string{"production tonnes", "production", "quantity"},
		HTTPTimeoutSec:          60,
		RetryMaxAttempts:        3,
		RetryBaseDelayMs:        500,
		RetryMaxDelayMs:         4000,
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.agroquery/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".agroquery")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("AGROQUERY")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("port", d.Port)
	v.SetDefault("default_window_years", d.DefaultWindowYears)
	v.SetDefault("default_top_crops", d.DefaultTopCrops)
	v.SetDefault("year_columns", d.YearColumns)
	v.SetDefault("region_columns", d.RegionColumns)
	v.SetDefault("crop_columns", d.CropColumns)
	v.SetDefault("climate_metric_columns", d.ClimateMetricColumns)
	v.SetDefault("production_metric_columns", d.ProductionMetricColumns)
	v.SetDefault("http_timeout_sec", d.HTTPTimeoutSec)
	v.SetDefault("retry_max_attempts", d.RetryMaxAttempts)
	v.SetDefault("retry_base_delay_ms", d.RetryBaseDelayMs)
	v.SetDefault("retry_max_delay_ms", d.RetryMaxDelayMs)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".agroquery")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
