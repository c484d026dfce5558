// Package config loads pack-maestro settings from flags, environment
// variables and an optional YAML file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. PACK_MAESTRO_WORKERS.
const EnvPrefix = "PACK_MAESTRO"

// Setting keys. Flags use the same names with dashes.
const (
	KeyWorkers      = "workers"
	KeyQuality      = "quality"
	KeySkipExisting = "skip_existing"
	KeyMetadata     = "metadata"
	KeyVerbose      = "verbose"
	KeyReport       = "report"
)

// Settings tune how packing runs. None of them change the packed layout.
type Settings struct {
	Workers      int    `mapstructure:"workers"`
	Quality      string `mapstructure:"quality"`
	SkipExisting bool   `mapstructure:"skip_existing"`
	Metadata     string `mapstructure:"metadata"`
	Verbose      bool   `mapstructure:"verbose"`
	Report       string `mapstructure:"report"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Settings {
	return Settings{Quality: "high"}
}

// FlagName converts a setting key to its command-line flag name.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Load resolves settings with precedence flags, environment, file, defaults.
// Only flags that were set on the command line override other sources.
// configFile may be empty.
func Load(configFile string, flags *pflag.FlagSet) (Settings, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault(KeyWorkers, d.Workers)
	v.SetDefault(KeyQuality, d.Quality)
	v.SetDefault(KeySkipExisting, d.SkipExisting)
	v.SetDefault(KeyMetadata, d.Metadata)
	v.SetDefault(KeyVerbose, d.Verbose)
	v.SetDefault(KeyReport, d.Report)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	if flags != nil {
		for _, key := range []string{KeyWorkers, KeyQuality, KeySkipExisting, KeyMetadata, KeyVerbose, KeyReport} {
			if f := flags.Lookup(FlagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Settings{}, fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if s.Workers < 0 {
		return Settings{}, fmt.Errorf("workers must not be negative, got %d", s.Workers)
	}
	return s, nil
}
