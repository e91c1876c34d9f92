package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// ConfigName is the base name of the optional config file (covbr.yaml).
	ConfigName = "covbr"
	// EnvPrefix prefixes environment overrides, e.g. COVBR_LOG_LEVEL.
	EnvPrefix = "COVBR"

	DefaultLogLevel    = "info"
	DefaultSummaryFile = "annotated-summary.txt"
	DefaultRunnerPath  = "covbr"
)

// RunnerConfig describes how the covbr executable is invoked.
type RunnerConfig struct {
	Path string   `mapstructure:"path"`
	Args []string `mapstructure:"args"`
	// Dir is the working directory of covbr; empty means the current one.
	Dir string `mapstructure:"dir"`
}

// Config holds the tool settings. None of them change how a report is
// classified or counted.
type Config struct {
	LogLevel    string       `mapstructure:"log_level"`
	NoColor     bool         `mapstructure:"no_color"`
	SummaryFile string       `mapstructure:"summary_file"`
	StatsFile   string       `mapstructure:"stats_file"`
	Runner      RunnerConfig `mapstructure:"runner"`

	// Source is the config file that was read, empty when none was found.
	Source string `mapstructure:"-"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"log-level": "log_level",
	"no-color":  "no_color",
	"summary":   "summary_file",
	"stats":     "stats_file",
	"covbr":     "runner.path",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("no_color", false)
	v.SetDefault("summary_file", DefaultSummaryFile)
	v.SetDefault("stats_file", "")
	v.SetDefault("runner.path", DefaultRunnerPath)
	v.SetDefault("runner.args", []string{})
	v.SetDefault("runner.dir", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load builds the configuration from defaults, an optional config file,
// COVBR_* environment variables and the flags in fs, in increasing order of
// precedence.
//
// If configFile is empty, covbr.yaml is searched for in configs/,
// ../configs and ../../configs, and a missing file is not an error.
// An explicit configFile must exist.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	v := newViper()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath("configs")       // working directory
		v.AddConfigPath("../configs")    // go test inside a package
		v.AddConfigPath("../../configs") // nested packages
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()
	return &cfg, nil
}

// bindFlags binds every known flag present in fs. Only flags the user set
// override lower layers.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}
