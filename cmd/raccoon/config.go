package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/raccoon/internal/coverage"
	"github.com/inodb/raccoon/internal/filter"
)

const configName = ".raccoon"

// settings is the resolved run configuration.
type settings struct {
	Thresholds    filter.Thresholds
	CoverageMode  coverage.Mode
	MaxMismatches int
	Workers       int
	Archive       string
}

func setDefaults() {
	th := filter.DefaultThresholds()
	viper.SetDefault("filter.min_qual", th.MinQual)
	viper.SetDefault("filter.min_qd", th.MinQD)
	viper.SetDefault("filter.max_allele_length", th.MaxAlleleLength)
	viper.SetDefault("coverage.mode", coverage.ModeSpan.String())
	viper.SetDefault("coverage.max_mismatches", coverage.DefaultMaxMismatches)
	viper.SetDefault("workers", 0)
	viper.SetDefault("archive", "")
}

// initConfig reads ~/.raccoon.yaml (or --config) and RACCOON_* environment variables.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("RACCOON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// bindFlags binds command flags to config keys. Binding happens per
// invocation because several commands share keys.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// loadSettings resolves the configuration after flags are bound.
func loadSettings() (settings, error) {
	mode, err := coverage.ParseMode(viper.GetString("coverage.mode"))
	if err != nil {
		return settings{}, &usageError{err}
	}
	s := settings{
		Thresholds: filter.Thresholds{
			MinQual:         viper.GetFloat64("filter.min_qual"),
			MinQD:           viper.GetFloat64("filter.min_qd"),
			MaxAlleleLength: viper.GetInt("filter.max_allele_length"),
		},
		CoverageMode:  mode,
		MaxMismatches: viper.GetInt("coverage.max_mismatches"),
		Workers:       viper.GetInt("workers"),
		Archive:       viper.GetString("archive"),
	}
	if s.MaxMismatches < 0 {
		return settings{}, &usageError{fmt.Errorf("coverage.max_mismatches must not be negative, got %d", s.MaxMismatches)}
	}
	if s.Thresholds.MaxAlleleLength <= 0 {
		return settings{}, &usageError{fmt.Errorf("filter.max_allele_length must be positive, got %d", s.Thresholds.MaxAlleleLength)}
	}
	return s, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage raccoon configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.raccoon.yaml.",
		Example: `  raccoon config                          # show all config
  raccoon config set filter.min_qual 40    # raise the quality gate
  raccoon config get coverage.mode         # get a value`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

func runConfigShow(cmd *cobra.Command) error {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	viper.Set(key, value)

	// Ensure config file exists
	cfg := viper.ConfigFileUsed()
	if cfg == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfg = filepath.Join(home, configName+".yaml")
	}

	if err := viper.WriteConfigAs(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, value, cfg)
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}
