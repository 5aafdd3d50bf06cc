// Package cmd wires the triagecore operator CLI: serve the HTTP surface,
// score single inputs, dump the effective calibration, and report the build
// version.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/campusops/triagecore/internal/config"
	"github.com/campusops/triagecore/internal/observability"
)

// rootOptions carries state shared between the root command and its
// subcommands: the config-file flag, the viper instance, and the loaded
// configuration.
type rootOptions struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
}

// NewRootCommand builds a fresh command tree. Each invocation gets its own
// flag and viper state so executions never leak settings into one another.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "triagecore",
		Short:         "Deterministic priority scoring for campus facilities issues.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.v, opts.cfgFile)
			if err != nil {
				// A fallback logger so the failure itself is still reported
				// in the usual format.
				observability.InitializeLogger(config.LoggerConfig{
					Level: "info", Format: "console", ServiceName: "triagecore",
				})
				return err
			}
			opts.cfg = cfg

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Configuration loaded.",
				zap.String("version", Version),
				zap.String("config_file", opts.v.ConfigFileUsed()))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "",
		"config file (default is ./triagecore.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newServeCmd(opts),
		newScoreCmd(opts),
		newTablesCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the CLI under the given signal-aware context.
func Execute(ctx context.Context) error {
	defer observability.Sync()

	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command failed.", zap.Error(err))
	}
	return err
}

// loadConfig layers defaults, an optional YAML file, and TRIAGECORE_*
// environment variables into a validated Config.
func loadConfig(v *viper.Viper, cfgFile string) (*config.Config, error) {
	config.SetDefaults(v)

	if cfgFile != "" {
		expanded, err := homedir.Expand(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("expanding config path: %w", err)
		}
		v.SetConfigFile(expanded)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName("triagecore")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("TRIAGECORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No file is fine; defaults and environment carry the run.
	}

	return config.NewConfigFromViper(v)
}

// readInput resolves the --input convention shared by scoring commands: a
// path, or "-" for stdin.
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expanding input path: %w", err)
	}
	return os.ReadFile(expanded)
}
