package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covbr-annotate/internal/config"
	"github.com/zjy-dev/covbr-annotate/internal/exec"
	"github.com/zjy-dev/covbr-annotate/internal/logger"
)

// globalOptions is shared by all subcommands. cfg is filled in before any
// subcommand runs.
type globalOptions struct {
	configFile string
	cfg        *config.Config
	executor   exec.Executor
}

// NewRootCommand creates the root command for the covbr-annotate tool.
func NewRootCommand() *cobra.Command {
	return newRootCommand(exec.NewCommandExecutor())
}

func newRootCommand(executor exec.Executor) *cobra.Command {
	opts := &globalOptions{executor: executor}

	cmd := &cobra.Command{
		Use:   "covbr-annotate",
		Short: "Annotate Bullseye covbr output with per-function branch statistics.",
		Long: `covbr-annotate reads the output of Bullseye's covbr tool and writes
  - an annotated copy of the report, with branch statistics inserted before
    the source lines of every file, and
  - a summary of the same statistics across all files.

The summary is written to annotated-summary.txt next to the annotated output
(previous contents, if any, are overwritten).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			opts.cfg = cfg

			logger.SetOutput(cmd.ErrOrStderr())
			logger.SetLevel(cfg.LogLevel)
			logger.SetColorEnable(!cfg.NoColor)
			if cfg.Source != "" {
				logger.Debug("Using config file %s", cfg.Source)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default: configs/covbr.yaml if present)")
	cmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored log output")

	cmd.AddCommand(newAnnotateCommand(opts))
	cmd.AddCommand(newRunCommand(opts))

	return cmd
}
