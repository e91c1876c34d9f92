package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covbr-annotate/internal/annotate"
	"github.com/zjy-dev/covbr-annotate/internal/config"
	"github.com/zjy-dev/covbr-annotate/internal/exec"
	"github.com/zjy-dev/covbr-annotate/internal/logger"
)

// rawReportSuffix names the saved covbr output next to the annotated output.
const rawReportSuffix = ".covbr.txt"

func newRunCommand(opts *globalOptions) *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "run -o <output> [-- covbr arguments...]",
		Short: "Run covbr and annotate its output.",
		Long: `Run Bullseye's covbr, save its output as <output>.covbr.txt and annotate it.

Arguments after "--" are passed to covbr after the ones configured under
runner.args. The covbr executable is taken from --covbr, COVBR_RUNNER_PATH or
runner.path in the config file; runner.dir sets its working directory.

Examples:
  # Use the coverage file named by COVFILE
  covbr-annotate run -o out/annotated.txt

  # Pass an explicit coverage file to covbr
  covbr-annotate run -o out/annotated.txt -- --file test.cov`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg

			outputPath, err := filepath.Abs(outputFile)
			if err != nil {
				return err
			}
			if err := annotate.CheckOutput(outputPath); err != nil {
				return err
			}

			if ce, ok := opts.executor.(*exec.CommandExecutor); ok && cfg.Runner.Dir != "" {
				ce.Dir = cfg.Runner.Dir
			}
			covbr := exec.NewCovbr(opts.executor, cfg.Runner.Path, cfg.Runner.Args)
			logger.Info("Running %s", covbr.CommandLine(args...))
			out, err := covbr.Report(args...)
			if err != nil {
				return err
			}

			rawPath := outputPath + rawReportSuffix
			if err := os.MkdirAll(filepath.Dir(rawPath), 0755); err != nil {
				return fmt.Errorf("%w %s: %v", annotate.ErrOutputOpen, rawPath, err)
			}
			if err := os.WriteFile(rawPath, []byte(out), 0644); err != nil {
				return fmt.Errorf("%w %s: %v", annotate.ErrOutputOpen, rawPath, err)
			}
			logger.Debug("covbr output saved to %s", rawPath)

			return annotateFile(cmd, cfg, rawPath, outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "outputfile", "o", "", "Output file name (analyzed covbr output)")
	cmd.Flags().String("covbr", config.DefaultRunnerPath, "Path to the covbr executable")
	cmd.Flags().String("summary", config.DefaultSummaryFile, "Summary file name, created next to the output file")
	cmd.Flags().String("stats", "", "Also write per-function statistics as YAML to this file")
	_ = cmd.MarkFlagRequired("outputfile")

	return cmd
}
