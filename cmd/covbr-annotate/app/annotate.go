package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covbr-annotate/internal/annotate"
	"github.com/zjy-dev/covbr-annotate/internal/config"
	"github.com/zjy-dev/covbr-annotate/internal/logger"
	"github.com/zjy-dev/covbr-annotate/internal/report"
)

// newAnnotateCommand creates the "annotate" subcommand.
func newAnnotateCommand(opts *globalOptions) *cobra.Command {
	var inputFile, outputFile string

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Annotate an existing covbr report.",
		Long: `Annotate a file produced by covbr, for example:

    /home/dev/llvm/lib/Analysis/AliasAnalysis.cpp:

    X       540  bool llvm::isIdentifiedObject(const Value *V) {
    TF      541    if (isa<AllocaInst>(V))
            542      return true;
    TF      543a   if (
      tf    543b       isa<GlobalValue>(V) &&
      -->t  543c                              !isa<GlobalAlias>(V))
            544      return true;

The output file must not exist yet; missing directories are created.

Examples:
  # Annotate a report
  covbr-annotate annotate -i covbr.txt -o out/annotated.txt

  # Also export the statistics as YAML
  covbr-annotate annotate -i covbr.txt -o out/annotated.txt --stats out/stats.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return annotateFile(cmd, opts.cfg, inputFile, outputFile)
		},
	}

	cmd.Flags().StringVarP(&inputFile, "inputfile", "i", "", "Input file name (covbr output)")
	cmd.Flags().StringVarP(&outputFile, "outputfile", "o", "", "Output file name (analyzed covbr output)")
	cmd.Flags().String("summary", config.DefaultSummaryFile, "Summary file name, created next to the output file")
	cmd.Flags().String("stats", "", "Also write per-function statistics as YAML to this file")
	_ = cmd.MarkFlagRequired("inputfile")
	_ = cmd.MarkFlagRequired("outputfile")

	return cmd
}

// annotateFile runs one annotation and reports where the summary went.
func annotateFile(cmd *cobra.Command, cfg *config.Config, inputFile, outputFile string) error {
	req := annotate.Request{
		InputPath:   inputFile,
		OutputPath:  outputFile,
		SummaryName: cfg.SummaryFile,
	}

	var collector *report.StatsCollector
	if cfg.StatsFile != "" {
		collector = report.NewStatsCollector()
		req.Sink = collector
	}

	res, err := annotate.Run(req)
	if err != nil {
		return err
	}

	if collector != nil {
		if err := collector.SaveYAML(cfg.StatsFile); err != nil {
			return err
		}
		logger.Info("Statistics written to %s", cfg.StatsFile)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\n\nAnnotated summary file is %s\n\n\n", res.SummaryPath)
	return nil
}
