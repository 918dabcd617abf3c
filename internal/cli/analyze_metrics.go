// internal/cli/analyze_metrics.go
package deepconf

import (
	"github.com/hrbzhq/deepconf/internal/metrics"
	"github.com/spf13/cobra"
)

var analyzeMetricsOpts metrics.AnalyzeOptions

// analyzeMetricsCmd renders a Markdown summary of the saved running metrics.
var analyzeMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Summarize the saved model performance metrics",
	Long: `Read the metrics snapshot written by runs started with --metrics and render
a Markdown summary of throughput, latency, and analysis score statistics
per model.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return metrics.AnalyzeMetrics(analyzeMetricsOpts, cmd.OutOrStdout())
	},
}

func init() {
	analyzeMetricsCmd.Flags().StringVar(&analyzeMetricsOpts.InputPath, "input", metrics.DefaultFilePath, "Path to the metrics snapshot JSON")
	analyzeMetricsCmd.Flags().StringVar(&analyzeMetricsOpts.OutputPath, "output", "", "Optional path to write the Markdown summary")

	analyzeCmd.AddCommand(analyzeMetricsCmd)
}
