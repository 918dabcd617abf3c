// internal/cli/integrated.go
package deepconf

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrbzhq/deepconf/internal/behavior"
	"github.com/hrbzhq/deepconf/internal/history"
	"github.com/hrbzhq/deepconf/internal/integrated"
	"github.com/hrbzhq/deepconf/internal/logging"
	"github.com/hrbzhq/deepconf/internal/profile"
	"github.com/hrbzhq/deepconf/internal/report"
	"github.com/hrbzhq/deepconf/internal/util"
)

type integratedOptions struct {
	reasoningFlags
	prompt     string
	profile    string
	multimodal string
	output     string
	report     string
	verbose    bool
}

var integratedOpts integratedOptions

// integratedCmd runs both analysis sides and fuses their scores. A single
// failed side degrades to its neutral default instead of aborting the run.
var integratedCmd = &cobra.Command{
	Use:   "integrated",
	Short: "Run integrated analysis (reasoning + behavioral trajectory)",
	Long: `Run the multi-path reasoning engine and the behavioral trajectory analyzer
concurrently, then fuse both sides into the integrated confidence,
consistency, and recommendation scores.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := effectiveConfig()
		if err := integratedOpts.apply(cmd, &cfg.DeepConf); err != nil {
			return err
		}

		p, err := profile.Load(integratedOpts.profile)
		if err != nil {
			return err
		}

		var sources []string
		if integratedOpts.multimodal != "" {
			sources, err = behavior.ParseSourcesFile(integratedOpts.multimodal)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if integratedOpts.verbose {
			fmt.Fprintln(out, "Starting integrated analysis...")
			fmt.Fprintf(out, "   Prompt: %s\n", util.TruncateRunes(integratedOpts.prompt, 50))
			fmt.Fprintf(out, "   Model: %s\n", cfg.DeepConf.Model)
			fmt.Fprintf(out, "   Backend: %s\n", cfg.DeepConf.Backend)
		}

		analyzer, err := integrated.New(&cfg)
		if err != nil {
			return err
		}
		defer analyzer.Close()

		result, err := analyzer.Analyze(cmd.Context(), integratedOpts.prompt, p, sources)
		if err != nil {
			return fmt.Errorf("integrated analysis failed: %w", err)
		}

		if integratedOpts.output != "" {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("error serializing result: %w", err)
			}
			if err := util.WriteFile(integratedOpts.output, data); err != nil {
				return fmt.Errorf("error writing result file: %w", err)
			}
			fmt.Fprintf(out, "Results saved to: %s\n", integratedOpts.output)
		}

		if integratedOpts.report != "" {
			markdown, err := report.Integrated(result)
			if err != nil {
				return err
			}
			if err := util.WriteFile(integratedOpts.report, []byte(markdown)); err != nil {
				return fmt.Errorf("error writing report file: %w", err)
			}
			fmt.Fprintf(out, "Report saved to: %s\n", integratedOpts.report)
		}

		if result.Status == integrated.StatusFailed {
			return fmt.Errorf("both analysis sides failed: %s; %s", result.DeepConfError, result.BehaviorError)
		}

		fmt.Fprintln(out, successMark("Integrated analysis completed"))
		fmt.Fprintf(out, "   Integrated Confidence: %.3f\n", result.IntegratedConfidence)
		fmt.Fprintf(out, "   Analysis Consistency: %.3f\n", result.AnalysisConsistency)
		fmt.Fprintf(out, "   Recommendation Score: %.3f\n", result.RecommendationScore)
		if result.DeepConfError != "" {
			fmt.Fprintf(out, "   %s %s\n", failureMark("Reasoning side failed:"), result.DeepConfError)
		}
		if result.BehaviorError != "" {
			fmt.Fprintf(out, "   %s %s\n", failureMark("Behavior side failed:"), result.BehaviorError)
		}

		store := history.NewStore(cfg.DataDirPath())
		if err := store.Append(history.IntegratedRecord(result, integratedOpts.prompt)); err != nil {
			logging.LogEvent("integrated: could not record history: %v", err)
		}
		return nil
	},
}

func init() {
	integratedCmd.Flags().StringVarP(&integratedOpts.prompt, "prompt", "p", "", "analysis prompt (required)")
	integratedCmd.Flags().StringVar(&integratedOpts.profile, "profile", "", "user profile JSON file path or inline JSON (required)")
	integratedCmd.Flags().StringVar(&integratedOpts.multimodal, "multimodal", "", "JSON file holding the data source names to analyze")
	integratedCmd.Flags().StringVarP(&integratedOpts.model, "model", "m", "", "model name (overrides the configured model)")
	integratedCmd.Flags().StringVarP(&integratedOpts.backend, "backend", "b", "", "backend host name (overrides the configured backend)")
	integratedCmd.Flags().IntVarP(&integratedOpts.numPaths, "num-paths", "n", 0, "number of reasoning paths to sample")
	integratedCmd.Flags().Float64VarP(&integratedOpts.keepRatio, "keep-ratio", "k", 0, "fraction of paths to keep (0..1]")
	integratedCmd.Flags().StringVar(&integratedOpts.mode, "mode", "", "execution mode: offline or online")
	integratedCmd.Flags().StringVar(&integratedOpts.preset, "preset", "", "sampling preset: reasoning, deterministic, or exploratory")
	integratedCmd.Flags().StringVarP(&integratedOpts.output, "output", "o", "", "write the full result JSON to this file")
	integratedCmd.Flags().StringVarP(&integratedOpts.report, "report", "r", "", "write a Markdown report to this file")
	integratedCmd.Flags().BoolVarP(&integratedOpts.verbose, "verbose", "v", false, "verbose output")
	_ = integratedCmd.MarkFlagRequired("prompt")
	_ = integratedCmd.MarkFlagRequired("profile")

	rootCmd.AddCommand(integratedCmd)
}
