// internal/cli/behavior.go
package deepconf

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrbzhq/deepconf/internal/behavior"
	"github.com/hrbzhq/deepconf/internal/profile"
	"github.com/hrbzhq/deepconf/internal/report"
	"github.com/hrbzhq/deepconf/internal/util"
)

type behaviorOptions struct {
	profile    string
	multimodal string
	model      string
	backend    string
	output     string
	report     string
	verbose    bool
}

var behaviorOpts behaviorOptions

// behaviorCmd runs the behavioral trajectory analysis over a user profile.
var behaviorCmd = &cobra.Command{
	Use:   "behavior",
	Short: "Run behavioral trajectory analysis on a user profile",
	Long: `Walk the profile's informative fields source by source, score each step,
and report the trajectory's overall confidence and anomalies. The profile
argument is a file path, or inline JSON when it starts with '{'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := effectiveConfig()
		if cmd.Flags().Changed("model") {
			cfg.DeepConf.Model = behaviorOpts.model
		}
		if cmd.Flags().Changed("backend") {
			cfg.DeepConf.Backend = behaviorOpts.backend
		}

		out := cmd.OutOrStdout()
		if behaviorOpts.verbose {
			fmt.Fprintln(out, "Starting behavioral analysis...")
			fmt.Fprintf(out, "   Model: %s\n", cfg.DeepConf.Model)
			fmt.Fprintf(out, "   Backend: %s\n", cfg.DeepConf.Backend)
		}

		p, err := profile.Load(behaviorOpts.profile)
		if err != nil {
			return err
		}

		var sources []string
		if behaviorOpts.multimodal != "" {
			sources, err = behavior.ParseSourcesFile(behaviorOpts.multimodal)
			if err != nil {
				return err
			}
		}

		result, err := behavior.New(cfg.Behavior).Analyze(p, sources)
		if err != nil {
			return fmt.Errorf("behavioral analysis failed: %w", err)
		}

		if behaviorOpts.output != "" {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("error serializing result: %w", err)
			}
			if err := util.WriteFile(behaviorOpts.output, data); err != nil {
				return fmt.Errorf("error writing result file: %w", err)
			}
			fmt.Fprintf(out, "Results saved to: %s\n", behaviorOpts.output)
		}

		if behaviorOpts.report != "" {
			markdown, err := report.Behavior(result)
			if err != nil {
				return err
			}
			if err := util.WriteFile(behaviorOpts.report, []byte(markdown)); err != nil {
				return fmt.Errorf("error writing report file: %w", err)
			}
			fmt.Fprintf(out, "Report saved to: %s\n", behaviorOpts.report)
		}

		fmt.Fprintln(out, successMark("Behavioral analysis completed"))
		fmt.Fprintf(out, "   Status: %s\n", result.Status)
		fmt.Fprintf(out, "   Confidence: %.3f\n", result.ConfidenceScore)
		if behaviorOpts.verbose {
			fmt.Fprintf(out, "   Paths: %d\n", len(result.Paths))
			if len(result.Anomalies) > 0 {
				fmt.Fprintf(out, "   Anomalies: %s\n", strings.Join(result.Anomalies, "; "))
			}
		}
		return nil
	},
}

func init() {
	behaviorCmd.Flags().StringVarP(&behaviorOpts.profile, "profile", "p", "", "user profile JSON file path or inline JSON (required)")
	behaviorCmd.Flags().StringVar(&behaviorOpts.multimodal, "multimodal", "", "JSON file holding the data source names to analyze")
	behaviorCmd.Flags().StringVarP(&behaviorOpts.model, "model", "m", "", "model name (overrides the configured model)")
	behaviorCmd.Flags().StringVarP(&behaviorOpts.backend, "backend", "b", "", "backend host name (overrides the configured backend)")
	behaviorCmd.Flags().StringVarP(&behaviorOpts.output, "output", "o", "", "write the full result JSON to this file")
	behaviorCmd.Flags().StringVarP(&behaviorOpts.report, "report", "r", "", "write a Markdown report to this file")
	behaviorCmd.Flags().BoolVarP(&behaviorOpts.verbose, "verbose", "v", false, "verbose output")
	_ = behaviorCmd.MarkFlagRequired("profile")

	rootCmd.AddCommand(behaviorCmd)
}
