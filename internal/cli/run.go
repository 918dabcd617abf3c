// internal/cli/run.go
package deepconf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrbzhq/deepconf/internal/appconfig"
	"github.com/hrbzhq/deepconf/internal/history"
	"github.com/hrbzhq/deepconf/internal/logging"
	"github.com/hrbzhq/deepconf/internal/reasoning"
	"github.com/hrbzhq/deepconf/internal/util"
)

// reasoningFlags are the flags shared by the run and integrated commands.
// Only flags the user actually set override the configured settings.
type reasoningFlags struct {
	model     string
	backend   string
	numPaths  int
	keepRatio float64
	mode      string
	preset    string
}

func (f reasoningFlags) apply(cmd *cobra.Command, settings *appconfig.DeepConfSettings) error {
	flags := cmd.Flags()
	if flags.Changed("model") {
		settings.Model = f.model
	}
	if flags.Changed("backend") {
		settings.Backend = f.backend
	}
	if flags.Changed("num-paths") {
		settings.NumPaths = f.numPaths
	}
	if flags.Changed("keep-ratio") {
		settings.KeepRatio = f.keepRatio
	}
	if flags.Changed("mode") {
		switch f.mode {
		case appconfig.ModeOffline, appconfig.ModeOnline:
			settings.Mode = f.mode
		default:
			return fmt.Errorf("invalid mode %q (valid modes: %s, %s)", f.mode, appconfig.ModeOffline, appconfig.ModeOnline)
		}
	}
	if flags.Changed("preset") {
		settings.Preset = f.preset
	}
	return nil
}

type runOptions struct {
	reasoningFlags
	prompt  string
	output  string
	verbose bool
}

var runOpts runOptions

// runCmd executes one multi-path reasoning task and prints the voted answer.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single multi-path reasoning task",
	Long: `Sample several reasoning paths for the prompt, keep the most confident
ones, and report the weighted-vote answer along with its confidence.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := effectiveConfig()
		if err := runOpts.apply(cmd, &cfg.DeepConf); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if runOpts.verbose {
			fmt.Fprintln(out, "Starting DeepConf reasoning...")
			fmt.Fprintf(out, "   Prompt: %s\n", util.TruncateRunes(runOpts.prompt, 50))
			fmt.Fprintf(out, "   Model: %s\n", cfg.DeepConf.Model)
			fmt.Fprintf(out, "   Backend: %s\n", cfg.DeepConf.Backend)
			fmt.Fprintf(out, "   Paths: %d\n", cfg.DeepConf.NumPaths)
			fmt.Fprintf(out, "   Keep ratio: %.2f\n", cfg.DeepConf.KeepRatio)
			fmt.Fprintf(out, "   Mode: %s\n", cfg.DeepConf.Mode)
		}

		engine, err := reasoning.New(&cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		ctx := cmd.Context()
		if err := engine.EnsureReady(ctx); err != nil {
			return fmt.Errorf("backend not ready: %w", err)
		}

		started := time.Now()
		result, err := engine.Run(ctx, runOpts.prompt)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("reasoning timed out after %s: %w", cfg.RequestTimeout(), err)
			}
			return fmt.Errorf("reasoning failed: %w", err)
		}
		elapsed := time.Since(started)

		if runOpts.output != "" {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("error serializing result: %w", err)
			}
			if err := util.WriteFile(runOpts.output, data); err != nil {
				return fmt.Errorf("error writing result file: %w", err)
			}
			fmt.Fprintf(out, "Results saved to: %s\n", runOpts.output)
		}

		fmt.Fprintln(out, successMark("Reasoning completed"))
		if runOpts.verbose {
			fmt.Fprintf(out, "   Final answer: %s\n", util.TruncateRunes(result.FinalAnswer, 100))
			fmt.Fprintf(out, "   Generated paths: %d\n", len(result.AllPaths))
			fmt.Fprintf(out, "   Kept paths: %d\n", len(result.KeptPaths))
			fmt.Fprintf(out, "   Average confidence: %.3f\n", result.AverageConfidence)
		} else {
			fmt.Fprintf(out, "Final answer: %s\n", result.FinalAnswer)
		}

		store := history.NewStore(cfg.DataDirPath())
		if err := store.Append(history.ReasoningRecord(result, runOpts.prompt, elapsed)); err != nil {
			logging.LogEvent("run: could not record history: %v", err)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runOpts.prompt, "prompt", "p", "", "input prompt (required)")
	runCmd.Flags().StringVarP(&runOpts.model, "model", "m", "", "model name (overrides the configured model)")
	runCmd.Flags().StringVarP(&runOpts.backend, "backend", "b", "", "backend host name (overrides the configured backend)")
	runCmd.Flags().IntVarP(&runOpts.numPaths, "num-paths", "n", 0, "number of reasoning paths to sample")
	runCmd.Flags().Float64VarP(&runOpts.keepRatio, "keep-ratio", "k", 0, "fraction of paths to keep (0..1]")
	runCmd.Flags().StringVar(&runOpts.mode, "mode", "", "execution mode: offline or online")
	runCmd.Flags().StringVar(&runOpts.preset, "preset", "", "sampling preset: reasoning, deterministic, or exploratory")
	runCmd.Flags().StringVarP(&runOpts.output, "output", "o", "", "write the full result JSON to this file")
	runCmd.Flags().BoolVarP(&runOpts.verbose, "verbose", "v", false, "verbose output")
	_ = runCmd.MarkFlagRequired("prompt")

	rootCmd.AddCommand(runCmd)
}
