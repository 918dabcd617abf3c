// internal/cli/benchmark.go
package deepconf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrbzhq/deepconf/internal/benchmark"
	"github.com/hrbzhq/deepconf/internal/integrated"
	"github.com/hrbzhq/deepconf/internal/report"
	"github.com/hrbzhq/deepconf/internal/tui"
)

type benchmarkOptions struct {
	outputDir string
	pause     int
	report    bool
	tui       bool
}

var benchmarkOpts benchmarkOptions

// benchmarkCmd runs the embedded six-domain scenario suite and writes the
// timestamped JSON and CSV outputs.
var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Run the six-domain benchmark suite",
	Long: `Run every embedded benchmark scenario through the integrated analyzer and
write timestamped JSON results plus a per-case CSV summary. Failed cases are
recorded and the suite continues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := effectiveConfig()

		outputDir := cfg.BenchmarkOutputDir()
		if cmd.Flags().Changed("output-dir") {
			outputDir = benchmarkOpts.outputDir
		}
		pause := time.Duration(cfg.Benchmark.PauseSeconds) * time.Second
		if cmd.Flags().Changed("pause") {
			pause = time.Duration(benchmarkOpts.pause) * time.Second
		}
		writeReport := cfg.Benchmark.Report
		if cmd.Flags().Changed("report") {
			writeReport = benchmarkOpts.report
		}

		analyzer, err := integrated.New(&cfg)
		if err != nil {
			return err
		}
		defer analyzer.Close()

		out := cmd.OutOrStdout()
		var rep *benchmark.Report

		if benchmarkOpts.tui {
			rep, err = tui.Run(cmd.Context(), "DeepConf Benchmark", func(ctx context.Context, onEvent func(benchmark.Event)) (*benchmark.Report, error) {
				return benchmark.NewRunner(analyzer, benchmark.Options{Pause: pause, OnEvent: onEvent}).Run(ctx)
			})
		} else {
			fmt.Fprintln(out, "Starting DeepConf benchmark")
			fmt.Fprintln(out, strings.Repeat("=", 50))
			runner := benchmark.NewRunner(analyzer, benchmark.Options{
				Pause:   pause,
				OnEvent: func(ev benchmark.Event) { printBenchmarkEvent(out, ev) },
			})
			rep, err = runner.Run(cmd.Context())
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(out, "Benchmark cancelled.")
				return nil
			}
			return err
		}

		printBenchmarkSummary(out, rep)

		jsonPath, csvPath, err := benchmark.WriteOutputs(rep, outputDir)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "\nResults saved:")
		fmt.Fprintf(out, "   JSON: %s\n", jsonPath)
		fmt.Fprintf(out, "   CSV: %s\n", csvPath)

		if writeReport {
			markdown, err := report.Benchmark(rep)
			if err != nil {
				return err
			}
			mdPath, err := benchmark.WriteReport(rep, markdown, outputDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "   Report: %s\n", mdPath)
		}
		return nil
	},
}

func printBenchmarkEvent(out io.Writer, ev benchmark.Event) {
	switch ev.Type {
	case benchmark.EventCaseStarted:
		fmt.Fprintf(out, "\nTest %d/%d: %s\n", ev.Index, ev.Total, ev.Case.Domain)
		fmt.Fprintf(out, "   User: %s\n", ev.Case.Subject)
	case benchmark.EventCaseFinished:
		r := ev.Result
		if r.Status == benchmark.StatusSuccess {
			fmt.Fprintf(out, "   %s - Confidence: %.3f (Expected: %.3f)\n", successMark("Completed"), r.IntegratedConfidence, r.ExpectedConfidence)
			fmt.Fprintf(out, "   Duration: %.1fs\n", r.ExecutionTime)
		} else {
			fmt.Fprintf(out, "   %s: %s\n", failureMark("Failed"), r.Error)
		}
	}
}

func printBenchmarkSummary(out io.Writer, rep *benchmark.Report) {
	s := rep.Summary
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out, "Benchmark Results")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	if s.Total > 0 {
		fmt.Fprintf(out, "Success Rate: %d/%d (%.1f%%)\n", s.Passed, s.Total, float64(s.Passed)/float64(s.Total)*100)
	}
	if s.Passed > 0 {
		fmt.Fprintf(out, "Average Confidence: %.3f ± %.3f\n", s.Confidence.Mean, s.Confidence.StdDev)
		fmt.Fprintf(out, "Average Consistency: %.3f ± %.3f\n", s.Consistency.Mean, s.Consistency.StdDev)
		fmt.Fprintf(out, "Average Execution Time: %.1fs ± %.1fs\n", s.Execution.Mean, s.Execution.StdDev)
		fmt.Fprintf(out, "Average Prediction Error: %.3f\n", s.MeanConfidenceError)
	}
	if len(s.DomainAverages) > 0 {
		domains := make([]string, 0, len(s.DomainAverages))
		for domain := range s.DomainAverages {
			domains = append(domains, domain)
		}
		sort.Strings(domains)
		fmt.Fprintln(out, "\nDomain Statistics:")
		for _, domain := range domains {
			fmt.Fprintf(out, "  %s: average confidence %.3f\n", domain, s.DomainAverages[domain])
		}
	}
}

func init() {
	benchmarkCmd.Flags().StringVar(&benchmarkOpts.outputDir, "output-dir", "", "directory for benchmark outputs (defaults to the configured directory)")
	benchmarkCmd.Flags().IntVar(&benchmarkOpts.pause, "pause", 0, "seconds to pause between cases")
	benchmarkCmd.Flags().BoolVar(&benchmarkOpts.report, "report", false, "also write a Markdown report")
	benchmarkCmd.Flags().BoolVar(&benchmarkOpts.tui, "tui", false, "show live progress in a terminal UI")

	rootCmd.AddCommand(benchmarkCmd)
}
