// internal/cli/status.go
package deepconf

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrbzhq/deepconf/internal/integrated"
	"github.com/hrbzhq/deepconf/internal/providerfactory"
)

// statusProbeTimeout bounds the backend reachability probe.
const statusProbeTimeout = 10 * time.Second

// statusCmd reports component availability and probes the configured backend.
// It exits non-zero when the backend is unreachable.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show component availability and backend reachability",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := effectiveConfig()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "deepconf %s (analyzer %s)\n", appVersion, integrated.AnalyzerVersion)
		if cfg.ConfigPath != "" {
			fmt.Fprintf(out, "Config file: %s\n", cfg.ConfigPath)
		} else {
			fmt.Fprintln(out, "Config file: built-in defaults")
		}

		fmt.Fprintln(out, "Components:")
		fmt.Fprintf(out, "  reasoning engine:  ok (%s mode, %d paths)\n", cfg.DeepConf.Mode, cfg.DeepConf.NumPaths)
		fmt.Fprintf(out, "  behavior analyzer: ok (sources: %s)\n", strings.Join(cfg.Behavior.Sources, ", "))
		fmt.Fprintln(out, "  integrated fusion: ok")

		host, err := cfg.FindHost(cfg.DeepConf.Backend)
		if err != nil {
			return err
		}
		provider, err := providerfactory.NewChatProvider(&cfg, host)
		if err != nil {
			return err
		}
		defer provider.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), statusProbeTimeout)
		defer cancel()

		loaded, err := provider.LoadedModels(ctx, host)
		if err != nil {
			fmt.Fprintf(out, "Backend %s (%s) at %s: %s\n", host.Name, host.Type, host.URL, failureMark("unreachable"))
			return err
		}
		fmt.Fprintf(out, "Backend %s (%s) at %s: %s\n", host.Name, host.Type, host.URL, successMark("reachable"))

		state := "not loaded"
		for _, name := range loaded {
			if name == cfg.DeepConf.Model {
				state = "loaded"
				break
			}
		}
		fmt.Fprintf(out, "Configured model: %s (%s)\n", cfg.DeepConf.Model, state)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
