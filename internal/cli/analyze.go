// internal/cli/analyze.go
package deepconf

import (
	"github.com/spf13/cobra"
)

// analyzeCmd hosts commands that inspect recorded runs and build summaries.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze recorded run data",
	Long: `Tools for post-processing recorded runs. Use these commands to turn the
saved metrics snapshots into readable summaries.`,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
