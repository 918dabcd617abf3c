// internal/cli/models.go
package deepconf

import (
	"github.com/spf13/cobra"
)

// modelsCmd represents the 'models' command group for model lifecycle operations.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Group commands for managing models on configured hosts",
	Long:  `The 'models' command groups subcommands that manage the model lifecycle on each host defined in the configuration file.`,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
