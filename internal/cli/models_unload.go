// internal/cli/models_unload.go
package deepconf

import (
	"github.com/hrbzhq/deepconf/internal/models"
	"github.com/spf13/cobra"
)

// modelsUnloadCmd implements 'models unload', which unloads every model
// currently loaded on hosts that support unloading.
var modelsUnloadCmd = &cobra.Command{
	Use:   "unload",
	Short: "Unload loaded models on each supported host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return models.UnloadModels(cmd.Context(), GetConfig())
	},
}

func init() {
	modelsCmd.AddCommand(modelsUnloadCmd)
}
