// internal/cli/models_list.go
package deepconf

import (
	"github.com/hrbzhq/deepconf/internal/models"
	"github.com/spf13/cobra"
)

// modelsListCmd implements 'models list', which lists the installed models on
// each configured host and marks the ones currently loaded.
var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List models on each configured host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return models.ListModels(cmd.Context(), GetConfig())
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
}
