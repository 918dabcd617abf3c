// internal/cli/models_pull.go
package deepconf

import (
	"github.com/hrbzhq/deepconf/internal/models"
	"github.com/spf13/cobra"
)

// modelsPullCmd implements 'models pull', which pulls every configured model
// on each host that supports pulling.
var modelsPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull all configured models on each supported host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return models.PullModels(cmd.Context(), GetConfig())
	},
}

func init() {
	modelsCmd.AddCommand(modelsPullCmd)
}
