// internal/cli/show_config.go
package deepconf

import (
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrbzhq/deepconf/internal/appconfig"
)

// showConfigCmd implements the 'show config' command, which displays the current configuration settings.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overridden by flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := GetConfig()
		if cfg != nil && cfg.Debug {
			pp.Fprintln(cmd.OutOrStdout(), cfg)
			return
		}

		fallback := appconfig.Default()
		fallback.Debug = viper.GetBool("debug")
		fallback.Metrics = viper.GetBool("metrics")
		fallback.TimeoutSeconds = viper.GetInt("timeoutSeconds")

		var file string
		if cfg != nil {
			file = cfg.ConfigPath
		}
		appconfig.ShowConfig(cmd.OutOrStdout(), file, cfg, fallback)
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
}
