// internal/cli/root.go
// Package deepconf defines the command tree for the deepconf binary.
package deepconf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrbzhq/deepconf/internal/appconfig"
	"github.com/hrbzhq/deepconf/internal/logging"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

var (
	successMark = color.New(color.FgGreen).SprintFunc()
	failureMark = color.New(color.FgRed).SprintFunc()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "deepconf",
	Short: "deepconf — multi-path reasoning and behavioral analysis for local models",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadedFile, err := ensureConfigLoaded()
		if err != nil {
			return err
		}

		for _, name := range []string{"debug", "metrics"} {
			if !cmd.Flags().Changed(name) {
				val := viper.GetBool(name)
				_ = cmd.Flags().Set(name, strconv.FormatBool(val))
			}
		}
		if !cmd.Flags().Changed("timeout") {
			_ = cmd.Flags().Set("timeout", strconv.Itoa(viper.GetInt("timeoutSeconds")))
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = loadedFile
		cfg.Normalize()
		currentConfig = &cfg

		if err := logging.Init(currentConfig.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// SIGINT and SIGTERM cancel the command context so in-flight requests stop.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer logging.Close()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("metrics", false, "record model performance metrics")
	rootCmd.PersistentFlags().Int("timeout", 0, "request timeout in seconds (0 = default)")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("metrics", rootCmd.PersistentFlags().Lookup("metrics"))
	_ = viper.BindPFlag("timeoutSeconds", rootCmd.PersistentFlags().Lookup("timeout"))
}

// initConfig points viper at the selected config file.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config file into viper and returns the path
// actually loaded, or "" when running on built-in defaults. A missing file at
// the default path falls back to the legacy path and then to defaults; a
// missing file at an explicitly requested path is an error.
func ensureConfigLoaded() (string, error) {
	err := viper.ReadInConfig()
	if err == nil {
		return cfgFile, nil
	}
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return "", nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfgFile != appconfig.DefaultConfigPath {
		return "", fmt.Errorf("no configuration file found at %q", cfgFile)
	}

	viper.SetConfigFile(appconfig.LegacyConfigPath)
	switch legacyErr := viper.ReadInConfig(); {
	case legacyErr == nil:
		cfgFile = appconfig.LegacyConfigPath
		return cfgFile, nil
	case errors.Is(legacyErr, fs.ErrNotExist):
		return "", nil
	default:
		return "", fmt.Errorf("failed to load config: %w", legacyErr)
	}
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// effectiveConfig returns a copy of the loaded configuration, or the built-in
// defaults when no configuration has been loaded yet.
func effectiveConfig() appconfig.Config {
	if currentConfig != nil {
		return *currentConfig
	}
	return appconfig.Default()
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
