package main

import (
	"os"

	"github.com/brizzai/dingtalk-oauth/internal/config"
	"github.com/brizzai/dingtalk-oauth/internal/logger"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dingtalk-oauth",
	Short: "DingTalk OAuth client",
	Long: `dingtalk-oauth builds DingTalk authorization redirects, checks the returned
state and exchanges authorization codes for user info.

Credential sets are configured under oauth.<profile> in config.yaml. Every
other setting can also be given through DINGTALK_OAUTH_* environment
variables, e.g. DINGTALK_OAUTH_STATE_SESSION_SECRET.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PersistentPreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(newServeCmd(), newAuthorizeURLCmd(), newSignCmd())
}

// loadConfig reads the configuration and initializes the global logger
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}
