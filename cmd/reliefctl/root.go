package main

import (
	"github.com/spf13/cobra"

	"reliefcheck/internal/app"
	"reliefcheck/internal/config"
	"reliefcheck/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "reliefctl",
	Short: "Verify disaster-relief help flyers",
	Long: "reliefctl extracts contacts from a relief flyer image, checks them against domain,\n" +
		"scam-report and organization registries, and prints a risk verdict.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(investigateCmd)
	rootCmd.AddCommand(caseCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.Version = version
}

// buildApp loads configuration and wires the pipeline. Logs go to stderr so
// stdout stays clean for results and the MCP transport.
func buildApp(cmd *cobra.Command) (*app.App, error) {
	cfg, cfgErr := config.Load()
	logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
	if cfgErr != nil {
		logging.New("reliefctl").Warn("config", "error", cfgErr)
	}
	return app.Build(cmd.Context(), cfg)
}
