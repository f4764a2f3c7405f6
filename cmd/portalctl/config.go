package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/confportal/conf-portal-api/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the portal configuration",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'config' requires a subcommand (show)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show configuration attributes and their sources",
	Long: `Show configuration attributes and their sources.

The values reflect the current defaults, portal.yml and environment. They may
differ from what a running server loaded. Secrets are masked.

Config file location: /etc/conf-portal/portal.yml (or PORTAL_CONFIG_PATH)

Example:
  portalctl config show
  portalctl config show --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return showConfiguration(cmd, format)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configShowCmd.Flags().StringP("format", "f", "text", "Output format (text or json)")
}

func showConfiguration(cmd *cobra.Command, format string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		s, err := cfg.FormatJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
	case "text":
		fmt.Fprint(out, cfg.FormatText())
	default:
		return fmt.Errorf("unknown format %q (text or json)", format)
	}
	return nil
}
