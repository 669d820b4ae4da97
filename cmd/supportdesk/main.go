// Package main is the supportdesk CLI: the API daemon, the terminal UI, and
// scripting commands for tasks, representatives, and customers.
package main

import (
	"fmt"
	"os"

	"github.com/fentz26/supportdesk/internal/apiclient"
	"github.com/fentz26/supportdesk/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	apiAddr    string
	apiToken   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "supportdesk",
	Short: "supportdesk - support task desk for small teams",
	Long: `supportdesk tracks support tasks, representatives, and customers.
It runs a local HTTP daemon backed by SQLite, and a terminal UI to browse
and manage tasks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if apiAddr != "" {
			loaded.APIAddr = apiAddr
		}
		if apiToken != "" {
			loaded.AdminToken = apiToken
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.supportdesk/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "", "API server address (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "Admin token (overrides config and "+config.TokenEnv+")")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(repCmd)
	rootCmd.AddCommand(customerCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// client builds an API client from the resolved config.
func client() *apiclient.Client {
	return apiclient.New(cfg.APIAddr, cfg.AdminToken)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
