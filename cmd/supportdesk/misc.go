package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fentz26/supportdesk/internal/config"
	"github.com/fentz26/supportdesk/internal/version"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard counters",
	RunE:  runStats,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent changes",
	RunE:  runAudit,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	RunE:  runConfigShow,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of supportdesk",
	Run:   runVersion,
}

var (
	auditLimit  int
	forceConfig bool
)

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "Number of entries")
	configInitCmd.Flags().BoolVar(&forceConfig, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := client().Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Total Tasks:     %d\n", st.TotalTasks)
	fmt.Printf("Completed Tasks: %d\n", st.CompletedTasks)
	fmt.Printf("Pending Tasks:   %d\n", st.PendingTasks)
	fmt.Printf("Team Members:    %d\n", st.TeamMembers)
	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	entries, err := client().Audit(auditLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No audit entries")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tTASK\tOUTCOME\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Action, truncateID(e.TaskID), e.Outcome, e.Details)
	}
	return w.Flush()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !forceConfig {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	shown := *cfg
	if shown.AdminToken != "" {
		shown.AdminToken = "********"
	}
	data, err := yaml.Marshal(&shown)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Println(version.String())

	health, err := client().Health()
	if err != nil || health.Version == "" {
		return
	}
	fmt.Printf("  daemon: %s\n", health.Version)
	if version.Compare(version.Version, health.Version) != 0 {
		fmt.Println("  warning: daemon version differs, restart it with \"supportdesk serve\"")
	}
}
