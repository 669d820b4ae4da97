package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fentz26/supportdesk/internal/apiclient"
	"github.com/fentz26/supportdesk/internal/config"
	"github.com/fentz26/supportdesk/internal/tui"
	"github.com/spf13/cobra"
)

var (
	noAutostart bool
	tuiLogFile  bool
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive task table",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&noAutostart, "no-autostart", false, "Do not start the daemon when it is not running")
	tuiCmd.Flags().BoolVar(&tuiLogFile, "log", false, "Write debug logs to ~/.supportdesk/tui.log")
}

func runTUI(cmd *cobra.Command, args []string) error {
	c := client()

	if !isDaemonRunning(c) {
		if noAutostart {
			return fmt.Errorf("daemon not reachable at %s", c.BaseURL())
		}
		fmt.Println("Daemon not running. Starting background service...")
		if err := startDaemon(c); err != nil {
			return fmt.Errorf("failed to start daemon: %w", err)
		}
	}

	var logger *slog.Logger
	if tuiLogFile {
		f, err := os.OpenFile(filepath.Join(config.Dir(), "tui.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return err
		}
		defer f.Close()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	app := tui.New(c, cfg.PageSize, logger)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func isDaemonRunning(c *apiclient.Client) bool {
	health, err := c.Health()
	return err == nil && health.OK
}

func startDaemon(c *apiclient.Client) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	args := []string{"serve"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	cmd := exec.Command(exe, args...)
	configureDaemonProc(cmd)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}

	fmt.Print("   Waiting for daemon...")
	for i := 0; i < 20; i++ {
		if isDaemonRunning(c) {
			fmt.Println(" Done.")
			return nil
		}
		time.Sleep(250 * time.Millisecond)
	}
	fmt.Println(" Timeout.")
	return fmt.Errorf("daemon did not become ready at %s", c.BaseURL())
}
