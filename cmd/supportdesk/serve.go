package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fentz26/supportdesk/internal/adminapi"
	"github.com/fentz26/supportdesk/internal/audit"
	"github.com/fentz26/supportdesk/internal/store"
	"github.com/spf13/cobra"
)

var (
	listenAddr string
	dbPath     string
	verbose    bool
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"daemon"},
	Short:   "Start the supportdesk API daemon",
	Long:    `Starts the HTTP API that serves tasks, representatives, customers, and live change events.`,
	RunE:    runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
	serveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every request")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	if listenAddr == "" {
		listenAddr = cfg.Listen
	}
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	logger.Info("opening database", "db", dbPath)

	s, err := store.New(dbPath)
	if err != nil {
		return err
	}

	hub := adminapi.NewHub(time.Duration(cfg.EventPingSec)*time.Second, logger)
	service := adminapi.NewService(s, audit.NewRecorder(s), hub, logger)
	server := adminapi.NewServer(service, s, hub, adminapi.Options{
		Addr:   listenAddr,
		Token:  cfg.AdminToken,
		Logger: logger,
	})
	if cfg.AdminToken == "" {
		logger.Warn("admin token not set, representative and customer endpoints are open")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", "err", err)
			s.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "err", err)
	}
	if err := s.Close(); err != nil {
		logger.Error("database close", "err", err)
	}
	logger.Info("shutdown complete")
	return nil
}
