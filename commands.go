package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bindu232003/expense-tracker-api/config"
	"github.com/Bindu232003/expense-tracker-api/database"
	"github.com/Bindu232003/expense-tracker-api/eventlogger"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var rootCmd = &cobra.Command{
	Use:           "expense-tracker",
	Short:         "Personal expense tracker with a consistent running balance",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  serveCmdF,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE:  migrateCmdF,
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Inspect or initialize the running balance",
}

var balanceInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the balance record if it does not exist",
	RunE:  balanceInitCmdF,
}

var balanceShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the balance record",
	RunE:  balanceShowCmdF,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List audit events of one type",
	RunE:  eventsCmdF,
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "Environment file to load before reading configuration.")
	eventsCmd.Flags().String("type", eventlogger.TypeExpenseRecorded, "Event type to list.")

	balanceCmd.AddCommand(balanceInitCmd, balanceShowCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, balanceCmd, eventsCmd)
	rootCmd.RunE = serveCmdF
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(cfg))
	return cfg, nil
}

func serveCmdF(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.tracker.InitializeBalance(ctx)
	if err != nil {
		return err
	}
	slog.Info("balance checked", "created", created)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func migrateCmdF(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.StoreBackend != config.BackendPostgres {
		return fmt.Errorf("migrate requires the %s backend, got %s", config.BackendPostgres, cfg.StoreBackend)
	}

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		return err
	}
	slog.Info("migrations applied")
	return nil
}

func balanceInitCmdF(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.tracker.InitializeBalance(cmd.Context())
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintln(cmd.OutOrStdout(), "Initial balance record created.")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Balance record already exists.")
	}
	return nil
}

func balanceShowCmdF(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	snapshot, err := a.register.Snapshot(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd, snapshot)
}

func eventsCmdF(cmd *cobra.Command, args []string) error {
	eventType, err := cmd.Flags().GetString("type")
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	events, err := a.events.GetByType(cmd.Context(), eventType)
	if err != nil {
		return err
	}
	return printJSON(cmd, events)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
