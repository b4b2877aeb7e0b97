// Package command содержит команды fitsync-server: serve, token, users.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/iudanet/fitsync/internal/config"
	"github.com/iudanet/fitsync/internal/logger"
	"github.com/iudanet/fitsync/internal/server"
	"github.com/iudanet/fitsync/internal/server/handlers"
	"github.com/iudanet/fitsync/internal/server/metrics"
	"github.com/iudanet/fitsync/internal/server/storage/sqlite"
	"github.com/iudanet/fitsync/internal/validation"
	"github.com/iudanet/fitsync/pkg/api"
)

// Execute разбирает args и выполняет команду. Вывод команд идет в out.
func Execute(ctx context.Context, out io.Writer, args []string, version string) error {
	root := newRootCommand(out, version)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand(out io.Writer, version string) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "fitsync-server",
		Short:         "Sync server for fitsync clients",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to server config file (yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		newTokenCommand(out, &configPath),
		&cobra.Command{
			Use:   "users",
			Short: "List known users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runUsers(cmd.Context(), out, configPath)
			},
		},
	)

	return root
}

func newTokenCommand(out io.Writer, configPath *string) *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		Long:  "Issue an access token for a user. The user is registered if it does not exist yet.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToken(cmd.Context(), out, *configPath, userID, ttl)
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id (letters, digits, '-' and '_')")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: token_ttl from config)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.LoadServer(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, store, metrics.New(reg), log)
	log.Info("starting fitsync-server", "env", cfg.Env, "db", cfg.DBPath)
	return srv.Run(ctx)
}

func runToken(ctx context.Context, out io.Writer, configPath, userID string, ttl time.Duration) error {
	if err := validation.ValidateID(userID); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}

	cfg, err := config.LoadServer(configPath)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = cfg.TokenTTL
	}

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	if err := store.EnsureUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	token, expiresIn, err := handlers.GenerateAccessToken(handlers.JWTConfig{
		Secret:         []byte(cfg.JWTSecret),
		AccessTokenTTL: ttl,
	}, userID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(api.TokenResponse{AccessToken: token, UserID: userID, ExpiresIn: expiresIn})
}

func runUsers(ctx context.Context, out io.Writer, configPath string) error {
	cfg, err := config.LoadServer(configPath)
	if err != nil {
		return err
	}

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	users, err := store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		_, err := fmt.Fprintln(out, "No users yet.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tCREATED\tLAST SYNC\tITEMS")
	for _, u := range users {
		lastSync := "never"
		if !u.LastSyncAt.IsZero() {
			lastSync = u.LastSyncAt.Local().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", u.ID, u.CreatedAt.Local().Format(time.RFC3339), lastSync, u.Items)
	}
	return tw.Flush()
}
