package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iudanet/fitsync/internal/client/app"
	"github.com/iudanet/fitsync/internal/client/iocli"
	"github.com/iudanet/fitsync/internal/client/sync"
	"github.com/iudanet/fitsync/internal/config"
	"github.com/iudanet/fitsync/internal/logger"
)

// annotationNeedsApp помечает команды, которым нужны локальная база и backends
const annotationNeedsApp = "fitsync/needs-app"

type rootOptions struct {
	configPath string
	debug      bool
	jsonOut    bool
}

// session состояние одного запуска: открывается в PersistentPreRunE,
// закрывается после выполнения команды
type session struct {
	io      iocli.IO
	opts    rootOptions
	version string
	app     *app.App
	cli     *Cli
}

// Option настраивает Execute
type Option func(*session)

// WithVersion задает строку для fitsync --version
func WithVersion(version string) Option {
	return func(s *session) { s.version = version }
}

// Execute разбирает args и выполняет команду
func Execute(ctx context.Context, io iocli.IO, args []string, opts ...Option) error {
	s := &session{io: io, version: "dev"}
	for _, opt := range opts {
		opt(s)
	}
	defer s.close()

	root := newRootCommand(s)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:   "fitsync",
		Short: "Offline-first activity tracker with multi-backend sync",
		Long: `fitsync keeps your workouts in a local database and synchronizes them
with one or more remote backends: a shared folder, an S3 bucket or a
fitsync server. Conflicts are resolved by last-writer-wins.`,
		Version:           s.version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: s.open,
	}

	root.SetOut(s.io)
	root.SetErr(s.io)
	root.PersistentFlags().StringVar(&s.opts.configPath, "config", "", "config file (default ~/.fitsync/config.yaml)")
	root.PersistentFlags().BoolVar(&s.opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&s.opts.jsonOut, "json", false, "print machine-readable JSON")

	root.AddCommand(
		newInitCommand(s),
		needsApp(newAddCommand(s)),
		needsApp(newImportCommand(s)),
		needsApp(newUpdateCommand(s)),
		needsApp(newDeleteCommand(s)),
		needsApp(newListCommand(s)),
		needsApp(newShowCommand(s)),
		needsApp(newPendingCommand(s)),
		needsApp(newStatusCommand(s)),
		needsApp(newSyncCommand(s)),
		needsApp(newWatchCommand(s)),
		needsApp(newBackendsCommand(s)),
	)
	return root
}

func needsApp(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationNeedsApp] = "true"
	return cmd
}

func (s *session) open(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[annotationNeedsApp] != "true" {
		return nil
	}

	cfg, err := config.Load(s.opts.configPath)
	if err != nil {
		return err
	}
	if s.opts.debug {
		cfg.Log.Level = "debug"
	}

	a, err := app.New(cmd.Context(), cfg, logger.New(cfg.Log))
	if err != nil {
		return err
	}
	s.app = a

	s.cli = New(s.io, a.Records, a.Sync, cfg.Backends)
	s.cli.jsonOut = s.opts.jsonOut
	s.cli.newWatcher = func(onReport func(*sync.Report)) Runner {
		return a.NewWatcher(onReport)
	}
	return nil
}

func (s *session) close() {
	if s.app != nil {
		_ = s.app.Close()
		s.app = nil
	}
}

// configPath путь к конфигу: --config или ~/.fitsync/config.yaml
func (s *session) configPath() string {
	if s.opts.configPath != "" {
		return s.opts.configPath
	}
	return filepath.Join(config.DefaultDataDir(), "config.yaml")
}

func newInitCommand(s *session) *cobra.Command {
	var (
		force   bool
		encrypt bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(s.io, s.configPath(), force, encrypt)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	cmd.Flags().BoolVar(&encrypt, "encrypt", false, "encrypt the local folder backend with a passphrase")
	return cmd
}

func newAddCommand(s *session) *cobra.Command {
	var (
		in     activityFlags
		doSync bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.cli.runAdd(cmd.Context(), in, doSync)
		},
	}
	in.register(cmd, true)
	cmd.Flags().BoolVar(&doSync, "sync", false, "synchronize right after saving")
	return cmd
}

func newImportCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import activities with samples and laps from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.cli.runImport(cmd.Context(), args[0])
		},
	}
}

func newUpdateCommand(s *session) *cobra.Command {
	var in activityFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := in.patch(cmd)
			if err != nil {
				return err
			}
			return s.cli.runUpdate(cmd.Context(), args[0], patch)
		},
	}
	in.register(cmd, false)
	return cmd
}

func newDeleteCommand(s *session) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an activity (kept as a tombstone until synced)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.cli.runDelete(cmd.Context(), args[0], yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newListCommand(s *session) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.cli.runList(cmd.Context(), all)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include deleted activities")
	return cmd
}

func newShowCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an activity with its details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.cli.runShow(cmd.Context(), args[0])
		},
	}
}

func newPendingCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List activities waiting for synchronization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.cli.runPending(cmd.Context())
		},
	}
}

func newStatusCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show local database and sync status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.cli.runStatus(cmd.Context())
		},
	}
}

func newSyncCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Synchronize with every configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.cli.runSync(cmd.Context())
		},
	}
}

func newWatchCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep synchronizing in the background until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.cli.runWatch(ctx)
		},
	}
}

func newBackendsCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List configured backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.cli.runBackends(cmd.Context())
		},
	}
}
