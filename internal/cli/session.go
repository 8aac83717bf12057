package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldsync/internal/clock"
	"github.com/roach88/fieldsync/internal/config"
	"github.com/roach88/fieldsync/internal/store"
)

// session is the per-command runtime: resolved config, logger, open store
// and the output formatter.
type session struct {
	cfg    config.Config
	store  *store.Store
	clock  clock.Clock
	logger *slog.Logger
	out    *OutputFormatter
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// loadConfig resolves the configuration for opts. An explicit --config must
// exist; the default file is optional.
func loadConfig(opts *RootOptions) (config.Config, error) {
	path, required := opts.ConfigPath, true
	if path == "" {
		path, required = DefaultConfigPath, false
	}
	cfg, err := config.Load(config.Options{Path: path, Required: required})
	if err != nil {
		return config.Config{}, err
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return cfg, nil
}

// newLogger writes text logs to w. --verbose forces Debug, otherwise the
// configured level applies.
func newLogger(w io.Writer, verbose bool, cfg config.Config) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openSession loads config and opens (creating and seeding if needed) the
// database. The caller must Close the session.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, out.FailWith(ErrCodeConfig, ExitCommandError, "failed to load config", err)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose, cfg)

	logger.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database,
		store.WithClock(clk),
		store.WithLogger(logger),
		store.WithPhoneRegion(cfg.PhoneRegion),
	)
	if err != nil {
		return nil, out.FailWith(ErrCodeStorage, ExitCommandError, "failed to open database", err)
	}

	return &session{cfg: cfg, store: st, clock: clk, logger: logger, out: out}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// withSession opens a session, runs fn and closes the session.
func withSession(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := commandContext(cmd)
	defer stop()
	return fn(ctx, s)
}

// commandContext derives a context from the command's context (set by tests)
// that is cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
