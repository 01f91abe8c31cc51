package cli

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/rollbook/internal/config"
	"github.com/roach88/rollbook/internal/ledger"
	"github.com/roach88/rollbook/internal/store"
)

// app is what a ledger command runs against: the loaded ledger, the store
// behind it, and the output streams.
type app struct {
	ledger *ledger.Ledger
	store  io.Closer
	out    *OutputFormatter
	log    *slog.Logger
	styles styles

	// query is the filter last given to list; mutation output applies it.
	query string
}

// Close releases the store.
func (a *app) Close() error {
	return a.store.Close()
}

// newFormatter builds the formatter for a command's streams.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openApp loads configuration, opens the configured store, loads the ledger
// and applies --as. The caller must Close the returned app.
func openApp(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*app, error) {
	out := newFormatter(opts, cmd)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_ = out.Error("CONFIG_ERROR", err.Error(), nil)
		return nil, reportedError(ExitCommandError, "failed to load config", err)
	}

	logger := NewLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr())
	logger.Debug("config loaded",
		slog.String("backend", cfg.Storage.Backend),
		slog.String("path", cfg.Storage.Path),
	)

	st, closer, err := openStore(cfg.Storage, logger)
	if err != nil {
		_ = out.Error("STORE_ERROR", err.Error(), nil)
		return nil, reportedError(ExitCommandError, "failed to open store", err)
	}

	l, err := ledger.Open(ctx, st, ledger.WithLogger(logger))
	if err != nil {
		closer.Close()
		_ = out.Error("STORE_ERROR", err.Error(), nil)
		return nil, reportedError(ExitCommandError, "failed to load records", err)
	}

	if opts.As != "" {
		if err := l.SetIdentity(opts.As); err != nil {
			closer.Close()
			return nil, out.LedgerError(err)
		}
	}

	return &app{
		ledger: l,
		store:  closer,
		out:    out,
		log:    logger,
		styles: stylesFor(cmd.OutOrStdout()),
	}, nil
}

// storeCloser is a ledger.Store that holds an open resource.
type storeCloser interface {
	ledger.Store
	io.Closer
}

// openStore opens the backend named by cfg.
func openStore(cfg config.StorageConfig, logger *slog.Logger) (ledger.Store, io.Closer, error) {
	var (
		st  storeCloser
		err error
	)
	switch cfg.Backend {
	case config.BackendSQLite:
		st, err = store.OpenSQLite(cfg.Path)
	case config.BackendBadger:
		bc := store.DefaultBadgerConfig(cfg.Path)
		bc.Logger = logger
		st, err = store.OpenBadger(bc)
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, nil, err
	}
	return st, st, nil
}

// mutated prints what every mutation shows: the current filtered table and
// the identity banner. JSON output carries the changed record, the collection
// and the identity.
func (a *app) mutated(changed *ledger.Record) error {
	records := collect(a.ledger.Filter(a.query))
	if a.out.Format == "json" {
		return a.out.Success(mutationResult{
			Record:   changed,
			Records:  records,
			Identity: a.ledger.Identity(),
		})
	}
	printRecords(a.out.Writer, records, a.styles)
	fmt.Fprintln(a.out.Writer, a.styles.banner.Render(identityBanner(a.ledger.Identity())))
	return nil
}

// mutationResult is the JSON payload after a mutation.
type mutationResult struct {
	Record   *ledger.Record  `json:"record,omitempty"`
	Records  []ledger.Record `json:"records"`
	Identity string          `json:"identity"`
}

// collect drains seq into a non-nil slice.
func collect(seq iter.Seq[ledger.Record]) []ledger.Record {
	out := slices.Collect(seq)
	if out == nil {
		out = []ledger.Record{}
	}
	return out
}
