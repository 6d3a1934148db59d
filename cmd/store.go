package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/waterlab/boundary-cli/internal/model"
	"github.com/waterlab/boundary-cli/internal/store"
)

// sourceContributors reads the loaded source records, excluding the master
// and modeled rows a previous combine run may have stored.
func sourceContributors(ctx context.Context, st store.Store) ([]model.Contributor, error) {
	return st.Contributors(ctx,
		model.SourceSDWIS, model.SourceECHO, model.SourceFRS, model.SourceTIGER,
		model.SourceMHP, model.SourceUCMR, model.SourceLabeled, model.SourceContributed)
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "boundary.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

// withStage opens the store, records the stage in the audit log, and runs fn.
// The stage row is finished with the row count fn reports.
func withStage(cmd *cobra.Command, stage string, fn func(ctx context.Context, st store.Store) (int, error)) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	run, err := st.StartStage(ctx, stage)
	if err != nil {
		return err
	}

	n, err := fn(ctx, st)
	if err != nil {
		_ = st.FinishStage(ctx, run.ID, store.StageFailed, n, err)
		return err
	}
	return st.FinishStage(ctx, run.ID, store.StageComplete, n, nil)
}
