package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"saldo/internal/analysis"
	"saldo/internal/backend"
	"saldo/internal/cli"
	"saldo/internal/config"
	"saldo/internal/log"
	"saldo/internal/session"
	"saldo/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()

	level, _ := cfg.Level()
	root := cli.SetupLogger(level)
	logger := log.WithComponent(root, log.ComponentApp)

	logger.Info("Starting saldo-worker",
		"backend", cfg.DataBackend,
		"materialize_interval", cfg.MaterializeInterval,
		"trailing_months", cfg.TrailingMonths)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, cfg, root); err != nil {
		logger.Error("saldo-worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("saldo-worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, root *slog.Logger) error {
	logger := log.WithComponent(root, log.ComponentApp)

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	res, err := backend.NewFactory(log.WithComponent(root, log.ComponentBackend)).CreateBackend(ctx, bc)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", "error", err)
		}
	}()

	saver := worker.NewSaveWorker(res.Gateway, res.Notifier, log.WithComponent(root, log.ComponentWorker))
	sess := session.New(res.Gateway, saver, session.Options{
		LoadTimeout:    cfg.LoadTimeout,
		TrailingMonths: cfg.TrailingMonths,
		Logger:         log.WithComponent(root, log.ComponentSession),
	})

	if err := saver.Start(ctx); err != nil {
		return err
	}

	if err := sess.Open(ctx); err != nil {
		logger.Warn("Continuing with empty state", "backend", cfg.DataBackend, "error", err)
	}
	logSummary(ctx, logger, sess)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(cfg.MaterializeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				created, err := sess.Materialize(gctx)
				if err != nil {
					return err
				}
				if created > 0 {
					logger.InfoContext(gctx, "Periodic materialization complete", log.FieldCreated, created)
					logSummary(gctx, logger, sess)
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		stopCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		logger.Info("Shutting down save worker...")
		return saver.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func logSummary(ctx context.Context, logger *slog.Logger, sess *session.Session) {
	r := sess.Analysis()
	logger.InfoContext(ctx, "Month summary",
		log.FieldMonth, sess.State().Filter.String(),
		"income", analysis.FormatBRL(r.Income),
		"expenses", analysis.FormatBRL(r.Expenses),
		"forecast", analysis.FormatBRL(r.ForecastedBalance),
		"upcoming_bills", len(r.UpcomingBills),
		"suggestions", len(analysis.Suggestions(r.Totals)))
}
