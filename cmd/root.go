package main

import (
	"context"
	"fmt"

	"member-dedup/config"
	"member-dedup/internal/metrics"
	"member-dedup/internal/repository"
	"member-dedup/internal/repository/factory"
	"member-dedup/internal/usecase"
	"member-dedup/internal/usecase/domain"
	"member-dedup/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds the dependencies shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	registry *prometheus.Registry
	metrics  *metrics.DedupMetrics
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "member-dedup",
		Short:         "Member duplicate detection and merge service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newScanCommand(a))
	rootCmd.AddCommand(newMigrateCommand(a))

	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	m, err := metrics.NewDedupMetrics(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	a.cfg = cfg
	a.log = log
	a.registry = registry
	a.metrics = m
	return nil
}

// openRepository builds and starts the configured backend. The caller stops it.
func (a *app) openRepository(ctx context.Context) (repository.Repository, error) {
	repo, err := factory.New(ctx, a.cfg.Repository.Backend, a.log, a.cfg)
	if err != nil {
		a.log.Errorw("repository initialization error", "error", err)
		return nil, err
	}
	if err := repo.OnStart(ctx); err != nil {
		a.log.Errorw("repository start error", "backend", a.cfg.Repository.Backend, "error", err)
		return nil, err
	}
	return repo, nil
}

func (a *app) newUsecase(ctx context.Context, repo repository.Repository) usecase.InterfaceUsecase {
	return usecase.New(a.log, ctx, repo, a.metrics, a.cfg.HTTP.RequestTimeout, domain.Options{
		DefaultThreshold: a.cfg.Dedup.DefaultThreshold,
		UndoWindow:       a.cfg.Dedup.UndoWindow,
		ScanWorkers:      a.cfg.Dedup.ScanWorkers,
		ScanTimeout:      a.cfg.Dedup.ScanTimeout,
	})
}
