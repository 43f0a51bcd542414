package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/foxseedlab/sirius/internal/config"
	"github.com/foxseedlab/sirius/internal/metrics"
	"github.com/foxseedlab/sirius/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"
)

const databaseInitTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (repository.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		reg := do.MustInvoke[prometheus.Registerer](i)
		ctx, cancel := context.WithTimeout(context.Background(), databaseInitTimeout)
		defer cancel()

		p, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := RunMigration(ctx, p); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to run migration: %w", err)
		}
		if err := metrics.RegisterPoolStats(reg, p); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to register pool metrics: %w", err)
		}
		return NewPostgresRepository(p), nil
	})
}
