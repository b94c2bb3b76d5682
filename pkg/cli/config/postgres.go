package config

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/repository"
	"github.com/wardops-lab/lifeline/pkg/utils/logging"
	"github.com/wardops-lab/lifeline/pkg/utils/safe"
)

// Postgres selects the persistence backend. Without a DSN the service runs
// on the in-memory repository, which loses state on restart and is only
// meant for development and drills.
type Postgres struct {
	dsn string
}

func (x *Postgres) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "postgres-dsn",
			Usage:       "PostgreSQL DSN (empty for in-memory repository)",
			Category:    "Database",
			Sources:     cli.EnvVars("LIFELINE_POSTGRES_DSN"),
			Destination: &x.dsn,
		},
	}
}

func (x Postgres) LogValue() slog.Value {
	configured := "(in-memory)"
	if x.dsn != "" {
		configured = "(configured)"
	}
	return slog.GroupValue(slog.String("dsn", configured))
}

func (x *Postgres) Configure(ctx context.Context) (interfaces.Repository, func(), error) {
	if x.dsn == "" {
		logging.From(ctx).Warn("no PostgreSQL DSN, alerts will not survive a restart")
		return repository.NewMemory(), func() {}, nil
	}

	repo, err := repository.NewPostgres(ctx, x.dsn)
	if err != nil {
		return nil, func() {}, err
	}
	return repo, func() { safe.Close(ctx, repo) }, nil
}
