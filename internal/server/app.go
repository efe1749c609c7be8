// Package server wires storage, services and transports together and runs
// the REST API next to the gRPC health endpoint until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/exersio/internal/logging"
	"github.com/dmitrijs2005/exersio/internal/server/config"
	gs "github.com/dmitrijs2005/exersio/internal/server/grpc"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/exersio/internal/server/rest"
	"github.com/dmitrijs2005/exersio/internal/server/services"
	"golang.org/x/sync/errgroup"
)

type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   runner
	grpc   runner
}

// seams for tests
var (
	openDB                   = repomanager.OpenDB
	newRepoManager           = repomanager.NewPostgresRepositoryManager
	logOutput      io.Writer = os.Stdout
)

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(logOutput, "info")

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := newRepoManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	h := rest.NewHandler(
		services.NewUserService(db, m, c),
		services.NewExerciseService(db, m, c),
		services.NewSessionService(db, m),
		services.NewClubService(db, m),
		logger.With("module", "rest"),
	)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   rest.NewHTTPServer(c.EndpointAddrHTTP, h, logger),
		grpc:   gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db),
	}, nil
}

// Run blocks until ctx is cancelled or one of the servers fails. A failure
// in either server stops the other.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(gctx) })
	g.Go(func() error { return app.grpc.Run(gctx) })

	err := g.Wait()
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close error", "error", cerr)
	}
	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
