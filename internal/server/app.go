// Package server initializes and runs the FamLedger application server.
// It wires configuration, storage, services and the HTTP transport, and
// handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"

	"github.com/ddanilenko/famledger/internal/logging"
	"github.com/ddanilenko/famledger/internal/server/config"
	"github.com/ddanilenko/famledger/internal/server/httpapi"
	"github.com/ddanilenko/famledger/internal/server/repositories/repomanager"
	"github.com/ddanilenko/famledger/internal/server/services"
	"github.com/ddanilenko/famledger/internal/server/sync"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	userService := services.NewUserService(db, rm, c)
	syncService := sync.NewService(rm.UnitOfWork(db), logger, c.SyncTimeout)

	httpServer := httpapi.NewServer(c.EndpointAddr, logger, userService, syncService, c.SecretKey)

	return &App{config: c, logger: logger, db: db, http: httpServer}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg gosync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err)
	}
}
