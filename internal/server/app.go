// Package server wires the store and identity service: database,
// migrations, change broker, gRPC endpoint and the ops endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/pagewatch/internal/logging"
	"github.com/dmitrijs2005/pagewatch/internal/server/broker"
	"github.com/dmitrijs2005/pagewatch/internal/server/config"
	"github.com/dmitrijs2005/pagewatch/internal/server/ops"
	"github.com/dmitrijs2005/pagewatch/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pagewatch/internal/server/services"

	gs "github.com/dmitrijs2005/pagewatch/internal/server/grpc"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	broker          *broker.Postgres
	metrics         *ops.Metrics
	identityService *services.IdentityService
	monitorService  *services.MonitorService
	exportService   *services.ExportService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{Kind: logging.Kind(c.Logger), Level: c.LogLevel, Out: os.Stdout})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	metrics := ops.NewMetrics()
	b := broker.NewPostgres(c.DatabaseDSN, logger)

	ms := services.NewMonitorService(db, rm, b, c.HistoryDepth, logger)
	ms.SetObserver(metrics)

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		broker:          b,
		metrics:         metrics,
		identityService: services.NewIdentityService(db, rm, c),
		monitorService:  ms,
		exportService:   services.NewExportService(ms, c, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runComponent runs fn and cancels the whole app if it fails.
func (app *App) runComponent(ctx context.Context, cancelFunc context.CancelFunc, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil && ctx.Err() == nil {
		app.logger.Error(ctx, "component failed", "component", name, "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	grpcServer := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger,
		app.identityService, app.monitorService, app.exportService, app.metrics)
	opsServer := ops.NewServer(app.config.EndpointAddrOps, ops.NewRouter(app.db, app.metrics), app.logger)

	components := map[string]func(context.Context) error{
		"broker": app.broker.Run,
		"grpc":   grpcServer.Run,
		"ops":    opsServer.Run,
	}

	var wg sync.WaitGroup
	for name, fn := range components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.runComponent(ctx, cancelFunc, name, fn)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "app stopped")
}
