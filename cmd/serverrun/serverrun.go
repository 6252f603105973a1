package serverrun

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"golang.org/x/sync/errgroup"

	"github.com/the-dev-tools/orderedmodel/internal/admin"
	"github.com/the-dev-tools/orderedmodel/internal/api"
	"github.com/the-dev-tools/orderedmodel/internal/api/middleware/mwauth"
	"github.com/the-dev-tools/orderedmodel/internal/api/middleware/mwcodec"
	"github.com/the-dev-tools/orderedmodel/internal/api/middleware/mwcompress"
	"github.com/the-dev-tools/orderedmodel/internal/api/rhealth"
	"github.com/the-dev-tools/orderedmodel/internal/api/rorder"
	"github.com/the-dev-tools/orderedmodel/internal/config"
	"github.com/the-dev-tools/orderedmodel/internal/migrations"
	"github.com/the-dev-tools/orderedmodel/pkg/db"
	"github.com/the-dev-tools/orderedmodel/pkg/db/sqlitelocal"
	"github.com/the-dev-tools/orderedmodel/pkg/db/sqlitemem"
	"github.com/the-dev-tools/orderedmodel/pkg/service/sranked"
)

// Run loads the config from the environment and serves until SIGINT or SIGTERM.
func Run() error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return RunWithConfig(ctx, cfg, logger)
}

// RunWithConfig opens the database, applies migrations and serves every
// service until ctx is cancelled.
func RunWithConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	models, err := config.LoadModels(cfg.ModelsFile)
	if err != nil {
		return err
	}

	currentDB, dbCloseFunc, err := OpenDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer dbCloseFunc()

	if err := migrations.Run(ctx, currentDB, migrations.Config{}, logger); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	registry, err := sranked.NewRegistry(currentDB, models, logger)
	if err != nil {
		return err
	}
	VerifyRanks(ctx, registry, logger)

	services, err := BuildServices(currentDB, registry, cfg, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.ListenServices(gctx, services, api.ServerConfig{
			Mode:            cfg.ServerMode,
			Port:            cfg.Port,
			SocketPath:      cfg.SocketPath,
			CORSOrigins:     cfg.CORSOrigins,
			ShutdownTimeout: cfg.ShutdownTimeout,
			Logger:          logger,
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// OpenDB opens the database selected by DB_MODE.
func OpenDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, func(), error) {
	switch cfg.DBMode {
	case db.MEMORY:
		logger.Info("Using in-memory database")
		return sqlitemem.NewSQLiteMem(ctx)
	case db.LOCAL:
		conn, file, closeFn, err := sqlitelocal.NewSQLiteLocal(ctx, cfg.DBName, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using local database", "file", file)
		return conn, closeFn, nil
	default:
		return nil, nil, errors.New("invalid db mode")
	}
}

// BuildServices wires the connect services and the admin pages.
func BuildServices(conn *sql.DB, registry *sranked.Registry, cfg *config.Config, logger *slog.Logger) ([]api.Service, error) {
	secret := []byte(cfg.JWTSecret)

	var optionsCompress []connect.HandlerOption
	optionsCompress = append(optionsCompress, mwcompress.HandlerOptions()...)
	optionsCompress = append(optionsCompress, mwcodec.WithJSONCodec())
	optionsAll := append(optionsCompress, mwauth.Interceptors(cfg.AuthMode, secret))

	newServiceManager := NewServiceManager(3)

	healthSrv := rhealth.New(conn, registry.Names())
	if err := newServiceManager.AddService(rhealth.CreateService(healthSrv, optionsCompress)); err != nil {
		return nil, err
	}

	glue := admin.NewGlue(registry, logger)
	orderSrv := rorder.New(glue, logger)
	if err := newServiceManager.AddService(rorder.CreateService(orderSrv, optionsAll)); err != nil {
		return nil, err
	}

	adminHandler := admin.New(glue, logger, mwauth.HTTPMiddleware(cfg.AuthMode, secret))
	if err := newServiceManager.AddService(admin.CreateService(adminHandler), nil); err != nil {
		return nil, err
	}

	return newServiceManager.GetServices(), nil
}

// VerifyRanks logs every model whose stored ranks are not dense. Startup
// continues; the densify migration repairs the known legacy tables.
func VerifyRanks(ctx context.Context, registry *sranked.Registry, logger *slog.Logger) {
	for _, name := range registry.Names() {
		svc, err := registry.Lookup(name)
		if err != nil {
			continue
		}
		if err := svc.VerifyAll(ctx); err != nil {
			logger.WarnContext(ctx, "ranked model is not dense", "model", name, "error", err)
		}
	}
}

type ServiceManager struct {
	s []api.Service
}

// size is not max size, but initial allocation size for the slice
func NewServiceManager(size int) *ServiceManager {
	return &ServiceManager{
		s: make([]api.Service, 0, size),
	}
}

func (sm *ServiceManager) AddService(s *api.Service, e error) error {
	if e != nil {
		return e
	}
	if s == nil {
		return fmt.Errorf("service is nil on %d", len(sm.s))
	}
	sm.s = append(sm.s, *s)
	return nil
}

func (sm *ServiceManager) GetServices() []api.Service {
	return sm.s
}
