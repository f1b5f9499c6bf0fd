package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/adapter/gateway"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/adapter/handler"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/adapter/storage"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/config"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/service"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

// migrator is implemented by stores that own a schema.
type migrator interface {
	Migrate(ctx context.Context) error
}

// engine holds the wired services and everything that must be closed when
// the command finishes.
type engine struct {
	svc     handler.Services
	repo    port.LibraryRepository
	logger  *slog.Logger
	closers []func() error
}

func (e *engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

func openEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	e := &engine{logger: cfg.Log.NewLogger()}

	repo, err := e.openStore(ctx, cfg.Storage)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.repo = repo

	cache, err := e.openCache(ctx, cfg.Redis)
	if err != nil {
		e.Close()
		return nil, err
	}

	gw, err := e.openGateway(cfg.Gateway)
	if err != nil {
		e.Close()
		return nil, err
	}

	fees := service.NewFeeCalculator(repo, nil, e.logger)
	e.svc = handler.Services{
		Catalog:  service.NewCatalogService(repo, e.logger),
		Loans:    service.NewLoanService(repo, cache, nil, e.logger),
		Fees:     fees,
		Status:   service.NewStatusReporter(repo, fees, e.logger),
		Payments: service.NewPaymentProcessor(fees, repo, gw, cache, e.logger),
	}
	return e, nil
}

func (e *engine) openStore(ctx context.Context, sc config.StorageConfig) (port.LibraryRepository, error) {
	switch sc.Driver {
	case "mysql":
		db, err := storage.OpenMySQL(ctx, sc.DSN)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(sc.MaxOpenConns)
		db.SetMaxIdleConns(sc.MaxIdleConns)
		db.SetConnMaxLifetime(sc.ConnLifetime)
		e.closers = append(e.closers, db.Close)
		e.logger.Info("connected to mysql")
		return storage.NewMySQLAdapter(db), nil

	case "postgres":
		db, err := storage.OpenPostgres(ctx, sc.DSN)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(sc.MaxOpenConns)
		db.SetMaxIdleConns(sc.MaxIdleConns)
		db.SetConnMaxLifetime(sc.ConnLifetime)
		e.closers = append(e.closers, db.Close)
		e.logger.Info("connected to postgres")
		return storage.NewPostgresAdapter(db), nil

	default:
		e.logger.Info("using in-memory store")
		return storage.NewMemoryAdapter(), nil
	}
}

func (e *engine) openCache(ctx context.Context, rc config.RedisConfig) (port.CacheRepository, error) {
	if !rc.Enabled {
		return storage.NewMemoryCache(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
		PoolSize: rc.PoolSize,
	})
	e.closers = append(e.closers, rdb.Close)

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	e.logger.Info("connected to redis", "addr", rc.Addr)
	return storage.NewRedisAdapter(rdb), nil
}

func (e *engine) openGateway(gc config.GatewayConfig) (port.PaymentGateway, error) {
	if gc.Mode != "grpc" {
		return gateway.NewSimulated(), nil
	}

	conn, err := gateway.Dial(gc.Addr)
	if err != nil {
		return nil, fmt.Errorf("dial payment gateway: %w", err)
	}
	e.closers = append(e.closers, conn.Close)
	e.logger.Info("using grpc payment gateway", "addr", gc.Addr)
	return gateway.NewGRPCGateway(conn, gc.Timeout), nil
}

// migrate applies the store schema, if the store has one.
func (e *engine) migrate(ctx context.Context) (bool, error) {
	m, ok := e.repo.(migrator)
	if !ok {
		return false, nil
	}
	return true, m.Migrate(ctx)
}
