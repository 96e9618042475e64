// Package app builds the transfer service and its backing resources from config.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/stock-transfer/internal/adapter/metrics"
	"github.com/rl1809/stock-transfer/internal/adapter/storage"
	"github.com/rl1809/stock-transfer/internal/adapter/stream"
	"github.com/rl1809/stock-transfer/internal/config"
	"github.com/rl1809/stock-transfer/internal/core/command"
	"github.com/rl1809/stock-transfer/internal/core/domain"
	"github.com/rl1809/stock-transfer/internal/core/service"
	"github.com/rl1809/stock-transfer/internal/port"
)

const (
	warehouseName = "warehouse"
	shopName      = "shop"
)

// App holds the singletons of one stockctl process.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	vocab   command.Vocabulary
	svc     *service.TransferService
	journal port.JournalRepository
	reader  port.JournalReader
	redis   *redis.Client
}

// New wires containers, journal and metrics into a TransferService and seeds
// the warehouse. reg may be nil to skip Prometheus metrics.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	vocab, err := command.VocabularyFor(cfg.Language)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger, vocab: vocab}

	warehouse, shop, err := a.setupContainers(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.setupJournal(ctx); err != nil {
		a.Close()
		return nil, err
	}

	opts := []service.Option{service.WithLogger(logger)}
	if a.journal != nil {
		opts = append(opts, service.WithJournal(a.journal))
	}
	if reg != nil {
		m, err := metrics.NewPrometheus(reg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, service.WithMetrics(m))
	}

	a.svc = service.NewTransferService(command.NewValidator(vocab), warehouse, shop, opts...)
	return a, nil
}

func (a *App) setupContainers(ctx context.Context) (warehouse, shop domain.Container, err error) {
	switch a.cfg.Backend {
	case config.BackendRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		a.logger.Info("redis_connected", zap.String("addr", a.cfg.Redis.Addr))

		w := storage.NewRedisContainer(a.redis, a.cfg.Redis.Namespace, warehouseName, a.cfg.Warehouse.Capacity)
		s := storage.NewRedisContainer(a.redis, a.cfg.Redis.Namespace, shopName, a.cfg.Shop.Capacity)
		// Stock does not outlive the process.
		for _, c := range []*storage.RedisContainer{w, s} {
			if err := c.Reset(ctx); err != nil {
				return nil, nil, fmt.Errorf("reset %s: %w", c.Key(), err)
			}
		}
		warehouse, shop = w, s
	default:
		warehouse = domain.NewStock(a.cfg.Warehouse.Capacity)
		shop = domain.NewStock(a.cfg.Shop.Capacity)
	}

	for _, item := range a.cfg.Warehouse.Seed {
		if err := warehouse.Add(ctx, item.Product, item.Quantity); err != nil {
			return nil, nil, fmt.Errorf("seed %q: %w", item.Product, err)
		}
	}
	a.logger.Info("warehouse_seeded",
		zap.String("backend", a.cfg.Backend),
		zap.Int("products", len(a.cfg.Warehouse.Seed)),
	)

	return warehouse, domain.NewVarietyLimit(shop, a.cfg.Shop.MaxDistinct), nil
}

func (a *App) setupJournal(ctx context.Context) error {
	switch a.cfg.Journal.Driver {
	case config.JournalSQLite, config.JournalMySQL:
		j, err := storage.OpenSQLJournal(ctx, a.cfg.Journal.Driver, a.cfg.Journal.DSN)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		a.journal, a.reader = j, j
	case config.JournalKafka:
		j, err := stream.NewKafkaJournal(a.cfg.Journal.Brokers, a.cfg.Journal.Topic)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		a.journal = j
	default:
		return nil
	}
	a.logger.Info("journal_opened", zap.String("driver", a.cfg.Journal.Driver))
	return nil
}

func (a *App) Service() *service.TransferService { return a.svc }

func (a *App) Vocabulary() command.Vocabulary { return a.vocab }

func (a *App) Config() *config.Config { return a.cfg }

func (a *App) Logger() *zap.Logger { return a.logger }

// JournalReader is nil unless the journal driver supports reading back.
func (a *App) JournalReader() port.JournalReader { return a.reader }

// Close releases the journal and the redis client.
func (a *App) Close() error {
	var errs []error
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
		a.journal = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
		a.redis = nil
	}
	return errors.Join(errs...)
}
