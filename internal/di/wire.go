package di

import (
	"context"
	"fmt"
	"time"

	"report_bridge/internal/config"
	"report_bridge/internal/database"
	"report_bridge/internal/domain/query"
	"report_bridge/internal/infrastructure/backend"
	"report_bridge/internal/infrastructure/cache"
	sqlinfra "report_bridge/internal/infrastructure/sql"
	"report_bridge/internal/infrastructure/template"
	"report_bridge/internal/metrics"
	"report_bridge/internal/server"
	"report_bridge/internal/storage"
	"report_bridge/internal/usecase"
	"report_bridge/internal/usecase/repository"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Типы кеша определений
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

const defaultCacheSize = 256

// Store is an LMS store the executor can query and the health check can ping.
type Store interface {
	repository.QueryExecutor
	server.Pinger
	Close() error
}

// Module собирает все зависимости сервиса.
var Module = fx.Options(
	fx.Provide(
		config.Load,
		NewLogger,
		newStore,
		newHistoryDB,
		newHistory,
		newDefinitionCache,
		newReportSource,
		newRecorder,
		newExecutor,
		newCatalog,
		newFileStorage,
		newReportService,
		newServer,
	),
)

// NewLogger создает и настраивает логгер на основе конфигурации
func NewLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
		logger.WithError(err).Warn("Неверный уровень логирования, используется info")
	}
	logger.SetLevel(level)

	switch cfg.Logging.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	return logger
}

// OpenStore connects to the LMS database with the driver named in cfg.
func OpenStore(cfg config.Store) (Store, error) {
	if cfg.Driver == sqlinfra.DriverPgx {
		pool, err := sqlinfra.OpenPgx(cfg.DSN, int32(cfg.MaxOpenConns), cfg.ReadOnly, cfg.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return pool, nil
	}

	db, err := sqlinfra.Open(cfg.Driver, cfg.DSN, sqlinfra.PoolConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, cfg.ReadOnly, cfg.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func newStore(lc fx.Lifecycle, cfg config.Config, logger *logrus.Logger) (Store, error) {
	store, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе LMS: %w", err)
	}
	logger.WithField("driver", cfg.Store.Driver).Info("Подключение к базе LMS установлено")

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

func newHistoryDB(lc fx.Lifecycle, cfg config.Config, logger *logrus.Logger) (*gorm.DB, error) {
	db, err := database.NewDatabase(database.Config{
		Driver: cfg.DB.Driver,
		DSN:    cfg.DB.DSN,
		Debug:  cfg.Server.Debug,
	})
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db, logger); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

func newHistory(db *gorm.DB, logger *logrus.Logger) repository.ExecutionLog {
	return sqlinfra.NewHistoryRepository(db, logger)
}

func newDefinitionCache(lc fx.Lifecycle, cfg config.Config, logger *logrus.Logger) (repository.DefinitionCache, error) {
	switch cfg.Cache.Type {
	case CacheNone, "":
		return nil, nil
	case CacheMemory:
		size := cfg.Cache.Size
		if size <= 0 {
			size = defaultCacheSize
		}
		return cache.NewMemory(size, cfg.Cache.TTL), nil
	case CacheRedis:
		r, err := cache.NewRedis(cache.RedisConfig{
			Address:   cfg.Cache.Redis.Address,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
		}
		logger.WithField("address", cfg.Cache.Redis.Address).Info("Кеш определений в Redis")
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return r.Close()
			},
		})
		return r, nil
	default:
		return nil, fmt.Errorf("неподдерживаемый тип кеша: %s", cfg.Cache.Type)
	}
}

func newReportSource(cfg config.Config, logger *logrus.Logger) repository.ReportSource {
	return backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.Backend.Timeout, logger)
}

func newCatalog(source repository.ReportSource, defs repository.DefinitionCache, cfg config.Config, logger *logrus.Logger) *usecase.Catalog {
	return usecase.NewCatalog(source, defs, cfg.Cache.TTL, logger)
}

func newRecorder() (*metrics.Recorder, error) {
	return metrics.NewRecorder(nil)
}

func newExecutor(store Store, recorder *metrics.Recorder, cfg config.Config, logger *logrus.Logger) *usecase.TemplateExecutor {
	return usecase.NewTemplateExecutor(store, usecase.ExecutorConfig{
		TablePrefix:     cfg.Executor.TablePrefix,
		Missing:         query.MissingParams(cfg.Executor.MissingParams),
		SingleStatement: cfg.Executor.SingleStatement,
	}, logger).WithObserver(recorder)
}

func newFileStorage(cfg config.Config, logger *logrus.Logger) (repository.FileStorage, error) {
	files, err := storage.NewFromConfig(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	return files, nil
}

func newReportService(
	executor *usecase.TemplateExecutor,
	catalog *usecase.Catalog,
	history repository.ExecutionLog,
	files repository.FileStorage,
	cfg config.Config,
	logger *logrus.Logger,
) *usecase.ReportService {
	return usecase.NewReportService(executor, catalog, history, files, usecase.ServiceConfig{
		ReportLimit:  cfg.Executor.ReportLimit,
		PreviewLimit: cfg.Executor.PreviewLimit,
		Timeout:      cfg.Executor.Timeout,
		PresignTTL:   cfg.Storage.PresignTTL,
	}, logger, template.NewXLSX(), template.NewCSV())
}

func newServer(cfg config.Config, svc *usecase.ReportService, recorder *metrics.Recorder, store Store, logger *logrus.Logger) server.HTTPServer {
	return server.NewServer(cfg, svc, recorder, store, logger)
}
