package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"gw-price-converter/internal/api/handlers"
	"gw-price-converter/internal/api/middlew"
	"gw-price-converter/internal/cache"
	"gw-price-converter/internal/config"
	"gw-price-converter/internal/db"
	"gw-price-converter/internal/fallback"
	"gw-price-converter/internal/format"
	"gw-price-converter/internal/kafka"
	"gw-price-converter/internal/provider"
	"gw-price-converter/internal/server"
	"gw-price-converter/internal/service"
	"gw-price-converter/internal/storage/postgres"
	"gw-price-converter/pkg/logger"
)

type App struct {
	log               *slog.Logger
	server            *server.Server
	pool              *pgxpool.Pool
	redisClient       *redis.Client
	logFile           *os.File
	cfg               *config.Config
	rateCache         cache.RateCache
	fallbackTable     *fallback.Table
	kafkaProducer     kafka.Producer
	conversionService *service.ConversionService
}

func NewApp() (*App, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}

	loggerWithFile, err := logger.NewLoggerWithFile(cfg.LogFile, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	log := loggerWithFile.Logger
	log.Info("инициализация приложения")
	log.Info("конфигурация загружена",
		slog.String("port", cfg.HTTPPort),
		slog.String("cache_backend", cfg.Cache.Backend),
		slog.Duration("cache_ttl", cfg.Cache.TTL))

	a := &App{
		log:     log,
		logFile: loggerWithFile.LogFile,
		cfg:     cfg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.initCache(ctx); err != nil {
		a.closeResources()
		return nil, err
	}

	if err := a.initFallback(ctx); err != nil {
		a.closeResources()
		return nil, err
	}

	if cfg.Kafka.Enabled {
		log.Info("инициализация kafka producer", slog.Any("brokers", cfg.Kafka.Brokers))
		a.kafkaProducer, err = kafka.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("ошибка инициализации kafka: %w", err)
		}
	} else {
		log.Info("kafka отключен в конфигурации")
		a.kafkaProducer = kafka.NewNoOpProducer(log)
	}

	srv := server.NewServer(cfg.HTTPPort)
	log.Info("сервер инициализирован", slog.String("port", cfg.HTTPPort))
	srv.Router.Use(middleware.RequestID)
	srv.Router.Use(middlew.WithLogger(log))
	srv.Router.Use(middleware.RealIP)
	srv.Router.Use(middlew.AccessLog)
	srv.Router.Use(middleware.Recoverer)
	a.server = srv

	return a, nil
}

func (a *App) initCache(ctx context.Context) error {
	switch a.cfg.Cache.Backend {
	case "redis":
		a.log.Info("подключение к redis", slog.String("addr", a.cfg.Redis.Addr))
		client, err := cache.NewRedisClient(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("ошибка подключения к redis: %w", err)
		}
		a.redisClient = client
		a.rateCache = cache.NewRedisCache(client, a.cfg.Redis.Prefix, a.log)
	default:
		a.rateCache = cache.NewMemoryCache()
	}
	a.log.Info("кэш курсов инициализирован", slog.String("backend", a.cfg.Cache.Backend))
	return nil
}

// initFallback builds the static table and, when enabled, applies the
// overrides stored in Postgres on top of it.
func (a *App) initFallback(ctx context.Context) error {
	a.fallbackTable = fallback.NewDefaultTable()

	if !a.cfg.Fallback.DBEnabled {
		return nil
	}

	a.log.Info("выполнение миграций базы данных")
	if err := db.RunMigrations(a.cfg.DB.MigrationURL(), "migrations"); err != nil {
		return fmt.Errorf("ошибка выполнения миграций: %w", err)
	}
	a.log.Info("миграции успешно применены")

	pool, err := db.NewPool(ctx, a.cfg.DB.DSN(), db.DefaultPoolConfig(), a.log)
	if err != nil {
		return fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}
	a.pool = pool
	a.log.Info("подключение к базе данных установлено")

	overrides, err := postgres.NewFallbackRepository(pool).ListRates(ctx)
	if err != nil {
		return fmt.Errorf("не удалось загрузить резервные курсы: %w", err)
	}
	a.fallbackTable = a.fallbackTable.Merge(overrides)
	a.log.Info("резервные курсы загружены из базы",
		slog.Int("overrides", len(overrides)),
		slog.Int("total", a.fallbackTable.Len()))

	return nil
}

func (a *App) BuildConversionLayer() error {
	if a.rateCache == nil || a.fallbackTable == nil {
		err := errors.New("rate cache or fallback table not initialized")
		a.log.Error(err.Error())
		return err
	}
	if a.kafkaProducer == nil {
		err := errors.New("kafkaProducer not initialized")
		a.log.Error(err.Error())
		return err
	}

	rates := a.cfg.Rates

	a.conversionService = service.NewConversionService(
		provider.NewPrimaryProvider(rates.PrimaryURL, rates.ProviderTimeout, a.log),
		provider.NewBackupProvider(rates.BackupURL, rates.ProviderTimeout, a.log),
		a.rateCache,
		a.fallbackTable,
		format.NewFormatter(),
		a.kafkaProducer,
		service.ConversionOptions{
			CacheTTL:          a.cfg.Cache.TTL,
			IncludeUnresolved: rates.IncludeUnresolved,
			EventWorkers:      a.cfg.Kafka.Workers,
		},
		a.log,
	)

	conversionHandler := handlers.NewConversionHandler(a.conversionService, rates.DefaultBase, rates.DefaultTargets)
	handlers.RegisterRoutes(a.server.Router, conversionHandler)

	a.log.Info("слой 'conversion' собран и маршруты зарегистрированы")
	return nil
}

func (a *App) Run() error {
	a.log.Info("сервер запускается", slog.String("addr", a.server.Addr()))

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("ошибка запуска сервера: %w", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case runErr = <-serverErr:
	case sig := <-shutdownChan:
		a.log.Info("получен сигнал завершения", slog.String("signal", sig.String()))
	}

	a.log.Info("приложение останавливается")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("ошибка при остановке http сервера", slog.String("error", err.Error()))
	}

	if a.conversionService != nil {
		a.log.Info("остановка conversion service")
		if err := a.conversionService.Shutdown(ctx); err != nil {
			a.log.Error("ошибка при остановке conversion service", slog.String("error", err.Error()))
		}
	}

	a.closeResources()
	return runErr
}

func (a *App) closeResources() {
	if a.kafkaProducer != nil {
		if err := a.kafkaProducer.Close(); err != nil {
			a.log.Error("ошибка при закрытии kafka producer", slog.String("error", err.Error()))
		}
	}

	if a.redisClient != nil {
		a.log.Info("закрытие соединения с redis")
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("ошибка при закрытии redis", slog.String("error", err.Error()))
		}
	}

	if a.pool != nil {
		a.log.Info("закрытие соединения с базой данных")
		a.pool.Close()
	}

	a.log.Info("приложение остановлено")

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			a.log.Error("ошибка при закрытии файла логов", slog.String("error", err.Error()))
		}
	}
}
