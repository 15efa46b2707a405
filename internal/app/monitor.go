package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gw-price-converter/internal/config"
	"gw-price-converter/internal/kafka"
	"gw-price-converter/internal/monitor"
	"gw-price-converter/pkg/logger"
)

// MonitorApp consumes the converter's rate events and reports prolonged
// fallback usage.
type MonitorApp struct {
	log      *slog.Logger
	logFile  *os.File
	cfg      *config.Config
	consumer *kafka.Consumer
	monitor  *monitor.DegradationMonitor
}

func NewMonitorApp() (*MonitorApp, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	loggerWithFile, err := logger.NewLoggerWithFile(cfg.Monitor.LogFile, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	log := loggerWithFile.Logger

	log.Info("инициализация монитора курсов")
	log.Info("конфигурация загружена",
		slog.String("kafka_topic", cfg.Kafka.Topic),
		slog.String("group_id", cfg.Kafka.GroupID),
		slog.Int("alert_after", cfg.Monitor.AlertAfter))

	degradation := monitor.NewDegradationMonitor(cfg.Monitor.AlertAfter, log)

	log.Info("инициализация kafka consumer")
	consumer, err := kafka.NewConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.GroupID,
		cfg.Kafka.Topic,
		cfg.Kafka.Workers,
		degradation,
		log,
	)
	if err != nil {
		_ = loggerWithFile.LogFile.Close()
		return nil, fmt.Errorf("ошибка создания kafka consumer: %w", err)
	}

	return &MonitorApp{
		log:      log,
		logFile:  loggerWithFile.LogFile,
		cfg:      cfg,
		consumer: consumer,
		monitor:  degradation,
	}, nil
}

func (a *MonitorApp) Run() error {
	a.log.Info("монитор запускается")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.consumer.Start(ctx); err != nil {
		return fmt.Errorf("ошибка запуска consumer: %w", err)
	}

	a.log.Info("kafka consumer запущен, ожидание событий...")

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-shutdownChan
	a.log.Info("получен сигнал завершения", slog.String("signal", sig.String()))

	cancel()

	ctxClose, cancelClose := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelClose()

	if err := a.consumer.Close(ctxClose); err != nil {
		a.log.Error("ошибка при закрытии kafka consumer", slog.String("error", err.Error()))
	}

	for _, st := range a.monitor.Degraded() {
		a.log.Warn("на момент остановки базовая валюта на резервных курсах",
			slog.String("base", st.Base),
			slog.Time("since", st.Since),
			slog.Int("degraded_events", st.Streak))
	}

	a.log.Info("монитор остановлен корректно")

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			a.log.Error("ошибка при закрытии файла логов", slog.String("error", err.Error()))
		}
	}
	return nil
}
