package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"report_bridge/internal/config"
	"report_bridge/internal/di"
	"report_bridge/internal/server"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Поставщики зависимостей
		di.Module,

		// Хуки жизненного цикла
		fx.Invoke(registerLifecycleHooks),
	)

	// Запуск приложения с остановкой
	runWithGracefulShutdown(app)
}

// registerLifecycleHooks настраивает хуки жизненного цикла приложения
func registerLifecycleHooks(
	srv server.HTTPServer,
	cfg config.Config,
	logger *logrus.Logger,
	lc fx.Lifecycle,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.WithField("config", cfg.String()).Info("Запуск сервиса отчетов")
			go func() {
				if err := srv.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.WithError(err).Error("Не удалось запустить HTTP сервер")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Завершение работы HTTP сервера")
			return srv.Shutdown(ctx)
		},
	})
}

// runWithGracefulShutdown обрабатывает жизненный цикл приложения с обработкой сигналов
func runWithGracefulShutdown(app *fx.App) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	startCtx, startCancel := context.WithTimeout(ctx, 15*time.Second)
	defer startCancel()

	if err := app.Start(startCtx); err != nil {
		logrus.WithError(err).Fatal("Не удалось запустить приложение")
	}

	<-quit
	logrus.Info("Получен сигнал завершения работы")

	// Грациозное завершение с таймаутом
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		logrus.WithError(err).Error("Ошибка при завершении работы")
		os.Exit(1)
	}

	logrus.Info("Сервис отчетов остановлен корректно")
}
