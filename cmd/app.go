package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"FaceGuardConsole/internal/auth"
	"FaceGuardConsole/internal/client"
	"FaceGuardConsole/internal/collection"
	"FaceGuardConsole/internal/config"
	"FaceGuardConsole/internal/dashboard"
	"FaceGuardConsole/internal/output"
	"FaceGuardConsole/internal/store"
	"FaceGuardConsole/pkg/errors"
	"FaceGuardConsole/pkg/health"
	"FaceGuardConsole/pkg/logger"
	"FaceGuardConsole/pkg/metrics"
	"FaceGuardConsole/pkg/redis"
)

const serviceName = "faceguard-console"

// App - собранные компоненты консоли на время одной команды
type App struct {
	Config     *config.Config
	Logger     logger.Logger
	Metrics    *metrics.Metrics
	Tokens     store.TokenStore
	Gateway    *client.Gateway
	Session    *auth.Session
	Cameras    *collection.Cameras
	Faces      *collection.Faces
	Detections *collection.Detections
	Dashboard  *dashboard.Aggregator
	Health     *health.Checker
	Renderer   *output.Renderer

	errOut  io.Writer
	closers []func()
}

// NewApp собирает компоненты по конфигурации
func NewApp(ctx context.Context, cfg *config.Config, version string, out, errOut io.Writer) (*App, error) {
	log, err := logger.NewLoggerWithWriter(cfg.Logger.Environment, cfg.Logger.Level, serviceName, errOut)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	app := &App{
		errOut:   errOut,
		Config:   cfg,
		Logger:   log,
		Metrics:  metrics.NewMetrics(serviceName, prometheus.NewRegistry()),
		Renderer: output.NewRenderer(out, format, cfg.Output.Colors && output.DetectColors()),
	}

	shutdownTracing := metrics.InitializeOpenTelemetry(serviceName, version)
	app.closers = append(app.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Debug("ошибка остановки трассировки", logger.Error(err))
		}
	})

	app.Health = health.NewChecker(version, cfg.RequestTimeout())

	tokens, err := app.openTokenStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Tokens = tokens

	app.Gateway = client.NewGateway(cfg.API.BaseURL, tokens,
		client.WithTimeout(cfg.RequestTimeout()),
		client.WithLogger(log),
		client.WithMetrics(app.Metrics),
		client.WithVersion(version),
	)
	app.Health.Register("backend", func(ctx context.Context) error {
		_, err := app.Gateway.Packages(ctx)
		return err
	})

	app.Session = auth.NewSession(app.Gateway, tokens, log)

	opts := []collection.Option{collection.WithLogger(log), collection.WithMetrics(app.Metrics)}
	app.Cameras = collection.NewCameras(app.Gateway, opts...)
	app.Faces = collection.NewFaces(app.Gateway, opts...)
	app.Detections = collection.NewDetections(app.Gateway, opts...)
	app.Dashboard = dashboard.NewAggregator(app.Cameras, app.Faces, app.Detections, app.Gateway, log)

	app.closers = append(app.closers, app.Cameras.Close, app.Faces.Close, app.Detections.Close)

	log.Debug("консоль инициализирована",
		logger.String("base_url", app.Gateway.BaseURL()),
		logger.String("credentials", cfg.Credentials.Backend),
		logger.String("format", string(format)))

	return app, nil
}

func (a *App) openTokenStore(ctx context.Context) (store.TokenStore, error) {
	cfg := a.Config.Credentials

	switch cfg.Backend {
	case config.CredentialsMemory:
		a.Health.Register("credentials", func(ctx context.Context) error { return nil })
		return store.NewMemoryTokenStore(), nil

	case config.CredentialsRedis:
		redisCfg := redis.NewConfig()
		redisCfg.Addr = cfg.Redis.Addr
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.MaxRetries = cfg.Redis.MaxRetries
		redisCfg.RetryInterval = a.Config.RedisRetryInterval()

		rdb, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("credential store unavailable: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := rdb.Close(); err != nil {
				a.Logger.Debug("ошибка закрытия Redis", logger.Error(err))
			}
		})
		a.Health.Register("credentials", rdb.HealthCheck)
		return store.NewRedisTokenStore(rdb.Client, cfg.Redis.Key), nil

	default:
		fileStore, err := store.NewFileTokenStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		a.Health.Register("credentials", func(ctx context.Context) error {
			_, err := os.Stat(filepath.Dir(fileStore.Path()))
			return err
		})
		return fileStore, nil
	}
}

// Protect проверяет сохраненный токен и выполняет fn под охраной сессии.
// Подсказка о входе выводится не более одного раза.
func (a *App) Protect(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := a.Session.Init(ctx); err != nil && !errors.IsUnauthorized(err) {
		return err
	}

	var once sync.Once
	guard := auth.NewGuard(a.Session, func() {
		once.Do(func() {
			fmt.Fprintln(a.errOut, "Требуется вход: выполните 'faceguard auth login'")
		})
	})
	defer guard.Close()

	return guard.Run(ctx, fn)
}

// Close освобождает ресурсы в обратном порядке
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	a.Logger.Sync()
}
