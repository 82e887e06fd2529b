package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/apperrors"
	"github.com/evijayan2/smsmonitor/internal/forwarder/bridge"
	"github.com/evijayan2/smsmonitor/internal/forwarder/config"
	"github.com/evijayan2/smsmonitor/internal/forwarder/delivery"
	"github.com/evijayan2/smsmonitor/internal/forwarder/metrics"
	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
	"github.com/evijayan2/smsmonitor/internal/forwarder/service"
	"github.com/evijayan2/smsmonitor/internal/forwarder/source"
	"github.com/evijayan2/smsmonitor/internal/forwarder/storage"
	"github.com/evijayan2/smsmonitor/pkg/retry"
	"github.com/evijayan2/smsmonitor/pkg/server"
)

type App struct {
	Cfg        *config.Config
	Log        *zap.Logger
	Store      *storage.Store
	Metrics    *metrics.Metrics
	Service    *service.Service
	HTTPServer server.HTTPServer

	mu            sync.Mutex
	cancel        context.CancelFunc
	schedulerDone chan struct{}
}

type Sources struct {
	SMS          *source.SMSAdapter
	Notification *source.NotificationAdapter
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	store, err := initStore(log, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	svc := initService(log, cfg, store, m)
	sources := initSources(log, cfg, svc)
	httpServer := initHTTPServer(log, cfg, sources, store, m)

	return &App{
		Cfg:        cfg,
		Log:        log,
		Store:      store,
		Metrics:    m,
		Service:    svc,
		HTTPServer: httpServer,
	}, nil
}

func MustNew(cfg *config.Config, log *zap.Logger) *App {
	app, err := New(cfg, log)
	if err != nil {
		panic(err)
	}

	return app
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	a.mu.Lock()
	a.cancel = cancel
	a.schedulerDone = done
	a.mu.Unlock()

	errs := make(chan error, 2)

	go func() {
		defer close(done)

		if err := a.Service.Run(ctx); err != nil {
			errs <- fmt.Errorf("failed to run scheduler: %w", err)
		}
	}()

	go func() {
		a.Log.Info("Bridge started", zap.String("addr", a.HTTPServer.Addr()))

		if err := a.HTTPServer.Run(); err != nil {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (a *App) Shutdown() error {
	var errs []error

	if err := a.HTTPServer.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown bridge: %w", err))
	}

	a.Log.Debug("Bridge shutdown")

	a.mu.Lock()
	cancel, done := a.cancel, a.schedulerDone
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	a.Log.Debug("Scheduler stopped")

	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}

	a.Log.Debug("Store closed")

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", apperrors.ErrShutdown, errors.Join(errs...))
	}

	return nil
}

// initStore opens the database and seeds settings the device does not have yet.
func initStore(log *zap.Logger, cfg *config.Config) (*storage.Store, error) {
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	seed := model.Settings{TargetURL: cfg.Device.TargetURL, APIKey: cfg.Device.APIKey}
	if err := store.SeedSettings(context.Background(), seed, time.Now()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}

	log.Debug("Store initialized", zap.String("path", cfg.Storage.Path))

	return store, nil
}

func initService(log *zap.Logger, cfg *config.Config, store *storage.Store, m *metrics.Metrics) *service.Service {
	client := delivery.NewClient(log, store, delivery.WithTimeout(cfg.Scheduler.RequestTimeout))

	svc := service.NewService(
		log,
		service.Config{
			WorkerCount:  cfg.Scheduler.WorkerCount,
			BatchSize:    cfg.Scheduler.BatchSize,
			PollInterval: cfg.Scheduler.PollInterval,
			Backoff: retry.Backoff{
				Min:          cfg.Scheduler.MinBackoff,
				Max:          cfg.Scheduler.MaxBackoff,
				JitterFactor: cfg.Scheduler.JitterFactor,
			},
			RetryWindow: cfg.Scheduler.RetryWindow,
			Retention:   cfg.Scheduler.Retention,
		},
		store,
		client,
		m,
		service.WithConnectivity(service.NewConnectivity(cfg.Scheduler.ConnectivityTarget, cfg.Scheduler.ConnectivityDial)),
	)

	log.Debug("Scheduler initialized")

	return svc
}

func initSources(log *zap.Logger, cfg *config.Config, queue source.Enqueuer) *Sources {
	sources := &Sources{
		SMS: source.NewSMSAdapter(log, queue, nil),
		Notification: source.NewNotificationAdapter(
			log,
			queue,
			source.NewRegistry(),
			source.WithAllowedPackages(cfg.Sources.Packages),
			source.WithPlaceholders(source.NewPlaceholderMatcher(cfg.Sources.PlaceholderPhrases)),
		),
	}

	log.Debug("Sources initialized")

	return sources
}

func initHTTPServer(log *zap.Logger, cfg *config.Config, sources *Sources, store *storage.Store, m *metrics.Metrics) server.HTTPServer {
	h := bridge.NewHandler(log, sources.SMS, sources.Notification, store, store, m)
	router := bridge.NewRouter(log, cfg.Bridge.Timeout, cfg.Bridge.Token, h)

	httpServer := server.NewHTTPServer(
		server.WithAddr(cfg.Bridge.Host, cfg.Bridge.Port),
		server.WithHandler(router),
	)

	log.Debug("Bridge initialized")

	return httpServer
}
