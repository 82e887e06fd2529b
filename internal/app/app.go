package app

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/api/http/handler"
	"github.com/evijayan2/smsmonitor/internal/api/http/route"
	"github.com/evijayan2/smsmonitor/internal/apperrors"
	"github.com/evijayan2/smsmonitor/internal/config"
	"github.com/evijayan2/smsmonitor/internal/model"
	"github.com/evijayan2/smsmonitor/internal/msg/outbox"
	"github.com/evijayan2/smsmonitor/internal/repository"
	"github.com/evijayan2/smsmonitor/internal/service"
	"github.com/evijayan2/smsmonitor/internal/view"
	"github.com/evijayan2/smsmonitor/pkg/encryption"
	"github.com/evijayan2/smsmonitor/pkg/geoip"
	"github.com/evijayan2/smsmonitor/pkg/jwt"
	"github.com/evijayan2/smsmonitor/pkg/kafka"
	"github.com/evijayan2/smsmonitor/pkg/mailer"
	"github.com/evijayan2/smsmonitor/pkg/oauth"
	"github.com/evijayan2/smsmonitor/pkg/postgres"
	"github.com/evijayan2/smsmonitor/pkg/redis"
	"github.com/evijayan2/smsmonitor/pkg/server"
)

type Publisher interface {
	Run(ctx context.Context)
}

type App struct {
	Cfg        *config.Config
	Log        *zap.Logger
	Handler    *Handler
	Service    *Service
	DB         postgres.Postgres
	RDB        redis.Redis
	Mailer     mailer.Mailer
	HTTPServer server.HTTPServer
	EBus       *EBus
	GeoDB      geoip.GeoIP
}

type Repository struct {
	MessageRepository *repository.MessageRepository
	OutboxRepository  *repository.OutboxRepository
	HealthRepository  *repository.HealthRepository
	DedupRepository   *repository.DedupRepository
}

type Service struct {
	IngestService  *service.IngestService
	MessageService *service.MessageService
	AuthService    *service.AuthService
	HealthService  *service.HealthService
}

type Handler struct {
	SMSHandler       *handler.SMSHandler
	MessageHandler   *handler.MessageHandler
	DashboardHandler *handler.DashboardHandler
	AuthHandler      *handler.AuthHandler
	HealthHandler    *handler.HealthHandler
}

type Security struct {
	PrivateKey *ecdsa.PrivateKey
	PublicKey  *ecdsa.PublicKey
	Codec      encryption.Codec
}

type EBus struct {
	Producer        kafka.Producer
	OutboxPublisher Publisher
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	sec, err := initSecurity(log, cfg)
	if err != nil {
		log.Error("Failed to initialize security", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize security: %w", err)
	}

	db, err := initDB(log, &cfg.Database)
	if err != nil {
		log.Error("Failed to initialize database", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := initRedis(log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize redis", zap.Error(err))
		db.Close()

		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	mlr := initMailer(log, &cfg.Mailer)

	geo, err := initGeo(log, &cfg.Geo)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize geo: %w", err)
	}

	repo := initRepository(log, db, rdb)

	svc, err := initService(log, cfg, sec, repo, mlr, geo)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	renderer, err := view.NewPageRenderer()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	hdl := initHandler(log, cfg, svc, renderer)

	httpServer := initHTTPServer(log, cfg, svc.AuthService, hdl)

	eBus, err := initEBus(log, &cfg.Kafka, repo)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ebus: %w", err)
	}

	return &App{
		Cfg:        cfg,
		Log:        log,
		Handler:    hdl,
		Service:    svc,
		DB:         db,
		RDB:        rdb,
		Mailer:     mlr,
		HTTPServer: httpServer,
		EBus:       eBus,
		GeoDB:      geo,
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
	errs := make(chan error, 1)

	go func() {
		a.Log.Info("HTTP server started", zap.String("addr", a.HTTPServer.Addr()))

		if err := a.HTTPServer.Run(); err != nil {
			errs <- err
		}
	}()

	if a.EBus != nil {
		go a.EBus.OutboxPublisher.Run(ctx)
	}

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
		errs = append(errs, fmt.Errorf("failed to shutdown http server: %w", err))
	}

	a.Log.Debug("Http server shutdown")

	if a.EBus != nil {
		if err := a.EBus.Producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close kafka producer: %w", err))
		}

		a.Log.Debug("Kafka producer closed")
	}

	if a.Service != nil && a.Service.AuthService != nil {
		a.Service.AuthService.WaitNotices()
		a.Log.Debug("Sign-in notices flushed")
	}

	a.DB.Close()
	a.Log.Debug("Database closed")

	if a.RDB != nil {
		if err := a.RDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close RDB: %w", err))
		}

		a.Log.Debug("Redis closed")
	}

	if err := a.GeoDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close GeoDB: %w", err))
	}

	a.Log.Debug("GeoDB closed")

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", apperrors.ErrShutdown, errors.Join(errs...))
	}

	return nil
}

func initSecurity(log *zap.Logger, cfg *config.Config) (*Security, error) {
	codec, err := encryption.New(cfg.Ingest.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}

	log.Debug("Encryption codec initialized")

	privateKey, err := jwt.LoadECDSAPrivateKey(cfg.Key.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}

	log.Debug("Private key loaded")

	publicKey, err := jwt.LoadECDSAPublicKey(cfg.Key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load public key: %w", err)
	}

	log.Debug("Public key loaded")

	return &Security{
		PrivateKey: privateKey,
		PublicKey:  publicKey,
		Codec:      codec,
	}, nil
}

func initDB(log *zap.Logger, cfg *config.Database) (postgres.Postgres, error) {
	postgresCfg := &postgres.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Name:     cfg.Name,
		SSLMode:  cfg.SSLMode,
		MaxConns: cfg.MaxConns,
		MinConns: cfg.MinConns,
		Migration: postgres.Migration{
			Path:      cfg.Migration.Path,
			AutoApply: cfg.Migration.AutoApply,
		},
	}

	db, err := postgres.New(postgresCfg)
	if err != nil {
		return nil, err
	}

	log.Debug("Database initialized")

	return db, nil
}

// initRedis returns nil when redis is disabled; only the dedup window needs it.
func initRedis(log *zap.Logger, cfg *config.Redis) (redis.Redis, error) {
	if !cfg.Enable {
		return nil, nil
	}

	redisCfg := &redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	rdb, err := redis.New(redisCfg)
	if err != nil {
		return nil, err
	}

	log.Debug("Redis initialized")

	return rdb, nil
}

func initMailer(log *zap.Logger, cfg *config.Mailer) mailer.Mailer {
	mailerCfg := &mailer.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		UseTLS:   cfg.UseTLS,
	}

	mlr := mailer.New(mailerCfg)
	log.Debug("Mailer initialized", zap.Bool("enabled", mlr.Enabled()))

	return mlr
}

func initGeo(log *zap.Logger, cfg *config.Geo) (geoip.GeoIP, error) {
	geo, err := geoip.New(cfg.GeoLiteCountryPath, cfg.GeoLiteASNPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init geoip: %w", err)
	}

	log.Debug("GeoIP initialized")

	return geo, nil
}

func initRepository(log *zap.Logger, db postgres.Postgres, rdb redis.Redis) *Repository {
	messageRepo := repository.NewMessageRepository(db.Pool())
	log.Debug("Message repository initialized")

	outboxRepo := repository.NewOutboxRepository(db.Pool())
	log.Debug("Outbox repository initialized")

	healthRepo := repository.NewHealthRepository(db.Pool())
	log.Debug("Health repository initialized")

	var dedupRepo *repository.DedupRepository
	if rdb != nil {
		dedupRepo = repository.NewDedupRepository(rdb.Client())
		log.Debug("Dedup repository initialized")
	}

	return &Repository{
		MessageRepository: messageRepo,
		OutboxRepository:  outboxRepo,
		HealthRepository:  healthRepo,
		DedupRepository:   dedupRepo,
	}
}

func initService(
	log *zap.Logger,
	cfg *config.Config,
	sec *Security,
	repo *Repository,
	mlr mailer.Mailer,
	geo geoip.GeoIP,
) (*Service, error) {
	var ingestOpts []service.IngestOption

	if cfg.Kafka.Enabled {
		ingestOpts = append(ingestOpts, service.WithOutbox(repo.OutboxRepository, cfg.Kafka.Topic))
	}

	if cfg.Ingest.Dedup.Enabled && repo.DedupRepository != nil {
		ingestOpts = append(ingestOpts, service.WithDedup(repo.DedupRepository, cfg.Ingest.Dedup.Window))
	}

	ingestSvc := service.NewIngestService(log, sec.Codec, repo.MessageRepository, ingestOpts...)
	log.Debug("Ingest service initialized")

	messageSvc := service.NewMessageService(log, sec.Codec, repo.MessageRepository, cfg.Dashboard.PageSize, cfg.Dashboard.MaxPageSize)
	log.Debug("Message service initialized")

	provider := oauth.NewGoogle(&oauth.Config{
		ClientID:     cfg.Auth.Google.ClientID,
		ClientSecret: cfg.Auth.Google.ClientSecret,
		RedirectURL:  cfg.Auth.Google.RedirectURL,
	})

	authSvc, err := service.NewAuthService(
		log,
		provider,
		sec.PrivateKey,
		sec.PublicKey,
		cfg.JWT.AccessTokenTTL,
		service.ParseAllowedEmails(cfg.Auth.AllowedEmails),
		mlr,
		cfg.Mailer.NotifyTo,
		geo,
	)
	if err != nil {
		return nil, err
	}

	log.Debug("Auth service initialized")

	healthSvc := service.NewHealthService(log, repo.HealthRepository)
	log.Debug("Health service initialized")

	return &Service{
		IngestService:  ingestSvc,
		MessageService: messageSvc,
		AuthService:    authSvc,
		HealthService:  healthSvc,
	}, nil
}

func initHandler(log *zap.Logger, cfg *config.Config, svc *Service, renderer *view.PageRenderer) *Handler {
	smsHandler := handler.NewSMSHandler(log, svc.IngestService, cfg.Ingest.MaxBodyBytes)
	log.Debug("SMS handler initialized")

	messageHandler := handler.NewMessageHandler(log, svc.MessageService, cfg.Dashboard.PollInterval, nil)
	log.Debug("Message handler initialized")

	dashboardHandler := handler.NewDashboardHandler(log, svc.MessageService, renderer, model.NewPaths(cfg.BasePath), view.PageDashboard, view.PageLogin)
	log.Debug("Dashboard handler initialized")

	authHandler := handler.NewAuthHandler(log, svc.AuthService, model.NewPaths(cfg.BasePath), cfg.JWT.AccessTokenTTL, cfg.JWT.SecureCookie)
	log.Debug("Auth handler initialized")

	healthHandler := handler.NewHealthHandler(log, svc.HealthService)
	log.Debug("Health handler initialized")

	return &Handler{
		SMSHandler:       smsHandler,
		MessageHandler:   messageHandler,
		DashboardHandler: dashboardHandler,
		AuthHandler:      authHandler,
		HealthHandler:    healthHandler,
	}
}

func initHTTPServer(log *zap.Logger, cfg *config.Config, auth *service.AuthService, hdl *Handler) server.HTTPServer {
	router := route.SetupRouter(
		log,
		cfg,
		auth,
		hdl.HealthHandler,
		hdl.AuthHandler,
		hdl.SMSHandler,
		hdl.MessageHandler,
		hdl.DashboardHandler,
	)

	httpServer := server.NewHTTPServer(
		server.WithAddr(cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		server.WithTimeout(cfg.HTTPServer.Timeout.Read, cfg.HTTPServer.Timeout.Write, cfg.HTTPServer.Timeout.Idle),
		server.WithHandler(router),
	)

	log.Debug("HTTP server initialized")

	return httpServer
}

// initEBus returns nil when Kafka is disabled; messages are then stored without outbox rows.
func initEBus(log *zap.Logger, cfg *config.Kafka, repo *Repository) (*EBus, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	producer, err := kafka.NewProducer(
		cfg.Brokers,
		kafka.WithBalancer(kafka.Hash),
		kafka.WithRequiredAcks(kafka.RequireAll),
		kafka.WithClientID(cfg.Producer.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init kafka producer: %w", err)
	}

	log.Debug("Kafka producer initialized")

	outboxCfg := outbox.Config{
		Name:         cfg.Producer.Name,
		WorkerCount:  cfg.Producer.WorkerCount,
		PollInterval: cfg.Producer.PollInterval,
		BatchSize:    cfg.Producer.BatchSize,
	}

	publisher := outbox.NewPublisher(
		log,
		outboxCfg,
		producer,
		repo.OutboxRepository,
	)

	log.Debug("Outbox publisher initialized")

	return &EBus{
		Producer:        producer,
		OutboxPublisher: publisher,
	}, nil
}
