package main

import (
	"context"
	"fmt"

	"square-payment-gateway/internal/cache"
	"square-payment-gateway/internal/client"
	"square-payment-gateway/internal/config"
	"square-payment-gateway/internal/event"
	"square-payment-gateway/internal/lock"
	"square-payment-gateway/internal/logger"
	"square-payment-gateway/internal/repository"
	"square-payment-gateway/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// app holds everything the commands share.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	settingRepo  repository.SettingRepository
	customerRepo repository.CustomerRepository

	credentials service.CredentialStore
	oauth       service.OAuthService
	square      service.SquareService
	payment     service.PaymentService
	renewal     service.RenewalService

	closers []func() error
}

func loadConfig() (*config.Config, error) {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := service.ValidateRenewalPeriod(cfg.Renewal.PeriodDays); err != nil {
		return nil, fmt.Errorf("RENEWAL_PERIOD_DAYS: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: log}

	db, err := client.InitDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	redisClient, err := client.InitRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	var (
		credentialsCache = cache.NewNopCache()
		locker           = lock.NewLocalLocker()
	)
	if redisClient != nil {
		a.closers = append(a.closers, redisClient.Close)
		credentialsCache = cache.NewRedisCache(redisClient, cfg.Redis.CacheTTL, log)
		locker = lock.NewRedisLocker(redisClient, 5*cfg.Square.Timeout)
		log.Info("using redis for settings cache and renewal lock", zap.String("addr", cfg.Redis.Addr))
	}

	publisher := event.NewNopPublisher()
	producer, err := client.InitKafkaProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if producer != nil {
		kafkaPublisher := event.NewKafkaPublisher(producer, cfg.Kafka.Topic, log)
		a.closers = append(a.closers, kafkaPublisher.Close)
		publisher = kafkaPublisher
		log.Info("publishing payment events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	a.settingRepo = repository.NewSettingRepository(db)
	a.customerRepo = repository.NewCustomerRepository(db)
	attributeRepo := repository.NewAttributeRepository(db)

	a.credentials = service.NewCredentialStore(a.settingRepo, credentialsCache)
	if err := a.credentials.Install(ctx); err != nil {
		return nil, fmt.Errorf("install default settings: %w", err)
	}

	oauthClient := client.NewSquareOAuthClient(cfg.Square.Timeout, cfg.Square.APIVersion, cfg.Square.UserAgent)

	a.oauth = service.NewOAuthService(a.credentials, oauthClient, cfg.Square, publisher, log)
	a.square = service.NewSquareService(a.credentials, cfg.Square, client.NewSquareClient, log)
	a.payment = service.NewPaymentService(
		a.credentials,
		a.square,
		a.customerRepo,
		service.NewConfigCurrencyProvider(cfg.Platform),
		attributeRepo,
		publisher,
		cfg.Square,
		log,
	)
	a.renewal = service.NewRenewalService(a.oauth, a.credentials, a.settingRepo, locker, cfg.Renewal.PeriodDays, log)

	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close resource", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
