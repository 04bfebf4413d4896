package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/colisapp/shipping-core/internal/api"
	"github.com/colisapp/shipping-core/internal/api/handler"
	"github.com/colisapp/shipping-core/internal/core/domain"
	"github.com/colisapp/shipping-core/internal/core/ports"
	"github.com/colisapp/shipping-core/internal/core/service"
	"github.com/colisapp/shipping-core/internal/core/validation"
	"github.com/colisapp/shipping-core/internal/infrastructure/config"
	mongodb "github.com/colisapp/shipping-core/internal/infrastructure/db/mongo"
	redisdb "github.com/colisapp/shipping-core/internal/infrastructure/db/redis"
	"github.com/colisapp/shipping-core/internal/infrastructure/messaging/kafka"
	"github.com/colisapp/shipping-core/internal/infrastructure/qrcode"
	"github.com/colisapp/shipping-core/internal/infrastructure/queue"
	"github.com/colisapp/shipping-core/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	devJWTSecret    = "dev-only-secret"
)

func main() {
	seedFile := flag.String("seed", "", "JSON file with agencies and tariff to upsert before serving")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet.
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "colisapp",
	})

	if err := run(ctx, cfg, *seedFile, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, seedFile string, log zerolog.Logger) error {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	if seedFile != "" {
		if err := seed(ctx, db, seedFile); err != nil {
			return err
		}
		log.Info().Str("file", seedFile).Msg("reference data seeded")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	qrStore, err := qrcode.NewStore(cfg.QRCode.Dir, cfg.QRCode.BaseURL)
	if err != nil {
		return err
	}

	var publisher ports.EventPublisher
	if brokers := kafka.ParseBrokers(cfg.Kafka.Brokers); len(brokers) > 0 {
		p := kafka.NewPublisher(kafka.Config{Brokers: brokers, Topic: cfg.Kafka.TrackingTopic}, log)
		defer p.Close()

		dispatcher := queue.NewDispatcher(0, p, log.With().Str("component", "dispatcher").Logger())
		dispatcher.Start()
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := dispatcher.Close(drainCtx); err != nil {
				log.Warn().Err(err).Msg("tracking events left unpublished")
			}
		}()
		publisher = dispatcher
	} else {
		log.Info().Msg("KAFKA_BROKERS not set, tracking events are stored only")
	}

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		log.Warn().Msg("JWT_SECRET not set, using development secret")
		jwtSecret = devJWTSecret
	}

	// --- Core ---
	validator := validation.New()
	simulations := mongodb.NewSimulationRepository(db)
	tx := mongodb.NewTransactor(client)

	simService := service.NewSimulationService(service.SimulationDeps{
		Simulations: simulations,
		Parcels:     mongodb.NewParcelRepository(db),
		Agencies:    mongodb.NewAgencyRepository(db),
		Events:      mongodb.NewTrackingEventRepository(db),
		Tx:          tx,
		Calculator:  service.NewCalculator(service.NewTariffEngine(mongodb.NewTariffRepository(db), validator)),
		Validator:   validator,
		Scheduler: service.NewRouteScheduler(service.ScheduleConfig{
			PickupHour:            &cfg.Schedule.PickupHour,
			DomesticLeadTime:      cfg.Schedule.DomesticLeadTime,
			InternationalLeadTime: cfg.Schedule.InternationalLeadTime,
		}),
		Tracking:  redisdb.NewTrackingSequence(rdb),
		QRCodes:   qrStore,
		Guard:     redisdb.NewConfirmationGuard(rdb, cfg.ConfirmLockTTL),
		Publisher: publisher,
	}, log.With().Str("component", "simulations").Logger())

	transportService := service.NewTransportService(
		mongodb.NewTransportRepository(db),
		simulations,
		tx,
		log.With().Str("component", "transports").Logger(),
	)
	authService := service.NewAuthService(mongodb.NewUserRepository(db), jwtSecret, 24*time.Hour)
	if cfg.Admin.Email != "" {
		admin, err := authService.EnsureAdmin(ctx, ports.RegisterInput{
			Email:    cfg.Admin.Email,
			Name:     "Back office",
			Password: cfg.Admin.Password,
		})
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if admin.Role != domain.RoleAdmin {
			log.Warn().Str("email", admin.Email).Msg("ADMIN_EMAIL belongs to a client account, not promoted")
		}
	}

	// --- HTTP ---
	router := api.NewRouter(api.Dependencies{
		Auth:        authService,
		Simulations: simService,
		Transports:  transportService,
		Health: map[string]handler.Pinger{
			"mongodb": handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) }),
			"redis":   handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		},
		JWTSecret: jwtSecret,
		QRCodeDir: qrStore.Dir(),
		Logger:    log,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("received signal, initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	log.Info().Msg("server stopped gracefully")
	return nil
}

func seed(ctx context.Context, db *mongo.Database, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	data, err := mongodb.DecodeSeed(f)
	if err != nil {
		return err
	}
	return mongodb.Seed(ctx, db, data)
}
