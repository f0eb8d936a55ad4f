package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomstay/internal/api"
	"roomstay/internal/config"
	"roomstay/internal/database"
	"roomstay/internal/domain"
	"roomstay/internal/events"
	"roomstay/internal/export"
	"roomstay/internal/lock"
	"roomstay/internal/logging"
	"roomstay/internal/metrics"
	"roomstay/internal/models"
	"roomstay/internal/notify"
	"roomstay/internal/payment"
	"roomstay/internal/postgres"
	"roomstay/internal/repository"
	"roomstay/internal/service"
	"roomstay/internal/verification"
	"roomstay/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

const ticketSweepInterval = time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

type store interface {
	domain.Store
	PingContext(ctx context.Context) error
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := loadCatalog(cfg.Booking.CatalogPath, &logger)
	if err != nil {
		return err
	}

	db, sqliteDB, err := initStore(ctx, cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SyncCatalog(ctx, catalog); err != nil {
		return fmt.Errorf("sync catalog: %w", err)
	}

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	locker, err := initLocker(cfg, redisClient, &logger)
	if err != nil {
		return err
	}

	gateway, err := payment.NewGateway(cfg.Payment, logging.Component(&logger, "payment"))
	if err != nil {
		return fmt.Errorf("init payment gateway: %w", err)
	}

	logNotifier := notify.NewLogNotifier(logging.Component(&logger, "notify"))
	notifiers := notify.MultiNotifier{logNotifier}
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" {
		bot, err := notify.NewTelegramBot(tg.BotToken, tg.Debug)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, continuing without telegram notifications")
		} else {
			notifiers = append(notifiers, notify.NewTelegramNotifier(bot, tg.ChatID))
			logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifications enabled")
		}
	}

	eventBus := events.NewEventBus(logging.Component(&logger, "events"))
	notificationWorker := worker.NewNotificationWorker(
		db,
		notifiers,
		redisClient,
		worker.RetryPolicyFromConfig(cfg.Notifications.Retry),
		worker.Options{
			QueueKey:      cfg.Notifications.QueueKey,
			DeadLetterKey: cfg.Notifications.DeadLetterKey,
			PollInterval:  cfg.Notifications.PollInterval,
			Lease:         cfg.Notifications.Lease,
		},
		logging.Component(&logger, "notification-worker"),
	)
	notificationWorker.Subscribe(eventBus)
	go notificationWorker.Start(ctx)

	memoryTickets := repository.NewMemoryTicketRepository()
	var tickets domain.TicketRepository = memoryTickets
	if redisClient != nil {
		tickets = repository.NewFailoverTicketRepository(
			repository.NewRedisTicketRepository(redisClient), memoryTickets, logging.Component(&logger, "tickets"))
	}
	go sweepTickets(ctx, memoryTickets)
	verifier := verification.NewService(tickets, cfg.Verification.TTL, cfg.Verification.MaxAttempts, logging.Component(&logger, "verification"))

	availability := service.NewAvailabilityService(db, logging.Component(&logger, "availability"))
	bookings := service.NewBookingService(db, availability, locker, gateway, eventBus,
		cfg.Booking.MaxBookingDays, logging.Component(&logger, "bookings"))

	sweeper := service.NewCompletionSweeper(bookings, cfg.Booking.CompletionSweepInterval, logging.Component(&logger, "sweeper"))
	go sweeper.Start(ctx)

	if sqliteDB != nil && cfg.Backup.Enabled {
		backup := database.NewBackupService(sqliteDB, cfg.Backup, logging.Component(&logger, "backup"))
		go backup.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg.API, api.Deps{
		Bookings:     bookings,
		Availability: availability,
		Verification: verifier,
		CodeSender:   logNotifier,
		Exporter:     export.NewExporter(cfg.Exports.Path, logging.Component(&logger, "export")),
		Health:       db.PingContext,
	}, logging.Component(&logger, "http"))

	return serve(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func loadCatalog(path string, logger *zerolog.Logger) (*models.Catalog, error) {
	if env := os.Getenv("CATALOG_PATH"); env != "" {
		path = env
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error().Err(err).Str("catalog_path", path).Msg("read catalog")
		return nil, err
	}

	var catalog models.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		logger.Error().Err(err).Str("catalog_path", path).Msg("parse catalog")
		return nil, err
	}
	if err := config.ValidateCatalog(&catalog); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return &catalog, nil
}

// initStore opens the configured database. The SQLite handle is returned
// separately for the backup service.
func initStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (store, *database.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pg, err := postgres.New(ctx, cfg.Database.Postgres, logging.Component(logger, "postgres"))
		if err != nil {
			logger.Error().Err(err).Str("host", cfg.Database.Postgres.Host).Msg("init postgres")
			return nil, nil, err
		}
		return pg, nil, nil
	default:
		db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "sqlite"))
		if err != nil {
			logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
			return nil, nil, err
		}
		return db, db, nil
	}
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		if cfg.Booking.Lock.Driver == config.LockRedis {
			// the lock needs redis; keep the client and let Lock calls fail loudly
			logger.Error().Err(err).Msg("redis connection failed")
			return client
		}
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initLocker(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) (domain.RoomLocker, error) {
	switch cfg.Booking.Lock.Driver {
	case config.LockRedis:
		if redisClient == nil {
			return nil, errors.New("redis lock driver configured without redis")
		}
		return lock.NewRedisLocker(redisClient, cfg.Booking.Lock.TTL, cfg.Booking.Lock.Wait, logging.Component(logger, "lock")), nil
	default:
		return lock.NewLocalLocker(cfg.Booking.Lock.Wait), nil
	}
}

func sweepTickets(ctx context.Context, repo *repository.MemoryTicketRepository) {
	ticker := time.NewTicker(ticketSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			repo.Sweep()
		}
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	if !cfg.API.HTTP.Enabled {
		logger.Warn().Msg("HTTP API is disabled, running background workers only")
		<-ctx.Done()
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
