package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/asrs-travel/service-booking/internal/amadeus"
	"github.com/asrs-travel/service-booking/internal/application"
	"github.com/asrs-travel/service-booking/internal/bridge"
	"github.com/asrs-travel/service-booking/internal/common/auth"
	"github.com/asrs-travel/service-booking/internal/common/database"
	"github.com/asrs-travel/service-booking/internal/common/health"
	"github.com/asrs-travel/service-booking/internal/common/kafka"
	"github.com/asrs-travel/service-booking/internal/common/logger"
	"github.com/asrs-travel/service-booking/internal/common/middleware"
	"github.com/asrs-travel/service-booking/internal/config"
	bookingDomain "github.com/asrs-travel/service-booking/internal/domain/booking"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
	bookingEvents "github.com/asrs-travel/service-booking/internal/events"
	"github.com/asrs-travel/service-booking/internal/geo"
	"github.com/asrs-travel/service-booking/internal/geocode"
	"github.com/asrs-travel/service-booking/internal/handler"
	"github.com/asrs-travel/service-booking/internal/market"
	"github.com/asrs-travel/service-booking/internal/offercache"
	"github.com/asrs-travel/service-booking/internal/railapi"
	"github.com/asrs-travel/service-booking/internal/refdata"
	"github.com/asrs-travel/service-booking/internal/repository"
	"github.com/asrs-travel/service-booking/internal/ticket"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load reference data
	data, err := refdata.Load()
	if err != nil {
		log.Fatal("failed to load reference data", zap.Error(err))
	}

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.ConnectWithRetry(ctx, dbConfig, time.Minute, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.BookingModel{},
			&repository.PlaceModel{},
			&repository.PlaceAliasModel{},
			&repository.CatalogRouteModel{},
			&repository.CatalogHotelModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Seed the reference catalog
	if _, err := repository.NewSeeder(db, log).Seed(ctx, data); err != nil {
		log.Fatal("failed to seed reference catalog", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.Issuer, cfg.TokenTTL)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize offer cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Address,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	})
	defer func() { _ = redisClient.Close() }()
	offers := offercache.New(redisClient, cfg.OfferCacheTTL)

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	placeRepo := repository.NewGormPlaceRepository(db)
	catalogRepo := repository.NewGormCatalogRepository(db)

	// Initialize upstream clients
	flightAPI := amadeus.NewClient(amadeus.Config{
		BaseURL:      cfg.Amadeus.BaseURL,
		ClientID:     cfg.Amadeus.ClientID,
		ClientSecret: cfg.Amadeus.ClientSecret,
		Currency:     cfg.Amadeus.Currency,
		Timeout:      cfg.UpstreamTimeout,
	})
	railAPI := railapi.NewClient(railapi.Config{
		BaseURL: cfg.Rail.BaseURL,
		APIKey:  cfg.Rail.APIKey,
		APIHost: cfg.Rail.APIHost,
		Timeout: cfg.UpstreamTimeout,
	})

	var geocoder geo.Geocoder
	if cfg.Geocoder.BaseURL != "" {
		geocoder = geocode.NewClient(geocode.Config{
			BaseURL:     cfg.Geocoder.BaseURL,
			UserAgent:   cfg.Geocoder.UserAgent,
			CountryCode: cfg.Geocoder.CountryCode,
			Timeout:     cfg.UpstreamTimeout,
		})
	}
	resolver := geo.NewResolver(placeRepo, geocoder, log)

	// Build the offer provider chains, highest tier first
	synth := market.NewSynthesizer(nil)
	provider := market.NewProvider(log)
	if flightAPI.Enabled() {
		provider.Register(offer.ModeFlight, market.Throttle(market.NewLiveFlights(flightAPI), cfg.LivePerSecond, cfg.LiveBurst))
	} else {
		log.Warn("live flight offers disabled, no API credentials configured")
	}
	if railAPI.Enabled() {
		provider.Register(offer.ModeTrain, market.Throttle(market.NewLiveTrains(railAPI, data, synth), cfg.LivePerSecond, cfg.LiveBurst))
	} else {
		log.Warn("live train schedules disabled, no API key configured")
	}
	provider.
		Register(offer.ModeFlight,
			market.NewCatalogRoutes(offer.ModeFlight, catalogRepo, data, synth),
			market.NewSyntheticFlights(data, synth)).
		Register(offer.ModeTrain,
			market.NewCatalogRoutes(offer.ModeTrain, catalogRepo, data, synth),
			market.NewSyntheticTrains(data, synth)).
		Register(offer.ModeBus,
			market.NewCatalogRoutes(offer.ModeBus, catalogRepo, data, synth),
			market.NewSyntheticBuses(data, synth)).
		Register(offer.ModeHotel,
			market.NewCatalogHotels(catalogRepo, synth),
			market.NewSyntheticHotels(data, synth))

	// Initialize application services
	var orders application.OrderPlacer
	if flightAPI.Enabled() {
		orders = bridge.New(flightAPI, log)
	}
	bookingService := application.NewBookingService(
		bookingRepo,
		bookingDomain.NewStandardCancellationPolicy(),
		offers,
		orders,
		kafkaProducer,
		log,
	)
	searchService := application.NewSearchService(resolver, provider, placeRepo, offers, log)
	dealsService := application.NewDealsService(placeRepo, data, synth, log)

	// Initialize payment event consumer
	groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	paymentConsumer := bookingEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		bookingService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService, ticket.NewRenderer(cfg.TicketSecret), log)
	adminBookingHandler := handler.NewAdminBookingHandler(bookingService)
	searchHandler := handler.NewSearchHandler(searchService, dealsService, middleware.NewRateLimiter(cfg.SearchPerMinute))

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	health.NewHandler(db, serviceName).RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminBookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	searchHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run the server and the consumer until a signal arrives or one of them fails
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		<-ctx.Done()
		log.Info("shutting down " + serviceName + "...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server forced shutdown", zap.Error(err))
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("payment event consumer error: %w", err)
		}
		return nil
	})

	if err := p.Wait(); err != nil {
		log.Error(serviceName+" stopped with error", zap.Error(err))
		return
	}
	log.Info(serviceName + " stopped")
}
