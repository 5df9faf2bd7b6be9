package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"fleettrack/internal/app"
	"fleettrack/internal/auth"
	"fleettrack/internal/config"
	"fleettrack/internal/handler"
	"fleettrack/internal/ingest"
	"fleettrack/internal/logging"
	internalRedis "fleettrack/internal/redis"
	"fleettrack/internal/repository/postgres"
	"fleettrack/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Warn("failed to initialize New Relic")
		} else {
			log.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	server, locationService := wireServer(db, redisClient, nrApp, cfg, log)

	// Optional MQTT telemetry ingest.
	var mqttIngest *ingest.MQTTIngest
	if cfg.MQTT.Enabled {
		mqttIngest, err = ingest.NewMQTTIngest(cfg.MQTT, locationService, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to mqtt broker")
		}
		if err := mqttIngest.Start(); err != nil {
			log.WithError(err).Fatal("failed to start mqtt ingest")
		}
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	if mqttIngest != nil {
		mqttIngest.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server plus the
// location service the MQTT ingest feeds.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, log *logrus.Logger) (*http.Server, *service.LocationService) {
	// Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Repositories.
	userRepo := postgres.NewUserRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	tripRepo := postgres.NewTripRepository(db)

	// Services.
	tokenIssuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(userRepo, tokenIssuer)
	vehicleService := service.NewVehicleService(vehicleRepo, tripRepo, locationStore, cacheStore, lockStore)
	locationService := service.NewLocationService(locationStore, lockStore, vehicleRepo)
	assignmentService := service.NewAssignmentService(vehicleRepo, userRepo, cacheStore)
	tripService := service.NewTripService(tripRepo, vehicleRepo, lockStore)
	driverService := service.NewDriverService(userRepo, vehicleRepo)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService, locationService, assignmentService)
	tripHandler := handler.NewTripHandler(tripService)
	driverHandler := handler.NewDriverHandler(driverService)

	router := app.NewRouter(app.RouterDeps{
		AuthHandler:    authHandler,
		VehicleHandler: vehicleHandler,
		TripHandler:    tripHandler,
		DriverHandler:  driverHandler,
		TokenIssuer:    tokenIssuer,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
		Logger:         log,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, locationService
}
