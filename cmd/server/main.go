package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"nutritrack/app/internal/api"
	"nutritrack/app/internal/config"
	"nutritrack/app/internal/logger"
	"nutritrack/app/internal/ratelimit"
	"nutritrack/app/internal/realtime"
	"nutritrack/app/internal/repository/mongo"
	"nutritrack/app/internal/service"
	"nutritrack/app/internal/storage"
)

// @title NutriTrack API
// @version 1.0
// @description Diet and fitness tracking for clients, dietitians and trainers.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		bootLog := logger.New(config.LogConfig{Level: "info"})
		bootLog.Fatal().Err(err).Msg("could not load config")
	}
	log := logger.New(cfg.Log)
	log.Info().Str("address", cfg.Server.Address).Msg("starting NutriTrack server")
	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret must be set (JWT_SECRET)")
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to MongoDB")
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	// Unique indexes back invariants, so they must exist before serving.
	indexCtx, cancelIndex := context.WithTimeout(context.Background(), time.Minute)
	err = mongo.EnsureIndexes(indexCtx, appDB, log)
	cancelIndex()
	if err != nil {
		log.Fatal().Err(err).Msg("could not ensure indexes")
	}

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(context.Background(), cfg.S3, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize S3 storage")
	}

	// --- Rate limiting ---
	limiters, redisClient := buildLimiters(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// --- Realtime ---
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	hub := realtime.NewHub(cfg.Realtime.BufferSize, log)
	var publisher service.PatchPublisher = hub
	if cfg.Realtime.ChangeStreams {
		preCtx, cancelPre := context.WithTimeout(rootCtx, 10*time.Second)
		preImages, err := mongo.EnableMessagePreImages(preCtx, appDB)
		cancelPre()
		if err != nil {
			log.Warn().Err(err).Msg("message pre-images unavailable, delete patches will be skipped")
		}

		watcher := mongo.NewMessageWatcher(appDB, hub, preImages, log)
		if err := watcher.Start(rootCtx); err != nil {
			log.Error().Err(err).Msg("could not open message change stream, publishing patches in process")
		} else {
			// The change stream sees every write, including ones from other
			// instances, so the service must not publish its own.
			publisher = nil
		}
	}

	// --- Initialize Repositories ---
	profileRepo := mongo.NewMongoProfileRepository(appDB)
	connectionRepo := mongo.NewMongoConnectionRepository(appDB)
	messageRepo := mongo.NewMongoMessageRepository(appDB)
	noteRepo := mongo.NewMongoNoteRepository(appDB)
	appointmentRepo := mongo.NewMongoAppointmentRepository(appDB)
	mealRepo := mongo.NewMongoMealRepository(appDB)
	waterRepo := mongo.NewMongoWaterRepository(appDB)
	activityRepo := mongo.NewMongoActivityRepository(appDB)
	goalRepo := mongo.NewMongoGoalRepository(appDB)

	// --- Initialize Services ---
	clock := service.Clock(time.Now)
	services := api.Services{
		Auth:         service.NewAuthService(profileRepo, cfg.JWT.Secret, cfg.JWT.Expiration, log),
		Profiles:     service.NewProfileService(profileRepo, log),
		Connections:  service.NewConnectionService(profileRepo, connectionRepo, clock, log),
		Messages:     service.NewMessageService(connectionRepo, messageRepo, publisher, log),
		Notes:        service.NewNoteService(connectionRepo, noteRepo, clock, log),
		Appointments: service.NewAppointmentService(profileRepo, connectionRepo, appointmentRepo, log),
		Nutrition:    service.NewNutritionService(mealRepo, connectionRepo, fileStorage, clock, log),
		Water:        service.NewWaterService(waterRepo, clock, log),
		Activities:   service.NewActivityService(activityRepo, clock, log),
		Goals:        service.NewGoalService(goalRepo, log),
		Widget:       service.NewWidgetService(mealRepo, goalRepo, clock),
	}

	// --- Initialize Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(api.Recovery(log), api.RequestLogger(log))
	api.SetupRoutes(router, services, limiters, hub, log)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe error")
		}
	}()
	log.Info().Str("address", cfg.Server.Address).Msg("server listening")

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	cancelRoot()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}

// buildLimiters connects to Redis when configured. Without an address every
// request is admitted.
func buildLimiters(cfg config.Config, log zerolog.Logger) (api.Limiters, *redis.Client) {
	if cfg.Redis.Addr == "" {
		log.Warn().Msg("redis.addr not set, rate limiting disabled")
		return api.Limiters{Auth: ratelimit.Unlimited{}, Message: ratelimit.Unlimited{}}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("could not reach redis")
	}

	rl := cfg.RateLimit
	authLimiter, err := ratelimit.NewFixedWindowLimiter(client, rl.Prefix+":auth", rl.AuthLimit, rl.Window)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid auth rate limit")
	}
	messageLimiter, err := ratelimit.NewFixedWindowLimiter(client, rl.Prefix+":message", rl.MessageLimit, rl.Window)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid message rate limit")
	}
	return api.Limiters{Auth: authLimiter, Message: messageLimiter}, client
}
