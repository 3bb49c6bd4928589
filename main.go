package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"avease/config"
	"avease/db"
	"avease/middlewares"
	"avease/models"
	"avease/routes"
	"avease/services"
	"avease/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Postgres: users, participants, availability
	sqldb, err := db.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer sqldb.Close()
	if err := db.Migrate(ctx, sqldb); err != nil {
		logger.Fatal("postgres migrate", zap.Error(err))
	}

	// Mongo: events with their details
	mg, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	if err := mg.Ping(ctx, nil); err != nil {
		logger.Fatal("mongo ping", zap.Error(err))
	}
	defer func() { _ = mg.Disconnect(context.Background()) }()

	eventsCol := mg.Database(cfg.MongoDB).Collection("events")
	if err := models.EnsureEventIndexes(ctx, eventsCol); err != nil {
		logger.Fatal("mongo indexes", zap.Error(err))
	}

	// Redis: response cache and quota; the API still works without it
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, cache and quota degrade to pass-through", zap.Error(err))
	}

	users := models.NewSQLUserRepository(sqldb)
	scheduler := services.New(
		models.NewMongoEventRepository(eventsCol),
		users,
		models.NewSQLParticipantRepository(sqldb),
		models.NewSQLAvailabilityRepository(sqldb),
		services.Policy{
			Guests:        services.GuestPolicy(cfg.GuestPolicy),
			SlotLength:    cfg.SlotLength,
			MaskForbidden: cfg.MaskForbidden,
		},
		logger,
	)

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	server := gin.New()
	server.Use(gin.Recovery(), middlewares.RequestLogger(logger.Named("access")))

	limiters := routes.RegisterRoutes(server, routes.Options{
		Scheduler:  scheduler,
		Users:      users,
		Tokens:     utils.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		Redis:      rdb,
		CacheTTL:   cfg.CacheTTL,
		QuotaDaily: cfg.QuotaDaily,
		Logger:     logger,
	})
	defer func() {
		for _, l := range limiters {
			l.Close()
		}
	}()

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"X-Cache", "X-Quota-Used", "Retry-After"},
		AllowCredentials: true,
	}).Handler(server)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func initLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return logger
}
