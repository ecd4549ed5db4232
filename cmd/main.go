package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/jsricop/vitalgo-co/config"
	"github.com/jsricop/vitalgo-co/db"
	"github.com/jsricop/vitalgo-co/internal/auth/handler"
	repo "github.com/jsricop/vitalgo-co/internal/auth/repository/postgres"
	"github.com/jsricop/vitalgo-co/internal/auth/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Fatal("connect to postgres", zap.Error(err))
	}
	defer dbPool.Close()

	if err := db.RunMigrations(dbPool); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	store := repo.NewPostgresRepository(dbPool)
	passwordService := service.NewPasswordService(cfg.BcryptRounds)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.AccessExpiryMin, logger)
	authService := service.NewAuthService(store, store, store, passwordService, tokenService, logger)
	authHandler := handler.NewAuthHandler(authService, logger)

	sweeper := service.NewSessionSweeper(store, time.Duration(cfg.SweepIntervalMin)*time.Minute, logger)
	go sweeper.Run(ctx)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	handler.RegisterRoutes(app, authHandler)

	logger.Info("listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}
