package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/t2m/license-platform/internal/api"
	"github.com/t2m/license-platform/internal/api/handler"
	"github.com/t2m/license-platform/internal/core/service"
	"github.com/t2m/license-platform/internal/infrastructure/config"
	mongodb "github.com/t2m/license-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/t2m/license-platform/internal/infrastructure/db/redis"
	"github.com/t2m/license-platform/internal/infrastructure/seed"
	"github.com/t2m/license-platform/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Service: "license-platform",
		Pretty:  cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	// --- Repositories ---
	userRepo := mongodb.NewUserRepository(db)
	roleRepo := mongodb.NewRoleRepository(db)
	permRepo := mongodb.NewPermissionRepository(db)
	productRepo := mongodb.NewProductRepository(db)
	sessionStore := mongodb.NewSessionStore(db, cfg.Auth.SessionCap)

	for _, ensure := range []func(context.Context) error{
		userRepo.EnsureIndexes,
		roleRepo.EnsureIndexes,
		permRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Msg("index creation failed")
		}
	}

	if cfg.Seed.ShouldInit {
		if err := seed.New(db, log).Run(ctx, service.AdminEmail, cfg.Seed.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("seeding failed")
		}
	}

	// --- Core services ---
	tokens := service.NewTokenIssuer(
		cfg.Auth.AccessSecret,
		cfg.Auth.RefreshSecret,
		cfg.Auth.AccessTTL,
		cfg.Auth.RefreshTTL,
	)
	permCache := redisdb.NewPermissionCache(rdb, cfg.Auth.PermissionCacheTTL)
	resolver := service.NewRoleResolver(roleRepo, permRepo, permCache, cfg.Auth.PermissionCacheTTL, log)

	authService := service.NewAuthService(userRepo, roleRepo, sessionStore, tokens, log)
	userService := service.NewUserService(userRepo, log)
	roleService := service.NewRoleService(roleRepo, resolver, log)
	permService := service.NewPermissionService(permRepo, resolver, log)
	productService := service.NewProductService(productRepo, log)

	sweeper := service.NewSessionSweeper(sessionStore, tokens, cfg.Auth.SessionSweepInterval, log)
	sweeper.Start(ctx)

	// --- HTTP ---
	e := api.NewRouter(api.Handlers{
		Auth:        handler.NewAuthHandler(authService, resolver, userService, cfg.Auth.RefreshTTL),
		Users:       handler.NewUserHandler(userService),
		Roles:       handler.NewRoleHandler(roleService),
		Permissions: handler.NewPermissionHandler(permService),
		Products:    handler.NewProductHandler(productService),
		Health:      handler.NewHealthHandler(db, rdb),
	}, resolver, cfg.Auth.AccessSecret)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
