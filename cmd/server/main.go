// Command server runs the Foodgram HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	_ "github.com/tbourn/foodgram-backend/docs"
	"github.com/tbourn/foodgram-backend/internal/auth"
	"github.com/tbourn/foodgram-backend/internal/cache"
	"github.com/tbourn/foodgram-backend/internal/config"
	httpapi "github.com/tbourn/foodgram-backend/internal/http"
	"github.com/tbourn/foodgram-backend/internal/observability"
	"github.com/tbourn/foodgram-backend/internal/repo"
	"github.com/tbourn/foodgram-backend/internal/services"
	"github.com/tbourn/foodgram-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// @title Foodgram API
// @version 1.0
// @description Recipes, favorites, subscriptions and shopping lists.
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey TokenAuth
// @in header
// @name Authorization
// @description Type "Token" followed by a space and the access token.

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("reading .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := observability.InstrumentDB(db); err != nil {
		log.Fatal().Err(err).Msg("db tracing")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	var rc *cache.Cache
	if cfg.Cache.RedisURL != "" {
		rc, err = cache.Connect(ctx, cfg.Cache.RedisURL, cache.Options{TTL: cfg.Cache.TTL})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, caching disabled")
			rc = nil
		}
	}

	if cfg.SeedPath != "" {
		if err := seedCatalog(ctx, &services.CatalogService{DB: db, Cache: rc}, cfg.SeedPath); err != nil {
			log.Fatal().Err(err).Str("path", cfg.SeedPath).Msg("seed catalog")
		}
	}

	tokens, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer")
	}

	r := gin.New()
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	httpapi.RegisterRoutes(r, httpapi.Deps{DB: db, Tokens: tokens, Cache: rc}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go purgeIdempotency(ctx, db, time.Hour)

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", appVersion).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if err := rc.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func seedCatalog(ctx context.Context, catalog *services.CatalogService, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := catalog.Seed(ctx, f)
	if err != nil {
		return err
	}
	log.Info().Int64("tags", res.Tags).Int64("ingredients", res.Ingredients).Msg("catalog seeded")
	return nil
}

// purgeIdempotency drops expired idempotency records every interval until ctx
// is done.
func purgeIdempotency(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency")
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("expired idempotency keys removed")
			}
		}
	}
}
