package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	webAdapter "trade-docs/internal/adapters/web"
	"trade-docs/internal/app"
	"trade-docs/internal/config"
	"trade-docs/internal/core"
	"trade-docs/internal/db"
	"trade-docs/internal/logger"
	"trade-docs/internal/storage"
	"trade-docs/migrations"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		log.Fatal().Err(err).Msg("logger")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is not set")
	}
	if cfg.AdminToken == "" {
		log.Warn().Msg("ADMIN_TOKEN is not set; company registration is only available through the CLI")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	applied, err := db.Migrate(ctx, pool, migrations.FS)
	if err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	if len(applied) > 0 {
		log.Info().Strs("files", applied).Msg("migrations applied")
	}

	policy, err := cfg.DeletePolicy()
	if err != nil {
		log.Fatal().Err(err).Msg("delete policy")
	}

	files, closeFiles, err := storage.Open(ctx, cfg.StorageProvider, cfg.UploadDir, cfg.GCSBucket, cfg.GCSCredentialsJSON)
	if err != nil {
		log.Fatal().Err(err).Msg("file storage")
	}
	defer closeFiles()

	store := db.NewStore(pool)
	svc := app.NewAppService(
		core.NewDocumentService(store, policy),
		core.NewCompanyService(store),
		files,
	)

	opts := webAdapter.Options{AllowedOrigins: cfg.AllowedOrigins, JWTSecret: cfg.JWTSecret, AdminToken: cfg.AdminToken}
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("REDIS_URL")
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable; rate limiter will fail open")
		}
		opts.RateLimiter = webAdapter.NewRateLimiter(rdb, cfg.RateLimit, time.Duration(cfg.RateWindowSec)*time.Second)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           webAdapter.NewHandler(svc, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", cfg.Port).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server")
	}
}
