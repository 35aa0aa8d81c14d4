package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/recipe-api/internal/config"
	"github.com/msomdec/recipe-api/internal/domain"
	"github.com/msomdec/recipe-api/internal/handler"
	"github.com/msomdec/recipe-api/internal/repository/sqlite"
	"github.com/msomdec/recipe-api/internal/service"
	"github.com/msomdec/recipe-api/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Logger))

	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied", "path", cfg.Database.Path)

	files, err := newFileStore(context.Background(), cfg, db)
	if err != nil {
		slog.Error("failed to set up media storage", "error", err)
		os.Exit(1)
	}
	slog.Info("media storage ready", "backend", cfg.Media.Backend)

	authService := service.NewAuthService(db.Users(), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)
	recipeService := service.NewRecipeService(db.Recipes(), db.Tags(), db.Ingredients(), files)
	imageService := service.NewImageService(recipeService, files, cfg.Media.MaxUploadBytes)

	authLimiter := service.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	defer authLimiter.Stop()

	router := handler.NewRouter(handler.Services{
		Auth:        authService,
		Tags:        service.NewAttributeService(db.Tags()),
		Ingredients: service.NewAttributeService(db.Ingredients()),
		Recipes:     recipeService,
		Images:      imageService,
		AuthLimiter: authLimiter,
	}, handler.RouterOptions{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		MediaURL:           cfg.Media.URL,
		TrustProxyHeaders:  cfg.Server.TrustProxyHeaders,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func newLogger(cfg config.LoggerConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// newFileStore returns the image store selected by MEDIA_BACKEND.
func newFileStore(ctx context.Context, cfg *config.Config, db *sqlite.DB) (domain.FileStore, error) {
	switch cfg.Media.Backend {
	case config.MediaSQLite:
		return db.FileStore(), nil
	case config.MediaDisk:
		store, err := storage.NewDiskStore(cfg.Media.Root)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.MediaS3:
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			Prefix:          cfg.S3.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Media.Backend)
	}
}
