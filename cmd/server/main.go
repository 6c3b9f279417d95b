package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/mmuslimabdulj/chat-together/internal/auth"
	"github.com/mmuslimabdulj/chat-together/internal/config"
	httpHandler "github.com/mmuslimabdulj/chat-together/internal/delivery/http"
	"github.com/mmuslimabdulj/chat-together/internal/delivery/ws"
	"github.com/mmuslimabdulj/chat-together/internal/storage"
	"github.com/mmuslimabdulj/chat-together/internal/store"
	"gorm.io/gorm/logger"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg := config.LoadFromEnv()
	log := cfg.NewLogger(os.Stdout)
	slog.SetDefault(log)

	dbLogLevel := logger.Silent
	if cfg.LogLevel == "debug" {
		dbLogLevel = logger.Warn
	}
	db, err := store.Open(cfg.DatabasePath, dbLogLevel)
	if err != nil {
		log.Error("failed to open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}

	profiles := store.NewProfiles(db, store.NewPasswordHasher())
	roles := store.NewRoles(db)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	uploads, err := storage.New(storage.Options{
		Dir:           cfg.UploadDir,
		URLPrefix:     "/uploads",
		MaxFileSize:   cfg.MaxFileSize,
		MaxAvatarSize: cfg.MaxAvatarSize,
		Retention:     cfg.FileRetention,
		Logger:        log,
	})
	if err != nil {
		log.Error("failed to prepare upload directory", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub(ws.HubOptions{
		Profiles:       profiles,
		Logger:         log,
		MaxMessageSize: int64(cfg.MaxMessageSize),
	})
	go hub.Run(ctx)
	go uploads.Run(ctx, cfg.CleanupInterval)

	handler := httpHandler.NewHandler(httpHandler.Deps{
		Hub:      hub,
		Profiles: profiles,
		Roles:    roles,
		Uploads:  uploads,
		Tokens:   tokens,
		Config:   cfg,
		Logger:   log,
	})

	// No WriteTimeout: websocket connections are long lived
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("chat server running", "url", "http://localhost:"+cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
			"hub": func(ctx context.Context) error {
				cancel()
				select {
				case <-hub.Done():
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
			"database": func(ctx context.Context) error {
				select {
				case <-hub.Done():
				case <-ctx.Done():
				}
				return store.Close(db)
			},
		},
	)

	exitCode := <-wait
	log.Info("server exited", "code", exitCode)
	os.Exit(exitCode)
}
