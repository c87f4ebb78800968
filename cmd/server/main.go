package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NoteKeeper/internal/config"
	"NoteKeeper/internal/feed"
	"NoteKeeper/internal/handlers"
	"NoteKeeper/internal/middleware"
	"NoteKeeper/internal/repo"
	"NoteKeeper/internal/service"
	"NoteKeeper/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

func main() {
	cfg := config.NewConfig()

	// создаём регистратор zap с уровнем из конфига
	zcfg := zap.NewDevelopmentConfig()
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zcfg.Level = level
	}
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	//context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN, sugar)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		sugar.Fatalw("failed to initialize image storage", "backend", cfg.StorageBackend, "error", err)
	}

	broker, err := newBroker(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to initialize change feed", "error", err)
	}
	defer broker.Close()
	pub := feed.NewPublisher(broker, uuid.NewString(), sugar)

	userRepo := repo.NewUserRepository(gormDB)
	noteRepo := repo.NewNoteRepository(gormDB)
	tagRepo := repo.NewTagRepository(gormDB)
	linkRepo := repo.NewNoteTagRepository(gormDB)
	imageRepo := repo.NewImageRepository(gormDB)

	userService := service.NewUserService(userRepo)
	tagService := service.NewTagService(tagRepo, noteRepo, linkRepo, pub, sugar)
	noteService := service.NewNoteService(noteRepo, tagService, pub, sugar)
	imageService := service.NewImageService(imageRepo, noteRepo, store, pub, sugar)
	imageService.SetLimits(cfg.ImageMaxSize(), cfg.MaxImagesPerNote)
	if cfg.SortLocale != "" {
		loc, err := language.Parse(cfg.SortLocale)
		if err != nil {
			sugar.Warnw("invalid sort locale, using root collation", "locale", cfg.SortLocale, "error", err)
		} else {
			noteService.SetSortLocale(loc)
		}
	}

	// кэши сбрасываются по событиям других узлов
	events, unsubscribe := broker.Subscribe(ctx)
	defer unsubscribe()
	go noteService.Watch(ctx, events)

	h := handlers.NewHandler(userService, noteService, tagService, imageService, broker, sugar, cfg)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"StorageBackend", cfg.StorageBackend,
		"Redis", cfg.RedisAddr != "",
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Server shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("Server failed", "error", err)
	}
	sugar.Infow("Server stopped")
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, error) {
	if cfg.StorageBackend == config.StorageS3 {
		return storage.NewS3Storage(ctx, cfg.S3Bucket, cfg.S3Region, "", cfg.PublicBaseURL)
	}
	return storage.NewFSStorage(cfg.StorageDir, cfg.PublicBaseURL)
}

func newBroker(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (feed.Broker, error) {
	if cfg.RedisAddr == "" {
		return feed.NewMemoryBroker(), nil
	}
	return feed.NewRedisBroker(ctx, cfg.RedisAddr, cfg.RedisPassword, 0, logger)
}
