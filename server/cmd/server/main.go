package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/internal/logger"
	"github.com/maynagashev/slidedeck/server/internal/auth"
	"github.com/maynagashev/slidedeck/server/internal/handlers"
	"github.com/maynagashev/slidedeck/server/internal/metrics"
	"github.com/maynagashev/slidedeck/server/internal/migrations"
	"github.com/maynagashev/slidedeck/server/internal/render"
	"github.com/maynagashev/slidedeck/server/internal/repository"
	"github.com/maynagashev/slidedeck/server/internal/services"
	"github.com/maynagashev/slidedeck/server/internal/storage"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// dependencies хранит инициализированные зависимости сервера.
type dependencies struct {
	db      *sqlx.DB
	handler http.Handler
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Printf("Ошибка конфигурации: %v", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, cfg); err != nil {
		log.Printf("Ошибка выполнения сервера: %v", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop уже вызван
	}
}

// run запускает сервер и блокируется до отмены контекста.
func run(ctx context.Context, cfg *config) error {
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("ошибка инициализации логгера: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	zl.Info("Запуск сервера slidedeck", zap.String("address", cfg.Address))

	deps, err := setupDependencies(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	defer func() {
		if closeErr := deps.db.Close(); closeErr != nil {
			zl.Error("Ошибка закрытия соединения с БД", zap.Error(closeErr))
		}
	}()

	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      deps.handler,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
		ErrorLog:     zap.NewStdLog(zl.Named("HTTP")),
	}

	return serve(ctx, server, cfg, zl)
}

// serve обслуживает запросы до отмены контекста, затем плавно останавливает сервер.
func serve(ctx context.Context, server *http.Server, cfg *config, zl *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLSEnabled() {
			zl.Info("Запуск HTTPS-сервера",
				zap.String("cert", cfg.CertFile), zap.String("key", cfg.KeyFile))
			err = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			zl.Info("Запуск HTTP-сервера")
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zl.Info("Остановка сервера")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	zl.Info("Сервер остановлен")
	return nil
}

// setupDependencies инициализирует БД, хранилище, сервисы и маршруты.
func setupDependencies(ctx context.Context, cfg *config, zl *zap.Logger) (*dependencies, error) {
	// 1. Подключение к БД и миграции
	db, dialect, err := repository.NewDB(cfg.DatabaseDSN, zl)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
	}
	if err = migrations.Up(ctx, db.DB, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	// 2. Хранилище файлов
	files, err := newArtifactStorage(ctx, cfg, zl)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	// 3. Сервисы
	store := repository.NewStore(db, zl)
	m := metrics.New()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	versions := services.NewVersionStore(store, render.NewGenerator(files, zl), files, m, zl)
	presentations := services.NewPresentationService(store, versions, files, m, cfg.PageSize, zl)
	authService := services.NewAuthService(store.Users(), tokens, zl)
	adminService := services.NewAdminService(store, cfg.PageSize, zl)

	if err = authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ошибка создания администратора: %w", err)
	}

	// 4. Маршруты
	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:          handlers.NewAuthHandler(authService, zl),
		Presentations: handlers.NewPresentationHandler(presentations, zl),
		Admin:         handlers.NewAdminHandler(presentations, adminService, zl),
		Tokens:        tokens,
		Metrics:       m,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		Logger:        zl,
	})

	return &dependencies{db: db, handler: router}, nil
}

// newArtifactStorage создает хранилище файлов презентаций.
func newArtifactStorage(ctx context.Context, cfg *config, zl *zap.Logger) (storage.ArtifactStorage, error) {
	switch cfg.StorageBackend {
	case storageMinio:
		files, err := storage.NewMinioStorage(ctx, storage.MinioConfig{
			Endpoint:        cfg.Minio.Endpoint,
			AccessKeyID:     cfg.Minio.User,
			SecretAccessKey: cfg.Minio.Password,
			UseSSL:          cfg.Minio.UseSSL,
			BucketName:      cfg.Minio.Bucket,
		}, zl)
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации MinIO: %w", err)
		}
		return files, nil
	default:
		files, err := storage.NewLocalStorage(cfg.UploadRoot, zl)
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации каталога файлов: %w", err)
		}
		return files, nil
	}
}
