// Package library собирает основное HTTP-приложение библиотеки:
// хранилище, кеш, сервисы и маршруты.
package library

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/library-loans/internal/cache"
	"github.com/magabrotheeeer/library-loans/internal/config"
	"github.com/magabrotheeeer/library-loans/internal/lib/jwt"
	"github.com/magabrotheeeer/library-loans/internal/metrics"
	"github.com/magabrotheeeer/library-loans/internal/migrations"
	"github.com/magabrotheeeer/library-loans/internal/openlibrary"
	authservice "github.com/magabrotheeeer/library-loans/internal/services/auth"
	catalogservice "github.com/magabrotheeeer/library-loans/internal/services/catalog"
	loanservice "github.com/magabrotheeeer/library-loans/internal/services/loan"
	"github.com/magabrotheeeer/library-loans/internal/storage/repository"
)

// App объединяет HTTP-сервер и его зависимости.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New создает приложение: подключается к базе, применяет миграции,
// инициализирует кеш и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	authService := authservice.NewAuthService(db, jwtMaker)
	catalogService := catalogservice.NewCatalogService(db, cacheRedis, openlibrary.NewClient(), logger)
	loanService := loanservice.NewLoanService(db, cacheRedis, collector, logger, cfg.PeriodDays)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, catalogService, loanService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		return err
	}
}
