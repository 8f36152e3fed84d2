// Package library предоставляет маршруты для основного приложения.
package library

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/library-loans/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/library-loans/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/library-loans/internal/http/handlers/catalog/bookcreate"
	"github.com/magabrotheeeer/library-loans/internal/http/handlers/catalog/booklist"
	"github.com/magabrotheeeer/library-loans/internal/http/handlers/catalog/bookread"
	"github.com/magabrotheeeer/library-loans/internal/http/handlers/catalog/bookresize"
	"github.com/magabrotheeeer/library-loans/internal/http/handlers/loan/list"
	"github.com/magabrotheeeer/library-loans/internal/http/handlers/loan/listbybook"
	"github.com/magabrotheeeer/library-loans/internal/http/handlers/loan/loanreturn"
	"github.com/magabrotheeeer/library-loans/internal/http/handlers/loan/renew"
	"github.com/magabrotheeeer/library-loans/internal/http/handlers/loan/reserve"
	"github.com/magabrotheeeer/library-loans/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/library-loans/internal/services/auth"
	catalogservice "github.com/magabrotheeeer/library-loans/internal/services/catalog"
	loanservice "github.com/magabrotheeeer/library-loans/internal/services/loan"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, authService *authservice.AuthService, catalogService *catalogservice.CatalogService, loanService *loanservice.LoanService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)

		// Каталог доступен для чтения без аутентификации
		r.Get("/books", booklist.New(logger, catalogService).ServeHTTP)
		r.Get("/books/{id}", bookread.New(logger, catalogService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/loans", reserve.New(logger, loanService).ServeHTTP)
			r.Get("/loans", list.New(logger, loanService).ServeHTTP)
			r.Post("/loans/{id}/renew", renew.New(logger, loanService).ServeHTTP)
			r.Post("/loans/{id}/return", loanreturn.New(logger, loanService).ServeHTTP)

			// Управление каталогом доступно только администратору
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAdminMiddleware(logger))
				r.Post("/books", bookcreate.New(logger, catalogService).ServeHTTP)
				r.Put("/books/{id}/resize", bookresize.New(logger, catalogService).ServeHTTP)
				r.Get("/books/{id}/loans", listbybook.New(logger, loanService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
