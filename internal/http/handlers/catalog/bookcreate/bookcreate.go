// Package bookcreate реализует HTTP-обработчик добавления книги в каталог.
//
// Доступен только администратору. Если название или автор не переданы,
// сервис пытается подтянуть метаданные по ISBN из внешнего источника.
package bookcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/library-loans/internal/http/response"
	"github.com/magabrotheeeer/library-loans/internal/lib/sl"
	"github.com/magabrotheeeer/library-loans/internal/models"
	services "github.com/magabrotheeeer/library-loans/internal/services/catalog"
	"github.com/magabrotheeeer/library-loans/internal/storage/repository"
)

// Handler управляет HTTP-запросами на добавление книги.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики каталога
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики добавления книги.
type Service interface {
	Create(ctx context.Context, req models.DummyBook) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Добавить книгу
// @Description Добавляет книгу в каталог. Название и автора можно не передавать — они будут найдены по ISBN.
// @Tags Catalog
// @Accept  json
// @Produce  json
// @Param request body models.DummyBook true "Данные книги"
// @Success 200 {object} map[string]any "Идентификатор созданной книги"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или метаданные не найдены"
// @Failure 409 {object} response.ErrorResponse "Книга с таким ISBN уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при добавлении книги"
// @Router /books [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.bookcreate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyBook
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id, err := h.service.Create(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateISBN):
			log.Error("duplicate isbn", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("book with this isbn already exists"))
		case errors.Is(err, services.ErrMissingMetadata):
			log.Error("metadata not found", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("title and author are required: metadata lookup failed"))
		default:
			log.Error("failed to create book", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create book"))
		}
		return
	}

	log.Info("success to create book", slog.Int("book_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"book_id": id,
	}))
}
