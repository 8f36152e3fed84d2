// Package bookresize реализует HTTP-обработчик изменения размера фонда книги.
//
// Доступен только администратору. Фонд нельзя сделать меньше числа
// экземпляров, находящихся на руках у читателей.
package bookresize

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/library-loans/internal/http/response"
	"github.com/magabrotheeeer/library-loans/internal/ledger"
	"github.com/magabrotheeeer/library-loans/internal/lib/sl"
	"github.com/magabrotheeeer/library-loans/internal/models"
	"github.com/magabrotheeeer/library-loans/internal/storage/repository"
)

// Handler управляет HTTP-запросами на изменение фонда книги.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики каталога
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики изменения фонда.
type Service interface {
	Resize(ctx context.Context, bookID, newTotal int) (*models.Book, error)
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
// @Summary Изменить размер фонда книги
// @Description Устанавливает новое общее количество экземпляров. Отклоняется, если новое значение меньше числа книг на руках.
// @Tags Catalog
// @Accept  json
// @Produce  json
// @Param id path int true "Идентификатор книги"
// @Param request body models.DummyResize true "Новое общее количество экземпляров"
// @Success 200 {object} map[string]any "Обновлённая карточка книги"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Книга не найдена"
// @Failure 409 {object} response.ErrorResponse "Новый размер фонда меньше числа книг на руках"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при изменении фонда"
// @Router /books/{id}/resize [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.bookresize"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid book id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid book id"))
		return
	}

	var req models.DummyResize
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

	book, err := h.service.Resize(r.Context(), id, req.TotalCopies)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookNotFound):
			log.Error("book not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("book not found"))
		case errors.Is(err, ledger.ErrInvalidResize):
			log.Error("invalid resize", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("new total is below the number of copies on loan"))
		default:
			log.Error("failed to resize book", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not resize book"))
		}
		return
	}

	log.Info("success to resize book", slog.Int("book_id", book.ID),
		slog.Int("total_copies", book.TotalCopies),
		slog.Int("available_copies", book.AvailableCopies))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"book": book,
	}))
}
