// Package bookread реализует HTTP-обработчик просмотра карточки книги.
package bookread

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/library-loans/internal/http/response"
	"github.com/magabrotheeeer/library-loans/internal/lib/sl"
	"github.com/magabrotheeeer/library-loans/internal/models"
	"github.com/magabrotheeeer/library-loans/internal/storage/repository"
)

// Handler управляет HTTP-запросами на просмотр книги.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики каталога
}

// Service описывает интерфейс бизнес-логики просмотра книги.
type Service interface {
	Read(ctx context.Context, id int) (*models.Book, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить книгу
// @Description Возвращает карточку книги с количеством свободных экземпляров.
// @Tags Catalog
// @Produce  json
// @Param id path int true "Идентификатор книги"
// @Success 200 {object} map[string]any "Карточка книги"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 404 {object} response.ErrorResponse "Книга не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при получении книги"
// @Router /books/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.bookread"
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

	book, err := h.service.Read(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			log.Error("book not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("book not found"))
			return
		}
		log.Error("failed to read book", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read book"))
		return
	}

	log.Info("success to read book", slog.Int("book_id", book.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"book": book,
	}))
}
