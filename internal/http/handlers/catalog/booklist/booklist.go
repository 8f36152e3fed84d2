// Package booklist реализует HTTP-обработчик просмотра каталога книг.
package booklist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/library-loans/internal/http/response"
	"github.com/magabrotheeeer/library-loans/internal/lib/sl"
	"github.com/magabrotheeeer/library-loans/internal/models"
)

const (
	defaultLimit  = 20
	defaultOffset = 0
	maxLimit      = 100
)

// Handler управляет HTTP-запросами на просмотр каталога.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики каталога
}

// Service описывает интерфейс бизнес-логики просмотра каталога.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.Book, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить каталог книг
// @Description Возвращает страницу каталога с количеством свободных экземпляров по каждой книге.
// @Tags Catalog
// @Produce  json
// @Param limit query int false "Максимум записей (по умолчанию 20)"
// @Param offset query int false "Смещение (по умолчанию 0)"
// @Success 200 {object} map[string]any "Список книг"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при получении каталога"
// @Router /books [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.booklist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, offset := parsePagination(r)

	books, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list books", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list books"))
		return
	}

	log.Info("success to list books", slog.Int("count", len(books)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"books": books,
		"count": len(books),
	}))
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit, offset = defaultLimit, defaultOffset
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
