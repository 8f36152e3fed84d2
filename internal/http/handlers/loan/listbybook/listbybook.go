// Package listbybook реализует HTTP-обработчик просмотра истории выдач книги.
package listbybook

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/library-loans/internal/http/response"
	"github.com/magabrotheeeer/library-loans/internal/lib/sl"
	"github.com/magabrotheeeer/library-loans/internal/models"
)

// Handler управляет HTTP-запросами на просмотр выдач по книге.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики выдач
}

// Service описывает интерфейс бизнес-логики просмотра выдач книги.
type Service interface {
	ListForBook(ctx context.Context, bookID int) ([]*models.Loan, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить выдачи книги
// @Description Возвращает историю выдач одной книги. Доступно только администратору.
// @Tags Loans
// @Security BearerAuth
// @Produce  json
// @Param id path int true "Идентификатор книги"
// @Success 200 {object} map[string]any "Список выдач книги"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при получении списка"
// @Router /books/{id}/loans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.loan.listbybook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	bookID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid book id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid book id"))
		return
	}

	loans, err := h.service.ListForBook(r.Context(), bookID)
	if err != nil {
		log.Error("failed to list loans for book", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list loans"))
		return
	}

	log.Info("success to list loans for book",
		slog.Int("book_id", bookID), slog.Int("count", len(loans)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"loans": loans,
	}))
}
