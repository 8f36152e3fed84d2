// Package reserve реализует HTTP-обработчик бронирования книги.
//
// Handler принимает JSON-запрос с идентификатором книги, извлекает uid
// пользователя из контекста и создаёт выдачу через бизнес-логику.
// Бизнес-отказы (книга не найдена, нет свободных экземпляров) транслируются
// в соответствующие HTTP-статусы.
package reserve

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/library-loans/internal/http/middlewarectx"
	"github.com/magabrotheeeer/library-loans/internal/http/response"
	"github.com/magabrotheeeer/library-loans/internal/ledger"
	"github.com/magabrotheeeer/library-loans/internal/lib/sl"
	"github.com/magabrotheeeer/library-loans/internal/models"
	"github.com/magabrotheeeer/library-loans/internal/storage/repository"
)

// Handler управляет HTTP-запросами на бронирование книги.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики выдач
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики бронирования.
type Service interface {
	Reserve(ctx context.Context, userUID string, req models.DummyReserve) (*models.Loan, error)
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
// @Summary Забронировать книгу
// @Description Списывает свободный экземпляр книги и создаёт выдачу для текущего пользователя.
// @Tags Loans
// @Accept  json
// @Produce  json
// @Param request body models.DummyReserve true "Идентификатор книги"
// @Success 200 {object} map[string]any "Созданная выдача"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Книга не найдена"
// @Failure 409 {object} response.ErrorResponse "Нет свободных экземпляров"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при бронировании"
// @Router /loans [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.loan.reserve"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyReserve
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

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	loan, err := h.service.Reserve(r.Context(), userUID, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookNotFound):
			log.Error("book not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("book not found"))
		case errors.Is(err, ledger.ErrUnavailable):
			log.Error("no available copies", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("no available copies for reservation"))
		default:
			log.Error("failed to reserve book", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not reserve book"))
		}
		return
	}

	log.Info("success to reserve book", slog.Int("loan_id", loan.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"loan": loan,
	}))
}
