// Package list реализует HTTP-обработчик просмотра выдач.
//
// Обычный пользователь видит только собственные выдачи, администратор —
// выдачи всех пользователей. Статусы и штрафы пересчитываются на момент
// запроса, поэтому просрочка видна сразу, без фонового пересчета.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/library-loans/internal/http/middlewarectx"
	"github.com/magabrotheeeer/library-loans/internal/http/response"
	"github.com/magabrotheeeer/library-loans/internal/lib/sl"
	"github.com/magabrotheeeer/library-loans/internal/models"
)

const (
	defaultLimit  = 20
	defaultOffset = 0
	maxLimit      = 100
)

// Handler управляет HTTP-запросами на просмотр выдач.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики выдач
}

// Service описывает интерфейс бизнес-логики просмотра выдач.
type Service interface {
	List(ctx context.Context, userUID, role string, limit, offset int) ([]*models.Loan, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить список выдач
// @Description Возвращает выдачи текущего пользователя, для администратора — все выдачи. Статус просрочки вычисляется на момент запроса.
// @Tags Loans
// @Produce  json
// @Param limit query int false "Максимум записей (по умолчанию 20)"
// @Param offset query int false "Смещение (по умолчанию 0)"
// @Success 200 {object} map[string]any "Список выдач"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при получении списка"
// @Router /loans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.loan.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	role, _ := r.Context().Value(middlewarectx.Role).(string)

	limit, offset := parsePagination(r)

	loans, err := h.service.List(r.Context(), userUID, role, limit, offset)
	if err != nil {
		log.Error("failed to list loans", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list loans"))
		return
	}

	log.Info("success to list loans", slog.Int("count", len(loans)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"loans": loans,
		"count": len(loans),
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
