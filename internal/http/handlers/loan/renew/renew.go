// Package renew реализует HTTP-обработчик продления выдачи.
package renew

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/library-loans/internal/http/middlewarectx"
	"github.com/magabrotheeeer/library-loans/internal/http/response"
	"github.com/magabrotheeeer/library-loans/internal/lib/sl"
	"github.com/magabrotheeeer/library-loans/internal/lifecycle"
	"github.com/magabrotheeeer/library-loans/internal/models"
	services "github.com/magabrotheeeer/library-loans/internal/services/loan"
	"github.com/magabrotheeeer/library-loans/internal/storage/repository"
)

// Handler управляет HTTP-запросами на продление выдачи.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики выдач
}

// Service описывает интерфейс бизнес-логики продления.
type Service interface {
	Renew(ctx context.Context, userUID string, loanID int) (*models.Loan, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Продлить выдачу
// @Description Сдвигает срок возврата на 14 дней. Просроченные и возвращённые выдачи продлить нельзя, лимит продлений — два.
// @Tags Loans
// @Produce  json
// @Param id path int true "Идентификатор выдачи"
// @Success 200 {object} map[string]any "Обновлённая выдача"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Выдача принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Выдача не найдена"
// @Failure 409 {object} response.ErrorResponse "Выдача не подлежит продлению"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при продлении"
// @Router /loans/{id}/renew [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.loan.renew"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	loanID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid loan id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid loan id"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	loan, err := h.service.Renew(r.Context(), userUID, loanID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLoanNotFound):
			log.Error("loan not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("loan not found"))
		case errors.Is(err, services.ErrForbidden):
			log.Error("loan belongs to another user", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("loan belongs to another user"))
		case errors.Is(err, lifecycle.ErrAlreadyReturned):
			log.Error("loan already returned", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("loan already returned"))
		case errors.Is(err, lifecycle.ErrNotRenewable):
			log.Error("loan is not renewable", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("loan is not renewable"))
		default:
			log.Error("failed to renew loan", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not renew loan"))
		}
		return
	}

	log.Info("success to renew loan", slog.Int("loan_id", loan.ID),
		slog.Int("renewals", loan.Renewals))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"loan": loan,
	}))
}
