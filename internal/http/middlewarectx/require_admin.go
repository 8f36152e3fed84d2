package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/library-loans/internal/http/response"
	"github.com/magabrotheeeer/library-loans/internal/models"
)

// RequireAdminMiddleware пропускает дальше только администраторов.
// Проверка роли выполняется здесь, на границе: сервисы получают уже
// проверенную роль и не выводят права заново.
func RequireAdminMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(Role).(string)
			if !ok || role != models.RoleAdmin {
				log.Error("admin privilege required", slog.String("role", role))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin privilege required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
