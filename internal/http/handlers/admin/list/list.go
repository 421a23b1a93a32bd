// Package list отдаёт админ-панели все подписки с email владельцев и сводкой.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/evofit/internal/http/response"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	adminservices "github.com/magabrotheeeer/evofit/internal/services/admin"
)

// Service строит содержимое админ-панели.
type Service interface {
	List(ctx context.Context) (adminservices.Overview, error)
}

// Handler обрабатывает GET /admin/subscriptions.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список подписок
// @Description Все подписки с email владельцев, числом активных и истёкших и выручкой.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	overview, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not list subscriptions")
		return
	}

	log.Info("subscriptions listed", slog.Int("count", len(overview.Subscriptions)))
	render.JSON(w, r, response.StatusOKWithData(overview))
}
