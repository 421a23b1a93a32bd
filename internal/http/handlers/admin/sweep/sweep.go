// Package sweep запускает сверку истёкших подписок по запросу администратора.
package sweep

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/evofit/internal/http/response"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
)

// Service выполняет сверку.
type Service interface {
	Sweep(ctx context.Context) (int, error)
}

// Handler обрабатывает POST /admin/subscriptions/sweep.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сверка истёкших подписок
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/subscriptions/sweep [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.sweep"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	n, err := h.service.Sweep(r.Context())
	if err != nil {
		log.Error("sweep failed", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not expire subscriptions")
		return
	}
	log.Info("manual sweep finished", slog.Int("expired", n))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"expired_count": n,
	}))
}
