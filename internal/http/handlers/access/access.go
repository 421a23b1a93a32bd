// Package access отдаёт решение экрана доступа для текущего токена.
// Отсутствие токена не ошибка: клиент получает состояние redirect_login.
package access

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/evofit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/evofit/internal/http/response"
	gateservices "github.com/magabrotheeeer/evofit/internal/services/gate"
)

// Gate разрешает доступ по токену.
type Gate interface {
	Resolve(ctx context.Context, token string) gateservices.Decision
}

// Handler обрабатывает GET /access.
type Handler struct {
	log  *slog.Logger
	gate Gate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, gate Gate) *Handler {
	return &Handler{log: log, gate: gate}
}

// ServeHTTP godoc
// @Summary Решение о доступе
// @Description Возвращает redirect_login, blocked или active со снимком подписки.
// @Tags Access
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	decision := h.gate.Resolve(r.Context(), middlewarectx.BearerToken(r))

	h.log.Debug("access resolved",
		slog.String("state", string(decision.State)),
		slog.String("request_id", middleware.GetReqID(r.Context())))
	render.JSON(w, r, response.StatusOKWithData(decision))
}
