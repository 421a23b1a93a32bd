// Package health отдаёт состояние сервиса и его зависимостей.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/evofit/internal/http/response"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
)

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler обрабатывает GET /health.
type Handler struct {
	log    *slog.Logger
	checks map[string]Pinger
}

// New создаёт Handler. checks может быть пустым.
func New(log *slog.Logger, checks map[string]Pinger) *Handler {
	return &Handler{log: log, checks: checks}
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	deps := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check.Ping(r.Context()); err != nil {
			h.log.Error("dependency unhealthy", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			deps[name] = "down"
			healthy = false
			continue
		}
		deps[name] = "ok"
	}

	data := map[string]any{"status": "ok", "dependencies": deps}
	if !healthy {
		data["status"] = "degraded"
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.ErrorWithData("dependency unavailable", data))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(data))
}
