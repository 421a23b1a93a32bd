// Package workouts отдаёт каталог разделов с тренировками.
// Доступ к обработчику закрыт проверкой подписки.
package workouts

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/evofit/internal/http/response"
)

// Section раздел каталога.
type Section struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Catalog разделы по умолчанию.
var Catalog = []Section{
	{ID: "library", Title: "Biblioteca de Treinos", Description: "Acesse todos os treinos disponíveis"},
	{ID: "frequency", Title: "Relatório de Frequência", Description: "Acompanhe sua frequência semanal"},
	{ID: "exercises", Title: "Biblioteca de Exercícios", Description: "Vídeos e instruções de cada exercício"},
}

// Handler обрабатывает GET /workouts.
type Handler struct {
	sections []Section
}

// New создаёт Handler с данными разделами.
func New(sections []Section) *Handler {
	return &Handler{sections: sections}
}

// ServeHTTP godoc
// @Summary Каталог тренировок
// @Tags Workouts
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.Response "Нет активной подписки"
// @Router /workouts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"sections": h.sections,
	}))
}
