package language

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goodpsyche/hopebot/backend/internal/model/language"
	"github.com/goodpsyche/hopebot/backend/pkg/utils"
)

// Handler lists the reply languages.
type Handler struct {
	languages language.Store
}

func New(languages language.Store) *Handler {
	return &Handler{languages: languages}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/languages", h.handleListLanguages)
}

func (h *Handler) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.languages.List())
}
