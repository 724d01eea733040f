package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/goodpsyche/hopebot/backend/internal/handler/activity"
	"github.com/goodpsyche/hopebot/backend/internal/handler/chat"
	"github.com/goodpsyche/hopebot/backend/internal/handler/language"
	middlewarePkg "github.com/goodpsyche/hopebot/backend/internal/middleware"
	languageModel "github.com/goodpsyche/hopebot/backend/internal/model/language"
	activityService "github.com/goodpsyche/hopebot/backend/internal/service/activity"
	"github.com/goodpsyche/hopebot/backend/pkg/utils"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies groups everything the router wires into handlers.
type Dependencies struct {
	Responder      chat.Responder
	History        chat.HistoryReader
	Activity       *activityService.Service
	Languages      languageModel.Store
	Store          Pinger
	RateLimiter    *middlewarePkg.RateLimiter
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(deps.Logger))
	r.Use(middlewarePkg.Recoverer(deps.Logger))
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	r.Get("/healthz", healthz(deps.Store))

	chatHandler := chat.New(deps.Responder, deps.History, deps.Languages, deps.RateLimiter, deps.Logger)
	activityHandler := activity.New(deps.Activity, deps.Logger)
	languageHandler := language.New(deps.Languages)

	r.Route("/api", func(api chi.Router) {
		languageHandler.RegisterRoutes(api)

		api.Group(func(authed chi.Router) {
			authed.Use(middlewarePkg.RequireUser)

			chatHandler.RegisterRoutes(authed)
			activityHandler.RegisterRoutes(authed)
		})
	})

	return r
}

func healthz(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
