package activity

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/goodpsyche/hopebot/backend/internal/middleware"
	activityService "github.com/goodpsyche/hopebot/backend/internal/service/activity"
	"github.com/goodpsyche/hopebot/backend/pkg/utils"
)

// Handler serves the activity calendar endpoints.
type Handler struct {
	activitySvc *activityService.Service
	log         zerolog.Logger
}

// New creates the activity handler.
func New(activitySvc *activityService.Service, log zerolog.Logger) *Handler {
	return &Handler{
		activitySvc: activitySvc,
		log:         log.With().Str("component", "activity_handler").Logger(),
	}
}

// RegisterRoutes mounts the activity routes under /activity. Callers must install middleware.RequireUser.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/activity", func(r chi.Router) {
		r.Get("/records", h.handleListRecords)
		r.Post("/records", h.handleRecord)
		r.Get("/total", h.handleTotal)
		r.Get("/streaks", h.handleStreaks)
	})
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "user id is required")
		return
	}

	records, err := h.activitySvc.DailyRecords(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err, "failed to load activity records")
		return
	}
	utils.RespondJSON(w, http.StatusOK, records)
}

type recordRequest struct {
	Date      string `json:"date"`
	TimeSpent int64  `json:"timeSpent"`
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "user id is required")
		return
	}

	var payload recordRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := h.activitySvc.Record(r.Context(), userID, payload.Date, payload.TimeSpent)
	if err != nil {
		h.respondServiceError(w, err, "failed to store activity record")
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, map[string]any{
		"date":      date,
		"timeSpent": payload.TimeSpent,
	})
}

func (h *Handler) handleTotal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "user id is required")
		return
	}

	total, err := h.activitySvc.TotalTimeSpent(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err, "failed to load total time spent")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]int64{"totalTimeSpent": total})
}

func (h *Handler) handleStreaks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "user id is required")
		return
	}

	summary, err := h.activitySvc.Streaks(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err, "failed to compute streaks")
		return
	}
	utils.RespondJSON(w, http.StatusOK, summary)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, activityService.ErrInvalidDate),
		errors.Is(err, activityService.ErrInvalidDuration),
		errors.Is(err, activityService.ErrUserRequired):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Stack().Err(err).Msg(msg)
		utils.RespondError(w, http.StatusInternalServerError, msg)
	}
}
