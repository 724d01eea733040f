package activity

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodpsyche/hopebot/backend/internal/middleware"
	model "github.com/goodpsyche/hopebot/backend/internal/model/activity"
	activityService "github.com/goodpsyche/hopebot/backend/internal/service/activity"
	"github.com/goodpsyche/hopebot/backend/internal/store/memory"
)

func setupRouter() (*chi.Mux, *activityService.Service) {
	svc := activityService.NewService(memory.New(), activityService.Config{})
	r := chi.NewRouter()
	r.Use(middleware.RequireUser)
	New(svc, zerolog.Nop()).RegisterRoutes(r)
	return r, svc
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(middleware.UserIDHeader, "user-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRecordsForNewUserCoverFullWindow(t *testing.T) {
	r, svc := setupRouter()

	rec := do(t, r, http.MethodGet, "/activity/records", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []model.DailyRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 365)
	for _, record := range records {
		assert.Zero(t, record.TimeSpent)
	}
	assert.Equal(t, svc.Today(), records[len(records)-1].Date)
}

func TestRecordAccumulatesAndFeedsTotalsAndStreaks(t *testing.T) {
	r, svc := setupRouter()
	today := svc.Today()
	todayTime, err := model.ParseDate(today)
	require.NoError(t, err)
	yesterday := model.FormatDate(todayTime.AddDate(0, 0, -1))

	rec := do(t, r, http.MethodPost, "/activity/records", map[string]any{"timeSpent": 120})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"date":"`+today+`","timeSpent":120}`, rec.Body.String())

	require.Equal(t, http.StatusAccepted, do(t, r, http.MethodPost, "/activity/records", map[string]any{"date": today, "timeSpent": 30}).Code)
	require.Equal(t, http.StatusAccepted, do(t, r, http.MethodPost, "/activity/records", map[string]any{"date": yesterday, "timeSpent": 60}).Code)

	rec = do(t, r, http.MethodGet, "/activity/total", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalTimeSpent":210}`, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/activity/streaks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"currentStreak":2,"longestStreak":2}`, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/activity/records", nil)
	var records []model.DailyRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 365)
	assert.Equal(t, model.DailyRecord{Date: today, TimeSpent: 150}, records[364])
	assert.Equal(t, model.DailyRecord{Date: yesterday, TimeSpent: 60}, records[363])
}

func TestRecordRejectsInvalidInput(t *testing.T) {
	r, _ := setupRouter()

	cases := map[string]any{
		"bad date":       map[string]any{"date": "2024/01/05", "timeSpent": 10},
		"zero duration":  map[string]any{"timeSpent": 0},
		"negative":       map[string]any{"timeSpent": -5},
		"unknown fields": map[string]any{"seconds": 5},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, r, http.MethodPost, "/activity/records", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestActivityRequiresUser(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/activity/streaks", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

