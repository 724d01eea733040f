package language

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/goodpsyche/hopebot/backend/internal/model/language"
)

func TestListLanguages(t *testing.T) {
	r := chi.NewRouter()
	New(language.NewMemoryStore(language.Seed())).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/languages", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var languages []language.Language
	if err := json.Unmarshal(resp.Body.Bytes(), &languages); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(languages) != 3 {
		t.Fatalf("expected 3 languages, got %d", len(languages))
	}
	if languages[0].ID != language.Default {
		t.Fatalf("expected %s first, got %s", language.Default, languages[0].ID)
	}
}
