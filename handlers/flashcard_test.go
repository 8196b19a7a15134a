package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fiszkiapp/fiszki-api/middleware"
	"github.com/fiszkiapp/fiszki-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flashcardMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/flashcards", middleware.SyncUserMiddleware(h.ListFlashcards))
	mux.HandleFunc("POST /api/flashcards", middleware.SyncUserMiddleware(h.CreateFlashcard))
	mux.HandleFunc("GET /api/flashcards/{flashcardID}", middleware.SyncUserMiddleware(h.GetFlashcard))
	mux.HandleFunc("PUT /api/flashcards/{flashcardID}", middleware.SyncUserMiddleware(h.UpdateFlashcard))
	mux.HandleFunc("DELETE /api/flashcards/{flashcardID}", middleware.SyncUserMiddleware(h.DeleteFlashcard))
	return mux
}

func doJSON(mux *http.ServeMux, subject, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authenticate(req, subject, ""))
	return rec
}

func TestFlashcardEndpointsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	mux := flashcardMux(newTestHandler(t, db))
	subject := "auth0|h-crud"

	rec := doJSON(mux, subject, http.MethodPost, "/api/flashcards",
		`{"front":"dog","back":"pies","phonetic":"dɒɡ","tags":["zwierzęta"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created services.FlashcardDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "manual", created.Source)

	rec = doJSON(mux, subject, http.MethodGet, "/api/flashcards/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(mux, subject, http.MethodPut, "/api/flashcards/"+created.ID,
		`{"front":"dog","back":"pies domowy","phonetic":"","tags":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated services.FlashcardDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, "pies domowy", updated.Back)
	assert.Empty(t, updated.Tags)

	rec = doJSON(mux, subject, http.MethodDelete, "/api/flashcards/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(mux, subject, http.MethodGet, "/api/flashcards/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListFlashcardsEndpointPaginationAndFilter(t *testing.T) {
	db := newTestDB(t)
	mux := flashcardMux(newTestHandler(t, db))
	subject := "auth0|h-list"

	cards := []string{
		`{"front":"apple","back":"jabłko","tags":["owoce"]}`,
		`{"front":"pear","back":"gruszka","tags":["owoce"]}`,
		`{"front":"run","back":"biegać","tags":["czasowniki"]}`,
	}
	for _, body := range cards {
		rec := doJSON(mux, subject, http.MethodPost, "/api/flashcards", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	type listResponse struct {
		Data  []services.FlashcardDTO `json:"data"`
		Total int64                   `json:"total"`
	}

	rec := doJSON(mux, subject, http.MethodGet, "/api/flashcards?page=1&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page listResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Data, 2)

	rec = doJSON(mux, subject, http.MethodGet, "/api/flashcards?tags=owoce", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var filtered listResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&filtered))
	assert.EqualValues(t, 2, filtered.Total)
}

func TestCreateFlashcardEndpointValidation(t *testing.T) {
	db := newTestDB(t)
	mux := flashcardMux(newTestHandler(t, db))
	subject := "auth0|h-val"

	rec := doJSON(mux, subject, http.MethodPost, "/api/flashcards", `{"back":"pies"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Front text is required")

	rec = doJSON(mux, subject, http.MethodPost, "/api/flashcards",
		`{"front":"dog","back":"pies","tags":["a","b","c","d","e"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Maximum 4 tags are allowed")

	rec = doJSON(mux, subject, http.MethodPost, "/api/flashcards", `{"front":"dog","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not decode request")
}

func TestFlashcardEndpointsScopedToUser(t *testing.T) {
	db := newTestDB(t)
	mux := flashcardMux(newTestHandler(t, db))

	rec := doJSON(mux, "auth0|h-owner2", http.MethodPost, "/api/flashcards",
		`{"front":"sun","back":"słońce"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created services.FlashcardDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = doJSON(mux, "auth0|h-other2", http.MethodGet, "/api/flashcards/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(mux, "auth0|h-other2", http.MethodDelete, "/api/flashcards/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
