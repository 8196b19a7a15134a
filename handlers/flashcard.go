package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/fiszkiapp/fiszki-api/middleware"
	"github.com/fiszkiapp/fiszki-api/services"
)

// ListFlashcards handles GET /api/flashcards with page/limit pagination and
// an optional comma-separated tags filter.
func (h *Handler) ListFlashcards(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var tags []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	flashcards, total, err := h.Flashcards.List(user.ID, page, limit, tags)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":  flashcards,
		"total": total,
	})
}

// GetFlashcard handles GET /api/flashcards/{flashcardID}.
func (h *Handler) GetFlashcard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	flashcardID := r.PathValue("flashcardID")
	if flashcardID == "" {
		respondError(w, http.StatusBadRequest, "Flashcard ID is required")
		return
	}

	flashcard, err := h.Flashcards.Get(user.ID, flashcardID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, flashcard)
}

// CreateFlashcard handles POST /api/flashcards for manual entry.
func (h *Handler) CreateFlashcard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var command services.CreateFlashcardCommand
	if err := decoder.Decode(&command); err != nil {
		respondError(w, http.StatusBadRequest, "Could not decode request")
		return
	}

	flashcard, err := h.Flashcards.Create(user.ID, command)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, flashcard)
}

// UpdateFlashcard handles PUT /api/flashcards/{flashcardID}.
func (h *Handler) UpdateFlashcard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	flashcardID := r.PathValue("flashcardID")
	if flashcardID == "" {
		respondError(w, http.StatusBadRequest, "Flashcard ID is required")
		return
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var command services.UpdateFlashcardCommand
	if err := decoder.Decode(&command); err != nil {
		respondError(w, http.StatusBadRequest, "Could not decode request")
		return
	}

	flashcard, err := h.Flashcards.Update(user.ID, flashcardID, command)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, flashcard)
}

// DeleteFlashcard handles DELETE /api/flashcards/{flashcardID}.
func (h *Handler) DeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	flashcardID := r.PathValue("flashcardID")
	if flashcardID == "" {
		respondError(w, http.StatusBadRequest, "Flashcard ID is required")
		return
	}

	if err := h.Flashcards.Delete(user.ID, flashcardID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Flashcard deleted successfully"})
}
