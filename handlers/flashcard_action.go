package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fiszkiapp/fiszki-api/middleware"
	"github.com/fiszkiapp/fiszki-api/services"
)

// LogFlashcardAction handles
// POST /api/generation-sessions/{sessionID}/flashcard-actions.
func (h *Handler) LogFlashcardAction(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessionID := r.PathValue("sessionID")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var command services.FlashcardActionCommand
	if err := decoder.Decode(&command); err != nil {
		respondError(w, http.StatusBadRequest, "Could not decode request")
		return
	}

	record, err := h.Actions.LogFlashcardAction(sessionID, user.ID, command)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}
