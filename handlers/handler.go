package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fiszkiapp/fiszki-api/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	DB         *gorm.DB
	Generation *services.GenerationService
	Actions    *services.FlashcardActionService
	Flashcards *services.FlashcardService
	Logger     *zap.Logger
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service failures onto HTTP statuses without
// leaking internal error text.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, services.ErrInvalidSessionID):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrFlashcardNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		h.Logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
