package handlers

import (
	"io"
	"net/http"

	"github.com/fiszkiapp/fiszki-api/middleware"
	"github.com/fiszkiapp/fiszki-api/services"
)

// CreateGenerationSession handles POST /api/generation-sessions: a multipart
// form with an `image` field. Model failures still answer 201 with an errors
// payload; only invalid input and unexpected failures use error statuses.
func (h *Handler) CreateGenerationSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := r.ParseMultipartForm(services.MaxImageSizeBytes + 1<<20); err != nil {
		respondError(w, http.StatusBadRequest, "Image file is required")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if err := services.ValidateImage(mimeType, header.Size); err != nil {
		h.respondServiceError(w, err)
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read image file")
		return
	}

	result := h.Generation.GenerateFromImage(r.Context(), user.ID, imageData, mimeType)
	respondJSON(w, http.StatusCreated, result)
}
