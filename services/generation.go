package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fiszkiapp/fiszki-api/models"
	"github.com/fiszkiapp/fiszki-api/openrouter"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrorCodeGenerationFailed marks a failed generation attempt in the
// generation_errors table and in API responses.
const ErrorCodeGenerationFailed = "GENERATION_FAILED"

// GenerationErrorInfo is the API-facing shape of a generation failure.
type GenerationErrorInfo struct {
	ID           uint   `json:"id"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// SessionResult is what one generation attempt produces: either candidates
// under a new session id, or a list of errors. It is always returned, never
// an error.
type SessionResult struct {
	ID         *uint                       `json:"id"`
	Flashcards []models.GeneratedFlashcard `json:"flashcards,omitempty"`
	Errors     []GenerationErrorInfo       `json:"errors,omitempty"`
	CreatedAt  time.Time                   `json:"createdAt"`
}

// GenerationService turns an uploaded textbook photo into flashcard
// candidates via the model gateway and records the session.
type GenerationService struct {
	db      *gorm.DB
	gateway *openrouter.Client
	logger  *zap.Logger
}

func NewGenerationService(db *gorm.DB, gateway *openrouter.Client, logger *zap.Logger) *GenerationService {
	return &GenerationService{db: db, gateway: gateway, logger: logger}
}

const systemPrompt = "You are a specialized AI trained to extract text from English-Polish textbook images " +
	"and create high-quality flashcards. You can recognize English words/phrases, their phonetic " +
	"transcriptions, and Polish translations directly from textbook pages."

const userPrompt = `Analyze this English-Polish textbook image:
1. First, extract all visible text including English words/phrases, phonetic transcriptions, and Polish translations
2. Identify lesson numbers, sections, and any organizational structure
3. Create flashcards with:
   - front: English word/phrase
   - back: Polish translation
   - phonetic: Phonetic transcription (extract from image if available, if not try to generate english phonetic transcription)
   - tags: Up to 4 relevant tags only in Polish language based on context (lesson number, category, etc.) - Lesson 6.1 is Lekcja 6.1 in Polish

Format your response as a JSON array of flashcard objects:
[{
  "front": "English word/phrase",
  "back": "Polish translation",
  "phonetic": "Phonetic transcription if available",
  "tags": ["Tag1", "Tag2", "Tag3", "Tag4"]
}]
Return only the JSON array, nothing else.

Extract ALL vocabulary entries from the image, not just a few examples.`

var flashcardSchema = json.RawMessage(`{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "front": {"type": "string"},
      "back": {"type": "string"},
      "phonetic": {"type": "string"},
      "tags": {"type": "array", "items": {"type": "string"}}
    },
    "required": ["front", "back"]
  }
}`)

// GenerateFromImage runs the full pipeline: encode, prompt, model call,
// parse, persist. It never returns an error; failures come back as a result
// carrying GENERATION_FAILED entries so callers always get something to show.
func (s *GenerationService) GenerateFromImage(ctx context.Context, userID uint, imageData []byte, mimeType string) *SessionResult {
	start := time.Now()

	messages := buildPrompt(encodeImage(imageData, mimeType))

	resp, err := s.gateway.SendRequest(ctx, messages, &openrouter.RequestOptions{
		ResponseFormat: &openrouter.ResponseFormat{
			Name:   "flashcard_response",
			Schema: flashcardSchema,
			Strict: true,
		},
	})
	if err != nil {
		return s.failure(0, err)
	}

	flashcards, err := parseModelResponse(resp.Content)
	if err != nil {
		return s.failure(0, err)
	}

	model := resp.Model
	if model == "" {
		model = s.gateway.Model()
	}

	session := models.GenerationSession{
		UserID:               userID,
		Model:                model,
		GenerationDurationMs: time.Since(start).Milliseconds(),
	}
	if err := s.db.Create(&session).Error; err != nil {
		s.logger.Error("failed to save generation session", zap.Error(err))
		return s.failure(0, errors.New("failed to save generation session"))
	}

	s.logger.Info("generation session completed",
		zap.Uint("session_id", session.ID),
		zap.Int("flashcards", len(flashcards)),
		zap.Int64("duration_ms", session.GenerationDurationMs))

	return &SessionResult{
		ID:         &session.ID,
		Flashcards: flashcards,
		CreatedAt:  time.Now(),
	}
}

// failure builds an error result and, when a session row already exists,
// persists the error against it.
func (s *GenerationService) failure(sessionID uint, cause error) *SessionResult {
	s.logger.Error("flashcard generation failed", zap.Error(cause))

	result := &SessionResult{
		Errors: []GenerationErrorInfo{{
			ID:           1,
			ErrorCode:    ErrorCodeGenerationFailed,
			ErrorMessage: cause.Error(),
		}},
		CreatedAt: time.Now(),
	}

	if sessionID != 0 {
		result.ID = &sessionID
		row := models.GenerationError{
			SessionID:    sessionID,
			ErrorCode:    ErrorCodeGenerationFailed,
			ErrorMessage: cause.Error(),
		}
		if err := s.db.Create(&row).Error; err != nil {
			s.logger.Error("failed to save generation error", zap.Error(err))
		} else {
			result.Errors[0].ID = row.ID
		}
	}

	return result
}

func encodeImage(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

func buildPrompt(imageDataURL string) []openrouter.Message {
	return []openrouter.Message{
		{
			Role:    openrouter.RoleSystem,
			Content: systemPrompt,
		},
		{
			Role: openrouter.RoleUser,
			Parts: []openrouter.Part{
				{Text: userPrompt},
				{ImageURL: imageDataURL},
			},
		},
	}
}

// parseModelResponse maps the model's raw JSON answer to candidates. The top
// level must be an array; tags are truncated to the flashcard limit.
func parseModelResponse(content string) ([]models.GeneratedFlashcard, error) {
	var raw []struct {
		Front    string   `json:"front"`
		Back     string   `json:"back"`
		Phonetic string   `json:"phonetic"`
		Tags     []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	flashcards := make([]models.GeneratedFlashcard, 0, len(raw))
	for _, card := range raw {
		tags := card.Tags
		if len(tags) > models.MaxTagsPerFlashcard {
			tags = tags[:models.MaxTagsPerFlashcard]
		}
		if tags == nil {
			tags = []string{}
		}
		flashcards = append(flashcards, models.GeneratedFlashcard{
			Front:    card.Front,
			Back:     card.Back,
			Phonetic: card.Phonetic,
			Tags:     tags,
			Source:   models.SourceAI,
		})
	}
	return flashcards, nil
}
