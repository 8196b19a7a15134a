package services

import (
	"errors"
	"strconv"
	"time"

	"github.com/fiszkiapp/fiszki-api/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FlashcardActionCommand is one triage decision over a candidate.
type FlashcardActionCommand struct {
	ActionType         string                     `json:"actionType"`
	GeneratedFlashcard *models.GeneratedFlashcard `json:"generatedFlashcard,omitempty"`
}

// LogActionRecord is the API-facing shape of a logged triage decision.
type LogActionRecord struct {
	ID          uint      `json:"id"`
	SessionID   uint      `json:"sessionId"`
	FlashcardID *uint     `json:"flashcardId"`
	ActionType  string    `json:"actionType"`
	Timestamp   time.Time `json:"timestamp"`
}

// FlashcardActionService records triage decisions and promotes accepted or
// edited candidates into permanent flashcards.
type FlashcardActionService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewFlashcardActionService(db *gorm.DB, logger *zap.Logger) *FlashcardActionService {
	return &FlashcardActionService{db: db, logger: logger}
}

// LogFlashcardAction validates the session, then writes the log entry — and,
// for accept/edit, the flashcard with its tags — in a single transaction so a
// flashcard is never logged without being created and vice versa.
func (s *FlashcardActionService) LogFlashcardAction(sessionID string, userID uint, cmd FlashcardActionCommand) (*LogActionRecord, error) {
	id, err := parseSessionID(sessionID)
	if err != nil {
		return nil, err
	}

	if err := validateActionCommand(cmd); err != nil {
		return nil, err
	}

	var session models.GenerationSession
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	logEntry := models.LogAction{
		ActionType: cmd.ActionType,
		SessionID:  session.ID,
		UserID:     userID,
	}

	if cmd.ActionType == models.ActionRejected {
		if err := s.db.Create(&logEntry).Error; err != nil {
			return nil, err
		}
		return recordFromLog(&logEntry), nil
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	flashcard := models.Flashcard{
		PublicID: publicID,
		Front:    cmd.GeneratedFlashcard.Front,
		Back:     cmd.GeneratedFlashcard.Back,
		Phonetic: cmd.GeneratedFlashcard.Phonetic,
		Source:   models.SourceAI,
		UserID:   userID,
	}
	if err := tx.Create(&flashcard).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, tag := range cmd.GeneratedFlashcard.Tags {
		if err := tx.Create(&models.Tag{FlashcardID: flashcard.ID, Tag: tag}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	logEntry.FlashcardID = &flashcard.ID
	if err := tx.Create(&logEntry).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.logger.Info("flashcard action logged",
		zap.Uint("session_id", session.ID),
		zap.String("action", cmd.ActionType),
		zap.Uint("flashcard_id", flashcard.ID))

	return recordFromLog(&logEntry), nil
}

func recordFromLog(entry *models.LogAction) *LogActionRecord {
	return &LogActionRecord{
		ID:          entry.ID,
		SessionID:   entry.SessionID,
		FlashcardID: entry.FlashcardID,
		ActionType:  entry.ActionType,
		Timestamp:   entry.CreatedAt,
	}
}

func validateActionCommand(cmd FlashcardActionCommand) error {
	switch cmd.ActionType {
	case models.ActionAccepted, models.ActionEdited, models.ActionRejected:
	default:
		return validationErrorf("actionType must be one of: accepted, edited, rejected")
	}

	if cmd.ActionType == models.ActionRejected {
		return nil
	}

	if cmd.GeneratedFlashcard == nil {
		return validationErrorf("Flashcard data is required for 'accepted' or 'edited' actions")
	}
	return ValidateCardFields(cmd.GeneratedFlashcard.Front, cmd.GeneratedFlashcard.Back, cmd.GeneratedFlashcard.Tags)
}

// parseSessionID accepts only positive integers so malformed ids surface as
// validation errors rather than database errors.
func parseSessionID(sessionID string) (uint, error) {
	id, err := strconv.Atoi(sessionID)
	if err != nil || id <= 0 {
		return 0, ErrInvalidSessionID
	}
	return uint(id), nil
}
