package services

import (
	"errors"
	"time"

	"github.com/fiszkiapp/fiszki-api/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FlashcardDTO is the API-facing shape of a stored flashcard.
type FlashcardDTO struct {
	ID        string    `json:"id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	Phonetic  string    `json:"phonetic,omitempty"`
	Source    string    `json:"source"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateFlashcardCommand carries the fields for a manual flashcard.
type CreateFlashcardCommand struct {
	Front    string   `json:"front"`
	Back     string   `json:"back"`
	Phonetic string   `json:"phonetic"`
	Tags     []string `json:"tags"`
}

// UpdateFlashcardCommand replaces a flashcard's editable fields and tags.
type UpdateFlashcardCommand struct {
	Front    string   `json:"front"`
	Back     string   `json:"back"`
	Phonetic string   `json:"phonetic"`
	Tags     []string `json:"tags"`
}

// FlashcardService implements the plain CRUD operations consumed by the
// dashboard. Everything is scoped to the owning user.
type FlashcardService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewFlashcardService(db *gorm.DB, logger *zap.Logger) *FlashcardService {
	return &FlashcardService{db: db, logger: logger}
}

// List returns one page of the user's flashcards plus the total count,
// optionally filtered to cards carrying at least one of the given tags.
func (s *FlashcardService) List(userID uint, page, limit int, tags []string) ([]FlashcardDTO, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.Flashcard{}).Where("user_id = ?", userID)

	if len(tags) > 0 {
		var matching []models.Tag
		if err := s.db.Where("tag IN ?", tags).Find(&matching).Error; err != nil {
			return nil, 0, err
		}
		if len(matching) == 0 {
			return []FlashcardDTO{}, 0, nil
		}
		ids := make([]uint, 0, len(matching))
		seen := make(map[uint]bool, len(matching))
		for _, t := range matching {
			if !seen[t.FlashcardID] {
				seen[t.FlashcardID] = true
				ids = append(ids, t.FlashcardID)
			}
		}
		query = query.Where("id IN ?", ids)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var flashcards []models.Flashcard
	if err := query.Preload("Tags").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&flashcards).Error; err != nil {
		return nil, 0, err
	}

	result := make([]FlashcardDTO, 0, len(flashcards))
	for i := range flashcards {
		result = append(result, toDTO(&flashcards[i]))
	}
	return result, total, nil
}

// Get fetches one flashcard by its public id.
func (s *FlashcardService) Get(userID uint, publicID string) (*FlashcardDTO, error) {
	flashcard, err := s.find(userID, publicID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(flashcard)
	return &dto, nil
}

// Create stores a manual flashcard with its tags. If a tag insert fails, the
// just-created flashcard is deleted again so no orphaned card remains.
func (s *FlashcardService) Create(userID uint, cmd CreateFlashcardCommand) (*FlashcardDTO, error) {
	if err := ValidateCardFields(cmd.Front, cmd.Back, cmd.Tags); err != nil {
		return nil, err
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	flashcard := models.Flashcard{
		PublicID: publicID,
		Front:    cmd.Front,
		Back:     cmd.Back,
		Phonetic: cmd.Phonetic,
		Source:   models.SourceManual,
		UserID:   userID,
	}
	if err := s.db.Create(&flashcard).Error; err != nil {
		return nil, err
	}

	for _, tag := range cmd.Tags {
		if err := s.db.Create(&models.Tag{FlashcardID: flashcard.ID, Tag: tag}).Error; err != nil {
			// Compensate so the card does not survive without its tags.
			s.db.Where("flashcard_id = ?", flashcard.ID).Delete(&models.Tag{})
			s.db.Unscoped().Delete(&flashcard)
			return nil, err
		}
	}

	return s.Get(userID, publicID)
}

// Update replaces the flashcard's fields and tag set.
func (s *FlashcardService) Update(userID uint, publicID string, cmd UpdateFlashcardCommand) (*FlashcardDTO, error) {
	if err := ValidateCardFields(cmd.Front, cmd.Back, cmd.Tags); err != nil {
		return nil, err
	}

	flashcard, err := s.find(userID, publicID)
	if err != nil {
		return nil, err
	}

	flashcard.Front = cmd.Front
	flashcard.Back = cmd.Back
	flashcard.Phonetic = cmd.Phonetic
	flashcard.Tags = nil

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Save(flashcard).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Where("flashcard_id = ?", flashcard.ID).Delete(&models.Tag{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, tag := range cmd.Tags {
		if err := tx.Create(&models.Tag{FlashcardID: flashcard.ID, Tag: tag}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.Get(userID, publicID)
}

// Delete removes a flashcard and its tags.
func (s *FlashcardService) Delete(userID uint, publicID string) error {
	flashcard, err := s.find(userID, publicID)
	if err != nil {
		return err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := tx.Where("flashcard_id = ?", flashcard.ID).Delete(&models.Tag{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(flashcard).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func (s *FlashcardService) find(userID uint, publicID string) (*models.Flashcard, error) {
	var flashcard models.Flashcard
	err := s.db.Preload("Tags").
		Where("public_id = ? AND user_id = ?", publicID, userID).
		First(&flashcard).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFlashcardNotFound
		}
		return nil, err
	}
	return &flashcard, nil
}

func toDTO(flashcard *models.Flashcard) FlashcardDTO {
	tags := make([]string, 0, len(flashcard.Tags))
	for _, tag := range flashcard.Tags {
		tags = append(tags, tag.Tag)
	}
	return FlashcardDTO{
		ID:        flashcard.PublicID,
		Front:     flashcard.Front,
		Back:      flashcard.Back,
		Phonetic:  flashcard.Phonetic,
		Source:    flashcard.Source,
		Tags:      tags,
		CreatedAt: flashcard.CreatedAt,
		UpdatedAt: flashcard.UpdatedAt,
	}
}
