package models

// Tag is a single label attached to a flashcard. A flashcard holds at most
// four tags; tags are deleted together with their flashcard.
type Tag struct {
	ID          uint   `gorm:"primaryKey"`
	FlashcardID uint   `gorm:"not null;index"`
	Tag         string `gorm:"not null;size:50"`
}
