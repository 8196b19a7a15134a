package models

import "time"

// Triage action types.
const (
	ActionAccepted = "accepted"
	ActionEdited   = "edited"
	ActionRejected = "rejected"
)

// LogAction is an append-only record of a triage decision over a generated
// flashcard. FlashcardID is set iff the action produced a flashcard, so it is
// always nil for rejections.
type LogAction struct {
	ID         uint `gorm:"primaryKey"`
	ActionType string `gorm:"not null;size:10"`

	SessionID uint              `gorm:"not null;index"`
	Session   GenerationSession `gorm:"foreignKey:SessionID" json:"-"`

	FlashcardID *uint      `gorm:"index"`
	Flashcard   *Flashcard `gorm:"foreignKey:FlashcardID" json:"-"`

	UserID    uint      `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
