package models

import (
	"gorm.io/gorm"
)

// Flashcard source values.
const (
	SourceManual = "manual"
	SourceAI     = "ai"
)

// MaxTagsPerFlashcard caps how many tags a single flashcard may carry.
const MaxTagsPerFlashcard = 4

// Flashcard represents an individual flashcard owned by a user.
type Flashcard struct {
	gorm.Model
	PublicID string `gorm:"size:100;uniqueIndex"`
	Front    string `gorm:"not null;size:500"`
	Back     string `gorm:"not null;size:1000"`
	Phonetic string `gorm:"size:200"`
	Source   string `gorm:"not null;size:10"` // "manual" or "ai"

	UserID uint `gorm:"not null;index"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Tags []Tag `gorm:"foreignKey:FlashcardID;constraint:OnDelete:CASCADE"`
}
