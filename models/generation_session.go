package models

import "time"

// GenerationSession records one image-to-flashcards attempt. Rows are written
// once by the generation service and never updated or deleted afterwards; they
// form the audit trail for AI usage.
type GenerationSession struct {
	ID                   uint      `gorm:"primaryKey"`
	UserID               uint      `gorm:"not null;index"`
	User                 User      `gorm:"foreignKey:UserID" json:"-"`
	Model                string    `gorm:"not null;size:200"`
	GenerationDurationMs int64     `gorm:"not null"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`

	Errors []GenerationError `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// GenerationError is written when a session's model call fails.
type GenerationError struct {
	ID           uint      `gorm:"primaryKey"`
	SessionID    uint      `gorm:"not null;index"`
	ErrorCode    string    `gorm:"not null;size:50"`
	ErrorMessage string    `gorm:"size:2000"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}
