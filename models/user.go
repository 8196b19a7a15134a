package models

import "gorm.io/gorm"

// User represents a user in the system. Accounts created through the hosted
// identity provider carry only a subject; first-party accounts also have an
// email and a bcrypt password hash.
type User struct {
	gorm.Model
	Subject      string `gorm:"unique;not null;size:200"` // JWT sub claim
	Nickname     string `gorm:"size:100"`
	Email        string `gorm:"size:200;index"`
	PasswordHash string `gorm:"size:200" json:"-"`

	Flashcards         []Flashcard         `gorm:"foreignKey:UserID"`
	GenerationSessions []GenerationSession `gorm:"foreignKey:UserID"`
}
