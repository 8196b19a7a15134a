package config

import (
	"os"

	"github.com/fiszkiapp/fiszki-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var Database *gorm.DB

// Connect opens the database from DB_URL and runs migrations. When DB_URL is
// unset it falls back to a local sqlite file so the server can run without a
// postgres instance during development.
func Connect() error {
	var err error
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		Database, err = gorm.Open(sqlite.Open("fiszki.db"), &gorm.Config{})
	} else {
		Database, err = gorm.Open(postgres.Open(dbURL), &gorm.Config{})
	}
	if err != nil {
		panic("failed to connect database")
	}

	err = Database.AutoMigrate(
		&models.User{},
		&models.Flashcard{},
		&models.Tag{},
		&models.GenerationSession{},
		&models.GenerationError{},
		&models.LogAction{},
	)
	if err != nil {
		panic("failed to auto migrate database")
	}

	return nil
}
