package services

import (
	"testing"

	"github.com/fiszkiapp/fiszki-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Flashcard{},
		&models.Tag{},
		&models.GenerationSession{},
		&models.GenerationError{},
		&models.LogAction{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, subject string) *models.User {
	t.Helper()
	user := &models.User{Subject: subject, Nickname: "tester"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedSession(t *testing.T, db *gorm.DB, userID uint) *models.GenerationSession {
	t.Helper()
	session := &models.GenerationSession{
		UserID:               userID,
		Model:                "test-model",
		GenerationDurationMs: 1200,
	}
	require.NoError(t, db.Create(session).Error)
	return session
}
