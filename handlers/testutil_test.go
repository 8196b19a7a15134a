package handlers

import (
	"context"
	"net/http"
	"testing"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/fiszkiapp/fiszki-api/config"
	"github.com/fiszkiapp/fiszki-api/middleware"
	"github.com/fiszkiapp/fiszki-api/models"
	"github.com/fiszkiapp/fiszki-api/services"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory database and points the package-level
// connection at it so SyncUserMiddleware sees the same data as the handlers.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Flashcard{},
		&models.Tag{},
		&models.GenerationSession{},
		&models.GenerationError{},
		&models.LogAction{},
	))

	previous := config.Database
	config.Database = db
	t.Cleanup(func() { config.Database = previous })

	return db
}

func newTestHandler(t *testing.T, db *gorm.DB) *Handler {
	t.Helper()
	nop := zap.NewNop()
	return &Handler{
		DB:         db,
		Actions:    services.NewFlashcardActionService(db, nop),
		Flashcards: services.NewFlashcardService(db, nop),
		Logger:     nop,
	}
}

// authenticate attaches validated claims for the subject, the same shape the
// JWT middleware stores after verifying a token.
func authenticate(r *http.Request, subject, nickname string) *http.Request {
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: subject},
		CustomClaims:     &middleware.CustomClaims{Nickname: nickname},
	}
	return r.WithContext(context.WithValue(r.Context(), jwtmiddleware.ContextKey{}, claims))
}
