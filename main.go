package main

import (
	"log"
	"net/http"
	"os"

	"github.com/fiszkiapp/fiszki-api/config"
	"github.com/fiszkiapp/fiszki-api/handlers"
	"github.com/fiszkiapp/fiszki-api/middleware"
	"github.com/fiszkiapp/fiszki-api/openrouter"
	"github.com/fiszkiapp/fiszki-api/services"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	// Initialize database connection
	config.Connect()

	var logger *zap.Logger
	var err error
	if config.Env.IsDevelopment {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	gateway, err := openrouter.New(config.OpenRouterConfig(), logger)
	if err != nil {
		logger.Fatal("invalid OpenRouter configuration", zap.Error(err))
	}

	handler := &handlers.Handler{
		DB:         config.Database,
		Generation: services.NewGenerationService(config.Database, gateway, logger),
		Actions:    services.NewFlashcardActionService(config.Database, logger),
		Flashcards: services.NewFlashcardService(config.Database, logger),
		Logger:     logger,
	}

	authMiddleware := middleware.EnsureValidToken()

	apiMux := http.NewServeMux()

	// Generation pipeline
	apiMux.HandleFunc("POST /api/generation-sessions", middleware.SyncUserMiddleware(handler.CreateGenerationSession))
	apiMux.HandleFunc("POST /api/generation-sessions/{sessionID}/flashcard-actions", middleware.SyncUserMiddleware(handler.LogFlashcardAction))

	// Flashcard CRUD
	apiMux.HandleFunc("GET /api/flashcards", middleware.SyncUserMiddleware(handler.ListFlashcards))
	apiMux.HandleFunc("POST /api/flashcards", middleware.SyncUserMiddleware(handler.CreateFlashcard))
	apiMux.HandleFunc("GET /api/flashcards/{flashcardID}", middleware.SyncUserMiddleware(handler.GetFlashcard))
	apiMux.HandleFunc("PUT /api/flashcards/{flashcardID}", middleware.SyncUserMiddleware(handler.UpdateFlashcard))
	apiMux.HandleFunc("DELETE /api/flashcards/{flashcardID}", middleware.SyncUserMiddleware(handler.DeleteFlashcard))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"pong"}`))
	})
	mux.HandleFunc("POST /api/auth/register", handler.Register)
	mux.HandleFunc("POST /api/auth/login", handler.Login)
	mux.HandleFunc("POST /api/auth/logout", handler.Logout)
	mux.Handle("/api/", authMiddleware(apiMux))

	// Configure CORS with specific options
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://fiszki.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(middleware.RequestLogger(logger, mux))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // fallback port for local development
	}
	serverAddr := "0.0.0.0:" + port

	logger.Info("server starting", zap.String("addr", serverAddr))
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
