package middleware

import (
	"context"
	"net/http"

	"github.com/fiszkiapp/fiszki-api/config"
	"github.com/fiszkiapp/fiszki-api/models"
	"github.com/fiszkiapp/fiszki-api/utils"
)

type contextKey string

const userContextKey contextKey = "user"

// SyncUserMiddleware ensures the authenticated subject exists in the DB and
// attaches the user to the request context.
func SyncUserMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := utils.GetClaims(r)
		if !ok || claims.RegisteredClaims.Subject == "" {
			http.Error(w, "No token subject found", http.StatusUnauthorized)
			return
		}

		subject := claims.RegisteredClaims.Subject
		nickname := ""
		if customClaims, ok := claims.CustomClaims.(*CustomClaims); ok && customClaims != nil {
			nickname = customClaims.Nickname
		}

		var user models.User
		result := config.Database.Where("subject = ?", subject).First(&user)

		if result.Error != nil {
			// User does not exist, create a new one
			user = models.User{
				Subject:  subject,
				Nickname: nickname,
			}
			if err := config.Database.Create(&user).Error; err != nil {
				http.Error(w, "Failed to create user", http.StatusInternalServerError)
				return
			}
		} else if nickname != "" && user.Nickname != nickname {
			// User exists, update nickname only if non-empty and changed
			user.Nickname = nickname
			if err := config.Database.Save(&user).Error; err != nil {
				http.Error(w, "Failed to update user", http.StatusInternalServerError)
				return
			}
		}

		// Add user to context for downstream handlers
		ctx := context.WithValue(r.Context(), userContextKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// UserFromContext returns the user attached by SyncUserMiddleware.
func UserFromContext(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	return user, ok
}
