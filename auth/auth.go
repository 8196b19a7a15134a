package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// LocalIssuer identifies first-party HS256 tokens. Hosted-provider tokens use
// the provider's tenant URL instead.
const LocalIssuer = "https://fiszki-api.local/"

// Audience returns the expected token audience.
func Audience() string {
	if aud := os.Getenv("API_AUDIENCE"); aud != "" {
		return aud
	}
	return "fiszki-api"
}

// CreateToken issues a first-party HS256 token for the given subject.
func CreateToken(subject, nickname string) (string, error) {
	secretKeyStr := os.Getenv("JWT_SECRET_KEY")
	if secretKeyStr == "" {
		return "", fmt.Errorf("auth: JWT_SECRET_KEY not set")
	}

	secretKey := []byte(secretKeyStr)
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"sub":      subject,
			"nickname": nickname,
			"iss":      LocalIssuer,
			"aud":      Audience(),
			"iat":      now.Unix(),
			"exp":      now.Add(time.Hour * 24).Unix(),
		})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken checks a first-party token's signature and expiry.
func VerifyToken(tokenString string) error {
	secretKeyStr := os.Getenv("JWT_SECRET_KEY")
	if secretKeyStr == "" {
		return fmt.Errorf("auth: JWT secret key not set")
	}

	secretKey := []byte(secretKeyStr)
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})

	if err != nil {
		return err
	}

	if !token.Valid {
		return fmt.Errorf("invalid token")
	}

	return nil
}

// HashPassword hashes a first-party account password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
