package middleware

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/fiszkiapp/fiszki-api/auth"
	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// CustomClaims carries the extra claims the API cares about.
type CustomClaims struct {
	Nickname string `json:"nickname"`
}

func (c *CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// EnsureValidToken validates JWTs on every protected request. With
// AUTH0_DOMAIN set, tokens are validated against the tenant's JWKS;
// otherwise first-party HS256 tokens issued by the auth package are accepted.
// Tokens may arrive in the Authorization header or the auth_token cookie.
func EnsureValidToken() func(next http.Handler) http.Handler {
	customClaims := func() validator.CustomClaims {
		return &CustomClaims{}
	}

	var jwtValidator *validator.Validator
	var err error

	if domain := os.Getenv("AUTH0_DOMAIN"); domain != "" {
		issuerURL, parseErr := url.Parse("https://" + domain + "/")
		if parseErr != nil {
			log.Fatalf("Failed to parse the issuer url: %v", parseErr)
		}
		provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
		jwtValidator, err = validator.New(
			provider.KeyFunc,
			validator.RS256,
			issuerURL.String(),
			[]string{os.Getenv("AUTH0_AUDIENCE")},
			validator.WithCustomClaims(customClaims),
			validator.WithAllowedClockSkew(time.Minute),
		)
	} else {
		secret := []byte(os.Getenv("JWT_SECRET_KEY"))
		jwtValidator, err = validator.New(
			func(ctx context.Context) (interface{}, error) {
				return secret, nil
			},
			validator.HS256,
			auth.LocalIssuer,
			[]string{auth.Audience()},
			validator.WithCustomClaims(customClaims),
			validator.WithAllowedClockSkew(time.Minute),
		)
	}
	if err != nil {
		log.Fatalf("Failed to set up the jwt validator: %v", err)
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithTokenExtractor(jwtmiddleware.MultiTokenExtractor(
			jwtmiddleware.AuthHeaderTokenExtractor,
			jwtmiddleware.CookieTokenExtractor("auth_token"),
		)),
	)

	return middleware.CheckJWT
}
