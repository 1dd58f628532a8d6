package middleware

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	adapter "github.com/gwatts/gin-adapter"
)

// RoleClaim is the namespaced custom claim carrying the rider's role.
const RoleClaim = "https://voltride.app/role"

// CustomClaims holds the app-specific claims we issue alongside the
// registered ones.
type CustomClaims struct {
	Role string `json:"https://voltride.app/role"`
}

func (c *CustomClaims) Validate(_ context.Context) error {
	return nil
}

// JWT returns a Gin middleware that validates bearer tokens issued by the
// configured tenant.
func JWT(domain, audience string) (gin.HandlerFunc, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
	)
	if err != nil {
		return nil, err
	}

	mw := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"invalid or missing token"}`))
		}),
	)

	return adapter.Wrap(mw.CheckJWT), nil
}

// GetUserID extracts the acting user's ID (sub claim) from the validated
// token in the Gin context.
func GetUserID(c *gin.Context) (string, bool) {
	// The JWT middleware stores the validated token in the request context
	// under its own context key
	claims, exists := c.Request.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !exists {
		log.Printf("No user claims found in context")
		return "", false
	}

	return claims.RegisteredClaims.Subject, true
}

// IsAdmin reports whether the validated token carries the admin role.
func IsAdmin(c *gin.Context) bool {
	claims, exists := c.Request.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !exists {
		return false
	}

	custom, ok := claims.CustomClaims.(*CustomClaims)
	return ok && custom.Role == "admin"
}
