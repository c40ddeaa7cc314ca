package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/edutrack-io/internship-api/internal/models"
	appErrors "github.com/edutrack-io/internship-api/pkg/errors"
	"github.com/edutrack-io/internship-api/pkg/response"
)

// ContextActorKey is the gin context key storing the caller's claims.
const ContextActorKey = "currentActor"

// Actor requires a bearer token and attaches the parsed claims. The engine
// does not issue tokens itself; it only verifies signatures from the
// institution's identity provider to attribute mutations in the audit trail.
func Actor(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := actorFromHeader(c, secret)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextActorKey, claims)
		c.Next()
	}
}

// OptionalActor attaches claims when a valid token is present but never blocks.
func OptionalActor(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := actorFromHeader(c, secret); err == nil {
			c.Set(ContextActorKey, claims)
		}
		c.Next()
	}
}

func actorFromHeader(c *gin.Context, secret string) (*models.ActorClaims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, appErrors.ErrUnauthorized
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}

	claims := &models.ActorClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}
