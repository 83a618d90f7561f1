package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sparc-center/sparc-api/internal/models"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
	"github.com/sparc-center/sparc-api/pkg/response"
)

const claimsContextKey = "auth_claims"

type tokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error)
}

// Authenticate accepts the access token from either the Authorization header
// or the session cookie; browser clients rely on the http-only cookie while
// API clients send the bearer header.
func Authenticate(auth tokenValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" && cookieName != "" {
			if cookieValue, err := c.Cookie(cookieName); err == nil {
				token = cookieValue
			}
		}
		if token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing access token"))
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// RequireRoles rejects callers whose token role is not in the allowed set.
// It must run after Authenticate.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient permissions"))
		c.Abort()
	}
}

// Claims returns the authenticated principal's claims, or nil when the
// request never passed Authenticate.
func Claims(c *gin.Context) *models.JWTClaims {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
