package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/richxcame/ride-reputation/pkg/common"
	"github.com/richxcame/ride-reputation/pkg/jwtkeys"
	"github.com/richxcame/ride-reputation/pkg/models"
)

// Context keys set by the auth middleware
const (
	ContextUserIDKey   = "user_id"
	ContextUserRoleKey = "user_role"
)

// Claims is the JWT payload issued by the platform's auth service
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates bearer tokens against a single shared secret.
// Deployments with key rotation should use AuthMiddlewareWithProvider.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return AuthMiddlewareWithProvider(jwtkeys.NewStaticProvider(secret))
}

// AuthMiddlewareWithProvider validates bearer tokens, resolving the signing
// secret through the provider. Tokens carry the key ID in the "kid" header;
// tokens without one verify against the provider's legacy secret.
func AuthMiddlewareWithProvider(provider jwtkeys.KeyProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			if kid, ok := token.Header["kid"].(string); ok && kid != "" {
				return provider.ResolveKey(kid)
			}
			if legacy := provider.LegacyKey(); len(legacy) > 0 {
				return legacy, nil
			}
			return nil, jwtkeys.ErrKeyNotFound
		})
		if err != nil || !token.Valid {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid user ID in token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextUserRoleKey, models.UserRole(claims.Role))
		c.Next()
	}
}

// RequireRole allows the request through only when the authenticated user
// holds one of the given roles. Must run after the auth middleware.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRole(c)
		if err != nil {
			common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		common.ErrorResponse(c, http.StatusForbidden, "insufficient permissions")
		c.Abort()
	}
}

// GetUserID returns the authenticated user's ID from the request context.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	value, exists := c.Get(ContextUserIDKey)
	if !exists {
		return uuid.Nil, errors.New("user ID not found in context")
	}

	switch id := value.(type) {
	case uuid.UUID:
		return id, nil
	case string:
		return uuid.Parse(id)
	}
	return uuid.Nil, errors.New("user ID has unexpected type")
}

// GetUserRole returns the authenticated user's role from the request context.
func GetUserRole(c *gin.Context) (models.UserRole, error) {
	value, exists := c.Get(ContextUserRoleKey)
	if !exists {
		return "", errors.New("user role not found in context")
	}

	switch role := value.(type) {
	case models.UserRole:
		return role, nil
	case string:
		return models.UserRole(role), nil
	}
	return "", errors.New("user role has unexpected type")
}

func extractBearerToken(c *gin.Context) string {
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
