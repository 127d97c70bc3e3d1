package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/marea-events/backend/pkg/response"
)

const (
	// ContextSubject is the key for the caller's subject id in gin context.
	ContextSubject = "subject"
	// ContextEmail is the key for the caller's email in gin context.
	ContextEmail = "email"
	// ContextGroups is the key for the caller's group memberships in gin context.
	ContextGroups = "groups"
)

var errInvalidToken = errors.New("invalid token")

// Claims is the shape of tokens issued by the identity provider.
type Claims struct {
	Email  string   `json:"email"`
	Groups []string `json:"groups"`
	jwt.RegisteredClaims
}

// Identity returns a middleware that validates the bearer token issued by the
// identity provider and stashes the caller identity in the request context.
func Identity(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := parseToken(parts[1], key)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextGroups, claims.Groups)
		c.Next()
	}
}

func parseToken(tokenString string, key []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return key, nil
	})
	if err != nil {
		return nil, errInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// CallerEmail returns the authenticated caller's email, if any.
func CallerEmail(c *gin.Context) string {
	v, ok := c.Get(ContextEmail)
	if !ok {
		return ""
	}
	email, _ := v.(string)
	return email
}
