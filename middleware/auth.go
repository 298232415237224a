package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"customer-option-service/models"
	"customer-option-service/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	UserContextKey  = "userID"
	RoleContextKey  = "role"
	EmailContextKey = "email"
	AdminRole       = "admin"
)

// AdminClaims is the payload of an admin bearer token.
type AdminClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthConfig selects how callers are identified.
type AuthConfig struct {
	JWTSecret string
	// TrustGatewayHeaders accepts X-User-* headers as already verified. Only
	// enable it when every request passes through a gateway that checks the
	// token and overwrites those headers.
	TrustGatewayHeaders bool
}

// AuthMiddleware identifies the caller from a Bearer token signed with the
// configured secret, or from gateway headers when those are trusted. The admin
// is stored in the gin context and in the request context.
func AuthMiddleware(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID, role, email string

		if header := c.GetHeader("Authorization"); header != "" && cfg.JWTSecret != "" {
			claims, err := parseBearer(header, []byte(cfg.JWTSecret))
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				c.Abort()
				return
			}
			userID, role, email = claims.UserID, claims.Role, claims.Email
			if userID == "" {
				userID = claims.Subject
			}
		} else if cfg.TrustGatewayHeaders {
			userID = c.GetHeader("X-User-ID")
			role = c.GetHeader("X-User-Role")
			email = c.GetHeader("X-User-Email")
		}

		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Set(UserContextKey, userID)
		c.Set(RoleContextKey, role)
		c.Set(EmailContextKey, email)
		admin := &models.AdminUser{ID: userID, Role: role, Email: email}
		c.Request = c.Request.WithContext(services.WithAdmin(c.Request.Context(), admin))
		c.Next()
	}
}

func parseBearer(header string, secret []byte) (*AdminClaims, error) {
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, errors.New("invalid token format")
	}

	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(RoleContextKey)
		if !exists || role != AdminRole {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
