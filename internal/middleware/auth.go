package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Context keys set by the guards.
const (
	ClaimsKey = "claims"
	UserIDKey = "userId"
	RoleKey   = "role"
)

var errMissingToken = errors.New("missing token")

// parseBearer validates an "Authorization: Bearer <jwt>" header signed with
// HS256 and returns its claims.
func parseBearer(header, secret string) (jwt.MapClaims, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return nil, errMissingToken
	}

	parts := strings.Fields(raw)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.New("invalid token format")
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("token claims invalid")
	}
	return claims, nil
}

// subject reads the user id from the userId claim, falling back to sub.
func subject(claims jwt.MapClaims) (primitive.ObjectID, error) {
	value, _ := claims["userId"].(string)
	if strings.TrimSpace(value) == "" {
		value, _ = claims["sub"].(string)
	}
	if strings.TrimSpace(value) == "" {
		return primitive.NilObjectID, errors.New("userId claim missing")
	}
	return primitive.ObjectIDFromHex(value)
}

// AuthGuard requires a valid token. With allowedRoles it also requires the
// role claim to be one of them.
func AuthGuard(secret string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			logrus.WithField("path", c.FullPath()).WithError(err).Debug("auth rejected")
			msg := "unauthorized"
			if errors.Is(err, errMissingToken) {
				msg = "missing token"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		role, _ := claims["role"].(string)
		if len(allowedRoles) > 0 {
			match := false
			for _, r := range allowedRoles {
				if role == r {
					match = true
					break
				}
			}
			if !match {
				logrus.WithFields(logrus.Fields{"path": c.FullPath(), "role": role}).Warn("forbidden role")
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		c.Set(ClaimsKey, claims)
		c.Set(RoleKey, role)
		if userID, err := subject(claims); err == nil {
			c.Set(UserIDKey, userID)
		}
		c.Next()
	}
}

func AdminAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, "admin")
}
