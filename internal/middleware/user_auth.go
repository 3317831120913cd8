package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserAuth validates user JWT tokens and injects the userId into the context.
func UserAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			logrus.WithField("path", c.FullPath()).WithError(err).Debug("user auth rejected")
			msg := "unauthorized"
			if errors.Is(err, errMissingToken) {
				msg = "missing token"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		userID, err := subject(claims)
		if err != nil {
			logrus.WithField("path", c.FullPath()).WithError(err).Debug("user auth rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		role, _ := claims["role"].(string)
		c.Set(ClaimsKey, claims)
		c.Set(RoleKey, role)
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// OptionalUser attaches the user when a valid token is present. Guests and
// bad tokens pass through anonymously.
func OptionalUser(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			if !errors.Is(err, errMissingToken) {
				logrus.WithField("path", c.FullPath()).WithError(err).Debug("ignoring invalid token")
			}
			c.Next()
			return
		}
		if userID, err := subject(claims); err == nil {
			c.Set(UserIDKey, userID)
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok && !id.IsZero()
}
