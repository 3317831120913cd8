package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
)

const requestTimeout = 5 * time.Second

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		logrus.WithField("route", route).Errorf("panic recovered: %v", r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// DBGuard answers 503 when the database does not respond to a ping.
func DBGuard(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := ping(checkCtx); err != nil {
			logrus.WithField("route", c.FullPath()).WithError(err).Error("database unavailable")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
			return
		}
		c.Next()
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	logrus.WithFields(logrus.Fields{"route": route, "status": status}).Info(message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondAppError renders err by its apperr kind. Errors outside the
// taxonomy become a bare 500.
func respondAppError(c *gin.Context, route string, err error) {
	kind := apperr.KindOf(err)
	entry := logrus.WithFields(logrus.Fields{"route": route, "kind": kind.String()}).WithError(err)
	if kind == apperr.KindInternal {
		entry.Error("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if kind == apperr.KindExternal {
		entry.Warn("request failed")
	} else {
		entry.Info("request rejected")
	}

	c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{"error": apperr.MessageOf(err), "code": apperr.CodeOf(err)})
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func paramObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
