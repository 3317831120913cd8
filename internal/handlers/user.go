package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/middleware"
	"storefront/internal/models"
)

func GetMyNotifications(notifications NotificationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /user/notifications"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		page, err := pageParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, total, err := notifications.ListForUser(ctx, userID, page)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, paginated(list, page, total))
	}
}

func MarkNotificationRead(notifications NotificationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /user/notifications/:id/read"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}
		id, ok := paramObjectID(c, "id")
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := notifications.MarkRead(ctx, userID, id); err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
	}
}

// StreamNotifications pushes notifications to the connected user as
// server-sent events, with a ping every heartbeat to keep proxies open.
func StreamNotifications(feed NotificationFeed, heartbeat time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /user/notifications/stream"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		events, unsubscribe := feed.Subscribe(userID)
		defer unsubscribe()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		log := logrus.WithFields(logrus.Fields{"route": route, "userId": userID.Hex()})
		log.Debug("stream opened")

		c.Stream(func(io.Writer) bool {
			select {
			case n, open := <-events:
				if !open {
					return false
				}
				c.SSEvent("notification", n)
				return true
			case t := <-ticker.C:
				c.SSEvent("ping", t.Unix())
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
		log.Debug("stream closed")
	}
}

// UploadLogo stores a customer logo for a custom product under the caller's
// own prefix. The returned key goes back in the order item so the file can be
// removed after delivery.
func UploadLogo(uploader Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/uploads/logo"
		defer handlePanic(c, route)

		if uploader == nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "uploads are not configured")
			return
		}

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		file, err := c.FormFile("logo")
		if errors.Is(err, http.ErrMissingFile) {
			respondWithError(c, http.StatusBadRequest, route, "logo file is required")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid multipart form")
			return
		}
		if _, _, err := checkImage(file); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		obj, err := saveImage(ctx, uploader, models.LogoKeyPrefix(userID), file)
		if err != nil {
			logrus.WithField("route", route).WithError(err).Error("logo upload failed")
			respondWithError(c, http.StatusBadGateway, route, "upload failed")
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"imageUrl": obj.URL,
			"imageKey": obj.Key,
			"uploaded": true,
		})
	}
}
