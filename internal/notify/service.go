// Package notify delivers in-app notifications and transactional email.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"storefront/internal/logging"
	"storefront/internal/models"
)

const (
	defaultBatchSize = 100
	maxBatchWorkers  = 4
)

type Repository interface {
	Insert(ctx context.Context, n *models.Notification) error
	InsertRecipients(ctx context.Context, recipients []models.NotificationRecipient) error
}

type Message struct {
	Title   string
	Body    string
	Image   string
	Link    string
	UserIDs []primitive.ObjectID
}

type Service struct {
	repo      Repository
	hub       *Hub
	batchSize int
	now       func() time.Time
	text      *bluemonday.Policy
	log       logrus.FieldLogger
}

func NewService(repo Repository, hub *Hub, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:      repo,
		hub:       hub,
		batchSize: defaultBatchSize,
		now:       time.Now,
		text:      bluemonday.StrictPolicy(),
		log:       logging.Component(logger, "notify"),
	}
}

// Notify stores one shared notification, fans out per-user read state in
// batches and pushes it to connected sessions.
func (s *Service) Notify(ctx context.Context, msg Message) (models.Notification, error) {
	userIDs := uniqueIDs(msg.UserIDs)
	if len(userIDs) == 0 {
		return models.Notification{}, errors.New("notify: no recipients")
	}

	n := models.Notification{
		Title:     s.plain(msg.Title),
		Message:   s.plain(msg.Body),
		Image:     msg.Image,
		Link:      msg.Link,
		CreatedAt: s.now(),
	}
	if err := s.repo.Insert(ctx, &n); err != nil {
		return models.Notification{}, fmt.Errorf("notify: insert notification: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBatchWorkers)
	for start := 0; start < len(userIDs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(userIDs) {
			end = len(userIDs)
		}
		batch := userIDs[start:end]

		g.Go(func() error {
			recipients := make([]models.NotificationRecipient, len(batch))
			for i, id := range batch {
				recipients[i] = models.NotificationRecipient{
					NotificationID: n.ID,
					UserID:         id,
					CreatedAt:      n.CreatedAt,
				}
			}
			return s.repo.InsertRecipients(gctx, recipients)
		})
	}
	if err := g.Wait(); err != nil {
		return n, fmt.Errorf("notify: insert recipients: %w", err)
	}

	if s.hub != nil {
		delivered := s.hub.Publish(userIDs, n)
		s.log.WithFields(logrus.Fields{
			"notificationId": n.ID.Hex(),
			"recipients":     len(userIDs),
			"live":           delivered,
		}).Debug("notification sent")
	}
	return n, nil
}

// plain strips markup; the result is stored as text, not HTML.
func (s *Service) plain(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.text.Sanitize(v)))
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
