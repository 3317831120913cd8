package database

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type collectionIndex struct {
	collection string
	model      mongo.IndexModel
}

func indexSpecs() []collectionIndex {
	return []collectionIndex{
		{"products", mongo.IndexModel{
			Keys: bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().
				SetName("slug_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"slug": bson.M{"$type": "string"}}),
		}},
		{"users", mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		}},
		{"orders", mongo.IndexModel{
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetName("orderId_unique").SetUnique(true),
		}},
		{"orders", mongo.IndexModel{
			Keys:    bson.D{{Key: "userData.id", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("userData_id_createdAt"),
		}},
		{"coupons", mongo.IndexModel{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetName("code_unique").SetUnique(true),
		}},
		{"shippingrules", mongo.IndexModel{
			Keys: bson.D{{Key: "district", Value: 1}},
			Options: options.Index().
				SetName("district_unique").
				SetUnique(true).
				SetCollation(&options.Collation{Locale: "en", Strength: 2}),
		}},
		{"notification_recipients", mongo.IndexModel{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("userId_createdAt"),
		}},
		{"notification_recipients", mongo.IndexModel{
			Keys:    bson.D{{Key: "notificationId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetName("notification_user_unique").SetUnique(true),
		}},
	}
}

// EnsureIndexes creates every index the repositories rely on. Failures are
// logged per index and the first one is returned.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	log := logrus.WithField("component", "database")

	var firstErr error
	for _, spec := range indexSpecs() {
		name := ""
		if spec.model.Options != nil && spec.model.Options.Name != nil {
			name = *spec.model.Options.Name
		}
		entry := log.WithFields(logrus.Fields{"collection": spec.collection, "index": name})

		createCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := db.Collection(spec.collection).Indexes().CreateOne(createCtx, spec.model)
		cancel()
		if err != nil {
			entry.WithError(err).Warn("index creation failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		entry.Debug("index ensured")
	}
	return firstErr
}
