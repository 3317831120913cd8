package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type Notifications struct {
	notifications *mongo.Collection
	recipients    *mongo.Collection
}

func NewNotifications(db *mongo.Database) *Notifications {
	return &Notifications{
		notifications: db.Collection(notificationsCollection),
		recipients:    db.Collection(recipientsCollection),
	}
}

func (r *Notifications) Insert(ctx context.Context, n *models.Notification) error {
	res, err := r.notifications.InsertOne(ctx, n)
	if err != nil {
		return translate(err, "notification")
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		n.ID = id
	}
	return nil
}

func (r *Notifications) InsertRecipients(ctx context.Context, recipients []models.NotificationRecipient) error {
	if len(recipients) == 0 {
		return nil
	}
	docs := make([]interface{}, len(recipients))
	for i := range recipients {
		docs[i] = recipients[i]
	}
	_, err := r.recipients.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return translate(err, "notification recipients")
}

// ListForUser joins the user's read state with the shared notification
// documents, newest first.
func (r *Notifications) ListForUser(ctx context.Context, userID primitive.ObjectID, page Page) ([]models.UserNotification, int64, error) {
	filter := bson.M{"userId": userID}
	total, err := r.recipients.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "notifications")
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	if page.Page >= 1 && page.Limit >= 1 {
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: (page.Page - 1) * page.Limit}},
			bson.D{{Key: "$limit", Value: page.Limit}},
		)
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: notificationsCollection},
			{Key: "localField", Value: "notificationId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "notification"},
		}}},
		bson.D{{Key: "$unwind", Value: "$notification"}},
		bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: bson.D{
			{Key: "$mergeObjects", Value: bson.A{
				"$notification",
				bson.D{{Key: "isRead", Value: "$isRead"}, {Key: "readAt", Value: "$readAt"}},
			}},
		}}}}},
	)

	cursor, err := r.recipients.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, translate(err, "notifications")
	}
	defer cursor.Close(ctx)

	out := make([]models.UserNotification, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, translate(err, "notifications")
	}
	return out, total, nil
}

func (r *Notifications) MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	res, err := r.recipients.UpdateOne(ctx,
		bson.M{"userId": userID, "notificationId": notificationID},
		bson.M{"$set": bson.M{"isRead": true, "readAt": time.Now()}},
	)
	if err != nil {
		return translate(err, "notification")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "notification")
	}
	return nil
}
