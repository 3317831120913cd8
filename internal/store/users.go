package store

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

type Users struct {
	coll *mongo.Collection
}

func NewUsers(db *mongo.Database) *Users {
	return &Users{coll: db.Collection(usersCollection)}
}

func (r *Users) ByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&user)
	if err != nil {
		return models.User{}, translate(err, "user")
	}
	return user, nil
}

func (r *Users) ByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return models.User{}, translate(err, "user")
	}
	return user, nil
}

func (r *Users) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	res, err := r.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict(apperr.CodeDuplicate, "email already registered")
	}
	if err != nil {
		return translate(err, "user")
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

// AdminIDs lists every admin account, used as the audience for order alerts.
func (r *Users) AdminIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"role": models.RoleAdmin},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, translate(err, "admins")
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, "admins")
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}
