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

type ShippingRules struct {
	coll *mongo.Collection
}

func NewShippingRules(db *mongo.Database) *ShippingRules {
	return &ShippingRules{coll: db.Collection(shippingRulesCollection)}
}

func (r *ShippingRules) List(ctx context.Context) ([]models.ShippingRule, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "district", Value: 1}}))
	if err != nil {
		return nil, translate(err, "shipping rules")
	}
	defer cursor.Close(ctx)

	rules := make([]models.ShippingRule, 0)
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, translate(err, "shipping rules")
	}
	return rules, nil
}

func (r *ShippingRules) Create(ctx context.Context, rule *models.ShippingRule) error {
	rule.ID = primitive.NilObjectID
	rule.District = strings.TrimSpace(rule.District)
	rule.CreatedAt = time.Now()

	res, err := r.coll.InsertOne(ctx, rule)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict(apperr.CodeDuplicate, "a rule for this district already exists")
	}
	if err != nil {
		return translate(err, "shipping rule")
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		rule.ID = id
	}
	return nil
}

func (r *ShippingRules) Update(ctx context.Context, id primitive.ObjectID, rule models.ShippingRule) (models.ShippingRule, error) {
	var updated models.ShippingRule
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"district":         strings.TrimSpace(rule.District),
			"appliesTo":        rule.AppliesTo,
			"productIds":       rule.ProductIDs,
			"allowedUsersType": rule.AllowedUsersType,
			"userIds":          rule.UserIDs,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if mongo.IsDuplicateKeyError(err) {
		return models.ShippingRule{}, apperr.Conflict(apperr.CodeDuplicate, "a rule for this district already exists")
	}
	if err != nil {
		return models.ShippingRule{}, translate(err, "shipping rule")
	}
	return updated, nil
}

func (r *ShippingRules) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "shipping rule")
	}
	if res.DeletedCount == 0 {
		return translate(mongo.ErrNoDocuments, "shipping rule")
	}
	return nil
}
