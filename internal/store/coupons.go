package store

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

type Coupons struct {
	coll *mongo.Collection
}

func NewCoupons(db *mongo.Database) *Coupons {
	return &Coupons{coll: db.Collection(couponsCollection)}
}

func (r *Coupons) List(ctx context.Context, page Page) ([]models.Coupon, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, translate(err, "coupons")
	}
	cursor, err := r.coll.Find(ctx, bson.M{}, page.apply(newestFirst()))
	if err != nil {
		return nil, 0, translate(err, "coupons")
	}
	defer cursor.Close(ctx)

	coupons := make([]models.Coupon, 0)
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, 0, translate(err, "coupons")
	}
	return coupons, total, nil
}

func (r *Coupons) ByID(ctx context.Context, id primitive.ObjectID) (models.Coupon, error) {
	var coupon models.Coupon
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&coupon); err != nil {
		return models.Coupon{}, translate(err, "coupon")
	}
	return coupon, nil
}

func (r *Coupons) Create(ctx context.Context, coupon *models.Coupon) error {
	now := time.Now()
	coupon.ID = primitive.NilObjectID
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	coupon.UsedCount = 0
	coupon.CreatedAt = now
	coupon.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, coupon)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict(apperr.CodeDuplicate, "coupon code already exists")
	}
	if err != nil {
		return translate(err, "coupon")
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		coupon.ID = id
	}
	return nil
}

// Update replaces the editable terms; usedCount and createdAt are kept.
func (r *Coupons) Update(ctx context.Context, id primitive.ObjectID, coupon models.Coupon) (models.Coupon, error) {
	set := bson.M{
		"code":            strings.ToUpper(strings.TrimSpace(coupon.Code)),
		"discountType":    coupon.DiscountType,
		"discountValue":   coupon.DiscountValue,
		"maxDiscount":     coupon.MaxDiscount,
		"expiryDate":      coupon.ExpiryDate,
		"minimumPurchase": coupon.MinimumPurchase,
		"usageLimit":      coupon.UsageLimit,
		"isActive":        coupon.IsActive,
		"productIds":      coupon.ProductIDs,
		"userIds":         coupon.UserIDs,
		"updatedAt":       time.Now(),
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if mongo.IsDuplicateKeyError(err) {
		return models.Coupon{}, apperr.Conflict(apperr.CodeDuplicate, "coupon code already exists")
	}
	if err != nil {
		return models.Coupon{}, translate(err, "coupon")
	}
	if res.MatchedCount == 0 {
		return models.Coupon{}, translate(mongo.ErrNoDocuments, "coupon")
	}
	return r.ByID(ctx, id)
}

func (r *Coupons) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "coupon")
	}
	if res.DeletedCount == 0 {
		return translate(mongo.ErrNoDocuments, "coupon")
	}
	return nil
}

// IncrementUsage bumps usedCount by one. It is a separate write from the
// order insert and is never rolled back.
func (r *Coupons) IncrementUsage(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"usedCount": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return translate(err, "coupon")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "coupon")
	}
	return nil
}
