package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

// Inventory applies stock movements as single-document pipeline updates.
type Inventory struct {
	coll *mongo.Collection
}

func NewInventory(db *mongo.Database) *Inventory {
	return &Inventory{coll: db.Collection(productsCollection)}
}

func ifNull(field string) bson.D {
	return bson.D{{Key: "$ifNull", Value: bson.A{field, 0}}}
}

// DeductStock removes qty from stock, floored at zero, adds it to sold and
// marks the product out of stock once nothing is left.
func (r *Inventory) DeductStock(ctx context.Context, productID primitive.ObjectID, qty int) error {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "quantity", Value: bson.D{{Key: "$max", Value: bson.A{
				0,
				bson.D{{Key: "$subtract", Value: bson.A{ifNull("$quantity"), qty}}},
			}}}},
			{Key: "sold", Value: bson.D{{Key: "$add", Value: bson.A{ifNull("$sold"), qty}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "availability", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$lte", Value: bson.A{"$quantity", 0}}},
				models.AvailabilityOutOfStock,
				"$availability",
			}}}},
		}}},
	}
	return r.apply(ctx, productID, pipeline)
}

// RestoreStock puts qty back and makes an out-of-stock or unavailable
// product orderable again when stock is positive.
func (r *Inventory) RestoreStock(ctx context.Context, productID primitive.ObjectID, qty int) error {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "quantity", Value: bson.D{{Key: "$add", Value: bson.A{ifNull("$quantity"), qty}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "availability", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$and", Value: bson.A{
					bson.D{{Key: "$gt", Value: bson.A{"$quantity", 0}}},
					bson.D{{Key: "$in", Value: bson.A{"$availability", bson.A{
						models.AvailabilityOutOfStock,
						models.AvailabilityUnavailable,
					}}}},
				}}},
				models.AvailabilityInStock,
				"$availability",
			}}}},
		}}},
	}
	return r.apply(ctx, productID, pipeline)
}

func (r *Inventory) apply(ctx context.Context, productID primitive.ObjectID, pipeline mongo.Pipeline) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": productID}, pipeline)
	if err != nil {
		return translate(err, "product stock")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "product")
	}
	return nil
}
