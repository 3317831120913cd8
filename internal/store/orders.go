package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

// ErrDuplicateOrderID is returned by Insert when the orderId is taken.
var ErrDuplicateOrderID = errors.New("store: duplicate orderId")

// ErrPaymentSessionChanged is returned when an order's payment session is no
// longer the one a write expected.
var ErrPaymentSessionChanged = apperr.Conflict(apperr.CodePaymentMismatch, "payment session changed, reload the order")

// StatusPatch carries the fields written together with a status change.
type StatusPatch struct {
	DeliveredAt        *time.Time
	CanceledAt         *time.Time
	ReturnedAt         *time.Time
	ClearRefundRequest bool
}

type OrderFilter struct {
	Status string
	UserID *primitive.ObjectID
}

type Orders struct {
	coll *mongo.Collection
}

func NewOrders(db *mongo.Database) *Orders {
	return &Orders{coll: db.Collection(ordersCollection)}
}

func (r *Orders) Insert(ctx context.Context, order *models.Order) error {
	res, err := r.coll.InsertOne(ctx, order)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateOrderID
	}
	if err != nil {
		return translate(err, "order")
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (r *Orders) ExistsOrderID(ctx context.Context, orderID string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"orderId": orderID}, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err, "order")
	}
	return n > 0, nil
}

func (r *Orders) FindByOrderID(ctx context.Context, orderID string) (models.Order, error) {
	var order models.Order
	if err := r.coll.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order); err != nil {
		return models.Order{}, translate(err, "order")
	}
	return order, nil
}

func (r *Orders) List(ctx context.Context, f OrderFilter, page Page) ([]models.Order, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["orderStatus"] = f.Status
	}
	if f.UserID != nil {
		filter["userData.id"] = *f.UserID
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "orders")
	}
	cursor, err := r.coll.Find(ctx, filter, page.apply(newestFirst()))
	if err != nil {
		return nil, 0, translate(err, "orders")
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, translate(err, "orders")
	}
	return orders, total, nil
}

// UpdateStatus moves the order from one status to another only if it is
// still in the from status. A lost race yields a STATUS_CHANGED conflict.
func (r *Orders) UpdateStatus(ctx context.Context, orderID, from, to string, patch StatusPatch) (models.Order, error) {
	set := bson.M{"orderStatus": to, "updatedAt": time.Now()}
	if patch.DeliveredAt != nil {
		set["deliveredAt"] = *patch.DeliveredAt
	}
	if patch.CanceledAt != nil {
		set["canceledAt"] = *patch.CanceledAt
	}
	if patch.ReturnedAt != nil {
		set["returnedAt"] = *patch.ReturnedAt
	}
	if patch.ClearRefundRequest {
		set["refund_request"] = false
	}

	var updated models.Order
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"orderId": orderID, "orderStatus": from},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		exists, existsErr := r.ExistsOrderID(ctx, orderID)
		if existsErr != nil {
			return models.Order{}, existsErr
		}
		if exists {
			return models.Order{}, apperr.Conflict(apperr.CodeStatusChanged, "order status changed concurrently")
		}
	}
	if err != nil {
		return models.Order{}, translate(err, "order")
	}
	return updated, nil
}

func (r *Orders) SetTracking(ctx context.Context, orderID, trackingCode, consignmentID string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"orderId": orderID}, bson.M{"$set": bson.M{
		"trackingCode":  trackingCode,
		"consignmentId": consignmentID,
		"updatedAt":     time.Now(),
	}})
	return translate(err, "order")
}

// SetRefundRequest flags a canceled order that has no pending request.
func (r *Orders) SetRefundRequest(ctx context.Context, orderID, reason string) (models.Order, error) {
	var updated models.Order
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{
			"orderId":        orderID,
			"orderStatus":    models.OrderStatusCancel,
			"refund_request": bson.M{"$ne": true},
		},
		bson.M{"$set": bson.M{
			"refund_request": true,
			"refundReason":   reason,
			"updatedAt":      time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, apperr.Validation(apperr.CodeRefundNotAllowed, "refund can no longer be requested for this order")
	}
	if err != nil {
		return models.Order{}, translate(err, "order")
	}
	return updated, nil
}

// SetPaymentID attaches a payment session to an unpaid order, replacing
// previous (empty for the first session). A paid order or a session that
// changed in between yields ErrPaymentSessionChanged.
func (r *Orders) SetPaymentID(ctx context.Context, orderID, previous, paymentID string) error {
	filter := bson.M{
		"orderId":            orderID,
		"paymentInfo.status": bson.M{"$in": bson.A{models.PaymentStatusUnpaid, models.PaymentStatusFailed}},
	}
	if previous == "" {
		filter["paymentInfo.paymentId"] = bson.M{"$in": bson.A{"", nil}}
	} else {
		filter["paymentInfo.paymentId"] = previous
	}

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"paymentInfo.paymentId": paymentID,
		"paymentInfo.status":    models.PaymentStatusUnpaid,
		"updatedAt":             time.Now(),
	}})
	if err != nil {
		return translate(err, "order")
	}
	if res.MatchedCount == 0 {
		return ErrPaymentSessionChanged
	}
	return nil
}

// MarkPaid settles the order only while paymentID is still its session and
// it is not paid yet.
func (r *Orders) MarkPaid(ctx context.Context, orderID, paymentID, transactionID string, paidAt time.Time) (models.Order, error) {
	var updated models.Order
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{
			"orderId":               orderID,
			"paymentInfo.paymentId": paymentID,
			"paymentInfo.status":    bson.M{"$ne": models.PaymentStatusPaid},
		},
		bson.M{"$set": bson.M{
			"paymentInfo.status":        models.PaymentStatusPaid,
			"paymentInfo.transactionId": transactionID,
			"paymentInfo.paidAt":        paidAt,
			"updatedAt":                 time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, ErrPaymentSessionChanged
	}
	if err != nil {
		return models.Order{}, translate(err, "order")
	}
	return updated, nil
}

func (r *Orders) MarkPaymentFailed(ctx context.Context, orderID string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{
		"orderId":            orderID,
		"paymentInfo.status": models.PaymentStatusUnpaid,
	}, bson.M{"$set": bson.M{
		"paymentInfo.status": models.PaymentStatusFailed,
		"updatedAt":          time.Now(),
	}})
	return translate(err, "order")
}

func (r *Orders) Delete(ctx context.Context, orderID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"orderId": orderID})
	if err != nil {
		return translate(err, "order")
	}
	if res.DeletedCount == 0 {
		return translate(mongo.ErrNoDocuments, "order")
	}
	return nil
}
