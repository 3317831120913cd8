package orders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/courier"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/store"
)

type fakeOrders struct {
	mu       sync.Mutex
	orders   map[string]models.Order
	taken    map[string]bool
	dupOnce  bool
	inserted int
}

func newFakeOrders(orders ...models.Order) *fakeOrders {
	f := &fakeOrders{orders: map[string]models.Order{}, taken: map[string]bool{}}
	for _, o := range orders {
		f.orders[o.OrderID] = o
	}
	return f
}

func (f *fakeOrders) Insert(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dupOnce {
		f.dupOnce = false
		return store.ErrDuplicateOrderID
	}
	o.ID = primitive.NewObjectID()
	f.orders[o.OrderID] = *o
	f.inserted++
	return nil
}

func (f *fakeOrders) ExistsOrderID(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.orders[id]
	return ok || f.taken[id], nil
}

func (f *fakeOrders) FindByOrderID(_ context.Context, id string) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return models.Order{}, apperr.NotFound("order not found")
	}
	return o, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id, from, to string, patch store.StatusPatch) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return models.Order{}, apperr.NotFound("order not found")
	}
	if o.OrderStatus != from {
		return models.Order{}, apperr.Conflict(apperr.CodeStatusChanged, "order status changed concurrently")
	}
	o.OrderStatus = to
	if patch.DeliveredAt != nil {
		o.DeliveredAt = patch.DeliveredAt
	}
	if patch.CanceledAt != nil {
		o.CanceledAt = patch.CanceledAt
	}
	if patch.ReturnedAt != nil {
		o.ReturnedAt = patch.ReturnedAt
	}
	if patch.ClearRefundRequest {
		o.RefundRequest = false
	}
	f.orders[id] = o
	return o, nil
}

func (f *fakeOrders) SetTracking(_ context.Context, id, tracking, consignment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[id]
	o.TrackingCode = tracking
	o.ConsignmentID = consignment
	f.orders[id] = o
	return nil
}

func (f *fakeOrders) SetRefundRequest(_ context.Context, id, reason string) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[id]
	if o.OrderStatus != models.OrderStatusCancel || o.RefundRequest {
		return models.Order{}, apperr.Validation(apperr.CodeRefundNotAllowed, "no")
	}
	o.RefundRequest = true
	o.RefundReason = reason
	f.orders[id] = o
	return o, nil
}

func (f *fakeOrders) SetPaymentID(_ context.Context, id, previous, paymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	open := o.PaymentInfo.Status == models.PaymentStatusUnpaid || o.PaymentInfo.Status == models.PaymentStatusFailed
	if !ok || !open || o.PaymentInfo.PaymentID != previous {
		return store.ErrPaymentSessionChanged
	}
	o.PaymentInfo.PaymentID = paymentID
	o.PaymentInfo.Status = models.PaymentStatusUnpaid
	f.orders[id] = o
	return nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, id, paymentID, trx string, paidAt time.Time) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.PaymentInfo.PaymentID != paymentID || o.PaymentInfo.Status == models.PaymentStatusPaid {
		return models.Order{}, store.ErrPaymentSessionChanged
	}
	o.PaymentInfo.Status = models.PaymentStatusPaid
	o.PaymentInfo.TransactionID = trx
	o.PaymentInfo.PaidAt = &paidAt
	f.orders[id] = o
	return o, nil
}

func (f *fakeOrders) MarkPaymentFailed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[id]
	if o.PaymentInfo.Status == models.PaymentStatusUnpaid {
		o.PaymentInfo.Status = models.PaymentStatusFailed
	}
	f.orders[id] = o
	return nil
}

type fakeInventory struct {
	stock     map[primitive.ObjectID]int
	deducts   int
	restores  int
	failFirst bool
}

func (f *fakeInventory) DeductStock(_ context.Context, id primitive.ObjectID, qty int) error {
	if f.failFirst {
		f.failFirst = false
		return errors.New("write conflict")
	}
	f.deducts++
	f.stock[id] -= qty
	if f.stock[id] < 0 {
		f.stock[id] = 0
	}
	return nil
}

func (f *fakeInventory) RestoreStock(_ context.Context, id primitive.ObjectID, qty int) error {
	f.restores++
	f.stock[id] += qty
	return nil
}

type fakeNotifier struct {
	messages []notify.Message
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, msg notify.Message) (models.Notification, error) {
	f.messages = append(f.messages, msg)
	return models.Notification{}, f.err
}

type fakeMailer struct {
	sent []notify.Mail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, m notify.Mail) error {
	f.sent = append(f.sent, m)
	return f.err
}

type fakeCourier struct {
	calls int
	err   error
}

func (f *fakeCourier) CreateParcel(_ context.Context, _ models.Order) (courier.Parcel, error) {
	f.calls++
	if f.err != nil {
		return courier.Parcel{}, f.err
	}
	return courier.Parcel{ConsignmentID: "C1", TrackingCode: "TRK1"}, nil
}

type fakeFiles struct{ deleted []string }

func (f *fakeFiles) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeAdmins struct{ ids []primitive.ObjectID }

func (f fakeAdmins) AdminIDs(context.Context) ([]primitive.ObjectID, error) { return f.ids, nil }

type fakeValidator struct {
	breakdown pricing.Breakdown
	err       error
	got       pricing.Request
}

func (f *fakeValidator) Validate(_ context.Context, req pricing.Request) (pricing.Breakdown, error) {
	f.got = req
	return f.breakdown, f.err
}

type fakeCoupons struct{ increments []primitive.ObjectID }

func (f *fakeCoupons) IncrementUsage(_ context.Context, id primitive.ObjectID) error {
	f.increments = append(f.increments, id)
	return nil
}

type fakeGateway struct {
	createErr  error
	confirmErr error
	created    []payment.CreateRequest
	// result overrides what Confirm reports when set.
	result *payment.Result
}

func (f *fakeGateway) Name() string { return "fakepay" }

func (f *fakeGateway) Create(_ context.Context, req payment.CreateRequest) (payment.Session, error) {
	f.created = append(f.created, req)
	if f.createErr != nil {
		return payment.Session{}, f.createErr
	}
	return payment.Session{Provider: "fakepay", PaymentID: "P-" + req.OrderID, RedirectURL: "https://pay/" + req.OrderID}, nil
}

func (f *fakeGateway) Confirm(_ context.Context, paymentID string) (payment.Result, error) {
	if f.confirmErr != nil {
		return payment.Result{}, f.confirmErr
	}
	if f.result != nil {
		return *f.result, nil
	}
	return payment.Result{
		PaymentID:     paymentID,
		OrderRef:      strings.TrimPrefix(paymentID, "P-"),
		TransactionID: "TRX-1",
		Amount:        500,
	}, nil
}
