package handlers

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/objectstore"
	"storefront/internal/orders"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/store"
)

type ProductReader interface {
	ListProducts(ctx context.Context, f store.ProductFilter, page store.Page) ([]models.Product, int64, error)
	ProductBySlug(ctx context.Context, slug string) (models.Product, error)
	ProductByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
}

type ProductWriter interface {
	ProductReader
	InsertProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Product, error)
}

type SettingsStore interface {
	Charge(ctx context.Context) (*models.Charge, error)
	AdvancedPaymentRule(ctx context.Context) (*models.AdvancedPaymentRule, error)
	PutCharge(ctx context.Context, charge models.Charge) (models.Charge, error)
	PutAdvancedPaymentRule(ctx context.Context, rule models.AdvancedPaymentRule) (models.AdvancedPaymentRule, error)
}

type UserStore interface {
	ByEmail(ctx context.Context, email string) (models.User, error)
	ByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type CouponStore interface {
	List(ctx context.Context, page store.Page) ([]models.Coupon, int64, error)
	ByID(ctx context.Context, id primitive.ObjectID) (models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Update(ctx context.Context, id primitive.ObjectID, coupon models.Coupon) (models.Coupon, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ShippingRuleStore interface {
	List(ctx context.Context) ([]models.ShippingRule, error)
	Create(ctx context.Context, rule *models.ShippingRule) error
	Update(ctx context.Context, id primitive.ObjectID, rule models.ShippingRule) (models.ShippingRule, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type OrderReader interface {
	FindByOrderID(ctx context.Context, orderID string) (models.Order, error)
	List(ctx context.Context, f store.OrderFilter, page store.Page) ([]models.Order, int64, error)
	Delete(ctx context.Context, orderID string) error
}

type CheckoutService interface {
	Validate(ctx context.Context, cmd orders.CreateCommand) (pricing.Breakdown, error)
	Create(ctx context.Context, cmd orders.CreateCommand) (orders.CreateResult, error)
	ConfirmPayment(ctx context.Context, orderID, paymentID string) (models.Order, error)
	RetryPayment(ctx context.Context, orderID string) (payment.Session, error)
}

type LifecycleService interface {
	TransitionStatus(ctx context.Context, orderID, newStatus string) (models.Order, error)
	CancelByUser(ctx context.Context, userID primitive.ObjectID, orderID string) (models.Order, error)
	RequestRefund(ctx context.Context, userID primitive.ObjectID, orderID, reason string) (models.Order, error)
}

type NotificationStore interface {
	ListForUser(ctx context.Context, userID primitive.ObjectID, page store.Page) ([]models.UserNotification, int64, error)
	MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error
}

type NotificationFeed interface {
	Subscribe(userID primitive.ObjectID) (<-chan models.Notification, func())
}

type Uploader interface {
	Upload(ctx context.Context, folder, ext, contentType string, r io.Reader) (objectstore.Object, error)
}

// AuthConfig signs access tokens.
type AuthConfig struct {
	Secret    string
	AccessTTL time.Duration
}

var (
	_ ProductWriter     = (*store.Catalog)(nil)
	_ SettingsStore     = (*store.Catalog)(nil)
	_ UserStore         = (*store.Users)(nil)
	_ CouponStore       = (*store.Coupons)(nil)
	_ ShippingRuleStore = (*store.ShippingRules)(nil)
	_ OrderReader       = (*store.Orders)(nil)
	_ CheckoutService   = (*orders.Checkout)(nil)
	_ LifecycleService  = (*orders.Service)(nil)
	_ NotificationStore = (*store.Notifications)(nil)
	_ NotificationFeed  = (*notify.Hub)(nil)
	_ Uploader          = (*objectstore.Store)(nil)
)
