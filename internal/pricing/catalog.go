package pricing

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// Catalog is the read side the validator depends on. Lookups of a missing
// document return an apperr NotFound error; absent singletons and rules
// return nil without error.
type Catalog interface {
	ProductByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	ShippingRuleByDistrict(ctx context.Context, district string) (*models.ShippingRule, error)
	ActiveCouponByCode(ctx context.Context, code string) (models.Coupon, error)
	Charge(ctx context.Context) (*models.Charge, error)
	AdvancedPaymentRule(ctx context.Context) (*models.AdvancedPaymentRule, error)
}
