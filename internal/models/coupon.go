package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Coupon struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code            string             `bson:"code" json:"code"`
	DiscountType    string             `bson:"discountType" json:"discountType"`
	DiscountValue   float64            `bson:"discountValue" json:"discountValue"`
	MaxDiscount     float64            `bson:"maxDiscount" json:"maxDiscount"`
	ExpiryDate      time.Time          `bson:"expiryDate" json:"expiryDate"`
	MinimumPurchase float64            `bson:"minimumPurchase" json:"minimumPurchase"`
	UsageLimit      int                `bson:"usageLimit" json:"usageLimit"` // 0 = unlimited
	UsedCount       int                `bson:"usedCount" json:"usedCount"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	ProductIDs      IDList             `bson:"productIds" json:"productIds"`
	UserIDs         IDList             `bson:"userIds" json:"userIds"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (c Coupon) UserRestricted() bool {
	return len(c.UserIDs) > 0
}

func (c Coupon) ProductScoped() bool {
	return len(c.ProductIDs) > 0
}

func (c Coupon) UsageExhausted() bool {
	return c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit
}
