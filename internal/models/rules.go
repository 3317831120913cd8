package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ScopeAll      = "all"
	ScopeSpecific = "specific"
)

// Eligibility is the product/user targeting shared by shipping rules and the
// advanced payment rule.
type Eligibility struct {
	AppliesTo        string `bson:"appliesTo" json:"appliesTo"`
	ProductIDs       IDList `bson:"productIds" json:"productIds"`
	AllowedUsersType string `bson:"allowedUsersType" json:"allowedUsersType"`
	UserIDs          IDList `bson:"userIds" json:"userIds"`
}

// UserAllowed reports whether the (possibly anonymous) user passes the user filter.
func (e Eligibility) UserAllowed(userID *primitive.ObjectID) bool {
	if e.AllowedUsersType != ScopeSpecific {
		return true
	}
	if userID == nil {
		return false
	}
	return e.UserIDs.Contains(*userID)
}

func (e Eligibility) ProductAllowed(productID primitive.ObjectID) bool {
	if e.AppliesTo != ScopeSpecific {
		return true
	}
	return e.ProductIDs.Contains(productID)
}

type ShippingRule struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	District    string             `bson:"district" json:"district"`
	Eligibility `bson:",inline"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// Settings document keys. Each singleton lives under a fixed _id in the
// settings collection and is written with upserts only.
const (
	SettingsChargeKey          = "charge"
	SettingsAdvancedPaymentKey = "advanced_payment"
)

// Charge holds the order value at which delivery becomes free.
type Charge struct {
	ID        string    `bson:"_id" json:"-"`
	Price     float64   `bson:"price" json:"price"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// AdvancedPaymentRule is the partial amount collected up front on cash on
// delivery orders.
type AdvancedPaymentRule struct {
	ID          string  `bson:"_id" json:"-"`
	Amount      float64 `bson:"amount" json:"amount"`
	Eligibility `bson:",inline"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
