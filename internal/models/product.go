package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AvailabilityInStock     = "inStock"
	AvailabilityOutOfStock  = "outOfStock"
	AvailabilityUnavailable = "unavailable"
	AvailabilityPreOrder    = "preOrder"
)

const (
	ProductTypeStandard = "standard"
	ProductTypeCustom   = "custom"
)

const (
	DeliveryChargeYes = "yes"
	DeliveryChargeNo  = "no"
)

// ProductOption is a purchasable size or color with its own price delta.
type ProductOption struct {
	Name  string  `bson:"name" json:"name"`
	Price float64 `bson:"price" json:"price"`
}

type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Slug           string             `bson:"slug" json:"slug"`
	Type           string             `bson:"type" json:"type"`
	Price          float64            `bson:"price" json:"price"`
	SaleEnabled    bool               `bson:"saleEnabled" json:"saleEnabled"`
	SalePrice      float64            `bson:"salePrice" json:"salePrice"`
	IsOnSale       bool               `bson:"-" json:"isOnSale"`
	Sizes          []ProductOption    `bson:"sizes,omitempty" json:"sizes,omitempty"`
	Colors         []ProductOption    `bson:"colors,omitempty" json:"colors,omitempty"`
	Quantity       int                `bson:"quantity" json:"quantity"`
	Sold           int                `bson:"sold" json:"sold"`
	Availability   string             `bson:"availability" json:"availability"`
	DeliveryCharge string             `bson:"deliveryCharge" json:"deliveryCharge"`
	Weight         float64            `bson:"weight" json:"weight"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	ImageURL       string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	IsDeleted      bool               `bson:"isDeleted" json:"isDeleted,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
