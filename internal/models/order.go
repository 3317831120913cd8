package models

import (
	"path"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusConfirm    = "confirm"
	OrderStatusProcessing = "processing"
	OrderStatusDelivering = "delivering"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancel     = "cancel"
	OrderStatusReturn     = "return"
	OrderStatusRefund     = "refund"
)

const (
	PaymentTypeDeliveryOnly = "delivery_only"
	PaymentTypePreorder50   = "preorder_50"
	PaymentTypePreorderFull = "preorder_full"
	PaymentTypeFull         = "full"
)

const (
	PaymentStatusNotRequired = "not_required"
	PaymentStatusUnpaid      = "unpaid"
	PaymentStatusPaid        = "paid"
	PaymentStatusFailed      = "failed"
)

const (
	ItemKindStandard = "standard"
	ItemKindCustom   = "custom"
)

// LogoAttachment is a logo placed on a custom product. Uploaded logos live in
// object storage under ImageKey and are removed once the order is delivered.
type LogoAttachment struct {
	Position string  `bson:"position" json:"position"`
	ImageURL string  `bson:"imageUrl" json:"imageUrl"`
	ImageKey string  `bson:"imageKey,omitempty" json:"imageKey,omitempty"`
	Charge   float64 `bson:"charge" json:"charge"`
	Uploaded bool    `bson:"uploaded" json:"uploaded"`
}

// LogoFolder is the storage folder customer logo uploads are written to.
const LogoFolder = "logos"

// LogoKeyPrefix is the storage prefix of one account's logo uploads.
func LogoKeyPrefix(userID primitive.ObjectID) string {
	return LogoFolder + "/" + userID.Hex() + "/"
}

// StoredBy reports whether the attachment points at a logo uploaded by
// owner: the key sits under the owner's prefix and the URL serves that key.
func (l LogoAttachment) StoredBy(owner *primitive.ObjectID) bool {
	if owner == nil || l.ImageKey == "" {
		return false
	}
	key := l.ImageKey
	if path.Clean(key) != key || !strings.HasPrefix(key, LogoKeyPrefix(*owner)) {
		return false
	}
	return strings.HasSuffix(l.ImageURL, "/"+key)
}

// OrderItem is a validated line. Kind selects the variant: standard items
// never carry logos, custom items carry at least one.
type OrderItem struct {
	Kind           string             `bson:"kind" json:"kind"`
	ProductID      primitive.ObjectID `bson:"productId" json:"productId"`
	Name           string             `bson:"name" json:"name"`
	ImageURL       string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Price          float64            `bson:"price" json:"price"`
	Quantity       int                `bson:"quantity" json:"quantity"`
	Subtotal       float64            `bson:"subtotal" json:"subtotal"`
	Size           *ProductOption     `bson:"size,omitempty" json:"size,omitempty"`
	Color          *ProductOption     `bson:"color,omitempty" json:"color,omitempty"`
	DeliveryCharge string             `bson:"deliveryCharge" json:"deliveryCharge"`
	Weight         float64            `bson:"weight" json:"weight"`
	Logos          []LogoAttachment   `bson:"logos,omitempty" json:"logos,omitempty"`
}

type UserSnapshot struct {
	ID    *primitive.ObjectID `bson:"id,omitempty" json:"id,omitempty"`
	Name  string              `bson:"name" json:"name"`
	Email string              `bson:"email,omitempty" json:"email,omitempty"`
	Phone string              `bson:"phone,omitempty" json:"phone,omitempty"`
}

type ShippingInfo struct {
	Name        string `bson:"name" json:"name"`
	Phone       string `bson:"phone" json:"phone"`
	Email       string `bson:"email,omitempty" json:"email,omitempty"`
	Address     string `bson:"address" json:"address"`
	District    string `bson:"district" json:"district"`
	Area        string `bson:"area,omitempty" json:"area,omitempty"`
	Note        string `bson:"note,omitempty" json:"note,omitempty"`
	PaymentType string `bson:"paymentType" json:"paymentType"`
}

type PaymentInfo struct {
	Method        string     `bson:"method" json:"method"`
	Type          string     `bson:"type" json:"type"`
	Amount        float64    `bson:"amount" json:"amount"`
	Status        string     `bson:"status" json:"status"`
	PaymentID     string     `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	TransactionID string     `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	PaidAt        *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

// CouponSnapshot freezes the coupon terms at checkout time.
type CouponSnapshot struct {
	Code          string  `bson:"code" json:"code"`
	DiscountType  string  `bson:"discountType" json:"discountType"`
	DiscountValue float64 `bson:"discountValue" json:"discountValue"`
	Amount        float64 `bson:"amount" json:"amount"`
}

// Order defines the persisted order document.
type Order struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID          string             `bson:"orderId" json:"orderId"`
	UserData         UserSnapshot       `bson:"userData" json:"userData"`
	OrderItems       []OrderItem        `bson:"orderItems" json:"orderItems"`
	ShippingInfo     ShippingInfo       `bson:"shippingInfo" json:"shippingInfo"`
	PaymentInfo      PaymentInfo        `bson:"paymentInfo" json:"paymentInfo"`
	ItemsPrice       float64            `bson:"itemsPrice" json:"itemsPrice"`
	DeliveryPrice    float64            `bson:"deliveryPrice" json:"deliveryPrice"`
	ProductDiscount  float64            `bson:"productDiscount" json:"productDiscount"`
	DeliveryDiscount float64            `bson:"deliveryDiscount" json:"deliveryDiscount"`
	CouponDiscount   float64            `bson:"couponDiscount" json:"couponDiscount"`
	TotalPrice       float64            `bson:"totalPrice" json:"totalPrice"`
	CashOnDelivery   float64            `bson:"cashOnDelivery" json:"cashOnDelivery"`
	Coupon           *CouponSnapshot    `bson:"coupon,omitempty" json:"coupon,omitempty"`
	OrderStatus      string             `bson:"orderStatus" json:"orderStatus"`
	IsPreOrder       bool               `bson:"isPreOrder" json:"isPreOrder"`
	RefundRequest    bool               `bson:"refund_request" json:"refund_request"`
	RefundReason     string             `bson:"refundReason,omitempty" json:"refundReason,omitempty"`
	TrackingCode     string             `bson:"trackingCode,omitempty" json:"trackingCode,omitempty"`
	ConsignmentID    string             `bson:"consignmentId,omitempty" json:"consignmentId,omitempty"`
	DeliveredAt      *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CanceledAt       *time.Time         `bson:"canceledAt,omitempty" json:"canceledAt,omitempty"`
	ReturnedAt       *time.Time         `bson:"returnedAt,omitempty" json:"returnedAt,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OwnedBy reports whether the order was placed by the given user.
func (o Order) OwnedBy(userID primitive.ObjectID) bool {
	return o.UserData.ID != nil && *o.UserData.ID == userID
}
