package pricing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/logging"
	"storefront/internal/models"
)

// ItemInput is an order line as submitted by the client. Only id and
// quantity are required; everything else is re-derived or checked.
type ItemInput struct {
	ID             string                  `json:"id"`
	Type           string                  `json:"type"`
	Quantity       int                     `json:"quantity"`
	Price          float64                 `json:"price"`
	Subtotal       float64                 `json:"subtotal"`
	Weight         float64                 `json:"weight"`
	DeliveryCharge string                  `json:"deliveryCharge"`
	Size           *models.ProductOption   `json:"size"`
	Color          *models.ProductOption   `json:"color"`
	Logos          []models.LogoAttachment `json:"logos"`
}

type ShippingContext struct {
	District    string
	UserID      *primitive.ObjectID
	PaymentType string
}

type Request struct {
	Items      []ItemInput
	Shipping   ShippingContext
	IsPreOrder bool
	CouponCode string
}

// Breakdown is the authoritative price of an order. It is the only source
// the order document's money fields are copied from.
type Breakdown struct {
	Items                           []models.OrderItem     `json:"orderItems"`
	ItemsPrice                      float64                `json:"itemsPrice"`
	BaseDeliveryCharge              float64                `json:"baseDeliveryCharge"`
	ProductDiscountFromFreeDelivery float64                `json:"productDiscountFromFreeDelivery"`
	DeliveryDiscount                float64                `json:"deliveryDiscount"`
	CouponDiscount                  float64                `json:"couponDiscount"`
	Coupon                          *models.CouponSnapshot `json:"couponData,omitempty"`
	CouponID                        primitive.ObjectID     `json:"-"`
	FinalTotal                      float64                `json:"finalTotal"`
	PayableNow                      float64                `json:"payableNow"`
	AdvancedPayNow                  float64                `json:"advancedPayNow"`
	Remaining                       float64                `json:"remaining"`
	FreeDeliveryWeight              float64                `json:"freeDeliveryWeight"`
	PaidDeliveryWeight              float64                `json:"paidDeliveryWeight"`
	PaymentType                     string                 `json:"paymentType"`
}

type Validator struct {
	catalog Catalog
	tariff  Tariff
	now     func() time.Time
	log     logrus.FieldLogger
}

type ValidatorOption func(*Validator)

func WithTariff(t Tariff) ValidatorOption {
	return func(v *Validator) { v.tariff = t }
}

func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

func WithLogger(logger logrus.FieldLogger) ValidatorOption {
	return func(v *Validator) {
		if logger != nil {
			v.log = logging.Component(logger, "pricing")
		}
	}
}

func NewValidator(catalog Catalog, opts ...ValidatorOption) *Validator {
	v := &Validator{
		catalog: catalog,
		tariff:  DefaultTariff,
		now:     time.Now,
		log:     logging.Component(nil, "pricing"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate recomputes every price of the order from the catalog. It only
// reads; nothing is written.
func (v *Validator) Validate(ctx context.Context, req Request) (Breakdown, error) {
	items, err := v.resolveItems(ctx, req.Items, req.IsPreOrder, req.Shipping.UserID)
	if err != nil {
		return Breakdown{}, err
	}
	if len(items) == 0 {
		return Breakdown{}, apperr.Validation(apperr.CodeEmptyOrder, "no orderable items in the order")
	}

	subtotals := make([]float64, len(items))
	for i, item := range items {
		subtotals[i] = item.Subtotal
	}
	itemsPrice := sum(subtotals...)

	district := strings.TrimSpace(req.Shipping.District)
	userID := req.Shipping.UserID

	if district != "" {
		rule, err := v.catalog.ShippingRuleByDistrict(ctx, district)
		if err != nil {
			return Breakdown{}, fmt.Errorf("pricing: shipping rule lookup: %w", err)
		}
		if applyShippingRule(rule, items, userID) {
			v.log.WithField("district", district).Debug("shipping rule waived delivery charge")
		}
	}
	freeWeight, paidWeight := weightBuckets(items)

	out := Breakdown{
		Items:              items,
		ItemsPrice:         itemsPrice,
		FreeDeliveryWeight: freeWeight,
		PaidDeliveryWeight: paidWeight,
		PaymentType:        normalizePaymentType(req.Shipping.PaymentType),
	}

	if code := normalizeCouponCode(req.CouponCode); code != "" {
		coupon, err := v.catalog.ActiveCouponByCode(ctx, code)
		if err != nil {
			if apperr.IsNotFound(err) {
				return Breakdown{}, apperr.Validation(apperr.CodeInvalidCoupon, "invalid coupon code")
			}
			return Breakdown{}, fmt.Errorf("pricing: coupon lookup: %w", err)
		}
		result, err := EvaluateCoupon(coupon, items, itemsPrice, userID, v.now())
		if err != nil {
			return Breakdown{}, err
		}
		out.CouponDiscount = result.Discount
		out.CouponID = result.CouponID
		snapshot := result.Snapshot
		out.Coupon = &snapshot
	}

	out.BaseDeliveryCharge = v.tariff.Fee(district, sumWeights(freeWeight, paidWeight))

	charge, err := v.catalog.Charge(ctx)
	if err != nil {
		return Breakdown{}, fmt.Errorf("pricing: charge lookup: %w", err)
	}
	if charge != nil && charge.Price > 0 && itemsPrice >= charge.Price {
		out.DeliveryDiscount = out.BaseDeliveryCharge
	} else {
		out.ProductDiscountFromFreeDelivery = math.Max(0, Round2(out.BaseDeliveryCharge-v.tariff.Fee(district, paidWeight)))
	}

	out.FinalTotal = math.Max(0, Round2(math.Max(0, itemsPrice)-out.CouponDiscount+out.BaseDeliveryCharge-out.ProductDiscountFromFreeDelivery-out.DeliveryDiscount))

	advanced, err := v.catalog.AdvancedPaymentRule(ctx)
	if err != nil {
		return Breakdown{}, fmt.Errorf("pricing: advanced payment lookup: %w", err)
	}
	out.AdvancedPayNow = advancedPayment(advanced, items, userID, out.FinalTotal)

	switch out.PaymentType {
	case models.PaymentTypeDeliveryOnly:
		out.PayableNow = out.AdvancedPayNow
	case models.PaymentTypePreorder50:
		productTotal := math.Max(0, itemsPrice-out.CouponDiscount)
		deliveryNet := math.Max(0, out.BaseDeliveryCharge-out.ProductDiscountFromFreeDelivery-out.DeliveryDiscount)
		out.PayableNow = sum(half(productTotal), deliveryNet)
	default:
		out.PayableNow = out.FinalTotal
	}
	out.PayableNow = math.Min(Round2(out.PayableNow), out.FinalTotal)
	out.Remaining = math.Max(0, Round2(out.FinalTotal-out.PayableNow))

	return out, nil
}

func (v *Validator) resolveItems(ctx context.Context, inputs []ItemInput, isPreOrder bool, owner *primitive.ObjectID) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			continue
		}
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(in.ID))
		if err != nil {
			continue
		}

		product, err := v.catalog.ProductByID(ctx, productID)
		if err != nil {
			if apperr.IsNotFound(err) {
				v.log.WithField("productId", productID.Hex()).Debug("dropping item: product not found")
				continue
			}
			return nil, fmt.Errorf("pricing: product lookup: %w", err)
		}
		if !orderable(product, isPreOrder) {
			v.log.WithFields(logrus.Fields{
				"productId":    productID.Hex(),
				"availability": product.Availability,
			}).Debug("dropping item: not orderable")
			continue
		}

		item, err := buildItem(product, in, owner)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func orderable(p models.Product, isPreOrder bool) bool {
	if p.IsDeleted {
		return false
	}
	switch p.Availability {
	case models.AvailabilityUnavailable:
		return false
	case models.AvailabilityOutOfStock:
		return isPreOrder
	}
	return true
}

func buildItem(p models.Product, in ItemInput, owner *primitive.ObjectID) (models.OrderItem, error) {
	kind := models.ItemKindStandard
	if p.Type == models.ProductTypeCustom || strings.EqualFold(strings.TrimSpace(in.Type), models.ItemKindCustom) {
		kind = models.ItemKindCustom
	}

	if err := checkOption("size", in.Size); err != nil {
		return models.OrderItem{}, err
	}
	if err := checkOption("color", in.Color); err != nil {
		return models.OrderItem{}, err
	}

	var logos []models.LogoAttachment
	switch kind {
	case models.ItemKindCustom:
		if len(in.Logos) == 0 {
			return models.OrderItem{}, apperr.Validation(apperr.CodeInvalidItem, fmt.Sprintf("custom product %q requires at least one logo", p.Name))
		}
		logos = make([]models.LogoAttachment, 0, len(in.Logos))
		for _, logo := range in.Logos {
			if strings.TrimSpace(logo.Position) == "" || strings.TrimSpace(logo.ImageURL) == "" || logo.Charge < 0 {
				return models.OrderItem{}, apperr.Validation(apperr.CodeInvalidItem, fmt.Sprintf("invalid logo on %q", p.Name))
			}
			if logo.ImageKey != "" && !logo.StoredBy(owner) {
				return models.OrderItem{}, apperr.Validation(apperr.CodeInvalidItem, fmt.Sprintf("logo on %q was not uploaded by this account", p.Name))
			}
			logo.Uploaded = logo.ImageKey != ""
			logos = append(logos, logo)
		}
	default:
		if len(in.Logos) > 0 {
			return models.OrderItem{}, apperr.Validation(apperr.CodeInvalidItem, fmt.Sprintf("product %q does not accept logos", p.Name))
		}
	}

	price := Round2(in.Price)
	if price <= 0 {
		price = composeUnitPrice(p, in.Size, in.Color, logos)
	}

	weight := p.Weight
	if weight <= 0 {
		weight = math.Max(0, in.Weight)
	}

	return models.OrderItem{
		Kind:           kind,
		ProductID:      p.ID,
		Name:           p.Name,
		ImageURL:       p.ImageURL,
		Price:          price,
		Quantity:       in.Quantity,
		Subtotal:       lineTotal(price, in.Quantity),
		Size:           in.Size,
		Color:          in.Color,
		DeliveryCharge: deliveryFlag(p.DeliveryCharge, in.DeliveryCharge),
		Weight:         weight,
		Logos:          logos,
	}, nil
}

func checkOption(field string, opt *models.ProductOption) error {
	if opt == nil {
		return nil
	}
	if strings.TrimSpace(opt.Name) == "" || opt.Price < 0 {
		return apperr.Validation(apperr.CodeInvalidItem, "invalid "+field+" selection")
	}
	return nil
}

func deliveryFlag(productFlag, clientFlag string) string {
	for _, flag := range []string{productFlag, clientFlag} {
		switch strings.ToLower(strings.TrimSpace(flag)) {
		case models.DeliveryChargeYes:
			return models.DeliveryChargeYes
		case models.DeliveryChargeNo:
			return models.DeliveryChargeNo
		}
	}
	return models.DeliveryChargeYes
}

func normalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalizePaymentType(paymentType string) string {
	switch pt := strings.ToLower(strings.TrimSpace(paymentType)); pt {
	case models.PaymentTypeDeliveryOnly, models.PaymentTypePreorder50, models.PaymentTypePreorderFull:
		return pt
	default:
		return models.PaymentTypeFull
	}
}
