package orders

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/store"
)

const orderIDAttempts = 5

type PriceValidator interface {
	Validate(ctx context.Context, req pricing.Request) (pricing.Breakdown, error)
}

type CouponCounter interface {
	IncrementUsage(ctx context.Context, id primitive.ObjectID) error
}

type CreateCommand struct {
	Items      []pricing.ItemInput
	Shipping   models.ShippingInfo
	User       *models.User
	IsPreOrder bool
	CouponCode string
}

type CreateResult struct {
	Order        models.Order     `json:"order"`
	Payment      *payment.Session `json:"payment,omitempty"`
	PaymentError string           `json:"paymentError,omitempty"`
}

// Checkout turns a validated cart into a persisted order.
type Checkout struct {
	deps      Deps
	validator PriceValidator
	coupons   CouponCounter
	gateway   payment.Gateway
	newID     func() string
	now       func() time.Time
	text      *bluemonday.Policy
	log       logrus.FieldLogger
	effects   effects
	lifecycle *Service
}

// NewCheckout wires checkout. gateway may be nil when online payment is off.
func NewCheckout(deps Deps, validator PriceValidator, coupons CouponCounter, gateway payment.Gateway) *Checkout {
	log := logging.Component(deps.Logger, "checkout")
	return &Checkout{
		deps:      deps,
		validator: validator,
		coupons:   coupons,
		gateway:   gateway,
		newID:     randomOrderID,
		now:       deps.clock(),
		text:      bluemonday.StrictPolicy(),
		log:       log,
		effects:   effects{log: log},
		lifecycle: NewService(deps),
	}
}

// randomOrderID returns a 9 or 10 digit number.
func randomOrderID() string {
	return strconv.FormatInt(100_000_000+rand.Int64N(9_900_000_000), 10)
}

// Validate prices a cart without writing anything.
func (c *Checkout) Validate(ctx context.Context, cmd CreateCommand) (pricing.Breakdown, error) {
	return c.validator.Validate(ctx, c.priceRequest(cmd))
}

func (c *Checkout) priceRequest(cmd CreateCommand) pricing.Request {
	var userID *primitive.ObjectID
	if cmd.User != nil && !cmd.User.ID.IsZero() {
		id := cmd.User.ID
		userID = &id
	}
	return pricing.Request{
		Items: cmd.Items,
		Shipping: pricing.ShippingContext{
			District:    cmd.Shipping.District,
			UserID:      userID,
			PaymentType: cmd.Shipping.PaymentType,
		},
		IsPreOrder: cmd.IsPreOrder,
		CouponCode: cmd.CouponCode,
	}
}

func (c *Checkout) Create(ctx context.Context, cmd CreateCommand) (CreateResult, error) {
	breakdown, err := c.validator.Validate(ctx, c.priceRequest(cmd))
	if err != nil {
		return CreateResult{}, err
	}

	order := c.buildOrder(cmd, breakdown)
	if err := c.insertWithFreshID(ctx, &order); err != nil {
		return CreateResult{}, err
	}

	entry := c.log.WithFields(logrus.Fields{"orderId": order.OrderID, "total": order.TotalPrice})
	if order.UserData.ID != nil {
		entry.WithField("userId", order.UserData.ID.Hex()).Info("order created")
	} else {
		entry.Info("guest order created")
	}

	if !breakdown.CouponID.IsZero() && c.coupons != nil {
		c.effects.run(ctx, order.OrderID, "coupon_usage", func(ctx context.Context) error {
			return c.coupons.IncrementUsage(ctx, breakdown.CouponID)
		})
	}

	c.lifecycle.notifyAdmins(ctx, order.OrderID, "New order",
		fmt.Sprintf("Order #%s was placed for %.2f.", order.OrderID, order.TotalPrice))
	c.lifecycle.mailCustomer(ctx, notify.MailOrderPlaced, order)

	result := CreateResult{Order: order}
	if order.PaymentInfo.Amount > 0 && c.gateway != nil {
		session, err := c.openSession(ctx, order)
		if err != nil {
			entry.WithError(err).Warn("payment session failed")
			result.PaymentError = "online payment is unavailable right now, please try again"
			return result, nil
		}
		result.Order.PaymentInfo.PaymentID = session.PaymentID
		result.Payment = &session
	}
	return result, nil
}

// openSession asks the gateway for a new session and stores its id in place
// of the one the order currently holds.
func (c *Checkout) openSession(ctx context.Context, order models.Order) (payment.Session, error) {
	session, err := c.gateway.Create(ctx, payment.CreateRequest{
		OrderID:       order.OrderID,
		Amount:        order.PaymentInfo.Amount,
		CustomerEmail: order.ShippingInfo.Email,
		CustomerPhone: order.ShippingInfo.Phone,
	})
	if err != nil {
		return payment.Session{}, err
	}
	if err := c.deps.Orders.SetPaymentID(ctx, order.OrderID, order.PaymentInfo.PaymentID, session.PaymentID); err != nil {
		return payment.Session{}, err
	}
	return session, nil
}

// RetryPayment opens a fresh gateway session for an order whose first one
// never started or was not completed.
func (c *Checkout) RetryPayment(ctx context.Context, orderID string) (payment.Session, error) {
	if c.gateway == nil {
		return payment.Session{}, apperr.Validation(apperr.CodePaymentFailed, "online payment is not enabled")
	}

	order, err := c.deps.Orders.FindByOrderID(ctx, orderID)
	if err != nil {
		return payment.Session{}, err
	}
	switch {
	case order.PaymentInfo.Status == models.PaymentStatusNotRequired || order.PaymentInfo.Amount <= 0:
		return payment.Session{}, apperr.Validation(apperr.CodePaymentNotRequired, "this order has nothing to pay online")
	case order.PaymentInfo.Status == models.PaymentStatusPaid:
		return payment.Session{}, apperr.Conflict(apperr.CodePaymentMismatch, "this order is already paid")
	case order.OrderStatus == models.OrderStatusCancel:
		return payment.Session{}, apperr.Conflict(apperr.CodeInvalidTransition, "this order was cancelled")
	}

	session, err := c.openSession(ctx, order)
	if errors.Is(err, store.ErrPaymentSessionChanged) {
		return payment.Session{}, err
	}
	if err != nil {
		return payment.Session{}, apperr.External("payment provider unavailable", err)
	}
	c.log.WithFields(logrus.Fields{"orderId": orderID, "paymentId": session.PaymentID}).Info("payment session reopened")
	return session, nil
}

func (c *Checkout) insertWithFreshID(ctx context.Context, order *models.Order) error {
	for attempt := 0; attempt < orderIDAttempts; attempt++ {
		id := c.newID()
		taken, err := c.deps.Orders.ExistsOrderID(ctx, id)
		if err != nil {
			return err
		}
		if taken {
			continue
		}

		order.OrderID = id
		err = c.deps.Orders.Insert(ctx, order)
		if errors.Is(err, store.ErrDuplicateOrderID) {
			continue
		}
		return err
	}
	return apperr.Conflict(apperr.CodeOrderIDExhausted, "could not allocate an order number, please retry")
}

func (c *Checkout) buildOrder(cmd CreateCommand, b pricing.Breakdown) models.Order {
	now := c.now()

	shipping := models.ShippingInfo{
		Name:        c.plain(cmd.Shipping.Name),
		Phone:       c.plain(cmd.Shipping.Phone),
		Email:       strings.ToLower(c.plain(cmd.Shipping.Email)),
		Address:     c.plain(cmd.Shipping.Address),
		District:    c.plain(cmd.Shipping.District),
		Area:        c.plain(cmd.Shipping.Area),
		Note:        c.plain(cmd.Shipping.Note),
		PaymentType: b.PaymentType,
	}

	snapshot := models.UserSnapshot{Name: shipping.Name, Email: shipping.Email, Phone: shipping.Phone}
	if cmd.User != nil && !cmd.User.ID.IsZero() {
		id := cmd.User.ID
		snapshot.ID = &id
		if cmd.User.Name != "" {
			snapshot.Name = cmd.User.Name
		}
		if cmd.User.Email != "" {
			snapshot.Email = cmd.User.Email
		}
		if cmd.User.Phone != "" {
			snapshot.Phone = cmd.User.Phone
		}
	}

	pay := models.PaymentInfo{
		Method: "cod",
		Type:   b.PaymentType,
		Amount: b.PayableNow,
		Status: models.PaymentStatusNotRequired,
	}
	if b.PayableNow > 0 {
		pay.Status = models.PaymentStatusUnpaid
		if c.gateway != nil {
			pay.Method = c.gateway.Name()
		}
	}

	return models.Order{
		UserData:         snapshot,
		OrderItems:       b.Items,
		ShippingInfo:     shipping,
		PaymentInfo:      pay,
		ItemsPrice:       b.ItemsPrice,
		DeliveryPrice:    b.BaseDeliveryCharge,
		ProductDiscount:  b.ProductDiscountFromFreeDelivery,
		DeliveryDiscount: b.DeliveryDiscount,
		CouponDiscount:   b.CouponDiscount,
		TotalPrice:       b.FinalTotal,
		CashOnDelivery:   b.Remaining,
		Coupon:           b.Coupon,
		OrderStatus:      models.OrderStatusPending,
		IsPreOrder:       cmd.IsPreOrder,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (c *Checkout) plain(v string) string {
	return strings.TrimSpace(html.UnescapeString(c.text.Sanitize(v)))
}

// ConfirmPayment settles the online part of an order with the gateway.
// Confirming an already paid order returns it unchanged.
func (c *Checkout) ConfirmPayment(ctx context.Context, orderID, paymentID string) (models.Order, error) {
	if c.gateway == nil {
		return models.Order{}, apperr.Validation(apperr.CodePaymentFailed, "online payment is not enabled")
	}

	order, err := c.deps.Orders.FindByOrderID(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	mismatch := apperr.Validation(apperr.CodePaymentMismatch, "payment does not belong to this order")
	switch order.PaymentInfo.Status {
	case models.PaymentStatusNotRequired:
		return models.Order{}, apperr.Validation(apperr.CodePaymentNotRequired, "this order has nothing to pay online")
	case models.PaymentStatusPaid:
		if order.PaymentInfo.PaymentID != paymentID {
			return models.Order{}, mismatch
		}
		return order, nil
	}
	if paymentID == "" || order.PaymentInfo.PaymentID != paymentID {
		return models.Order{}, mismatch
	}

	res, err := c.gateway.Confirm(ctx, paymentID)
	if errors.Is(err, payment.ErrNotPaid) {
		c.effects.run(ctx, orderID, "mark_payment_failed", func(ctx context.Context) error {
			return c.deps.Orders.MarkPaymentFailed(ctx, orderID)
		})
		return models.Order{}, apperr.Validation(apperr.CodePaymentFailed, "payment was not completed")
	}
	if err != nil {
		return models.Order{}, apperr.External("payment provider unavailable", err)
	}

	entry := c.log.WithFields(logrus.Fields{"orderId": orderID, "paymentId": paymentID})
	if res.PaymentID != "" && res.PaymentID != paymentID {
		entry.WithField("reported", res.PaymentID).Warn("gateway confirmed a different payment")
		return models.Order{}, mismatch
	}
	if res.OrderRef != order.OrderID {
		entry.WithField("orderRef", res.OrderRef).Warn("payment was opened for another order")
		return models.Order{}, mismatch
	}
	if pricing.Round2(res.Amount) < pricing.Round2(order.PaymentInfo.Amount) {
		entry.WithFields(logrus.Fields{"paid": res.Amount, "due": order.PaymentInfo.Amount}).Warn("payment is short of the amount due")
		return models.Order{}, apperr.Validation(apperr.CodePaymentMismatch, "paid amount is less than the amount due")
	}

	paid, err := c.deps.Orders.MarkPaid(ctx, orderID, paymentID, res.TransactionID, c.now())
	if err != nil {
		return models.Order{}, err
	}
	c.log.WithFields(logrus.Fields{
		"orderId":       orderID,
		"transactionId": res.TransactionID,
		"amount":        res.Amount,
	}).Info("payment confirmed")

	c.lifecycle.notifyAdmins(ctx, orderID, "Payment received",
		fmt.Sprintf("Order #%s was paid online (%.2f).", orderID, res.Amount))
	return paid, nil
}
