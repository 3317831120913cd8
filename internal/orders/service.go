package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/courier"
	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/store"
)

// CancelWindow is how long after placing an order a customer may cancel it.
const CancelWindow = 12 * time.Hour

type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	ExistsOrderID(ctx context.Context, orderID string) (bool, error)
	FindByOrderID(ctx context.Context, orderID string) (models.Order, error)
	UpdateStatus(ctx context.Context, orderID, from, to string, patch store.StatusPatch) (models.Order, error)
	SetTracking(ctx context.Context, orderID, trackingCode, consignmentID string) error
	SetRefundRequest(ctx context.Context, orderID, reason string) (models.Order, error)
	SetPaymentID(ctx context.Context, orderID, previous, paymentID string) error
	MarkPaid(ctx context.Context, orderID, paymentID, transactionID string, paidAt time.Time) (models.Order, error)
	MarkPaymentFailed(ctx context.Context, orderID string) error
}

type Inventory interface {
	DeductStock(ctx context.Context, productID primitive.ObjectID, qty int) error
	RestoreStock(ctx context.Context, productID primitive.ObjectID, qty int) error
}

type Notifier interface {
	Notify(ctx context.Context, msg notify.Message) (models.Notification, error)
}

type Courier interface {
	CreateParcel(ctx context.Context, order models.Order) (courier.Parcel, error)
}

type FileDeleter interface {
	Delete(ctx context.Context, key string) error
}

type AdminDirectory interface {
	AdminIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// Deps are the collaborators shared by Service and Checkout. Only Orders is
// required; a nil collaborator disables its side effects.
type Deps struct {
	Orders    OrderStore
	Inventory Inventory
	Notifier  Notifier
	Mailer    notify.Sender
	Courier   Courier
	Files     FileDeleter
	Admins    AdminDirectory
	StoreURL  string
	Logger    logrus.FieldLogger
	Now       func() time.Time
}

func (d Deps) clock() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return time.Now
}

// Service drives the order status machine.
type Service struct {
	deps    Deps
	now     func() time.Time
	log     logrus.FieldLogger
	effects effects
}

func NewService(deps Deps) *Service {
	log := logging.Component(deps.Logger, "orders")
	return &Service{
		deps:    deps,
		now:     deps.clock(),
		log:     log,
		effects: effects{log: log},
	}
}

// TransitionStatus moves the order to newStatus and runs the side effects of
// the new status once. Asking for the current status is a no-op.
func (s *Service) TransitionStatus(ctx context.Context, orderID, newStatus string) (models.Order, error) {
	newStatus = strings.ToLower(strings.TrimSpace(newStatus))
	if !ValidStatus(newStatus) {
		return models.Order{}, apperr.Validation(apperr.CodeInvalidStatus, fmt.Sprintf("unknown order status %q", newStatus))
	}

	order, err := s.deps.Orders.FindByOrderID(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	return s.transition(ctx, order, newStatus)
}

func (s *Service) transition(ctx context.Context, order models.Order, newStatus string) (models.Order, error) {
	oldStatus := order.OrderStatus
	if oldStatus == newStatus {
		return order, nil
	}
	if !CanTransition(oldStatus, newStatus) {
		return models.Order{}, apperr.Validation(apperr.CodeInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", oldStatus, newStatus))
	}

	now := s.now()
	var patch store.StatusPatch
	switch newStatus {
	case models.OrderStatusDelivered:
		patch.DeliveredAt = &now
	case models.OrderStatusCancel:
		patch.CanceledAt = &now
	case models.OrderStatusReturn:
		patch.ReturnedAt = &now
	case models.OrderStatusRefund:
		patch.ClearRefundRequest = true
	}

	updated, err := s.deps.Orders.UpdateStatus(ctx, order.OrderID, oldStatus, newStatus, patch)
	if err != nil {
		return models.Order{}, err
	}

	s.log.WithFields(logrus.Fields{
		"orderId": updated.OrderID,
		"from":    oldStatus,
		"to":      newStatus,
	}).Info("order status changed")

	return s.afterTransition(ctx, updated), nil
}

func (s *Service) afterTransition(ctx context.Context, order models.Order) models.Order {
	switch order.OrderStatus {
	case models.OrderStatusDelivering:
		order = s.bookParcel(ctx, order)
	case models.OrderStatusDelivered:
		s.adjustStock(ctx, order, "deduct_stock", s.deductStock)
		s.deleteLogos(ctx, order)
	case models.OrderStatusReturn:
		s.adjustStock(ctx, order, "restore_stock", s.restoreStock)
	}

	s.notifyCustomer(ctx, order)
	if order.OrderStatus != models.OrderStatusRefund {
		s.mailCustomer(ctx, order.OrderStatus, order)
	}
	return order
}

func (s *Service) bookParcel(ctx context.Context, order models.Order) models.Order {
	if s.deps.Courier == nil {
		return order
	}
	s.effects.run(ctx, order.OrderID, "courier_parcel", func(ctx context.Context) error {
		parcel, err := s.deps.Courier.CreateParcel(ctx, order)
		if err != nil {
			return err
		}
		order.TrackingCode = parcel.TrackingCode
		order.ConsignmentID = parcel.ConsignmentID
		return s.deps.Orders.SetTracking(ctx, order.OrderID, parcel.TrackingCode, parcel.ConsignmentID)
	})
	return order
}

func (s *Service) deductStock(ctx context.Context, item models.OrderItem) error {
	return s.deps.Inventory.DeductStock(ctx, item.ProductID, item.Quantity)
}

func (s *Service) restoreStock(ctx context.Context, item models.OrderItem) error {
	return s.deps.Inventory.RestoreStock(ctx, item.ProductID, item.Quantity)
}

// adjustStock applies fn per item. Pre-orders never touched stock, so they
// are skipped. Each item fails independently.
func (s *Service) adjustStock(ctx context.Context, order models.Order, name string, fn func(context.Context, models.OrderItem) error) {
	if order.IsPreOrder || s.deps.Inventory == nil {
		return
	}
	for _, item := range order.OrderItems {
		if item.Quantity <= 0 {
			continue
		}
		s.effects.run(ctx, order.OrderID, name+":"+item.ProductID.Hex(), func(ctx context.Context) error {
			return fn(ctx, item)
		})
	}
}

func (s *Service) deleteLogos(ctx context.Context, order models.Order) {
	if s.deps.Files == nil {
		return
	}
	for _, item := range order.OrderItems {
		if item.Kind != models.ItemKindCustom {
			continue
		}
		for _, logo := range item.Logos {
			if !logo.Uploaded || logo.ImageKey == "" {
				continue
			}
			if !logo.StoredBy(order.UserData.ID) {
				s.effects.log.WithFields(logrus.Fields{"orderId": order.OrderID, "key": logo.ImageKey}).
					Warn("refusing to delete logo outside the owner's upload folder")
				continue
			}
			key := logo.ImageKey
			s.effects.run(ctx, order.OrderID, "delete_logo", func(ctx context.Context) error {
				return s.deps.Files.Delete(ctx, key)
			})
		}
	}
}

var statusNotices = map[string][2]string{
	models.OrderStatusConfirm:    {"Order confirmed", "Your order #%s has been confirmed."},
	models.OrderStatusProcessing: {"Order processing", "Your order #%s is being prepared."},
	models.OrderStatusDelivering: {"Order on the way", "Your order #%s has been handed to the courier."},
	models.OrderStatusDelivered:  {"Order delivered", "Your order #%s has been delivered."},
	models.OrderStatusCancel:     {"Order canceled", "Your order #%s has been canceled."},
	models.OrderStatusReturn:     {"Order returned", "We received the return for order #%s."},
	models.OrderStatusRefund:     {"Refund issued", "The refund for order #%s has been issued."},
}

func (s *Service) notifyCustomer(ctx context.Context, order models.Order) {
	notice, ok := statusNotices[order.OrderStatus]
	if !ok || s.deps.Notifier == nil || order.UserData.ID == nil {
		return
	}
	body := fmt.Sprintf(notice[1], order.OrderID)
	if order.OrderStatus == models.OrderStatusDelivering && order.TrackingCode != "" {
		body += " Tracking code: " + order.TrackingCode + "."
	}
	s.effects.run(ctx, order.OrderID, "notify_customer", func(ctx context.Context) error {
		_, err := s.deps.Notifier.Notify(ctx, notify.Message{
			Title:   notice[0],
			Body:    body,
			Link:    "/orders/" + order.OrderID,
			UserIDs: []primitive.ObjectID{*order.UserData.ID},
		})
		return err
	})
}

func (s *Service) mailCustomer(ctx context.Context, kind string, order models.Order) {
	if s.deps.Mailer == nil {
		return
	}
	s.effects.run(ctx, order.OrderID, "mail_"+kind, func(ctx context.Context) error {
		mail, ok, err := notify.OrderMail(kind, order, s.deps.StoreURL)
		if err != nil || !ok {
			return err
		}
		err = s.deps.Mailer.Send(ctx, mail)
		if errors.Is(err, notify.ErrMailDisabled) {
			return nil
		}
		return err
	})
}

func (s *Service) notifyAdmins(ctx context.Context, orderID, title, body string) {
	if s.deps.Notifier == nil || s.deps.Admins == nil {
		return
	}
	s.effects.run(ctx, orderID, "notify_admins", func(ctx context.Context) error {
		ids, err := s.deps.Admins.AdminIDs(ctx)
		if err != nil || len(ids) == 0 {
			return err
		}
		_, err = s.deps.Notifier.Notify(ctx, notify.Message{
			Title:   title,
			Body:    body,
			Link:    "/admin/orders/" + orderID,
			UserIDs: ids,
		})
		return err
	})
}

// CancelByUser lets the owner cancel a pending order within CancelWindow.
func (s *Service) CancelByUser(ctx context.Context, userID primitive.ObjectID, orderID string) (models.Order, error) {
	order, err := s.deps.Orders.FindByOrderID(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if !order.OwnedBy(userID) {
		return models.Order{}, apperr.Forbidden("this order belongs to another account")
	}
	if order.OrderStatus != models.OrderStatusPending {
		return models.Order{}, apperr.Validation(apperr.CodeInvalidStatus, "only pending orders can be canceled")
	}
	if s.now().Sub(order.CreatedAt) > CancelWindow {
		return models.Order{}, apperr.Validation(apperr.CodeCancelWindowExpired, "orders can only be canceled within 12 hours")
	}

	updated, err := s.transition(ctx, order, models.OrderStatusCancel)
	if err != nil {
		return models.Order{}, err
	}
	s.notifyAdmins(ctx, updated.OrderID, "Order canceled by customer", fmt.Sprintf("Order #%s was canceled by the customer.", updated.OrderID))
	return updated, nil
}

// RequestRefund flags a canceled order for refund. Only one request per order.
func (s *Service) RequestRefund(ctx context.Context, userID primitive.ObjectID, orderID, reason string) (models.Order, error) {
	order, err := s.deps.Orders.FindByOrderID(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if !order.OwnedBy(userID) {
		return models.Order{}, apperr.Forbidden("this order belongs to another account")
	}
	if order.OrderStatus != models.OrderStatusCancel || order.RefundRequest {
		return models.Order{}, apperr.Validation(apperr.CodeRefundNotAllowed, "refund can only be requested once for a canceled order")
	}

	updated, err := s.deps.Orders.SetRefundRequest(ctx, orderID, strings.TrimSpace(reason))
	if err != nil {
		return models.Order{}, err
	}
	s.notifyAdmins(ctx, orderID, "Refund requested", fmt.Sprintf("The customer requested a refund for order #%s.", orderID))
	return updated, nil
}
