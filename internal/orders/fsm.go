// Package orders creates orders and drives them through their lifecycle.
package orders

import "storefront/internal/models"

var transitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusConfirm, models.OrderStatusCancel},
	models.OrderStatusConfirm:    {models.OrderStatusProcessing, models.OrderStatusCancel},
	models.OrderStatusProcessing: {models.OrderStatusDelivering, models.OrderStatusCancel},
	models.OrderStatusDelivering: {models.OrderStatusDelivered, models.OrderStatusCancel},
	models.OrderStatusDelivered:  {models.OrderStatusReturn},
	models.OrderStatusCancel:     {models.OrderStatusRefund},
	models.OrderStatusReturn:     {models.OrderStatusRefund},
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case models.OrderStatusPending, models.OrderStatusConfirm, models.OrderStatusProcessing,
		models.OrderStatusDelivering, models.OrderStatusDelivered, models.OrderStatusCancel,
		models.OrderStatusReturn, models.OrderStatusRefund:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from s.
func NextStatuses(s string) []string {
	return append([]string(nil), transitions[s]...)
}
