package pricing

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// applyShippingRule forces free delivery on the items the rule covers. It
// reports whether anything changed.
func applyShippingRule(rule *models.ShippingRule, items []models.OrderItem, userID *primitive.ObjectID) bool {
	if rule == nil || !rule.UserAllowed(userID) {
		return false
	}

	eligible := make([]int, 0, len(items))
	for i, item := range items {
		if rule.ProductAllowed(item.ProductID) {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return false
	}

	for _, i := range eligible {
		items[i].DeliveryCharge = models.DeliveryChargeNo
	}
	return true
}

// advancedPayment returns the up-front amount for an eligible order, or 0.
func advancedPayment(rule *models.AdvancedPaymentRule, items []models.OrderItem, userID *primitive.ObjectID, finalTotal float64) float64 {
	if rule == nil || rule.Amount <= 0 || !rule.UserAllowed(userID) {
		return 0
	}
	for _, item := range items {
		if rule.ProductAllowed(item.ProductID) {
			if rule.Amount < finalTotal {
				return Round2(rule.Amount)
			}
			return Round2(finalTotal)
		}
	}
	return 0
}

// weightBuckets splits the order weight by delivery-charge flag.
func weightBuckets(items []models.OrderItem) (free, paid float64) {
	freeParts := make([]float64, 0, len(items))
	paidParts := make([]float64, 0, len(items))
	for _, item := range items {
		w := item.Weight * float64(item.Quantity)
		if item.DeliveryCharge == models.DeliveryChargeNo {
			freeParts = append(freeParts, w)
		} else {
			paidParts = append(paidParts, w)
		}
	}
	return sumWeights(freeParts...), sumWeights(paidParts...)
}
