package pricing

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

// CouponResult is the outcome of a successful coupon evaluation.
type CouponResult struct {
	CouponID primitive.ObjectID
	Discount float64
	Snapshot models.CouponSnapshot
}

// EvaluateCoupon checks eligibility, expiry and usage, then computes the
// discount against itemsPrice.
func EvaluateCoupon(coupon models.Coupon, items []models.OrderItem, itemsPrice float64, userID *primitive.ObjectID, now time.Time) (CouponResult, error) {
	if !coupon.ExpiryDate.IsZero() && now.After(coupon.ExpiryDate) {
		return CouponResult{}, apperr.Validation(apperr.CodeCouponExpired, "coupon has expired")
	}

	if coupon.UserRestricted() {
		if userID == nil {
			return CouponResult{}, apperr.Validation(apperr.CodeLoginRequired, "please log in to use this coupon")
		}
		if !coupon.UserIDs.Contains(*userID) {
			return CouponResult{}, apperr.Validation(apperr.CodeNotEligible, "you are not eligible for this coupon")
		}
	}

	if coupon.UsageExhausted() {
		return CouponResult{}, apperr.Validation(apperr.CodeUsageLimitReached, "coupon usage limit reached")
	}

	checkMinimum := true
	if coupon.ProductScoped() {
		matched := 0
		for _, item := range items {
			if coupon.ProductIDs.Contains(item.ProductID) {
				matched++
			}
		}
		if matched == 0 {
			return CouponResult{}, apperr.Validation(apperr.CodeNotApplicable, "coupon is not applicable to these products")
		}
		checkMinimum = matched < len(items)
	}

	if checkMinimum && itemsPrice < coupon.MinimumPurchase {
		return CouponResult{}, apperr.Validation(apperr.CodeMinimumPurchase, "order total is below the coupon minimum purchase")
	}

	discount := couponDiscount(coupon, itemsPrice)
	return CouponResult{
		CouponID: coupon.ID,
		Discount: discount,
		Snapshot: models.CouponSnapshot{
			Code:          coupon.Code,
			DiscountType:  coupon.DiscountType,
			DiscountValue: coupon.DiscountValue,
			Amount:        discount,
		},
	}, nil
}

func couponDiscount(coupon models.Coupon, itemsPrice float64) float64 {
	if itemsPrice <= 0 || coupon.DiscountValue <= 0 {
		return 0
	}
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount := percentOf(itemsPrice, math.Min(coupon.DiscountValue, 100))
		if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
			discount = coupon.MaxDiscount
		}
		return Round2(discount)
	case models.DiscountFixed:
		return Round2(math.Min(coupon.DiscountValue, itemsPrice))
	default:
		return 0
	}
}
