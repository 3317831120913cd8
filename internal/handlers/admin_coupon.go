package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/models"
)

type CouponRequest struct {
	Code            string    `json:"code" binding:"required"`
	DiscountType    string    `json:"discountType" binding:"required,oneof=percentage fixed"`
	DiscountValue   float64   `json:"discountValue" binding:"gt=0"`
	MaxDiscount     float64   `json:"maxDiscount" binding:"gte=0"`
	ExpiryDate      time.Time `json:"expiryDate" binding:"required"`
	MinimumPurchase float64   `json:"minimumPurchase" binding:"gte=0"`
	UsageLimit      int       `json:"usageLimit" binding:"gte=0"`
	IsActive        *bool     `json:"isActive"`
	ProductIDs      []string  `json:"productIds"`
	UserIDs         []string  `json:"userIds"`
}

func (r CouponRequest) toModel() (models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(r.Code))
	if code == "" {
		return models.Coupon{}, fmt.Errorf("code is required")
	}
	if r.DiscountType == models.DiscountPercentage && r.DiscountValue > 100 {
		return models.Coupon{}, fmt.Errorf("percentage discount cannot exceed 100")
	}
	productIDs, err := models.ParseIDList(r.ProductIDs)
	if err != nil {
		return models.Coupon{}, fmt.Errorf("productIds: %w", err)
	}
	userIDs, err := models.ParseIDList(r.UserIDs)
	if err != nil {
		return models.Coupon{}, fmt.Errorf("userIds: %w", err)
	}

	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}
	return models.Coupon{
		Code:            code,
		DiscountType:    r.DiscountType,
		DiscountValue:   r.DiscountValue,
		MaxDiscount:     r.MaxDiscount,
		ExpiryDate:      r.ExpiryDate,
		MinimumPurchase: r.MinimumPurchase,
		UsageLimit:      r.UsageLimit,
		IsActive:        isActive,
		ProductIDs:      productIDs,
		UserIDs:         userIDs,
	}, nil
}

func GetCoupons(coupons CouponStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/coupons"
		defer handlePanic(c, route)

		page, err := pageParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, total, err := coupons.List(ctx, page)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, paginated(list, page, total))
	}
}

func GetCoupon(coupons CouponStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/coupons/:id"
		defer handlePanic(c, route)

		id, ok := paramObjectID(c, "id")
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		coupon, err := coupons.ByID(ctx, id)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, coupon)
	}
}

func CreateCoupon(coupons CouponStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/coupons"
		defer handlePanic(c, route)

		var req CouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		coupon, err := req.toModel()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := coupons.Create(ctx, &coupon); err != nil {
			respondAppError(c, route, err)
			return
		}

		logrus.WithFields(logrus.Fields{"route": route, "code": coupon.Code}).Info("coupon created")
		c.JSON(http.StatusCreated, coupon)
	}
}

func UpdateCoupon(coupons CouponStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/coupons/:id"
		defer handlePanic(c, route)

		id, ok := paramObjectID(c, "id")
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req CouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		coupon, err := req.toModel()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		updated, err := coupons.Update(ctx, id, coupon)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func DeleteCoupon(coupons CouponStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/coupons/:id"
		defer handlePanic(c, route)

		id, ok := paramObjectID(c, "id")
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := coupons.Delete(ctx, id); err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "coupon deleted"})
	}
}
