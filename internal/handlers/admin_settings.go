package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/models"
)

type chargeRequest struct {
	Price float64 `json:"price" binding:"gte=0"`
}

type advancedPaymentRequest struct {
	Amount float64 `json:"amount" binding:"gte=0"`
	EligibilityRequest
}

// GetCharge returns the free-delivery threshold; a missing singleton reads
// as price 0.
func GetCharge(settings SettingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/settings/charge"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		charge, err := settings.Charge(ctx)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		if charge == nil {
			charge = &models.Charge{}
		}
		c.JSON(http.StatusOK, charge)
	}
}

func PutCharge(settings SettingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/settings/charge"
		defer handlePanic(c, route)

		var req chargeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		saved, err := settings.PutCharge(ctx, models.Charge{Price: req.Price})
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		logrus.WithFields(logrus.Fields{"route": route, "price": saved.Price}).Info("free delivery threshold saved")
		c.JSON(http.StatusOK, saved)
	}
}

func GetAdvancedPayment(settings SettingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/settings/advanced-payment"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		rule, err := settings.AdvancedPaymentRule(ctx)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		if rule == nil {
			rule = &models.AdvancedPaymentRule{Eligibility: models.Eligibility{
				AppliesTo:        models.ScopeAll,
				AllowedUsersType: models.ScopeAll,
			}}
		}
		c.JSON(http.StatusOK, rule)
	}
}

func PutAdvancedPayment(settings SettingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/settings/advanced-payment"
		defer handlePanic(c, route)

		var req advancedPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		eligibility, err := req.EligibilityRequest.toModel()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		saved, err := settings.PutAdvancedPaymentRule(ctx, models.AdvancedPaymentRule{
			Amount:      req.Amount,
			Eligibility: eligibility,
		})
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, saved)
	}
}
