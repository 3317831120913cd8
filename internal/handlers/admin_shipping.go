package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
)

// EligibilityRequest is the product and user targeting shared by shipping
// rules and the advanced payment rule.
type EligibilityRequest struct {
	AppliesTo        string   `json:"appliesTo" binding:"omitempty,oneof=all specific"`
	ProductIDs       []string `json:"productIds"`
	AllowedUsersType string   `json:"allowedUsersType" binding:"omitempty,oneof=all specific"`
	UserIDs          []string `json:"userIds"`
}

func (r EligibilityRequest) toModel() (models.Eligibility, error) {
	productIDs, err := models.ParseIDList(r.ProductIDs)
	if err != nil {
		return models.Eligibility{}, fmt.Errorf("productIds: %w", err)
	}
	userIDs, err := models.ParseIDList(r.UserIDs)
	if err != nil {
		return models.Eligibility{}, fmt.Errorf("userIds: %w", err)
	}
	e := models.Eligibility{
		AppliesTo:        r.AppliesTo,
		ProductIDs:       productIDs,
		AllowedUsersType: r.AllowedUsersType,
		UserIDs:          userIDs,
	}
	if e.AppliesTo == "" {
		e.AppliesTo = models.ScopeAll
	}
	if e.AllowedUsersType == "" {
		e.AllowedUsersType = models.ScopeAll
	}
	return e, nil
}

type ShippingRuleRequest struct {
	District string `json:"district" binding:"required"`
	EligibilityRequest
}

func (r ShippingRuleRequest) toModel() (models.ShippingRule, error) {
	district := strings.TrimSpace(r.District)
	if district == "" {
		return models.ShippingRule{}, fmt.Errorf("district is required")
	}
	e, err := r.EligibilityRequest.toModel()
	if err != nil {
		return models.ShippingRule{}, err
	}
	return models.ShippingRule{District: district, Eligibility: e}, nil
}

func GetShippingRules(rules ShippingRuleStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/shipping-rules"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := rules.List(ctx)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": list})
	}
}

func CreateShippingRule(rules ShippingRuleStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/shipping-rules"
		defer handlePanic(c, route)

		var req ShippingRuleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		rule, err := req.toModel()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := rules.Create(ctx, &rule); err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, rule)
	}
}

func UpdateShippingRule(rules ShippingRuleStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/shipping-rules/:id"
		defer handlePanic(c, route)

		id, ok := paramObjectID(c, "id")
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req ShippingRuleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		rule, err := req.toModel()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		updated, err := rules.Update(ctx, id, rule)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func DeleteShippingRule(rules ShippingRuleStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/shipping-rules/:id"
		defer handlePanic(c, route)

		id, ok := paramObjectID(c, "id")
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := rules.Delete(ctx, id); err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "shipping rule deleted"})
	}
}
