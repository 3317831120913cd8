package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/apperr"
	"storefront/internal/orders"
	"storefront/internal/store"
)

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func GetOrders(ordersRepo OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		page, err := pageParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := store.OrderFilter{Status: strings.ToLower(strings.TrimSpace(c.Query("status")))}
		if filter.Status != "" && !orders.ValidStatus(filter.Status) {
			respondAppError(c, route, apperr.Validation(apperr.CodeInvalidStatus, "unknown order status"))
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, total, err := ordersRepo.List(ctx, filter, page)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, paginated(list, page, total))
	}
}

func GetOrder(ordersRepo OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders/:orderId"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := ordersRepo.FindByOrderID(ctx, c.Param("orderId"))
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order":        order,
			"nextStatuses": orders.NextStatuses(order.OrderStatus),
		})
	}
}

func UpdateOrderStatus(lifecycle LifecycleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/orders/:orderId/status"
		defer handlePanic(c, route)

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := lifecycle.TransitionStatus(ctx, c.Param("orderId"), req.Status)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// DeleteOrder removes the document only. Stock and coupon usage are left
// as they are.
func DeleteOrder(ordersRepo OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/orders/:orderId"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		orderID := c.Param("orderId")
		if err := ordersRepo.Delete(ctx, orderID); err != nil {
			respondAppError(c, route, err)
			return
		}

		logrus.WithFields(logrus.Fields{"route": route, "orderId": orderID}).Info("order deleted")
		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}
