package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/pricing"
	"storefront/internal/store"
)

type shippingInfoRequest struct {
	Name        string `json:"name" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
	Address     string `json:"address" binding:"required"`
	District    string `json:"district" binding:"required"`
	Area        string `json:"area"`
	Note        string `json:"note"`
	PaymentType string `json:"paymentType" binding:"omitempty,oneof=delivery_only preorder_50 preorder_full full"`
}

type createOrderRequest struct {
	OrderItems   []pricing.ItemInput `json:"orderItems" binding:"required"`
	ShippingInfo shippingInfoRequest `json:"shippingInfo" binding:"required"`
	IsPreOrder   bool                `json:"isPreOrder"`
	CouponCode   string              `json:"couponCode"`
}

type confirmPaymentRequest struct {
	OrderID   string `json:"orderId" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
}

type paymentSessionRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

type refundRequest struct {
	Reason string `json:"reason"`
}

// orderCommand binds the checkout body and attaches the caller's account,
// if a valid token came with the request.
func orderCommand(c *gin.Context, users UserStore, route string) (orders.CreateCommand, bool) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, route, err)
		return orders.CreateCommand{}, false
	}

	cmd := orders.CreateCommand{
		Items: req.OrderItems,
		Shipping: models.ShippingInfo{
			Name:        req.ShippingInfo.Name,
			Phone:       req.ShippingInfo.Phone,
			Email:       req.ShippingInfo.Email,
			Address:     req.ShippingInfo.Address,
			District:    req.ShippingInfo.District,
			Area:        req.ShippingInfo.Area,
			Note:        req.ShippingInfo.Note,
			PaymentType: req.ShippingInfo.PaymentType,
		},
		IsPreOrder: req.IsPreOrder,
		CouponCode: strings.TrimSpace(req.CouponCode),
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		return cmd, true
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := users.ByID(ctx, userID)
	if err != nil {
		logrus.WithFields(logrus.Fields{"route": route, "userId": userID.Hex()}).WithError(err).
			Warn("token user not found, continuing as guest")
		return cmd, true
	}
	cmd.User = &user
	return cmd, true
}

// ValidateOrder prices a cart without creating anything.
func ValidateOrder(checkout CheckoutService, users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/validate"
		defer handlePanic(c, route)

		cmd, ok := orderCommand(c, users, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		breakdown, err := checkout.Validate(ctx, cmd)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, breakdown)
	}
}

func CreateOrder(checkout CheckoutService, users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		cmd, ok := orderCommand(c, users, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := checkout.Create(ctx, cmd)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func ConfirmPayment(checkout CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payments/confirm"
		defer handlePanic(c, route)

		var req confirmPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := checkout.ConfirmPayment(ctx, strings.TrimSpace(req.OrderID), strings.TrimSpace(req.PaymentID))
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// RetryPayment reopens online payment for an order whose session failed to
// start or was not completed.
func RetryPayment(checkout CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payments/session"
		defer handlePanic(c, route)

		var req paymentSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		session, err := checkout.RetryPayment(ctx, strings.TrimSpace(req.OrderID))
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"payment": session})
	}
}

func GetMyOrders(ordersRepo OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /user/orders"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		page, err := pageParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, total, err := ordersRepo.List(ctx, store.OrderFilter{UserID: &userID}, page)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, paginated(list, page, total))
	}
}

// GetMyOrder answers 404 for orders of other accounts as well, so order
// numbers cannot be enumerated.
func GetMyOrder(ordersRepo OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /user/orders/:orderId"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := ordersRepo.FindByOrderID(ctx, c.Param("orderId"))
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		if !order.OwnedBy(userID) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func CancelMyOrder(lifecycle LifecycleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/orders/:orderId/cancel"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := lifecycle.CancelByUser(ctx, userID, c.Param("orderId"))
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func RequestRefund(lifecycle LifecycleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/orders/:orderId/refund-request"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req refundRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondValidationError(c, route, err)
				return
			}
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := lifecycle.RequestRefund(ctx, userID, c.Param("orderId"), req.Reason)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
