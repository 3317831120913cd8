package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/apperr"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/objectstore"
	"storefront/internal/orders"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/store"
)

var testAuth = AuthConfig{Secret: "handler-secret", AccessTTL: time.Hour}

type fakeUsers struct {
	byEmail map[string]models.User
	created []models.User
}

func (f *fakeUsers) ByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return models.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (f *fakeUsers) ByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, apperr.NotFound("user not found")
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	if _, taken := f.byEmail[u.Email]; taken {
		return apperr.Conflict(apperr.CodeDuplicate, "email already registered")
	}
	u.ID = primitive.NewObjectID()
	f.byEmail[u.Email] = *u
	f.created = append(f.created, *u)
	return nil
}

type fakeCheckout struct {
	got     orders.CreateCommand
	err     error
	retried string
}

func (f *fakeCheckout) Validate(_ context.Context, cmd orders.CreateCommand) (pricing.Breakdown, error) {
	f.got = cmd
	return pricing.Breakdown{FinalTotal: 260}, f.err
}

func (f *fakeCheckout) Create(_ context.Context, cmd orders.CreateCommand) (orders.CreateResult, error) {
	f.got = cmd
	if f.err != nil {
		return orders.CreateResult{}, f.err
	}
	return orders.CreateResult{Order: models.Order{OrderID: "123456789", TotalPrice: 260}}, nil
}

func (f *fakeCheckout) ConfirmPayment(_ context.Context, orderID, _ string) (models.Order, error) {
	return models.Order{OrderID: orderID}, f.err
}

func (f *fakeCheckout) RetryPayment(_ context.Context, orderID string) (payment.Session, error) {
	f.retried = orderID
	if f.err != nil {
		return payment.Session{}, f.err
	}
	return payment.Session{Provider: "fakepay", PaymentID: "P-" + orderID}, nil
}

type fakeLifecycle struct{ err error }

func (f fakeLifecycle) TransitionStatus(_ context.Context, orderID, status string) (models.Order, error) {
	return models.Order{OrderID: orderID, OrderStatus: status}, f.err
}

func (f fakeLifecycle) CancelByUser(_ context.Context, _ primitive.ObjectID, orderID string) (models.Order, error) {
	return models.Order{OrderID: orderID, OrderStatus: models.OrderStatusCancel}, f.err
}

func (f fakeLifecycle) RequestRefund(_ context.Context, _ primitive.ObjectID, orderID, reason string) (models.Order, error) {
	return models.Order{OrderID: orderID, RefundRequest: true, RefundReason: reason}, f.err
}

type fakeOrderReader struct{ orders map[string]models.Order }

func (f fakeOrderReader) FindByOrderID(_ context.Context, id string) (models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return models.Order{}, apperr.NotFound("order not found")
	}
	return o, nil
}

func (f fakeOrderReader) List(_ context.Context, filter store.OrderFilter, _ store.Page) ([]models.Order, int64, error) {
	out := make([]models.Order, 0)
	for _, o := range f.orders {
		if filter.UserID != nil && !o.OwnedBy(*filter.UserID) {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (f fakeOrderReader) Delete(_ context.Context, id string) error {
	if _, ok := f.orders[id]; !ok {
		return apperr.NotFound("order not found")
	}
	delete(f.orders, id)
	return nil
}

type fakeProducts struct{ list []models.Product }

func (f fakeProducts) ListProducts(context.Context, store.ProductFilter, store.Page) ([]models.Product, int64, error) {
	return f.list, int64(len(f.list)), nil
}

func (f fakeProducts) ProductBySlug(_ context.Context, slug string) (models.Product, error) {
	for _, p := range f.list {
		if p.Slug == slug {
			return p, nil
		}
	}
	return models.Product{}, apperr.NotFound("product not found")
}

func (f fakeProducts) ProductByID(context.Context, primitive.ObjectID) (models.Product, error) {
	return models.Product{}, apperr.NotFound("product not found")
}

type fakeProductWriter struct {
	fakeProducts
	stored models.Product
	set    bson.M
}

func (f *fakeProductWriter) ProductByID(context.Context, primitive.ObjectID) (models.Product, error) {
	return f.stored, nil
}

func (f *fakeProductWriter) InsertProduct(_ context.Context, p *models.Product) error {
	p.ID = primitive.NewObjectID()
	f.stored = *p
	return nil
}

func (f *fakeProductWriter) UpdateProduct(_ context.Context, _ primitive.ObjectID, set bson.M) (models.Product, error) {
	f.set = set
	return f.stored, nil
}

func serveForm(r http.Handler, method, target string, fields map[string]string) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	_ = writer.Close()

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type fakeUploader struct{ folder string }

func (f *fakeUploader) Upload(_ context.Context, folder, ext, _ string, r io.Reader) (objectstore.Object, error) {
	f.folder = folder
	if _, err := io.ReadAll(r); err != nil {
		return objectstore.Object{}, err
	}
	key := path.Join(strings.Trim(folder, "/"), "x"+ext)
	return objectstore.Object{URL: "https://cdn.test/bucket/" + key, Key: key}, nil
}

func token(t *testing.T, id primitive.ObjectID, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": id.Hex(),
		"role":   role,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testAuth.Secret))
	require.NoError(t, err)
	return "Bearer " + s
}

func serve(r http.Handler, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func orderBody() gin.H {
	return gin.H{
		"orderItems": []gin.H{{"id": primitive.NewObjectID().Hex(), "quantity": 1}},
		"shippingInfo": gin.H{
			"name":        "Rafi",
			"phone":       "01700000000",
			"address":     "House 1",
			"district":    "Dhaka",
			"paymentType": "delivery_only",
		},
		"couponCode": " save10 ",
	}
}

func TestCreateOrderAttachesTokenUser(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Email: "a@b.c", Name: "A"}
	users := &fakeUsers{byEmail: map[string]models.User{user.Email: user}}
	checkout := &fakeCheckout{}

	r := newEngine()
	r.POST("/orders", middleware.OptionalUser(testAuth.Secret), CreateOrder(checkout, users))

	w := serve(r, http.MethodPost, "/orders", token(t, user.ID, models.RoleUser), orderBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, checkout.got.User)
	assert.Equal(t, user.ID, checkout.got.User.ID)
	assert.Equal(t, "save10", checkout.got.CouponCode)
	assert.Equal(t, "Dhaka", checkout.got.Shipping.District)

	w = serve(r, http.MethodPost, "/orders", "", orderBody())
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, checkout.got.User)
}

func TestCreateOrderRejections(t *testing.T) {
	checkout := &fakeCheckout{}
	r := newEngine()
	r.POST("/orders", CreateOrder(checkout, &fakeUsers{byEmail: map[string]models.User{}}))

	body := orderBody()
	body["shippingInfo"] = gin.H{"name": "x"}
	w := serve(r, http.MethodPost, "/orders", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation failed", decode(t, w)["error"])

	body = orderBody()
	body["shippingInfo"].(gin.H)["paymentType"] = "bitcoin"
	w = serve(r, http.MethodPost, "/orders", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	checkout.err = apperr.Validation(apperr.CodeCouponExpired, "coupon has expired")
	w = serve(r, http.MethodPost, "/orders", "", orderBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	out := decode(t, w)
	assert.Equal(t, "COUPON_EXPIRED", out["code"])
	assert.Equal(t, "coupon has expired", out["error"])

	checkout.err = errors.New("mongo exploded")
	w = serve(r, http.MethodPost, "/orders", "", orderBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w)["error"])
}

func TestValidateOrderReturnsBreakdown(t *testing.T) {
	r := newEngine()
	r.POST("/orders/validate", ValidateOrder(&fakeCheckout{}, &fakeUsers{byEmail: map[string]models.User{}}))

	w := serve(r, http.MethodPost, "/orders/validate", "", orderBody())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 260.0, decode(t, w)["finalTotal"])
}

func TestRetryPaymentRoute(t *testing.T) {
	checkout := &fakeCheckout{}
	r := newEngine()
	r.POST("/payments/session", RetryPayment(checkout))

	w := serve(r, http.MethodPost, "/payments/session", "", gin.H{"orderId": " 123456789 "})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "123456789", checkout.retried)
	body := decode(t, w)
	assert.Equal(t, "P-123456789", body["payment"].(map[string]interface{})["paymentId"])

	w = serve(r, http.MethodPost, "/payments/session", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	checkout.err = apperr.Conflict(apperr.CodePaymentMismatch, "this order is already paid")
	w = serve(r, http.MethodPost, "/payments/session", "", gin.H{"orderId": "123456789"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperr.CodePaymentMismatch, decode(t, w)["code"])
}

func TestUpdateOrderStatusMapsConflict(t *testing.T) {
	r := newEngine()
	r.PUT("/admin/api/orders/:orderId/status", UpdateOrderStatus(fakeLifecycle{
		err: apperr.Conflict(apperr.CodeStatusChanged, "order status changed concurrently"),
	}))

	w := serve(r, http.MethodPut, "/admin/api/orders/123/status", "", gin.H{"status": "confirm"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "STATUS_CHANGED", decode(t, w)["code"])

	w = serve(r, http.MethodPut, "/admin/api/orders/123/status", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserOrderRoutes(t *testing.T) {
	owner, stranger := primitive.NewObjectID(), primitive.NewObjectID()
	repo := fakeOrderReader{orders: map[string]models.Order{
		"100": {OrderID: "100", UserData: models.UserSnapshot{ID: &owner}},
		"200": {OrderID: "200", UserData: models.UserSnapshot{ID: &stranger}},
	}}

	r := newEngine()
	user := r.Group("/user", middleware.UserAuth(testAuth.Secret))
	user.GET("/orders", GetMyOrders(repo))
	user.GET("/orders/:orderId", GetMyOrder(repo))
	user.POST("/orders/:orderId/refund-request", RequestRefund(fakeLifecycle{}))
	user.POST("/orders/:orderId/cancel", CancelMyOrder(fakeLifecycle{err: apperr.Validation(apperr.CodeCancelWindowExpired, "too late")}))

	auth := token(t, owner, models.RoleUser)

	w := serve(r, http.MethodGet, "/user/orders", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Len(t, out["data"], 1)
	assert.Equal(t, 1.0, out["pagination"].(map[string]interface{})["total"])

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/user/orders/100", auth, nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/user/orders/200", auth, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/user/orders/100", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/user/orders?page=0", auth, nil).Code)

	w = serve(r, http.MethodPost, "/user/orders/100/cancel", auth, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CANCEL_WINDOW_EXPIRED", decode(t, w)["code"])

	w = serve(r, http.MethodPost, "/user/orders/100/refund-request", auth, gin.H{"reason": "wrong size"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "wrong size", decode(t, w)["refundReason"])

	w = serve(r, http.MethodPost, "/user/orders/100/refund-request", auth, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminDeleteOrder(t *testing.T) {
	repo := fakeOrderReader{orders: map[string]models.Order{"100": {OrderID: "100"}}}
	r := newEngine()
	r.DELETE("/admin/api/orders/:orderId", DeleteOrder(repo))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodDelete, "/admin/api/orders/100", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, "/admin/api/orders/100", "", nil).Code)
}

func TestGetOrdersRejectsUnknownStatus(t *testing.T) {
	r := newEngine()
	r.GET("/admin/api/orders", GetOrders(fakeOrderReader{orders: map[string]models.Order{}}))

	w := serve(r, http.MethodGet, "/admin/api/orders?status=shipped", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STATUS", decode(t, w)["code"])
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/admin/api/orders?status=pending", "", nil).Code)
}

func TestRegisterAndLogin(t *testing.T) {
	users := &fakeUsers{byEmail: map[string]models.User{}}
	r := newEngine()
	r.POST("/auth/register", Register(users, testAuth))
	r.POST("/auth/login", Login(users, testAuth))
	r.POST("/admin/login", AdminLogin(users, testAuth))

	w := serve(r, http.MethodPost, "/auth/register", "", gin.H{"name": "Mina", "email": "Mina@Example.com", "password": "longenough"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w)["accessToken"])
	require.Len(t, users.created, 1)
	assert.Equal(t, "mina@example.com", users.created[0].Email)
	assert.NotEqual(t, "longenough", users.created[0].PasswordHash)

	w = serve(r, http.MethodPost, "/auth/register", "", gin.H{"name": "Mina", "email": "mina@example.com", "password": "longenough"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE", decode(t, w)["code"])

	w = serve(r, http.MethodPost, "/auth/register", "", gin.H{"name": "Mina", "email": "not-an-email", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, decode(t, w)["details"], 2)

	w = serve(r, http.MethodPost, "/auth/login", "", gin.H{"email": "MINA@example.com", "password": "longenough"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/auth/login", "", gin.H{"email": "mina@example.com", "password": "wrong-password"}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/auth/login", "", gin.H{"email": "ghost@example.com", "password": "x"}).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/admin/login", "", gin.H{"email": "mina@example.com", "password": "longenough"}).Code)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	users.byEmail["boss@example.com"] = models.User{ID: primitive.NewObjectID(), Email: "boss@example.com", Role: models.RoleAdmin, PasswordHash: string(hash)}

	w = serve(r, http.MethodPost, "/admin/login", "", gin.H{"email": "boss@example.com", "password": "admin-pass"})
	require.Equal(t, http.StatusOK, w.Code)

	raw := decode(t, w)["accessToken"].(string)
	check := newEngine()
	check.GET("/x", middleware.AdminAuth(testAuth.Secret), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusNoContent, serve(check, http.MethodGet, "/x", "Bearer "+raw, nil).Code)
}

func TestGetProductsPagingShape(t *testing.T) {
	r := newEngine()
	products := fakeProducts{list: []models.Product{{Name: "Mug", Slug: "mug", Price: 100}}}
	r.GET("/products", GetProducts(products))
	r.GET("/products/:slug", GetProductBySlug(products))

	w := serve(r, http.MethodGet, "/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "["))

	w = serve(r, http.MethodGet, "/products?page=1&limit=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "pagination")

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/products?availability=soon", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/products/mug", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/products/cup", "", nil).Code)
}

func TestProductSaleEdits(t *testing.T) {
	products := &fakeProductWriter{stored: models.Product{Name: "Tee", Price: 100, SaleEnabled: true, SalePrice: 80}}
	r := newEngine()
	r.POST("/products", CreateProduct(products, nil))
	r.PUT("/products/:id", UpdateProduct(products, nil))
	target := "/products/" + primitive.NewObjectID().Hex()

	w := serveForm(r, http.MethodPut, target, map[string]string{"salePrice": "120"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperr.CodeInvalidSale, decode(t, w)["code"])

	w = serveForm(r, http.MethodPut, target, map[string]string{"price": "70"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serveForm(r, http.MethodPut, target, map[string]string{"saleEnabled": "false"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, bson.M{"price": 100.0, "saleEnabled": false, "salePrice": 0.0}, products.set)

	w = serveForm(r, http.MethodPut, target, map[string]string{"name": "Polo"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, bson.M{"name": "Polo"}, products.set)

	w = serveForm(r, http.MethodPost, "/products", map[string]string{"name": "Cap", "price": "50", "saleEnabled": "true"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperr.CodeInvalidSale, decode(t, w)["code"])

	w = serveForm(r, http.MethodPost, "/products", map[string]string{"name": "Cap", "price": "50", "saleEnabled": "true", "salePrice": "40"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, 40.0, out["salePrice"])
	assert.Equal(t, true, out["isOnSale"])
}

func TestUploadLogo(t *testing.T) {
	uploader := &fakeUploader{}
	owner := primitive.NewObjectID()
	r := newEngine()
	r.POST("/user/uploads/logo", middleware.UserAuth(testAuth.Secret), UploadLogo(uploader))

	send := func(filename, auth string) *httptest.ResponseRecorder {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("logo", filename)
		require.NoError(t, err)
		_, _ = part.Write([]byte("img"))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/user/uploads/logo", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	auth := token(t, owner, models.RoleUser)
	w := send("brand.png", auth)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "logos/"+owner.Hex()+"/x.png", out["imageKey"])
	assert.Equal(t, true, out["uploaded"])
	assert.Equal(t, models.LogoKeyPrefix(owner), uploader.folder)

	logo := models.LogoAttachment{ImageURL: out["imageUrl"].(string), ImageKey: out["imageKey"].(string)}
	assert.True(t, logo.StoredBy(&owner))
	stranger := primitive.NewObjectID()
	assert.False(t, logo.StoredBy(&stranger))

	assert.Equal(t, http.StatusBadRequest, send("brand.exe", auth).Code)
	assert.Equal(t, http.StatusUnauthorized, send("brand.png", "").Code)

	disabled := newEngine()
	disabled.POST("/user/uploads/logo", UploadLogo(nil))
	req := httptest.NewRequest(http.MethodPost, "/user/uploads/logo", nil)
	rec := httptest.NewRecorder()
	disabled.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSettingsDefaults(t *testing.T) {
	r := newEngine()
	settings := &fakeSettings{}
	r.GET("/charge", GetCharge(settings))
	r.PUT("/charge", PutCharge(settings))
	r.GET("/advanced", GetAdvancedPayment(settings))
	r.PUT("/advanced", PutAdvancedPayment(settings))

	w := serve(r, http.MethodGet, "/charge", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["price"])

	require.Equal(t, http.StatusOK, serve(r, http.MethodPut, "/charge", "", gin.H{"price": 1500}).Code)
	assert.Equal(t, 1500.0, decode(t, serve(r, http.MethodGet, "/charge", "", nil))["price"])
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPut, "/charge", "", gin.H{"price": -1}).Code)

	w = serve(r, http.MethodGet, "/advanced", "", nil)
	assert.Equal(t, "all", decode(t, w)["appliesTo"])

	w = serve(r, http.MethodPut, "/advanced", "", gin.H{"amount": 200, "appliesTo": "specific", "productIds": []string{"bad"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	pid := primitive.NewObjectID().Hex()
	w = serve(r, http.MethodPut, "/advanced", "", gin.H{"amount": 200, "appliesTo": "specific", "productIds": []string{pid}})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, settings.rule)
	assert.Equal(t, "all", settings.rule.AllowedUsersType)
	assert.Len(t, settings.rule.ProductIDs, 1)
}

type fakeSettings struct {
	charge *models.Charge
	rule   *models.AdvancedPaymentRule
}

func (f *fakeSettings) Charge(context.Context) (*models.Charge, error) { return f.charge, nil }

func (f *fakeSettings) AdvancedPaymentRule(context.Context) (*models.AdvancedPaymentRule, error) {
	return f.rule, nil
}

func (f *fakeSettings) PutCharge(_ context.Context, c models.Charge) (models.Charge, error) {
	f.charge = &c
	return c, nil
}

func (f *fakeSettings) PutAdvancedPaymentRule(_ context.Context, r models.AdvancedPaymentRule) (models.AdvancedPaymentRule, error) {
	f.rule = &r
	return r, nil
}
