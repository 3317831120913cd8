package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storefront/internal/config"
	"storefront/internal/courier"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/objectstore"
	"storefront/internal/orders"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/store"
)

const streamHeartbeat = 25 * time.Second

func main() {
	if err := config.Load(); err != nil {
		logrus.WithError(err).Fatal("config load failed")
	}
	cfg := config.AppEnv
	logger := logging.Setup(cfg.LogLevel)

	ctx := context.Background()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.WithError(err).Fatal("database connect failed")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.DBName)
	logger.WithField("db", db.Name()).Info("MongoDB connected")

	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.WithError(err).Warn("index setup incomplete")
	}

	catalog := store.NewCatalog(db)
	ordersRepo := store.NewOrders(db)
	coupons := store.NewCoupons(db)
	shippingRules := store.NewShippingRules(db)
	users := store.NewUsers(db)
	notifications := store.NewNotifications(db)

	hub := notify.NewHub()
	notifier := notify.NewService(notifications, hub, logger)
	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	})

	deps := orders.Deps{
		Orders:    ordersRepo,
		Inventory: store.NewInventory(db),
		Notifier:  notifier,
		Mailer:    mailer,
		Admins:    users,
		StoreURL:  cfg.StoreURL,
		Logger:    logger,
	}
	if cfg.Courier.BaseURL != "" {
		deps.Courier = courier.New(courier.Config{
			BaseURL:   cfg.Courier.BaseURL,
			APIKey:    cfg.Courier.APIKey,
			SecretKey: cfg.Courier.SecretKey,
			Timeout:   cfg.Courier.Timeout,
		})
	} else {
		logger.Warn("courier not configured, parcels will not be booked")
	}

	var uploader handlers.Uploader
	if cfg.Storage.Bucket != "" {
		objects, err := objectstore.New(ctx, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL, cfg.Storage.CredentialsFile)
		if err != nil {
			logger.WithError(err).Fatal("object storage setup failed")
		}
		defer objects.Close()
		uploader = objects
		deps.Files = objects
	} else {
		logger.Warn("GCS_BUCKET not set, uploads disabled")
	}

	gateway := paymentGateway(cfg.Payment, logger)

	lifecycle := orders.NewService(deps)
	checkout := orders.NewCheckout(deps, pricing.NewValidator(catalog, pricing.WithLogger(logger)), coupons, gateway)

	auth := handlers.AuthConfig{Secret: cfg.JWTSecret, AccessTTL: cfg.AccessTokenTTL()}

	r := gin.Default()
	r.Use(handlers.DBGuard(func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}))

	r.POST("/auth/register", handlers.Register(users, auth))
	r.POST("/auth/login", handlers.Login(users, auth))
	r.POST("/admin/login", handlers.AdminLogin(users, auth))

	r.GET("/products", handlers.GetProducts(catalog))
	r.GET("/products/:slug", handlers.GetProductBySlug(catalog))

	optionalUser := middleware.OptionalUser(cfg.JWTSecret)
	r.POST("/orders/validate", optionalUser, handlers.ValidateOrder(checkout, users))
	r.POST("/orders", optionalUser, handlers.CreateOrder(checkout, users))
	r.POST("/payments/confirm", handlers.ConfirmPayment(checkout))
	r.POST("/payments/session", handlers.RetryPayment(checkout))

	user := r.Group("/user")
	user.Use(middleware.UserAuth(cfg.JWTSecret))
	{
		user.GET("/orders", handlers.GetMyOrders(ordersRepo))
		user.GET("/orders/:orderId", handlers.GetMyOrder(ordersRepo))
		user.POST("/orders/:orderId/cancel", handlers.CancelMyOrder(lifecycle))
		user.POST("/orders/:orderId/refund-request", handlers.RequestRefund(lifecycle))

		user.GET("/notifications", handlers.GetMyNotifications(notifications))
		user.PUT("/notifications/:id/read", handlers.MarkNotificationRead(notifications))
		user.GET("/notifications/stream", handlers.StreamNotifications(hub, streamHeartbeat))

		user.POST("/uploads/logo", handlers.UploadLogo(uploader))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(cfg.JWTSecret))
	{
		admin.GET("/orders", handlers.GetOrders(ordersRepo))
		admin.GET("/orders/:orderId", handlers.GetOrder(ordersRepo))
		admin.PUT("/orders/:orderId/status", handlers.UpdateOrderStatus(lifecycle))
		admin.DELETE("/orders/:orderId", handlers.DeleteOrder(ordersRepo))

		admin.GET("/products", handlers.GetAllProducts(catalog))
		admin.POST("/products", handlers.CreateProduct(catalog, uploader))
		admin.PUT("/products/:id", handlers.UpdateProduct(catalog, uploader))

		admin.GET("/coupons", handlers.GetCoupons(coupons))
		admin.GET("/coupons/:id", handlers.GetCoupon(coupons))
		admin.POST("/coupons", handlers.CreateCoupon(coupons))
		admin.PUT("/coupons/:id", handlers.UpdateCoupon(coupons))
		admin.DELETE("/coupons/:id", handlers.DeleteCoupon(coupons))

		admin.GET("/shipping-rules", handlers.GetShippingRules(shippingRules))
		admin.POST("/shipping-rules", handlers.CreateShippingRule(shippingRules))
		admin.PUT("/shipping-rules/:id", handlers.UpdateShippingRule(shippingRules))
		admin.DELETE("/shipping-rules/:id", handlers.DeleteShippingRule(shippingRules))

		admin.GET("/settings/charge", handlers.GetCharge(catalog))
		admin.PUT("/settings/charge", handlers.PutCharge(catalog))
		admin.GET("/settings/advanced-payment", handlers.GetAdvancedPayment(catalog))
		admin.PUT("/settings/advanced-payment", handlers.PutAdvancedPayment(catalog))
	}

	logger.WithField("port", cfg.Port).Info("listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

// paymentGateway returns nil when no provider is configured; orders that
// need an advance then fail payment with PAYMENT_FAILED.
func paymentGateway(cfg config.PaymentConfig, logger logrus.FieldLogger) payment.Gateway {
	switch cfg.Provider {
	case "bkash":
		gw, err := payment.NewBkashGateway(payment.BkashConfig{
			BaseURL:     cfg.BkashBaseURL,
			AppKey:      cfg.BkashAppKey,
			AppSecret:   cfg.BkashAppSecret,
			Username:    cfg.BkashUsername,
			Password:    cfg.BkashPassword,
			CallbackURL: cfg.CallbackURL,
			TokenTTL:    cfg.BkashTokenTTL,
		}, payment.WithLogger(logger))
		if err != nil {
			logger.WithError(err).Fatal("bkash gateway setup failed")
		}
		return gw
	case "stripe":
		gw, err := payment.NewStripeGateway(cfg.StripeKey, cfg.StripeCurrency)
		if err != nil {
			logger.WithError(err).Fatal("stripe gateway setup failed")
		}
		return gw
	case "":
		logger.Warn("PAYMENT_PROVIDER not set, advance payments disabled")
		return nil
	default:
		logger.WithField("provider", cfg.Provider).Fatal("unknown payment provider")
		return nil
	}
}
