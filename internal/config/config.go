package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

var AppEnv Config

type Config struct {
	Port                  string `envconfig:"PORT" default:"8080"`
	MongoURI              string `envconfig:"MONGO_URI"`
	DBName                string `envconfig:"DB_NAME" default:"storefront"`
	JWTSecret             string `envconfig:"JWT_SECRET"`
	AccessTokenTTLMinutes int    `envconfig:"ACCESS_TOKEN_TTL" default:"60"`
	LogLevel              string `envconfig:"LOG_LEVEL" default:"info"`
	StoreURL              string `envconfig:"STORE_URL" default:"http://localhost:3000"`

	SMTP    SMTPConfig
	Courier CourierConfig
	Payment PaymentConfig
	Storage StorageConfig
}

type SMTPConfig struct {
	Host     string        `envconfig:"SMTP_HOST"`
	Port     int           `envconfig:"SMTP_PORT" default:"587"`
	Username string        `envconfig:"SMTP_USERNAME"`
	Password string        `envconfig:"SMTP_PASSWORD"`
	From     string        `envconfig:"MAIL_FROM" default:"no-reply@storefront.local"`
	Timeout  time.Duration `envconfig:"SMTP_TIMEOUT" default:"15s"`
}

type CourierConfig struct {
	BaseURL   string        `envconfig:"COURIER_BASE_URL"`
	APIKey    string        `envconfig:"COURIER_API_KEY"`
	SecretKey string        `envconfig:"COURIER_SECRET_KEY"`
	Timeout   time.Duration `envconfig:"COURIER_TIMEOUT" default:"10s"`
}

type PaymentConfig struct {
	Provider       string        `envconfig:"PAYMENT_PROVIDER"`
	BkashBaseURL   string        `envconfig:"BKASH_BASE_URL"`
	BkashAppKey    string        `envconfig:"BKASH_APP_KEY"`
	BkashAppSecret string        `envconfig:"BKASH_APP_SECRET"`
	BkashUsername  string        `envconfig:"BKASH_USERNAME"`
	BkashPassword  string        `envconfig:"BKASH_PASSWORD"`
	BkashTokenTTL  time.Duration `envconfig:"BKASH_TOKEN_TTL" default:"55m"`
	CallbackURL    string        `envconfig:"PAYMENT_CALLBACK_URL"`
	StripeKey      string        `envconfig:"STRIPE_SECRET_KEY"`
	StripeCurrency string        `envconfig:"STRIPE_CURRENCY" default:"bdt"`
}

type StorageConfig struct {
	Bucket          string `envconfig:"GCS_BUCKET"`
	PublicBaseURL   string `envconfig:"GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	CredentialsFile string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func Load() error {
	loadDotEnv()

	cfg, err := Parse()
	if err != nil {
		return err
	}
	AppEnv = cfg
	return nil
}

// Parse decodes the process environment into a Config without touching AppEnv.
func Parse() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.Payment.Provider = strings.ToLower(strings.TrimSpace(cfg.Payment.Provider))
	if cfg.AccessTokenTTLMinutes <= 0 {
		cfg.AccessTokenTTLMinutes = 60
	}
	return cfg, nil
}
