package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"storefront/internal/logging"
)

const (
	bkashSuccess = "0000"
	grantTimeout = 20 * time.Second
)

type BkashConfig struct {
	BaseURL     string
	AppKey      string
	AppSecret   string
	Username    string
	Password    string
	CallbackURL string
	TokenTTL    time.Duration
}

// BkashGateway is a client for the bKash tokenized checkout API. It owns the
// grant token cache; concurrent callers share one grant request.
type BkashGateway struct {
	cfg    BkashConfig
	http   *http.Client
	tokens *TokenCache
	grants singleflight.Group
	log    logrus.FieldLogger
}

type BkashOption func(*BkashGateway)

func WithHTTPClient(c *http.Client) BkashOption {
	return func(g *BkashGateway) {
		if c != nil {
			g.http = c
		}
	}
}

func WithTokenCache(cache *TokenCache) BkashOption {
	return func(g *BkashGateway) {
		if cache != nil {
			g.tokens = cache
		}
	}
}

func WithLogger(logger logrus.FieldLogger) BkashOption {
	return func(g *BkashGateway) {
		if logger != nil {
			g.log = logging.Component(logger, "payment.bkash")
		}
	}
}

func NewBkashGateway(cfg BkashConfig, opts ...BkashOption) (*BkashGateway, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" || cfg.AppKey == "" || cfg.AppSecret == "" {
		return nil, fmt.Errorf("bkash: base url, app key and app secret are required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 55 * time.Minute
	}

	g := &BkashGateway{
		cfg:    cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		tokens: NewTokenCache(cfg.TokenTTL, nil),
		log:    logging.Component(nil, "payment.bkash"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *BkashGateway) Name() string { return "bkash" }

type bkashStatus struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	ErrorCode     string `json:"errorCode"`
	ErrorMessage  string `json:"errorMessage"`
}

func (s bkashStatus) err(op string) error {
	code, msg := s.StatusCode, s.StatusMessage
	if s.ErrorCode != "" {
		code, msg = s.ErrorCode, s.ErrorMessage
	}
	if code == "" || code == bkashSuccess {
		return nil
	}
	return fmt.Errorf("bkash: %s: %s %s", op, code, msg)
}

type bkashTokenResponse struct {
	bkashStatus
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// token returns a valid id_token, refreshing or granting a new one when the
// cached token is stale. The grant is shared by every waiting caller, so it
// runs on its own deadline rather than the first caller's.
func (g *BkashGateway) token(ctx context.Context) (string, error) {
	if tok, ok := g.tokens.Get(); ok {
		return tok.IDToken, nil
	}

	ch := g.grants.DoChan("token", func() (interface{}, error) {
		if tok, ok := g.tokens.Get(); ok {
			return tok.IDToken, nil
		}

		grantCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grantTimeout)
		defer cancel()

		if refresh, ok := g.tokens.Refreshable(); ok {
			tok, err := g.requestToken(grantCtx, "/tokenized/checkout/token/refresh", map[string]string{
				"app_key":       g.cfg.AppKey,
				"app_secret":    g.cfg.AppSecret,
				"refresh_token": refresh,
			})
			if err == nil {
				return tok, nil
			}
			g.log.WithError(err).Warn("token refresh failed, requesting a new grant")
		}

		return g.requestToken(grantCtx, "/tokenized/checkout/token/grant", map[string]string{
			"app_key":    g.cfg.AppKey,
			"app_secret": g.cfg.AppSecret,
		})
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (g *BkashGateway) requestToken(ctx context.Context, path string, body map[string]string) (string, error) {
	headers := map[string]string{
		"username": g.cfg.Username,
		"password": g.cfg.Password,
	}
	var out bkashTokenResponse
	if err := g.post(ctx, path, headers, body, &out); err != nil {
		return "", err
	}
	if err := out.err("token"); err != nil {
		return "", err
	}
	if out.IDToken == "" {
		return "", fmt.Errorf("bkash: token: empty id_token")
	}

	g.tokens.Put(out.IDToken, out.RefreshToken, time.Duration(out.ExpiresIn)*time.Second)
	g.log.WithField("path", path).Debug("token stored")
	return out.IDToken, nil
}

type bkashCreateResponse struct {
	bkashStatus
	PaymentID string `json:"paymentID"`
	BkashURL  string `json:"bkashURL"`
}

func (g *BkashGateway) Create(ctx context.Context, req CreateRequest) (Session, error) {
	payer := req.CustomerPhone
	if payer == "" {
		payer = req.OrderID
	}
	body := map[string]string{
		"mode":                  "0011",
		"payerReference":        payer,
		"callbackURL":           g.cfg.CallbackURL,
		"amount":                strconv.FormatFloat(req.Amount, 'f', 2, 64),
		"currency":              "BDT",
		"intent":                "sale",
		"merchantInvoiceNumber": invoiceNumber(req.OrderID),
	}

	var out bkashCreateResponse
	if err := g.authorized(ctx, "/tokenized/checkout/create", body, &out); err != nil {
		return Session{}, err
	}
	if err := out.err("create"); err != nil {
		return Session{}, err
	}
	return Session{Provider: g.Name(), PaymentID: out.PaymentID, RedirectURL: out.BkashURL}, nil
}

type bkashExecuteResponse struct {
	bkashStatus
	PaymentID         string `json:"paymentID"`
	TrxID             string `json:"trxID"`
	TransactionStatus string `json:"transactionStatus"`
	Amount            string `json:"amount"`
	InvoiceNumber     string `json:"merchantInvoiceNumber"`
}

func (g *BkashGateway) Confirm(ctx context.Context, paymentID string) (Result, error) {
	var out bkashExecuteResponse
	if err := g.authorized(ctx, "/tokenized/checkout/execute", map[string]string{"paymentID": paymentID}, &out); err != nil {
		return Result{}, err
	}
	if err := out.err("execute"); err != nil {
		return Result{}, err
	}
	if !strings.EqualFold(out.TransactionStatus, "Completed") {
		return Result{}, fmt.Errorf("%w: transaction status %q", ErrNotPaid, out.TransactionStatus)
	}

	amount, _ := strconv.ParseFloat(out.Amount, 64)
	return Result{
		PaymentID:     out.PaymentID,
		OrderRef:      orderFromInvoice(out.InvoiceNumber),
		TransactionID: out.TrxID,
		Amount:        amount,
	}, nil
}

// invoiceNumber is unique per session so a retried session is not rejected
// as a duplicate invoice.
func invoiceNumber(orderID string) string {
	return orderID + "-" + uuid.NewString()[:8]
}

func orderFromInvoice(invoice string) string {
	i := strings.LastIndex(invoice, "-")
	if i <= 0 {
		return invoice
	}
	return invoice[:i]
}

// authorized posts with the grant token and retries once with a fresh token
// when the provider rejects it.
func (g *BkashGateway) authorized(ctx context.Context, path string, body interface{}, out interface{}) error {
	for attempt := 0; ; attempt++ {
		tok, err := g.token(ctx)
		if err != nil {
			return err
		}
		headers := map[string]string{
			"Authorization": tok,
			"X-APP-Key":     g.cfg.AppKey,
		}
		err = g.post(ctx, path, headers, body, out)
		if errors.Is(err, errUnauthorized) && attempt == 0 {
			g.tokens.Invalidate()
			continue
		}
		return err
	}
}

var errUnauthorized = errors.New("bkash: unauthorized")

func (g *BkashGateway) post(ctx context.Context, path string, headers map[string]string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("bkash: encode %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("bkash: build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("bkash: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return errUnauthorized
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("bkash: %s: http %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("bkash: decode %s: %w", path, err)
	}
	return nil
}
