package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

type stripeIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeGateway takes card payments through PaymentIntents. The browser
// completes the intent with the returned client secret.
type StripeGateway struct {
	intents  stripeIntentAPI
	currency string
}

func NewStripeGateway(apiKey, currency string) (*StripeGateway, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("stripe: api key is required")
	}
	sc := client.New(apiKey, nil)
	return newStripeGateway(sc.PaymentIntents, currency), nil
}

func newStripeGateway(intents stripeIntentAPI, currency string) *StripeGateway {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "bdt"
	}
	return &StripeGateway{intents: intents, currency: currency}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) Create(ctx context.Context, req CreateRequest) (Session, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits(req.Amount)),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey("order-" + req.OrderID + "-" + uuid.NewString())
	params.AddMetadata("orderId", req.OrderID)
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}

	pi, err := g.intents.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return Session{Provider: g.Name(), PaymentID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) Confirm(ctx context.Context, paymentID string) (Result, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.intents.Get(paymentID, params)
	if err != nil {
		return Result{}, fmt.Errorf("stripe: get payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return Result{}, fmt.Errorf("%w: intent status %q", ErrNotPaid, pi.Status)
	}

	trx := pi.ID
	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		trx = pi.LatestCharge.ID
	}
	return Result{
		PaymentID:     pi.ID,
		OrderRef:      pi.Metadata["orderId"],
		TransactionID: trx,
		Amount:        decimal.NewFromInt(pi.AmountReceived).Shift(-2).InexactFloat64(),
	}, nil
}

// minorUnits converts a 2-decimal amount to the smallest currency unit.
func minorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}
