package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"
)

type fakeIntents struct {
	created *stripe.PaymentIntentParams
	intent  *stripe.PaymentIntent
	err     error
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.created = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

func (f *fakeIntents) Get(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

func TestStripeCreateUsesMinorUnits(t *testing.T) {
	fake := &fakeIntents{}
	g := newStripeGateway(fake, "BDT")

	s, err := g.Create(context.Background(), CreateRequest{OrderID: "987654321", Amount: 1234.56, CustomerEmail: "a@b.c"})
	require.NoError(t, err)

	assert.Equal(t, "pi_1", s.PaymentID)
	assert.Equal(t, "pi_1_secret", s.ClientSecret)
	require.NotNil(t, fake.created)
	assert.Equal(t, int64(123456), *fake.created.Amount)
	assert.Equal(t, "bdt", *fake.created.Currency)
	assert.Equal(t, "987654321", fake.created.Metadata["orderId"])
	require.NotNil(t, fake.created.IdempotencyKey)
	assert.Contains(t, *fake.created.IdempotencyKey, "order-987654321-")
}

func TestStripeConfirm(t *testing.T) {
	fake := &fakeIntents{intent: &stripe.PaymentIntent{
		ID:             "pi_1",
		Status:         stripe.PaymentIntentStatusSucceeded,
		AmountReceived: 50050,
		LatestCharge:   &stripe.Charge{ID: "ch_1"},
		Metadata:       map[string]string{"orderId": "987654321"},
	}}
	g := newStripeGateway(fake, "")

	res, err := g.Confirm(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "ch_1", res.TransactionID)
	assert.Equal(t, "987654321", res.OrderRef)
	assert.Equal(t, 500.5, res.Amount)

	fake.intent.Status = stripe.PaymentIntentStatusRequiresPaymentMethod
	_, err = g.Confirm(context.Background(), "pi_1")
	assert.ErrorIs(t, err, ErrNotPaid)

	fake.err = errors.New("network")
	_, err = g.Confirm(context.Background(), "pi_1")
	assert.Error(t, err)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), minorUnits(19.99))
	assert.Equal(t, int64(100), minorUnits(1))
	assert.Equal(t, int64(0), minorUnits(0))
}
