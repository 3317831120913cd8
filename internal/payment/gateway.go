// Package payment talks to the online payment providers used at checkout.
package payment

import (
	"context"
	"errors"
)

// ErrNotPaid is returned by Confirm when the provider reports the payment
// as not completed.
var ErrNotPaid = errors.New("payment: not completed")

type CreateRequest struct {
	OrderID       string
	Amount        float64
	CustomerEmail string
	CustomerPhone string
}

// Session is what the client needs to complete payment: a redirect URL for
// hosted checkouts or a client secret for embedded card forms.
type Session struct {
	Provider     string `json:"provider"`
	PaymentID    string `json:"paymentId"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// Result is a settled payment as the provider reports it. OrderRef is the
// order number the payment was opened for.
type Result struct {
	PaymentID     string
	OrderRef      string
	TransactionID string
	Amount        float64
}

type Gateway interface {
	Name() string
	Create(ctx context.Context, req CreateRequest) (Session, error)
	Confirm(ctx context.Context, paymentID string) (Result, error)
}
