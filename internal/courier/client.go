// Package courier books parcels with the delivery partner.
package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/models"
)

// ErrNotConfigured is returned when no courier credentials are set.
var ErrNotConfigured = errors.New("courier: not configured")

type Parcel struct {
	ConsignmentID string
	TrackingCode  string
}

type Config struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	Timeout   time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type createParcelRequest struct {
	Invoice          string  `json:"invoice"`
	RecipientName    string  `json:"recipient_name"`
	RecipientPhone   string  `json:"recipient_phone"`
	RecipientAddress string  `json:"recipient_address"`
	CODAmount        float64 `json:"cod_amount"`
	Note             string  `json:"note,omitempty"`
}

type createParcelResponse struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Consignment struct {
		ConsignmentID json.Number `json:"consignment_id"`
		TrackingCode  string      `json:"tracking_code"`
	} `json:"consignment"`
}

// CreateParcel books a parcel for the order, collecting its cash-on-delivery
// balance at the door.
func (c *Client) CreateParcel(ctx context.Context, order models.Order) (Parcel, error) {
	if c.cfg.BaseURL == "" || c.cfg.APIKey == "" {
		return Parcel{}, ErrNotConfigured
	}

	address := order.ShippingInfo.Address
	for _, part := range []string{order.ShippingInfo.Area, order.ShippingInfo.District} {
		if part = strings.TrimSpace(part); part != "" {
			address += ", " + part
		}
	}

	body, err := json.Marshal(createParcelRequest{
		Invoice:          order.OrderID,
		RecipientName:    order.ShippingInfo.Name,
		RecipientPhone:   order.ShippingInfo.Phone,
		RecipientAddress: address,
		CODAmount:        order.CashOnDelivery,
		Note:             order.ShippingInfo.Note,
	})
	if err != nil {
		return Parcel{}, fmt.Errorf("courier: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/create_order", bytes.NewReader(body))
	if err != nil {
		return Parcel{}, fmt.Errorf("courier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.cfg.APIKey)
	req.Header.Set("Secret-Key", c.cfg.SecretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Parcel{}, fmt.Errorf("courier: create parcel: %w", err)
	}
	defer resp.Body.Close()

	var out createParcelResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Parcel{}, fmt.Errorf("courier: decode (http %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest || (out.Status != 0 && out.Status != http.StatusOK) {
		return Parcel{}, fmt.Errorf("courier: create parcel rejected: status %d: %s", out.Status, out.Message)
	}
	if out.Consignment.TrackingCode == "" {
		return Parcel{}, errors.New("courier: response has no tracking code")
	}

	return Parcel{
		ConsignmentID: out.Consignment.ConsignmentID.String(),
		TrackingCode:  out.Consignment.TrackingCode,
	}, nil
}
