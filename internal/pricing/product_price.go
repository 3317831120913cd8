package pricing

import (
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

// IsOnSale reports whether the sale price is active and actually lower.
func IsOnSale(price float64, saleEnabled bool, salePrice float64) bool {
	return saleEnabled && salePrice > 0 && salePrice < price
}

// EffectivePrice is the unit price a product sells at before options.
func EffectivePrice(p models.Product) float64 {
	if IsOnSale(p.Price, p.SaleEnabled, p.SalePrice) {
		return p.SalePrice
	}
	return p.Price
}

// Sale is the price block an admin edits on a product.
type Sale struct {
	Price     float64
	Enabled   bool
	SalePrice float64
}

func SaleOf(p models.Product) Sale {
	return Sale{Price: p.Price, Enabled: p.SaleEnabled, SalePrice: p.SalePrice}
}

// SaleChange holds the price fields an edit carried; nil leaves a field as is.
type SaleChange struct {
	Price     *float64
	Enabled   *bool
	SalePrice *float64
}

func (ch SaleChange) Empty() bool {
	return ch.Price == nil && ch.Enabled == nil && ch.SalePrice == nil
}

// Apply merges ch into s and checks the result. Switching the sale off drops
// its price, and a sale price sent while the sale stays off is ignored.
func (s Sale) Apply(ch SaleChange) (Sale, error) {
	next := s
	if ch.Price != nil {
		next.Price = *ch.Price
	}
	if ch.Enabled != nil {
		next.Enabled = *ch.Enabled
		if !next.Enabled {
			next.SalePrice = 0
		}
	}
	if ch.SalePrice != nil && next.Enabled {
		if *ch.SalePrice <= 0 {
			return Sale{}, apperr.Validation(apperr.CodeInvalidSale, "salePrice must be greater than 0")
		}
		next.SalePrice = *ch.SalePrice
	}
	if err := next.Validate(); err != nil {
		return Sale{}, err
	}
	return next, nil
}

func (s Sale) Validate() error {
	switch {
	case !s.Enabled:
		return nil
	case s.SalePrice <= 0:
		return apperr.Validation(apperr.CodeInvalidSale, "salePrice is required when saleEnabled is true")
	case !s.Active():
		return apperr.Validation(apperr.CodeInvalidSale, "salePrice must be less than price")
	}
	return nil
}

func (s Sale) Active() bool { return IsOnSale(s.Price, s.Enabled, s.SalePrice) }

// optionPrice prefers the delta stored on the product over the one the
// client echoed back.
func optionPrice(options []models.ProductOption, selected *models.ProductOption) float64 {
	if selected == nil {
		return 0
	}
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt.Name), strings.TrimSpace(selected.Name)) {
			return opt.Price
		}
	}
	return selected.Price
}

// composeUnitPrice rebuilds the unit price server side when the client did
// not send one: effective price plus size, color and logo charges.
func composeUnitPrice(p models.Product, size, color *models.ProductOption, logos []models.LogoAttachment) float64 {
	parts := []float64{EffectivePrice(p), optionPrice(p.Sizes, size), optionPrice(p.Colors, color)}
	for _, logo := range logos {
		parts = append(parts, logo.Charge)
	}
	return sum(parts...)
}
