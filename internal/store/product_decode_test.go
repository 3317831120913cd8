package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func TestNormalizeProductDocumentLooseTypes(t *testing.T) {
	id := primitive.NewObjectID()
	raw := bson.M{
		"_id":            id,
		"name":           "Polo",
		"price":          int32(900),
		"saleEnabled":    true,
		"salePrice":      750.0,
		"quantity":       "12",
		"sold":           int64(3),
		"weight":         "0.35",
		"deliveryCharge": false,
		"sizes":          bson.A{"M", " ", bson.M{"name": "XL", "price": int32(40)}},
		"colors":         bson.A{bson.D{{Key: "name", Value: "Red"}, {Key: "price", Value: "15"}}},
	}

	p, err := normalizeProductDocument(raw)
	require.NoError(t, err)

	assert.Equal(t, id, p.ID)
	assert.Equal(t, 12, p.Quantity)
	assert.Equal(t, 3, p.Sold)
	assert.Equal(t, 0.35, p.Weight)
	assert.Equal(t, models.DeliveryChargeNo, p.DeliveryCharge)
	assert.Equal(t, models.AvailabilityInStock, p.Availability)
	assert.True(t, p.IsOnSale)
	assert.Equal(t, []models.ProductOption{{Name: "M"}, {Name: "XL", Price: 40}}, p.Sizes)
	assert.Equal(t, []models.ProductOption{{Name: "Red", Price: 15}}, p.Colors)
}

func TestNormalizeProductDocumentDefaults(t *testing.T) {
	p, err := normalizeProductDocument(bson.M{"name": "Plain", "availability": models.AvailabilityOutOfStock})
	require.NoError(t, err)

	assert.Equal(t, 0, p.Quantity)
	assert.Equal(t, models.DeliveryChargeYes, p.DeliveryCharge)
	assert.Equal(t, models.AvailabilityOutOfStock, p.Availability)
	assert.False(t, p.IsOnSale)
}

func TestPageApply(t *testing.T) {
	opts := Page{Page: 3, Limit: 20}.apply(newestFirst())
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(40), *opts.Skip)
	assert.Equal(t, int64(20), *opts.Limit)

	opts = Page{}.apply(newestFirst())
	assert.Nil(t, opts.Skip)
	assert.Nil(t, opts.Limit)
}
