package store

import (
	"context"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
	"storefront/internal/pricing"
)

// normalizeProductDocument repairs fields that older admin tooling stored
// with loose types before decoding into models.Product.
func normalizeProductDocument(raw bson.M) (models.Product, error) {
	raw["quantity"] = toInt(raw["quantity"])
	raw["sold"] = toInt(raw["sold"])
	raw["weight"] = toFloat(raw["weight"])

	switch v := raw["deliveryCharge"].(type) {
	case bool:
		if v {
			raw["deliveryCharge"] = models.DeliveryChargeYes
		} else {
			raw["deliveryCharge"] = models.DeliveryChargeNo
		}
	case string:
		raw["deliveryCharge"] = strings.ToLower(strings.TrimSpace(v))
	default:
		raw["deliveryCharge"] = models.DeliveryChargeYes
	}

	for _, key := range []string{"sizes", "colors"} {
		if opts, ok := raw[key].(bson.A); ok {
			raw[key] = normalizeOptions(opts)
		}
	}

	if _, ok := raw["availability"].(string); !ok {
		raw["availability"] = models.AvailabilityInStock
	}

	data, err := bson.Marshal(raw)
	if err != nil {
		return models.Product{}, err
	}

	var p models.Product
	if err := bson.Unmarshal(data, &p); err != nil {
		return models.Product{}, err
	}

	p.IsOnSale = pricing.IsOnSale(p.Price, p.SaleEnabled, p.SalePrice)
	return p, nil
}

// normalizeOptions accepts plain strings as zero-priced options.
func normalizeOptions(in bson.A) bson.A {
	out := make(bson.A, 0, len(in))
	for _, v := range in {
		switch opt := v.(type) {
		case string:
			if name := strings.TrimSpace(opt); name != "" {
				out = append(out, bson.M{"name": name, "price": 0.0})
			}
		case bson.M:
			opt["price"] = toFloat(opt["price"])
			out = append(out, opt)
		case bson.D:
			m := bson.M{}
			for _, e := range opt {
				m[e.Key] = e.Value
			}
			m["price"] = toFloat(m["price"])
			out = append(out, m)
		}
	}
	return out
}

func toInt(v interface{}) int {
	switch typed := v.(type) {
	case int32:
		return int(typed)
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	case int:
		return typed
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func toFloat(v interface{}) float64 {
	switch typed := v.(type) {
	case float64:
		return typed
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case int:
		return float64(typed)
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(typed.String(), 64)
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)

	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}

		product, err := normalizeProductDocument(raw)
		if err != nil {
			return nil, err
		}

		products = append(products, product)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
