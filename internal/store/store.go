// Package store holds the MongoDB repositories.
package store

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/apperr"
)

const (
	productsCollection      = "products"
	ordersCollection        = "orders"
	couponsCollection       = "coupons"
	shippingRulesCollection = "shippingrules"
	settingsCollection      = "settings"
	usersCollection         = "users"
	notificationsCollection = "notifications"
	recipientsCollection    = "notification_recipients"
)

// Page is a 1-based page request. A zero Limit means no paging.
type Page struct {
	Page  int64
	Limit int64
}

func (p Page) apply(opts *options.FindOptions) *options.FindOptions {
	if p.Page < 1 || p.Limit < 1 {
		return opts
	}
	return opts.SetSkip((p.Page - 1) * p.Limit).SetLimit(p.Limit)
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

// translate maps driver errors onto the shared error taxonomy.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(what + " not found")
	}
	return fmt.Errorf("store: %s: %w", what, err)
}
