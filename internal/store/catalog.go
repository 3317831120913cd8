package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

// Catalog reads products, coupons, shipping rules and settings. It satisfies
// pricing.Catalog.
type Catalog struct {
	db *mongo.Database
}

func NewCatalog(db *mongo.Database) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) ProductByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	return c.findProduct(ctx, bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}})
}

func (c *Catalog) ProductBySlug(ctx context.Context, slug string) (models.Product, error) {
	return c.findProduct(ctx, bson.M{"slug": strings.TrimSpace(slug), "isDeleted": bson.M{"$ne": true}})
}

func (c *Catalog) findProduct(ctx context.Context, filter bson.M) (models.Product, error) {
	var raw bson.M
	if err := c.db.Collection(productsCollection).FindOne(ctx, filter).Decode(&raw); err != nil {
		return models.Product{}, translate(err, "product")
	}
	p, err := normalizeProductDocument(raw)
	if err != nil {
		return models.Product{}, translate(err, "product")
	}
	return p, nil
}

// ProductFilter narrows the storefront listing.
type ProductFilter struct {
	Search       string
	Availability string
}

func (c *Catalog) ListProducts(ctx context.Context, f ProductFilter, page Page) ([]models.Product, int64, error) {
	filter := bson.M{"isDeleted": bson.M{"$ne": true}}
	if search := strings.TrimSpace(f.Search); search != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
	}
	if f.Availability != "" {
		filter["availability"] = f.Availability
	}

	coll := c.db.Collection(productsCollection)
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "products")
	}

	cursor, err := coll.Find(ctx, filter, page.apply(newestFirst()))
	if err != nil {
		return nil, 0, translate(err, "products")
	}
	defer cursor.Close(ctx)

	products, err := decodeProducts(ctx, cursor)
	if err != nil {
		return nil, 0, translate(err, "products")
	}
	return products, total, nil
}

func (c *Catalog) InsertProduct(ctx context.Context, p *models.Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	res, err := c.db.Collection(productsCollection).InsertOne(ctx, p)
	if err != nil {
		return translate(err, "product")
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = id
	}
	return nil
}

func (c *Catalog) UpdateProduct(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Product, error) {
	set["updatedAt"] = time.Now()
	res, err := c.db.Collection(productsCollection).UpdateOne(ctx,
		bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
		bson.M{"$set": set},
	)
	if err != nil {
		return models.Product{}, translate(err, "product")
	}
	if res.MatchedCount == 0 {
		return models.Product{}, translate(mongo.ErrNoDocuments, "product")
	}
	return c.ProductByID(ctx, id)
}

// ShippingRuleByDistrict matches the district case-insensitively. A missing
// rule is not an error.
func (c *Catalog) ShippingRuleByDistrict(ctx context.Context, district string) (*models.ShippingRule, error) {
	district = strings.TrimSpace(district)
	if district == "" {
		return nil, nil
	}
	filter := bson.M{"district": bson.M{"$regex": "^" + regexp.QuoteMeta(district) + "$", "$options": "i"}}

	var rule models.ShippingRule
	err := c.db.Collection(shippingRulesCollection).FindOne(ctx, filter).Decode(&rule)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "shipping rule")
	}
	return &rule, nil
}

func (c *Catalog) ActiveCouponByCode(ctx context.Context, code string) (models.Coupon, error) {
	var coupon models.Coupon
	err := c.db.Collection(couponsCollection).
		FindOne(ctx, bson.M{"code": strings.ToUpper(strings.TrimSpace(code)), "isActive": true}).
		Decode(&coupon)
	if err != nil {
		return models.Coupon{}, translate(err, "coupon")
	}
	return coupon, nil
}

// Charge returns the free-delivery threshold, or nil when none is set.
func (c *Catalog) Charge(ctx context.Context) (*models.Charge, error) {
	var charge models.Charge
	if found, err := c.setting(ctx, models.SettingsChargeKey, &charge); err != nil || !found {
		return nil, err
	}
	return &charge, nil
}

func (c *Catalog) AdvancedPaymentRule(ctx context.Context) (*models.AdvancedPaymentRule, error) {
	var rule models.AdvancedPaymentRule
	if found, err := c.setting(ctx, models.SettingsAdvancedPaymentKey, &rule); err != nil || !found {
		return nil, err
	}
	return &rule, nil
}

func (c *Catalog) PutCharge(ctx context.Context, charge models.Charge) (models.Charge, error) {
	charge.ID = models.SettingsChargeKey
	charge.UpdatedAt = time.Now()
	return charge, c.putSetting(ctx, charge.ID, charge)
}

func (c *Catalog) PutAdvancedPaymentRule(ctx context.Context, rule models.AdvancedPaymentRule) (models.AdvancedPaymentRule, error) {
	rule.ID = models.SettingsAdvancedPaymentKey
	rule.UpdatedAt = time.Now()
	return rule, c.putSetting(ctx, rule.ID, rule)
}

func (c *Catalog) setting(ctx context.Context, key string, out interface{}) (bool, error) {
	err := c.db.Collection(settingsCollection).FindOne(ctx, bson.M{"_id": key}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, translate(err, "setting "+key)
	}
	return true, nil
}

func (c *Catalog) putSetting(ctx context.Context, key string, doc interface{}) error {
	_, err := c.db.Collection(settingsCollection).ReplaceOne(ctx,
		bson.M{"_id": key},
		doc,
		options.Replace().SetUpsert(true),
	)
	return translate(err, "setting "+key)
}
