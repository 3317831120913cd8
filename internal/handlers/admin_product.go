package handlers

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/store"
)

const productImageFolder = "products"

var lowerFold = cases.Lower(language.Und)

// slugify lowercases the name and joins its letter and digit runs with '-'.
func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range lowerFold.String(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// GetAllProducts lists the catalog for the admin panel, always paginated.
func GetAllProducts(products ProductReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/products"
		defer handlePanic(c, route)

		page, err := pageParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, total, err := products.ListProducts(ctx, store.ProductFilter{
			Search:       strings.TrimSpace(c.Query("search")),
			Availability: strings.TrimSpace(c.Query("availability")),
		}, page)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, paginated(list, page, total))
	}
}

func CreateProduct(products ProductWriter, uploader Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products"
		defer handlePanic(c, route)

		input, err := parseMultipartProductRequest(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if !input.NameSet || input.Name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name is required")
			return
		}
		if !input.PriceSet {
			respondWithError(c, http.StatusBadRequest, route, "price is required")
			return
		}

		sale, err := pricing.Sale{Price: input.Price}.Apply(input.saleChange())
		if err != nil {
			respondAppError(c, route, err)
			return
		}

		product := models.Product{
			Name:           input.Name,
			Slug:           slugify(input.Name),
			Type:           models.ProductTypeStandard,
			Price:          sale.Price,
			SaleEnabled:    sale.Enabled,
			SalePrice:      sale.SalePrice,
			Sizes:          input.Sizes,
			Colors:         input.Colors,
			Quantity:       input.Quantity,
			Availability:   models.AvailabilityInStock,
			DeliveryCharge: models.DeliveryChargeYes,
			Weight:         input.Weight,
			Description:    input.Description,
		}
		if input.SlugSet && input.Slug != "" {
			product.Slug = slugify(input.Slug)
		}
		if input.TypeSet {
			product.Type = input.Type
		}
		if input.AvailabilitySet {
			product.Availability = input.Availability
		}
		if input.DeliveryChargeSet {
			product.DeliveryCharge = input.DeliveryCharge
		}
		if product.Slug == "" {
			respondWithError(c, http.StatusBadRequest, route, "slug could not be derived from name")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if input.Image != nil {
			if uploader == nil {
				respondWithError(c, http.StatusServiceUnavailable, route, "image uploads are not configured")
				return
			}
			obj, err := saveImage(ctx, uploader, productImageFolder, input.Image)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			product.ImageURL = obj.URL
		}

		if err := products.InsertProduct(ctx, &product); err != nil {
			respondAppError(c, route, err)
			return
		}
		product.IsOnSale = sale.Active()

		logrus.WithFields(logrus.Fields{"route": route, "productId": product.ID.Hex()}).Info("product created")
		c.JSON(http.StatusCreated, product)
	}
}

func UpdateProduct(products ProductWriter, uploader Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id"
		defer handlePanic(c, route)

		id, ok := paramObjectID(c, "id")
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		input, err := parseMultipartProductRequest(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		existing, err := products.ProductByID(ctx, id)
		if err != nil {
			respondAppError(c, route, err)
			return
		}

		change := input.saleChange()
		sale, err := pricing.SaleOf(existing).Apply(change)
		if err != nil {
			respondAppError(c, route, err)
			return
		}

		set := bson.M{}
		if !change.Empty() {
			set["price"] = sale.Price
			set["saleEnabled"] = sale.Enabled
			set["salePrice"] = sale.SalePrice
		}
		if input.NameSet {
			if input.Name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			set["name"] = input.Name
		}
		if input.SlugSet && slugify(input.Slug) != "" {
			set["slug"] = slugify(input.Slug)
		}
		if input.TypeSet {
			set["type"] = input.Type
		}
		if input.DescriptionSet {
			set["description"] = input.Description
		}
		if input.QuantitySet {
			set["quantity"] = input.Quantity
		}
		if input.WeightSet {
			set["weight"] = input.Weight
		}
		if input.DeliveryChargeSet {
			set["deliveryCharge"] = input.DeliveryCharge
		}
		if input.AvailabilitySet {
			set["availability"] = input.Availability
		}
		if input.SizesSet {
			set["sizes"] = input.Sizes
		}
		if input.ColorsSet {
			set["colors"] = input.Colors
		}

		if input.Image != nil {
			if uploader == nil {
				respondWithError(c, http.StatusServiceUnavailable, route, "image uploads are not configured")
				return
			}
			obj, err := saveImage(ctx, uploader, productImageFolder, input.Image)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			set["imageUrl"] = obj.URL
		}

		if len(set) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		updated, err := products.UpdateProduct(ctx, id, set)
		if err != nil {
			respondAppError(c, route, err)
			return
		}

		logrus.WithFields(logrus.Fields{"route": route, "productId": id.Hex(), "fields": len(set)}).Info("product updated")
		c.JSON(http.StatusOK, updated)
	}
}
