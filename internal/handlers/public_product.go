package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/models"
	"storefront/internal/store"
)

var availabilityFilters = map[string]bool{
	models.AvailabilityInStock:     true,
	models.AvailabilityOutOfStock:  true,
	models.AvailabilityUnavailable: true,
	models.AvailabilityPreOrder:    true,
}

// GetProducts lists products. Paging applies only when both page and limit
// are given; the response then carries pagination metadata.
func GetProducts(products ProductReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		filter := store.ProductFilter{Search: strings.TrimSpace(c.Query("search"))}
		if availability := strings.TrimSpace(c.Query("availability")); availability != "" {
			if !availabilityFilters[availability] {
				respondWithError(c, http.StatusBadRequest, route, "invalid availability filter")
				return
			}
			filter.Availability = availability
		}

		var page store.Page
		paged := c.Query("page") != "" && c.Query("limit") != ""
		if paged {
			p, err := pageParams(c.Query("page"), c.Query("limit"))
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			page = p
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, total, err := products.ListProducts(ctx, filter, page)
		if err != nil {
			respondAppError(c, route, err)
			return
		}

		logrus.WithFields(logrus.Fields{"route": route, "count": len(list)}).Debug("products listed")
		if !paged {
			c.JSON(http.StatusOK, list)
			return
		}
		c.JSON(http.StatusOK, paginated(list, page, total))
	}
}

func GetProductBySlug(products ProductReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:slug"
		defer handlePanic(c, route)

		slug := strings.TrimSpace(c.Param("slug"))
		if slug == "" {
			respondWithError(c, http.StatusBadRequest, route, "slug is required")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := products.ProductBySlug(ctx, slug)
		if err != nil {
			respondAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
