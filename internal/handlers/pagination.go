package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/store"
)

const maxPageLimit = 100

var errInvalidPagination = errors.New("invalid pagination params")

func parsePaginationParams(pageStr, limitStr string) (int64, int64, error) {
	page := int64(1)
	limit := int64(20)

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return 0, 0, errInvalidPagination
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return 0, 0, errInvalidPagination
		}
		limit = l
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return page, limit, nil
}

func pageParams(pageStr, limitStr string) (store.Page, error) {
	page, limit, err := parsePaginationParams(pageStr, limitStr)
	if err != nil {
		return store.Page{}, err
	}
	return store.Page{Page: page, Limit: limit}, nil
}

func paginated(data interface{}, page store.Page, total int64) gin.H {
	return gin.H{
		"data": data,
		"pagination": gin.H{
			"page":  page.Page,
			"limit": page.Limit,
			"total": total,
		},
	}
}
