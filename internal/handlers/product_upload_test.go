package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func multipartContext(t *testing.T, fields map[string][]string, file string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, writer.WriteField(key, v))
		}
	}
	if file != "" {
		part, err := writer.CreateFormFile("image", file)
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG fake"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("PUT", "/admin/api/products/1", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return c
}

func TestParseMultipartProductRequest_PicksLastSaleEnabledValue(t *testing.T) {
	c := multipartContext(t, map[string][]string{
		"saleEnabled": {"false", "true"},
		"salePrice":   {"99"},
	}, "")

	parsed, err := parseMultipartProductRequest(c)
	require.NoError(t, err)
	assert.True(t, parsed.SaleEnabledSet)
	assert.True(t, parsed.SaleEnabled)
	assert.True(t, parsed.SalePriceSet)
	assert.Equal(t, 99.0, parsed.SalePrice)
	assert.False(t, parsed.NameSet)
	assert.Nil(t, parsed.Image)
}

func TestParseMultipartProductRequestOptionsAndImage(t *testing.T) {
	c := multipartContext(t, map[string][]string{
		"name":           {" Hoodie "},
		"price":          {"1200"},
		"type":           {"custom"},
		"deliveryCharge": {"NO"},
		"sizes":          {`[{"name":"XL","price":50}]`},
		"colors":         {""},
	}, "hoodie.png")

	parsed, err := parseMultipartProductRequest(c)
	require.NoError(t, err)
	assert.Equal(t, "Hoodie", parsed.Name)
	assert.Equal(t, models.ProductTypeCustom, parsed.Type)
	assert.Equal(t, models.DeliveryChargeNo, parsed.DeliveryCharge)
	assert.Equal(t, []models.ProductOption{{Name: "XL", Price: 50}}, parsed.Sizes)
	assert.True(t, parsed.ColorsSet)
	assert.Empty(t, parsed.Colors)
	require.NotNil(t, parsed.Image)
	assert.Equal(t, "hoodie.png", parsed.Image.Filename)
}

func TestParseMultipartProductRequestRejectsBadValues(t *testing.T) {
	cases := map[string]map[string][]string{
		"negative price": {"price": {"-1"}},
		"bad type":       {"type": {"bundle"}},
		"bad option":     {"sizes": {`[{"name":"","price":1}]`}},
		"bad flag":       {"deliveryCharge": {"maybe"}},
		"bad bool":       {"saleEnabled": {"perhaps"}},
	}
	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseMultipartProductRequest(multipartContext(t, fields, ""))
			assert.Error(t, err)
		})
	}
}

func TestCheckImage(t *testing.T) {
	ext, ct, err := checkImage(&multipart.FileHeader{Filename: "Logo.PNG", Size: 1024})
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)
	assert.Equal(t, "image/png", ct)

	_, _, err = checkImage(&multipart.FileHeader{Filename: "logo.gif", Size: 10})
	assert.Error(t, err)
	_, _, err = checkImage(&multipart.FileHeader{Filename: "logo", Size: 10})
	assert.Error(t, err)
	_, _, err = checkImage(&multipart.FileHeader{Filename: "logo.jpg", Size: maxImageSize + 1})
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "classic-t-shirt-2024", slugify("  Classic T-Shirt (2024)! "))
	assert.Equal(t, "mug", slugify("MUG"))
	assert.Equal(t, "", slugify("!!!"))
}
