package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/models"
	"storefront/internal/objectstore"
	"storefront/internal/pricing"
)

const maxImageSize = 5 << 20

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// MultipartProductInput is an admin product form. Each XxxSet flag records
// whether the field was present so updates can be partial.
type MultipartProductInput struct {
	Name              string
	NameSet           bool
	Slug              string
	SlugSet           bool
	Type              string
	TypeSet           bool
	Description       string
	DescriptionSet    bool
	Price             float64
	PriceSet          bool
	SaleEnabled       bool
	SaleEnabledSet    bool
	SalePrice         float64
	SalePriceSet      bool
	Quantity          int
	QuantitySet       bool
	Weight            float64
	WeightSet         bool
	DeliveryCharge    string
	DeliveryChargeSet bool
	Availability      string
	AvailabilitySet   bool
	Sizes             []models.ProductOption
	SizesSet          bool
	Colors            []models.ProductOption
	ColorsSet         bool
	Image             *multipart.FileHeader
}

func (in MultipartProductInput) saleChange() pricing.SaleChange {
	var ch pricing.SaleChange
	if in.PriceSet {
		ch.Price = &in.Price
	}
	if in.SaleEnabledSet {
		ch.Enabled = &in.SaleEnabled
	}
	if in.SalePriceSet {
		ch.SalePrice = &in.SalePrice
	}
	return ch
}

// lastFormValue returns the last submitted value for key, so a checkbox
// paired with a hidden default field resolves to the checkbox.
func lastFormValue(c *gin.Context, key string) (string, bool) {
	values, ok := c.GetPostFormArray(key)
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[len(values)-1]), true
}

func parseMultipartProductRequest(c *gin.Context) (MultipartProductInput, error) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		return MultipartProductInput{}, fmt.Errorf("invalid multipart form: %w", err)
	}

	input := MultipartProductInput{}

	if v, ok := lastFormValue(c, "name"); ok {
		input.Name, input.NameSet = v, true
	}
	if v, ok := lastFormValue(c, "slug"); ok {
		input.Slug, input.SlugSet = v, true
	}
	if v, ok := lastFormValue(c, "type"); ok {
		if v != models.ProductTypeStandard && v != models.ProductTypeCustom {
			return MultipartProductInput{}, fmt.Errorf("type must be standard or custom")
		}
		input.Type, input.TypeSet = v, true
	}
	if v, ok := lastFormValue(c, "description"); ok {
		input.Description, input.DescriptionSet = v, true
	}
	if v, ok := lastFormValue(c, "deliveryCharge"); ok {
		v = strings.ToLower(v)
		if v != models.DeliveryChargeYes && v != models.DeliveryChargeNo {
			return MultipartProductInput{}, fmt.Errorf("deliveryCharge must be yes or no")
		}
		input.DeliveryCharge, input.DeliveryChargeSet = v, true
	}
	if v, ok := lastFormValue(c, "availability"); ok {
		if !availabilityFilters[v] {
			return MultipartProductInput{}, fmt.Errorf("invalid availability: %s", v)
		}
		input.Availability, input.AvailabilitySet = v, true
	}

	if v, ok := lastFormValue(c, "price"); ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			return MultipartProductInput{}, fmt.Errorf("price must be a positive number")
		}
		input.Price, input.PriceSet = parsed, true
	}
	if v, ok := lastFormValue(c, "salePrice"); ok && v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return MultipartProductInput{}, fmt.Errorf("salePrice must be a number")
		}
		input.SalePrice, input.SalePriceSet = parsed, true
	}
	if v, ok := lastFormValue(c, "quantity"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return MultipartProductInput{}, fmt.Errorf("quantity must be a non-negative integer")
		}
		input.Quantity, input.QuantitySet = parsed, true
	}
	if v, ok := lastFormValue(c, "weight"); ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			return MultipartProductInput{}, fmt.Errorf("weight must be a non-negative number")
		}
		input.Weight, input.WeightSet = parsed, true
	}

	if v, ok := lastFormValue(c, "saleEnabled"); ok {
		parsed, err := parseBoolValue(v)
		if err != nil {
			return MultipartProductInput{}, fmt.Errorf("saleEnabled must be a boolean")
		}
		input.SaleEnabled, input.SaleEnabledSet = parsed, true
	}

	if v, ok := lastFormValue(c, "sizes"); ok {
		opts, err := parseOptions("sizes", v)
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.Sizes, input.SizesSet = opts, true
	}
	if v, ok := lastFormValue(c, "colors"); ok {
		opts, err := parseOptions("colors", v)
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.Colors, input.ColorsSet = opts, true
	}

	file, err := c.FormFile("image")
	if err == nil {
		input.Image = file
	} else if !errors.Is(err, http.ErrMissingFile) {
		return MultipartProductInput{}, err
	}

	return input, nil
}

// parseOptions reads a JSON array of {name, price} options.
func parseOptions(field, raw string) ([]models.ProductOption, error) {
	if raw == "" {
		return []models.ProductOption{}, nil
	}
	var opts []models.ProductOption
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil, fmt.Errorf("%s must be a JSON array of {name, price}", field)
	}
	for i := range opts {
		opts[i].Name = strings.TrimSpace(opts[i].Name)
		if opts[i].Name == "" || opts[i].Price < 0 {
			return nil, fmt.Errorf("%s[%d] needs a name and a non-negative price", field, i)
		}
	}
	return opts, nil
}

// checkImage validates extension and size and returns the extension and
// content type to store the file under.
func checkImage(file *multipart.FileHeader) (string, string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension == "" {
		return "", "", fmt.Errorf("image file extension is required")
	}
	contentType, ok := imageContentTypes[extension]
	if !ok {
		return "", "", fmt.Errorf("unsupported image type: %s", extension)
	}
	if file.Size > maxImageSize {
		return "", "", fmt.Errorf("image file too large (max 5MB)")
	}
	return extension, contentType, nil
}

func saveImage(ctx context.Context, uploader Uploader, folder string, file *multipart.FileHeader) (objectstore.Object, error) {
	extension, contentType, err := checkImage(file)
	if err != nil {
		return objectstore.Object{}, err
	}

	in, err := file.Open()
	if err != nil {
		return objectstore.Object{}, fmt.Errorf("open upload: %w", err)
	}
	defer in.Close()

	obj, err := uploader.Upload(ctx, folder, extension, contentType, in)
	if err != nil {
		return objectstore.Object{}, err
	}
	logrus.WithFields(logrus.Fields{"folder": folder, "key": obj.Key, "size": file.Size}).Info("image uploaded")
	return obj, nil
}

func parseBoolValue(value string) (bool, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "on" {
		return true, nil
	}
	return strconv.ParseBool(value)
}
