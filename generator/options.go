package generator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/pythonsogood/dbms-nosql/errors"
)

// Range is an inclusive integer interval.
type Range struct {
	Min int `koanf:"min" json:"min"`
	Max int `koanf:"max" json:"max"`
}

func (r Range) valid(floor int) bool {
	return r.Min >= floor && r.Min <= r.Max
}

// Options controls the size and shape of a generated dataset.
type Options struct {
	CategoryCount int `koanf:"category_count" json:"category_count" validate:"gte=0"`
	ProductCount  int `koanf:"product_count" json:"product_count" validate:"gte=0"`
	UserCount     int `koanf:"user_count" json:"user_count" validate:"gte=0"`

	ChildCategoryProbability float64 `koanf:"child_category_probability" json:"child_category_probability" validate:"gte=0,lte=1"`
	ReviewProbability        float64 `koanf:"review_probability" json:"review_probability" validate:"gte=0,lte=1"`
	PendingProbability       float64 `koanf:"pending_probability" json:"pending_probability" validate:"gte=0,lte=1"`

	AddressesPerUser Range `koanf:"addresses_per_user" json:"addresses_per_user"`
	OrdersPerUser    Range `koanf:"orders_per_user" json:"orders_per_user"`
	ItemsPerOrder    Range `koanf:"items_per_order" json:"items_per_order"`
	ItemQuantity     Range `koanf:"item_quantity" json:"item_quantity"`
	ProductQuantity  Range `koanf:"product_quantity" json:"product_quantity"`
	ImagesPerProduct Range `koanf:"images_per_product" json:"images_per_product"`
	ReviewSentences  Range `koanf:"review_sentences" json:"review_sentences"`

	MinPrice float64 `koanf:"min_price" json:"min_price" validate:"gt=0"`
	MaxPrice float64 `koanf:"max_price" json:"max_price" validate:"gtefield=MinPrice"`

	// TotalIncludesQuantity makes total_amount the sum of price*quantity.
	// Off by default: the storefront dataset sums unit prices only.
	TotalIncludesQuantity bool `koanf:"total_includes_quantity" json:"total_includes_quantity"`
}

// DefaultOptions returns the storefront's stock dataset shape.
func DefaultOptions() Options {
	return Options{
		CategoryCount:            15,
		ProductCount:             100,
		UserCount:                100,
		ChildCategoryProbability: 0.2,
		ReviewProbability:        0.2,
		PendingProbability:       0.67,
		AddressesPerUser:         Range{Min: 1, Max: 2},
		OrdersPerUser:            Range{Min: 1, Max: 2},
		ItemsPerOrder:            Range{Min: 1, Max: 4},
		ItemQuantity:             Range{Min: 1, Max: 5},
		ProductQuantity:          Range{Min: 1, Max: 100},
		ImagesPerProduct:         Range{Min: 1, Max: 3},
		ReviewSentences:          Range{Min: 1, Max: 3},
		MinPrice:                 1,
		MaxPrice:                 1000,
	}
}

var validate = newValidator()

// newValidator reports fields by their profile (koanf) names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		return name
	})
	return v
}

// Validate rejects option sets that cannot produce a consistent dataset.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperrors.Config(fmt.Sprintf("%s must satisfy %s %s, got %v", fe.Field(), fe.Tag(), fe.Param(), fe.Value()), nil)
		}
		return apperrors.Config("invalid generation options", err)
	}
	// Checked in declaration order so the reported range is stable.
	for _, r := range []struct {
		name  string
		r     Range
		floor int
	}{
		{"addresses_per_user", o.AddressesPerUser, 1},
		{"orders_per_user", o.OrdersPerUser, 0},
		{"items_per_order", o.ItemsPerOrder, 1},
		{"item_quantity", o.ItemQuantity, 1},
		{"product_quantity", o.ProductQuantity, 0},
		{"images_per_product", o.ImagesPerProduct, 0},
		{"review_sentences", o.ReviewSentences, 1},
	} {
		if !r.r.valid(r.floor) {
			return apperrors.Config(fmt.Sprintf("%s must satisfy %d <= min <= max, got [%d, %d]", r.name, r.floor, r.r.Min, r.r.Max), nil)
		}
	}
	return nil
}
