package models

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SKUPattern is the shape every generated SKU follows: three uppercase letters, a hyphen, four digits.
var SKUPattern = regexp.MustCompile(`^[A-Z]{3}-\d{4}$`)

type Product struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id"`
	CategoryID        primitive.ObjectID `json:"category_id" bson:"category_id"`
	Name              string             `json:"name" bson:"name"`
	Description       string             `json:"description" bson:"description"`
	Price             Money              `json:"price" bson:"price"`
	SKU               string             `json:"sku" bson:"sku"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	Quantity          int                `json:"quantity" bson:"quantity"`
	QuantityUpdatedAt time.Time          `json:"quantity_updated_at" bson:"quantity_updated_at"`
	Images            []string           `json:"images" bson:"images"`
}
