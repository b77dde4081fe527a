package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusDelivered OrderStatus = "delivered"
)

type PaymentMethod string

const (
	PaymentMethodPaypal PaymentMethod = "paypal"
	PaymentMethodCard   PaymentMethod = "card"
)

type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusUnpaid PaymentStatus = "unpaid"
)

type Order struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id"`
	UserID        primitive.ObjectID `json:"user_id" bson:"user_id"`
	AddressID     primitive.ObjectID `json:"address_id" bson:"address_id"`
	Status        OrderStatus        `json:"status" bson:"status"`
	TotalAmount   Money              `json:"total_amount" bson:"total_amount"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	Items         []OrderItem        `json:"items" bson:"items"`
	PaymentMethod PaymentMethod      `json:"payment_method" bson:"payment_method"`
	PaymentStatus PaymentStatus      `json:"payment_status" bson:"payment_status"`
	PaymentDate   time.Time          `json:"payment_date" bson:"payment_date"`
}

// OrderItem is a line item embedded in its order; it has no identity of its own.
type OrderItem struct {
	ProductID primitive.ObjectID `json:"product_id" bson:"product_id"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	Price     Money              `json:"price" bson:"price"`
}
