package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const RoleCustomer = "customer"

// User is a storefront account. Only the password hash is ever persisted.
type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"password_hash" bson:"password_hash"`
	FullName     string             `json:"full_name" bson:"full_name"`
	Phone        string             `json:"phone" bson:"phone"`
	Role         string             `json:"role" bson:"role"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}
