package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Address struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id"`
	UserID     primitive.ObjectID `json:"user_id" bson:"user_id"`
	Country    string             `json:"country" bson:"country"`
	City       string             `json:"city" bson:"city"`
	Street     string             `json:"street" bson:"street"`
	PostalCode string             `json:"postal_code" bson:"postal_code"`
}
