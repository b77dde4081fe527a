package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Category struct {
	ID       primitive.ObjectID  `json:"_id" bson:"_id"`
	Name     string              `json:"name" bson:"name"`
	ParentID *primitive.ObjectID `json:"parent_id,omitempty" bson:"parent_id,omitempty"` // Nil for top-level categories
}
