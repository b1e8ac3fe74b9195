package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// City is reference data created by admin tooling, never through the API.
type City struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}
