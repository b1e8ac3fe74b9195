package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Listing statuses. A new product always starts on moderation; the owner may
// move it to any other status afterwards.
const (
	ProductStatusActive     = "ACTIVE"
	ProductStatusArchived   = "ARCHIVED"
	ProductStatusOnModerate = "ON_MODERATE"
	ProductStatusCanceled   = "CANCELED"
)

// ValidProductStatus reports whether s is one of the known listing statuses.
func ValidProductStatus(s string) bool {
	switch s {
	case ProductStatusActive, ProductStatusArchived, ProductStatusOnModerate, ProductStatusCanceled:
		return true
	}
	return false
}

// ProductFeature is a freeform key/value attribute of a listing.
type ProductFeature struct {
	Name  string `bson:"name" json:"name"`
	Value string `bson:"value" json:"value"`
}

// ProductImage is one uploaded image of a listing. Each entry carries its own
// id so it can be deleted individually by the owner.
type ProductImage struct {
	ID          primitive.ObjectID `bson:"id" json:"id"`
	ImagePath   string             `bson:"imagePath" json:"imagePath"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
}

// Product is a listing. Features and images are embedded so that creating a
// product with its features is a single atomic insert and deleting the
// product cascades to both.
type Product struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Description  string              `bson:"description" json:"description"`
	Price        int64               `bson:"price" json:"price"`
	PriceSuffix  string              `bson:"priceSuffix,omitempty" json:"priceSuffix,omitempty"`
	IsLowerBound bool                `bson:"isLowerBound" json:"isLowerBound"`
	Status       string              `bson:"status" json:"status"`
	AuthorID     primitive.ObjectID  `bson:"authorId" json:"authorId"`
	CategoryID   primitive.ObjectID  `bson:"categoryId" json:"categoryId"`
	CityID       *primitive.ObjectID `bson:"cityId,omitempty" json:"cityId,omitempty"`
	Features     []ProductFeature    `bson:"features" json:"features"`
	Images       []ProductImage      `bson:"images" json:"images"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}
