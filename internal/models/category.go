package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is a node in the category forest. A nil ParentID marks a root;
// children are discovered by querying on parentId, never stored as a list.
type Category struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name     string              `bson:"name" json:"name"`
	ParentID *primitive.ObjectID `bson:"parentId,omitempty" json:"parentId,omitempty"`
}
