package projects

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a document of the top-level projects collection.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Collections []string           `bson:"collections" json:"collections"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
