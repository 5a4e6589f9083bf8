package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File is a leaf object in the namespace. StorageKey is the opaque locator
// of the file's bytes in the blob store; it identifies exactly one blob. A
// nil FolderID means the file sits at the root of its owner's tree.
type File struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name       string              `bson:"name" json:"name"`
	Size       int64               `bson:"size" json:"size"`
	MimeType   string              `bson:"mime_type" json:"mime_type"`
	StorageKey string              `bson:"storage_key" json:"-"`
	FolderID   *primitive.ObjectID `bson:"folder_id,omitempty" json:"folder_id,omitempty"`
	OwnerID    primitive.ObjectID  `bson:"owner_id" json:"owner_id"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time           `bson:"updated_at" json:"updated_at"`
}
