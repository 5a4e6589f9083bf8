// Package catalog holds the metadata records for users, folders and files.
// Repositories return common.ErrNotFound / common.ErrAlreadyExists so that
// callers never have to know which backend is underneath.
package catalog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
)

func nowUTC() time.Time { return time.Now().UTC() }

type UserRepository interface {
	// Create inserts the user. Returns common.ErrAlreadyExists when another
	// user already holds the same email.
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type FolderRepository interface {
	Create(ctx context.Context, folder *models.Folder) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error)
	// FindByOwnerAndParent lists direct children of parent (nil = root) for
	// the given owner, sorted by name.
	FindByOwnerAndParent(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.Folder, error)
	// FindByParent is owner-unscoped. Only the cascade traversal uses it:
	// folder ids are reachable only after an ownership check at the root of
	// the traversal.
	FindByParent(ctx context.Context, parentID primitive.ObjectID) ([]models.Folder, error)
	UpdateName(ctx context.Context, id primitive.ObjectID, name string) error
	UpdateParent(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type FileRepository interface {
	Create(ctx context.Context, file *models.File) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.File, error)
	// FindByOwnerAndFolder lists files directly inside folder (nil = root)
	// for the given owner, sorted by name.
	FindByOwnerAndFolder(ctx context.Context, ownerID primitive.ObjectID, folderID *primitive.ObjectID) ([]models.File, error)
	// FindByFolder is owner-unscoped; used by the cascade traversal.
	FindByFolder(ctx context.Context, folderID primitive.ObjectID) ([]models.File, error)
	FindByStorageKey(ctx context.Context, storageKey string) (*models.File, error)
	UpdateName(ctx context.Context, id primitive.ObjectID, name string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByFolder(ctx context.Context, folderID, ownerID primitive.ObjectID) error
}
