package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nimbusdrive/common"
	"nimbusdrive/models"
)

// Mongo-backed repositories. Collections: users, folders, files. Listings
// are sorted by name so directory views are stable.

type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// EnsureIndexes creates the unique index on email. Call once at startup.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"email": 1},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return common.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

type MongoFolderRepository struct {
	collection *mongo.Collection
}

func NewMongoFolderRepository(db *mongo.Database) *MongoFolderRepository {
	return &MongoFolderRepository{collection: db.Collection("folders")}
}

func (r *MongoFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	_, err := r.collection.InsertOne(ctx, folder)
	if err != nil {
		return fmt.Errorf("failed to insert folder: %w", err)
	}
	return nil
}

func (r *MongoFolderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&folder)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &folder, nil
}

func (r *MongoFolderRepository) FindByOwnerAndParent(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.Folder, error) {
	filter := bson.M{"owner_id": ownerID}
	if parentID != nil {
		filter["parent_id"] = *parentID
	} else {
		filter["parent_id"] = nil
	}
	return r.find(ctx, filter)
}

func (r *MongoFolderRepository) FindByParent(ctx context.Context, parentID primitive.ObjectID) ([]models.Folder, error) {
	return r.find(ctx, bson.M{"parent_id": parentID})
}

func (r *MongoFolderRepository) find(ctx context.Context, filter bson.M) ([]models.Folder, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err = cursor.All(ctx, &folders); err != nil {
		return nil, fmt.Errorf("failed to decode folders: %w", err)
	}
	return folders, nil
}

func (r *MongoFolderRepository) UpdateName(ctx context.Context, id primitive.ObjectID, name string) error {
	return r.update(ctx, id, bson.M{"name": name})
}

func (r *MongoFolderRepository) UpdateParent(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID) error {
	if parentID != nil {
		return r.update(ctx, id, bson.M{"parent_id": *parentID})
	}
	return r.update(ctx, id, bson.M{"parent_id": nil})
}

func (r *MongoFolderRepository) update(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = nowUTC()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update folder: %w", err)
	}
	if result.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *MongoFolderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	if result.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

type MongoFileRepository struct {
	collection *mongo.Collection
}

func NewMongoFileRepository(db *mongo.Database) *MongoFileRepository {
	return &MongoFileRepository{collection: db.Collection("files")}
}

func (r *MongoFileRepository) Create(ctx context.Context, file *models.File) error {
	_, err := r.collection.InsertOne(ctx, file)
	if err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}
	return nil
}

func (r *MongoFileRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoFileRepository) FindByStorageKey(ctx context.Context, storageKey string) (*models.File, error) {
	return r.findOne(ctx, bson.M{"storage_key": storageKey})
}

func (r *MongoFileRepository) findOne(ctx context.Context, filter bson.M) (*models.File, error) {
	var file models.File
	err := r.collection.FindOne(ctx, filter).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &file, nil
}

func (r *MongoFileRepository) FindByOwnerAndFolder(ctx context.Context, ownerID primitive.ObjectID, folderID *primitive.ObjectID) ([]models.File, error) {
	filter := bson.M{"owner_id": ownerID}
	if folderID != nil {
		filter["folder_id"] = *folderID
	} else {
		filter["folder_id"] = nil
	}
	return r.find(ctx, filter)
}

func (r *MongoFileRepository) FindByFolder(ctx context.Context, folderID primitive.ObjectID) ([]models.File, error) {
	return r.find(ctx, bson.M{"folder_id": folderID})
}

func (r *MongoFileRepository) find(ctx context.Context, filter bson.M) ([]models.File, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err = cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}
	return files, nil
}

func (r *MongoFileRepository) UpdateName(ctx context.Context, id primitive.ObjectID, name string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"name": name, "updated_at": nowUTC()},
	})
	if err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}
	if result.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *MongoFileRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if result.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *MongoFileRepository) DeleteByFolder(ctx context.Context, folderID, ownerID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"folder_id": folderID, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("failed to delete files in folder: %w", err)
	}
	return nil
}
