// Package routes wires repositories, services and controllers together and
// registers the API route groups.
package routes

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"nimbusdrive/blobstore"
	"nimbusdrive/catalog"
	"nimbusdrive/config"
	"nimbusdrive/services"
	"nimbusdrive/token"
)

// ServiceContainer holds every wired dependency of the API.
type ServiceContainer struct {
	Tokens        *token.Service
	BlobStore     blobstore.Store
	UserRepo      catalog.UserRepository
	FolderRepo    catalog.FolderRepository
	FileRepo      catalog.FileRepository
	AuthService   *services.AuthService
	FolderService *services.FolderService
	FileService   *services.FileService
	MaxFileSize   int64
}

// NewServiceContainer builds the full dependency graph on top of a Mongo
// database and a blob store.
func NewServiceContainer(db *mongo.Database, blobStore blobstore.Store, cfg *config.Config) *ServiceContainer {
	tokens := token.NewService(cfg.JWTSecret)

	userRepo := catalog.NewMongoUserRepository(db)
	folderRepo := catalog.NewMongoFolderRepository(db)
	fileRepo := catalog.NewMongoFileRepository(db)

	return &ServiceContainer{
		Tokens:        tokens,
		BlobStore:     blobStore,
		UserRepo:      userRepo,
		FolderRepo:    folderRepo,
		FileRepo:      fileRepo,
		AuthService:   services.NewAuthService(userRepo, tokens, cfg.SessionTokenTTL),
		FolderService: services.NewFolderService(folderRepo, fileRepo, blobStore),
		FileService:   services.NewFileService(fileRepo, folderRepo, blobStore, tokens, cfg.ShareTokenTTL),
		MaxFileSize:   cfg.MaxFileSize,
	}
}

// SetupRoutes registers all API route groups on the given group.
func SetupRoutes(api *gin.RouterGroup, container *ServiceContainer) {
	RegisterAuthRoutes(api, container)
	RegisterFolderRoutes(api, container)
	RegisterFileRoutes(api, container)
}
