package services_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/blobstore"
	"nimbusdrive/catalog"
	"nimbusdrive/services"
	"nimbusdrive/token"
)

// testEnv wires the services against the in-memory catalog and a disk blob
// store rooted in a temp dir.
type testEnv struct {
	userRepo   *catalog.MemoryUserRepository
	folderRepo *catalog.MemoryFolderRepository
	fileRepo   *catalog.MemoryFileRepository
	blobStore  *blobstore.DiskStore
	tokens     *token.Service

	auth    *services.AuthService
	folders *services.FolderService
	files   *services.FileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := blobstore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore error: %v", err)
	}

	env := &testEnv{
		userRepo:   catalog.NewMemoryUserRepository(),
		folderRepo: catalog.NewMemoryFolderRepository(),
		fileRepo:   catalog.NewMemoryFileRepository(),
		blobStore:  store,
		tokens:     token.NewService("test-secret"),
	}
	env.auth = services.NewAuthService(env.userRepo, env.tokens, time.Hour)
	env.folders = services.NewFolderService(env.folderRepo, env.fileRepo, env.blobStore)
	env.files = services.NewFileService(env.fileRepo, env.folderRepo, env.blobStore, env.tokens, time.Hour)
	return env
}

func newOwnerID() string {
	return primitive.NewObjectID().Hex()
}
