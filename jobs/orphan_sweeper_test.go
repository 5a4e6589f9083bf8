package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/blobstore"
	"nimbusdrive/catalog"
	"nimbusdrive/common"
	"nimbusdrive/models"
)

func TestRunOnce_RemovesOnlyOrphans(t *testing.T) {
	ctx := context.Background()

	store, err := blobstore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore error: %v", err)
	}
	fileRepo := catalog.NewMemoryFileRepository()

	owner := primitive.NewObjectID()
	ownerHex := owner.Hex()

	// One blob the catalog knows about.
	trackedKey, size, err := store.Put(ctx, ownerHex, "obj-1", "kept.txt", strings.NewReader("kept"))
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := fileRepo.Create(ctx, &models.File{
		ID:         primitive.NewObjectID(),
		Name:       "kept.txt",
		Size:       size,
		MimeType:   "text/plain",
		StorageKey: trackedKey,
		OwnerID:    owner,
	}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// One blob no row references, as if a crash hit between the blob write
	// and the catalog insert.
	orphanKey, _, err := store.Put(ctx, ownerHex, "obj-2", "orphan.txt", strings.NewReader("orphan"))
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}

	sweeper := NewOrphanSweeper(store, store, fileRepo, 0)
	removed := sweeper.RunOnce(ctx)
	if removed != 1 {
		t.Errorf("RunOnce removed %d blobs, want 1", removed)
	}

	if _, err := store.Get(ctx, trackedKey); err != nil {
		t.Errorf("tracked blob was removed: %v", err)
	}
	if _, err := store.Get(ctx, orphanKey); !errors.Is(err, common.ErrContentNotFound) {
		t.Errorf("orphan blob still present, Get error = %v", err)
	}
}

func TestRunOnce_EmptyStore(t *testing.T) {
	store, err := blobstore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore error: %v", err)
	}

	sweeper := NewOrphanSweeper(store, store, catalog.NewMemoryFileRepository(), 0)
	if removed := sweeper.RunOnce(context.Background()); removed != 0 {
		t.Errorf("RunOnce removed %d blobs on an empty store, want 0", removed)
	}
}

func TestRunOnce_SparesInFlightUpload(t *testing.T) {
	ctx := context.Background()

	store, err := blobstore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore error: %v", err)
	}
	fileRepo := catalog.NewMemoryFileRepository()

	owner := primitive.NewObjectID()

	// Blob written, catalog row not yet inserted — the state an upload is
	// in when a sweep pass happens to run.
	key, size, err := store.Put(ctx, owner.Hex(), "obj-1", "inflight.txt", strings.NewReader("inflight"))
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}

	sweeper := NewOrphanSweeper(store, store, fileRepo, time.Hour)
	if removed := sweeper.RunOnce(ctx); removed != 0 {
		t.Fatalf("RunOnce removed %d blobs inside the grace window, want 0", removed)
	}

	// The upload completes; its content must still be there.
	if err := fileRepo.Create(ctx, &models.File{
		ID:         primitive.NewObjectID(),
		Name:       "inflight.txt",
		Size:       size,
		MimeType:   "text/plain",
		StorageKey: key,
		OwnerID:    owner,
	}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	r, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("blob was swept out from under the upload: %v", err)
	}
	r.Close()
}
