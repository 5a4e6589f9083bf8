// Package blobstore stores the raw bytes of files, independently of their
// catalog rows. Keys are namespaced "<ownerID>/<objectID>-<name>" so a key
// can never collide across owners and all of one owner's blobs can be
// enumerated in a single prefix scan.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// BlobInfo describes one stored blob. Uploaded lets the orphan sweep tell a
// freshly written blob (whose catalog row may not exist yet) from a stale one.
type BlobInfo struct {
	Key      string
	Uploaded time.Time
}

type Store interface {
	// Put writes the payload and returns the storage key it lives under.
	Put(ctx context.Context, ownerID, objectID, originalName string, r io.Reader) (storageKey string, size int64, err error)
	// Get returns the bytes behind a key. Returns common.ErrContentNotFound
	// (wrapped) when the catalog references a key whose bytes are absent.
	Get(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, storageKey string) error
	// List returns every blob under the owner's namespace.
	List(ctx context.Context, ownerID string) ([]BlobInfo, error)
}

// BuildKey produces the canonical storage key for a blob.
func BuildKey(ownerID, objectID, originalName string) string {
	name := sanitizeName(originalName)
	return fmt.Sprintf("%s/%s-%s", ownerID, objectID, name)
}

// OwnerFromKey extracts the owner namespace from a storage key.
func OwnerFromKey(storageKey string) string {
	owner, _, found := strings.Cut(storageKey, "/")
	if !found {
		return ""
	}
	return owner
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "blob"
	}
	return name
}
