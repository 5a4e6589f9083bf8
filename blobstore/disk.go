package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"nimbusdrive/common"
)

// DiskStore keeps blobs on the local filesystem under an explicitly injected
// root directory, one subdirectory per owner.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blob root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root %s: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Put(ctx context.Context, ownerID, objectID, originalName string, r io.Reader) (string, int64, error) {
	key := BuildKey(ownerID, objectID, originalName)

	ownerDir := filepath.Join(s.root, ownerID)
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create owner dir: %w", err)
	}

	f, err := os.Create(s.pathFor(key))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create blob file: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", 0, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", 0, fmt.Errorf("failed to close blob file: %w", err)
	}

	return key, size, nil
}

func (s *DiskStore) Get(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	f, err := os.Open(s.pathFor(storageKey))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("blob %s: %w", storageKey, common.ErrContentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", storageKey, err)
	}
	return f, nil
}

func (s *DiskStore) Delete(ctx context.Context, storageKey string) error {
	err := os.Remove(s.pathFor(storageKey))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %w", storageKey, err)
	}
	return nil
}

func (s *DiskStore) List(ctx context.Context, ownerID string) ([]BlobInfo, error) {
	ownerDir := filepath.Join(s.root, ownerID)
	entries, err := os.ReadDir(ownerDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs for %s: %w", ownerID, err)
	}

	var blobs []BlobInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat blob %s: %w", entry.Name(), err)
		}
		blobs = append(blobs, BlobInfo{
			Key:      ownerID + "/" + entry.Name(),
			Uploaded: info.ModTime(),
		})
	}
	return blobs, nil
}

// ListOwners returns every owner namespace present in the store.
func (s *DiskStore) ListOwners(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list blob root: %w", err)
	}

	var owners []string
	for _, entry := range entries {
		if entry.IsDir() {
			owners = append(owners, entry.Name())
		}
	}
	return owners, nil
}

func (s *DiskStore) pathFor(storageKey string) string {
	return filepath.Join(s.root, filepath.FromSlash(storageKey))
}
