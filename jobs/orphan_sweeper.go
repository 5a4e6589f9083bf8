// Package jobs holds background maintenance work. The only job today is the
// orphan blob sweep: blobs left behind by a crash between a blob write and
// the matching catalog write (or delete) are acceptable garbage, and this is
// the reconciliation that collects them.
package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"nimbusdrive/blobstore"
	"nimbusdrive/catalog"
	"nimbusdrive/common"
)

// OwnerLister is the optional blob store capability the sweep needs: both
// the disk and B2 stores implement it.
type OwnerLister interface {
	ListOwners(ctx context.Context) ([]string, error)
}

type OrphanSweeper struct {
	blobStore blobstore.Store
	owners    OwnerLister
	fileRepo  catalog.FileRepository
	grace     time.Duration
	logger    *log.Logger
}

// NewOrphanSweeper builds a sweeper. Blobs uploaded within the grace window
// are never touched: an upload sits between its blob write and its catalog
// insert for a moment, and sweeping it there would leave the row pointing at
// deleted bytes. Zero grace disables the window.
func NewOrphanSweeper(blobStore blobstore.Store, owners OwnerLister, fileRepo catalog.FileRepository, grace time.Duration) *OrphanSweeper {
	return &OrphanSweeper{
		blobStore: blobStore,
		owners:    owners,
		fileRepo:  fileRepo,
		grace:     grace,
		logger:    log.New(log.Writer(), "[ORPHAN_SWEEP] ", log.LstdFlags),
	}
}

// Start runs the sweep immediately and then on every tick until the context
// is cancelled. Intended to be run on its own goroutine.
func (s *OrphanSweeper) Start(ctx context.Context, interval time.Duration) {
	s.logger.Printf("Starting orphan blob sweep every %v", interval)

	s.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Println("Orphan sweep stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce scans every owner namespace and deletes blobs whose storage key no
// catalog row references. Returns the number of blobs removed.
func (s *OrphanSweeper) RunOnce(ctx context.Context) int {
	owners, err := s.owners.ListOwners(ctx)
	if err != nil {
		s.logger.Printf("Failed to list owners: %v", err)
		return 0
	}

	cutoff := time.Now().Add(-s.grace)

	var removed int
	for _, owner := range owners {
		blobs, err := s.blobStore.List(ctx, owner)
		if err != nil {
			s.logger.Printf("Failed to list blobs for owner %s: %v", owner, err)
			continue
		}

		for _, blob := range blobs {
			if s.grace > 0 && blob.Uploaded.After(cutoff) {
				// Too young to judge: its catalog row may still be on
				// the way. A real orphan is caught on a later pass.
				continue
			}

			_, err := s.fileRepo.FindByStorageKey(ctx, blob.Key)
			if err == nil {
				continue
			}
			if !errors.Is(err, common.ErrNotFound) {
				s.logger.Printf("Catalog lookup failed for %s: %v", blob.Key, err)
				continue
			}

			if err := s.blobStore.Delete(ctx, blob.Key); err != nil {
				s.logger.Printf("Failed to delete orphaned blob %s: %v", blob.Key, err)
				continue
			}
			removed++
			s.logger.Printf("Deleted orphaned blob %s", blob.Key)
		}
	}

	s.logger.Printf("Sweep completed, removed %d orphaned blobs", removed)
	return removed
}
