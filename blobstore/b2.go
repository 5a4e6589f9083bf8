package blobstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kurin/blazer/b2"

	"nimbusdrive/common"
)

// B2Store keeps blobs in a Backblaze B2 bucket under the same key scheme as
// the disk store.
type B2Store struct {
	client     *b2.Client
	bucketName string
	bucket     *b2.Bucket
}

func NewB2Store(ctx context.Context, keyID, applicationKey, bucketName string) (*B2Store, error) {
	client, err := b2.NewClient(ctx, keyID, applicationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create B2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", bucketName, err)
	}

	return &B2Store{
		client:     client,
		bucketName: bucketName,
		bucket:     bucket,
	}, nil
}

func (s *B2Store) Put(ctx context.Context, ownerID, objectID, originalName string, r io.Reader) (string, int64, error) {
	key := BuildKey(ownerID, objectID, originalName)

	obj := s.bucket.Object(key)
	writer := obj.NewWriter(ctx)

	size, err := io.Copy(writer, r)
	if err != nil {
		writer.Close()
		return "", 0, fmt.Errorf("failed to upload blob to B2: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close B2 writer: %w", err)
	}

	return key, size, nil
}

func (s *B2Store) Get(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	obj := s.bucket.Object(storageKey)

	// Attrs is the cheapest way to tell a missing object apart from a
	// transport failure before handing back a lazy reader.
	if _, err := obj.Attrs(ctx); err != nil {
		if b2.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s: %w", storageKey, common.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to stat blob %s: %w", storageKey, err)
	}

	return obj.NewReader(ctx), nil
}

func (s *B2Store) Delete(ctx context.Context, storageKey string) error {
	obj := s.bucket.Object(storageKey)
	if err := obj.Delete(ctx); err != nil {
		if b2.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete blob %s from B2: %w", storageKey, err)
	}
	return nil
}

func (s *B2Store) List(ctx context.Context, ownerID string) ([]BlobInfo, error) {
	var blobs []BlobInfo
	iter := s.bucket.List(ctx, b2.ListPrefix(ownerID+"/"))
	for iter.Next() {
		obj := iter.Object()
		attrs, err := obj.Attrs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to stat B2 blob %s: %w", obj.Name(), err)
		}
		blobs = append(blobs, BlobInfo{
			Key:      obj.Name(),
			Uploaded: attrs.UploadTimestamp,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list B2 blobs for %s: %w", ownerID, err)
	}
	return blobs, nil
}

// ListOwners enumerates the top-level owner prefixes in the bucket.
func (s *B2Store) ListOwners(ctx context.Context) ([]string, error) {
	var owners []string
	iter := s.bucket.List(ctx, b2.ListDelimiter("/"))
	for iter.Next() {
		name := strings.TrimSuffix(iter.Object().Name(), "/")
		if name != "" {
			owners = append(owners, name)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list B2 owners: %w", err)
	}
	return owners, nil
}
