package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/blobstore"
	"nimbusdrive/catalog"
	"nimbusdrive/common"
	"nimbusdrive/models"
	"nimbusdrive/token"
	"nimbusdrive/utils"
)

// FileContent is the payload handed back to the transport layer, which
// streams the bytes with the given mime type and filename.
type FileContent struct {
	Reader   io.ReadCloser
	MimeType string
	Name     string
	Size     int64
}

// FileService is the file half of the storage facade: upload, metadata,
// content delivery (session and capability paths), rename and delete.
type FileService struct {
	fileRepo   catalog.FileRepository
	folderRepo catalog.FolderRepository
	blobStore  blobstore.Store
	tokens     *token.Service
	shareTTL   time.Duration
}

func NewFileService(fileRepo catalog.FileRepository, folderRepo catalog.FolderRepository, blobStore blobstore.Store, tokens *token.Service, shareTTL time.Duration) *FileService {
	if shareTTL <= 0 {
		shareTTL = token.DefaultShareTTL
	}
	return &FileService{
		fileRepo:   fileRepo,
		folderRepo: folderRepo,
		blobStore:  blobStore,
		tokens:     tokens,
		shareTTL:   shareTTL,
	}
}

// Upload stores the payload and records its metadata. When folderID is set
// the target folder must exist and belong to the uploader. The blob is
// written first; if the metadata insert then fails the blob is removed, so
// no row ever points at bytes that were never recorded.
func (s *FileService) Upload(ctx context.Context, ownerID string, folderID *string, originalName, mimeType string, r io.Reader) (*models.File, error) {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateFileName(originalName); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}
	if mimeType == "" {
		mimeType = utils.MimeTypeForFilename(originalName)
	}

	var folderObjID *primitive.ObjectID
	if folderID != nil && *folderID != "" {
		id, err := parseID(*folderID)
		if err != nil {
			return nil, err
		}
		folder, err := s.folderRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if folder.OwnerID != ownerObjID {
			return nil, fmt.Errorf("folder %s: %w", *folderID, common.ErrNotFound)
		}
		folderObjID = &folder.ID
	}

	objectID := uuid.NewString()
	storageKey, size, err := s.blobStore.Put(ctx, ownerID, objectID, originalName, r)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	file := &models.File{
		ID:         primitive.NewObjectID(),
		Name:       originalName,
		Size:       size,
		MimeType:   mimeType,
		StorageKey: storageKey,
		FolderID:   folderObjID,
		OwnerID:    ownerObjID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		// Roll the blob back rather than leave bytes no row points at.
		if delErr := s.blobStore.Delete(ctx, storageKey); delErr != nil {
			return nil, fmt.Errorf("failed to save metadata (orphaned blob %s): %w", storageKey, err)
		}
		return nil, fmt.Errorf("failed to save metadata: %w", err)
	}

	return file, nil
}

// List returns the files directly inside folderID (nil = root) for the
// owner.
func (s *FileService) List(ctx context.Context, ownerID string, folderID *string) ([]models.File, error) {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}

	var folderObjID *primitive.ObjectID
	if folderID != nil && *folderID != "" {
		id, err := parseID(*folderID)
		if err != nil {
			return nil, err
		}
		folderObjID = &id
	}

	return s.fileRepo.FindByOwnerAndFolder(ctx, ownerObjID, folderObjID)
}

// GetMetadata returns a file record the owner can see.
func (s *FileService) GetMetadata(ctx context.Context, ownerID, fileID string) (*models.File, error) {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}
	return s.getOwnedFile(ctx, fileID, ownerObjID)
}

// GetContentForOwner is the session-authenticated content read path.
func (s *FileService) GetContentForOwner(ctx context.Context, ownerID, fileID string) (*FileContent, error) {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}
	file, err := s.getOwnedFile(ctx, fileID, ownerObjID)
	if err != nil {
		return nil, err
	}
	return s.openContent(ctx, file)
}

// GetContentShared is the capability-token content read path. The token must
// verify, carry the file-download purpose and target exactly this file;
// content is then served under the token's subject. There is no bare-id
// read: every non-session access goes through here.
func (s *FileService) GetContentShared(ctx context.Context, tokenString, fileID string) (*FileContent, error) {
	claims, err := s.tokens.VerifyCapability(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != token.PurposeFileDownload || claims.FileID != fileID {
		return nil, fmt.Errorf("token purpose/target mismatch: %w", common.ErrUnauthorized)
	}
	return s.GetContentForOwner(ctx, claims.UserID, fileID)
}

// IssueDownloadToken verifies ownership, then mints a short-lived
// file-download capability for the file.
func (s *FileService) IssueDownloadToken(ctx context.Context, ownerID, fileID string) (string, error) {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return "", err
	}
	file, err := s.getOwnedFile(ctx, fileID, ownerObjID)
	if err != nil {
		return "", err
	}
	return s.tokens.IssueCapability(ownerID, file.ID.Hex(), token.PurposeFileDownload, s.shareTTL)
}

// RenameFile renames a file in place, metadata only.
func (s *FileService) RenameFile(ctx context.Context, fileID, ownerID, newName string) (*models.File, error) {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateFileName(newName); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}

	file, err := s.getOwnedFile(ctx, fileID, ownerObjID)
	if err != nil {
		return nil, err
	}

	if err := s.fileRepo.UpdateName(ctx, file.ID, newName); err != nil {
		return nil, err
	}
	file.Name = newName
	file.UpdatedAt = nowUTC()
	return file, nil
}

// DeleteFile removes the blob, then the metadata row. A second delete of the
// same id fails ErrNotFound without touching the store.
func (s *FileService) DeleteFile(ctx context.Context, fileID, ownerID string) error {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return err
	}
	file, err := s.getOwnedFile(ctx, fileID, ownerObjID)
	if err != nil {
		return err
	}

	if err := s.blobStore.Delete(ctx, file.StorageKey); err != nil {
		return err
	}
	if err := s.fileRepo.Delete(ctx, file.ID); err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func (s *FileService) openContent(ctx context.Context, file *models.File) (*FileContent, error) {
	reader, err := s.blobStore.Get(ctx, file.StorageKey)
	if err != nil {
		return nil, err
	}
	return &FileContent{
		Reader:   reader,
		MimeType: file.MimeType,
		Name:     file.Name,
		Size:     file.Size,
	}, nil
}

func (s *FileService) getOwnedFile(ctx context.Context, fileID string, ownerID primitive.ObjectID) (*models.File, error) {
	id, err := parseID(fileID)
	if err != nil {
		return nil, err
	}
	file, err := s.fileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != ownerID {
		return nil, fmt.Errorf("file %s: %w", fileID, common.ErrNotFound)
	}
	return file, nil
}
