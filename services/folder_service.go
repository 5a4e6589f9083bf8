package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/blobstore"
	"nimbusdrive/catalog"
	"nimbusdrive/common"
	"nimbusdrive/models"
	"nimbusdrive/utils"
)

// maxTreeDepth caps ancestor walks. The tree is acyclic by construction, but
// a corrupted catalog must not be able to hang a request.
const maxTreeDepth = 1024

// Listing is one level of a user's namespace: direct child folders and files.
type Listing struct {
	Folders []models.Folder `json:"folders"`
	Files   []models.File   `json:"files"`
}

// FolderContents is a folder record together with its immediate children.
type FolderContents struct {
	Folder     models.Folder   `json:"folder"`
	Subfolders []models.Folder `json:"subfolders"`
	Files      []models.File   `json:"files"`
}

// FolderService owns the folder tree semantics: creation, listing, renaming,
// moving, the breadcrumb path, and recursive deletion.
type FolderService struct {
	folderRepo catalog.FolderRepository
	fileRepo   catalog.FileRepository
	blobStore  blobstore.Store
}

func NewFolderService(folderRepo catalog.FolderRepository, fileRepo catalog.FileRepository, blobStore blobstore.Store) *FolderService {
	return &FolderService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		blobStore:  blobStore,
	}
}

// CreateFolder creates a folder under parentID (nil for root). The parent
// must exist and belong to the same owner; a sibling with the same name is
// rejected.
func (s *FolderService) CreateFolder(ctx context.Context, name string, parentID *string, ownerID string) (*models.Folder, error) {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateFolderName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}

	var parentObjID *primitive.ObjectID
	if parentID != nil && *parentID != "" {
		parent, err := s.getOwnedFolder(ctx, *parentID, ownerObjID)
		if err != nil {
			return nil, err
		}
		parentObjID = &parent.ID
	}

	siblings, err := s.folderRepo.FindByOwnerAndParent(ctx, ownerObjID, parentObjID)
	if err != nil {
		return nil, err
	}
	for _, sibling := range siblings {
		if sibling.Name == name {
			return nil, fmt.Errorf("folder %q: %w", name, common.ErrAlreadyExists)
		}
	}

	now := nowUTC()
	folder := &models.Folder{
		ID:        primitive.NewObjectID(),
		Name:      name,
		OwnerID:   ownerObjID,
		ParentID:  parentObjID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// List returns the direct child folders and files of (owner, parent). A nil
// parentID means the root level.
func (s *FolderService) List(ctx context.Context, ownerID string, parentID *string) (*Listing, error) {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}

	var parentObjID *primitive.ObjectID
	if parentID != nil && *parentID != "" {
		id, err := parseID(*parentID)
		if err != nil {
			return nil, err
		}
		parentObjID = &id
	}

	folders, err := s.folderRepo.FindByOwnerAndParent(ctx, ownerObjID, parentObjID)
	if err != nil {
		return nil, err
	}
	files, err := s.fileRepo.FindByOwnerAndFolder(ctx, ownerObjID, parentObjID)
	if err != nil {
		return nil, err
	}

	return &Listing{Folders: folders, Files: files}, nil
}

// GetContents verifies ownership and returns the folder with its immediate
// child folders and files.
func (s *FolderService) GetContents(ctx context.Context, folderID, ownerID string) (*FolderContents, error) {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}
	folder, err := s.getOwnedFolder(ctx, folderID, ownerObjID)
	if err != nil {
		return nil, err
	}

	subfolders, err := s.folderRepo.FindByOwnerAndParent(ctx, ownerObjID, &folder.ID)
	if err != nil {
		return nil, err
	}
	files, err := s.fileRepo.FindByOwnerAndFolder(ctx, ownerObjID, &folder.ID)
	if err != nil {
		return nil, err
	}

	return &FolderContents{
		Folder:     *folder,
		Subfolders: subfolders,
		Files:      files,
	}, nil
}

// GetPath returns the ordered ancestor chain from the root down to the
// folder itself. The walk is iterative and bounded so a corrupted parent
// graph cannot loop forever.
func (s *FolderService) GetPath(ctx context.Context, folderID, ownerID string) ([]models.Folder, error) {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}
	folder, err := s.getOwnedFolder(ctx, folderID, ownerObjID)
	if err != nil {
		return nil, err
	}

	path := []models.Folder{*folder}
	visited := map[primitive.ObjectID]bool{folder.ID: true}

	current := folder
	for current.ParentID != nil {
		if len(path) >= maxTreeDepth {
			return nil, fmt.Errorf("folder tree deeper than %d levels: %w", maxTreeDepth, common.ErrInternal)
		}
		if visited[*current.ParentID] {
			return nil, fmt.Errorf("cycle in folder tree at %s: %w", current.ParentID.Hex(), common.ErrInternal)
		}

		parent, err := s.folderRepo.FindByID(ctx, *current.ParentID)
		if err != nil {
			// A dangling parent reference ends the chain rather than
			// failing the breadcrumb.
			break
		}
		if parent.OwnerID != ownerObjID {
			break
		}

		visited[parent.ID] = true
		path = append([]models.Folder{*parent}, path...)
		current = parent
	}

	return path, nil
}

// RenameFolder renames a folder in place.
func (s *FolderService) RenameFolder(ctx context.Context, folderID, ownerID, newName string) (*models.Folder, error) {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateFolderName(newName); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}

	folder, err := s.getOwnedFolder(ctx, folderID, ownerObjID)
	if err != nil {
		return nil, err
	}

	if err := s.folderRepo.UpdateName(ctx, folder.ID, newName); err != nil {
		return nil, err
	}
	folder.Name = newName
	folder.UpdatedAt = nowUTC()
	return folder, nil
}

// MoveFolder reparents a folder. The new parent must belong to the same
// owner and must not sit inside the folder being moved — a folder may never
// become its own ancestor.
func (s *FolderService) MoveFolder(ctx context.Context, folderID string, newParentID *string, ownerID string) (*models.Folder, error) {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}
	folder, err := s.getOwnedFolder(ctx, folderID, ownerObjID)
	if err != nil {
		return nil, err
	}

	var parentObjID *primitive.ObjectID
	if newParentID != nil && *newParentID != "" {
		parent, err := s.getOwnedFolder(ctx, *newParentID, ownerObjID)
		if err != nil {
			return nil, err
		}
		if err := s.checkNoCycle(ctx, folder.ID, parent); err != nil {
			return nil, err
		}
		parentObjID = &parent.ID
	}

	if err := s.folderRepo.UpdateParent(ctx, folder.ID, parentObjID); err != nil {
		return nil, err
	}
	folder.ParentID = parentObjID
	folder.UpdatedAt = nowUTC()
	return folder, nil
}

// checkNoCycle walks the proposed parent's ancestor chain and rejects the
// move when the folder being placed already appears in it.
func (s *FolderService) checkNoCycle(ctx context.Context, folderID primitive.ObjectID, newParent *models.Folder) error {
	if newParent.ID == folderID {
		return fmt.Errorf("folder cannot be its own parent: %w", common.ErrInvalidArgument)
	}

	visited := map[primitive.ObjectID]bool{newParent.ID: true}
	current := newParent
	for depth := 0; current.ParentID != nil; depth++ {
		if depth >= maxTreeDepth || visited[*current.ParentID] {
			return fmt.Errorf("corrupted folder tree: %w", common.ErrInternal)
		}
		if *current.ParentID == folderID {
			return fmt.Errorf("move would create a cycle: %w", common.ErrInvalidArgument)
		}

		parent, err := s.folderRepo.FindByID(ctx, *current.ParentID)
		if err != nil {
			break
		}
		visited[parent.ID] = true
		current = parent
	}
	return nil
}

// DeleteFolder removes a folder and its entire subtree. The traversal is an
// explicit worklist with a visited set, so it terminates even on a
// corrupted tree. For each contained file the blob is removed before its
// metadata row; folder records are removed children-before-parent. The
// cascade is best-effort, not transactional: an uploader racing the delete
// may or may not have its file survive, which never compromises ownership.
func (s *FolderService) DeleteFolder(ctx context.Context, folderID, ownerID string) error {
	ownerObjID, err := parseID(ownerID)
	if err != nil {
		return err
	}
	root, err := s.getOwnedFolder(ctx, folderID, ownerObjID)
	if err != nil {
		return err
	}

	// Walk the subtree parent-first, recording the order.
	order := make([]primitive.ObjectID, 0, 8)
	visited := map[primitive.ObjectID]bool{root.ID: true}
	stack := []primitive.ObjectID{root.ID}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, id)

		children, err := s.folderRepo.FindByParent(ctx, id)
		if err != nil {
			return err
		}
		for _, child := range children {
			if !visited[child.ID] {
				visited[child.ID] = true
				stack = append(stack, child.ID)
			}
		}
	}

	// Delete the files of every folder in the subtree, blob first so a
	// crash can only ever leave an orphaned blob, never a dangling row.
	for _, id := range order {
		files, err := s.fileRepo.FindByFolder(ctx, id)
		if err != nil {
			return err
		}
		for _, file := range files {
			if err := s.blobStore.Delete(ctx, file.StorageKey); err != nil {
				return err
			}
			if err := s.fileRepo.Delete(ctx, file.ID); err != nil && !isNotFound(err) {
				return err
			}
		}
		// Rows inserted since the listing (an uploader racing the delete)
		// are cleared here; their blobs become orphans for the sweep.
		if err := s.fileRepo.DeleteByFolder(ctx, id, ownerObjID); err != nil {
			return err
		}
	}

	// Folder records go children-before-parent so no record ever points at
	// a deleted parent.
	for i := len(order) - 1; i >= 0; i-- {
		if err := s.folderRepo.Delete(ctx, order[i]); err != nil && !isNotFound(err) {
			return err
		}
	}

	return nil
}

// getOwnedFolder resolves a folder id and enforces ownership. Absent and
// not-owned are both ErrNotFound so existence never leaks across owners.
func (s *FolderService) getOwnedFolder(ctx context.Context, folderID string, ownerID primitive.ObjectID) (*models.Folder, error) {
	id, err := parseID(folderID)
	if err != nil {
		return nil, err
	}
	folder, err := s.folderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if folder.OwnerID != ownerID {
		return nil, fmt.Errorf("folder %s: %w", folderID, common.ErrNotFound)
	}
	return folder, nil
}
