package catalog

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/common"
	"nimbusdrive/models"
)

// In-memory repositories with the same semantics as the Mongo ones. Used by
// tests and by local development without a database.

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]models.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return common.ErrAlreadyExists
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, common.ErrNotFound
}

type MemoryFolderRepository struct {
	mu      sync.RWMutex
	folders map[primitive.ObjectID]models.Folder
}

func NewMemoryFolderRepository() *MemoryFolderRepository {
	return &MemoryFolderRepository{folders: make(map[primitive.ObjectID]models.Folder)}
}

func (r *MemoryFolderRepository) Create(_ context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if folder.ID.IsZero() {
		folder.ID = primitive.NewObjectID()
	}
	r.folders[folder.ID] = *folder
	return nil
}

func (r *MemoryFolderRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.folders[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &f, nil
}

func (r *MemoryFolderRepository) FindByOwnerAndParent(_ context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Folder
	for _, f := range r.folders {
		if f.OwnerID == ownerID && sameParent(f.ParentID, parentID) {
			out = append(out, f)
		}
	}
	sortFoldersByName(out)
	return out, nil
}

func (r *MemoryFolderRepository) FindByParent(_ context.Context, parentID primitive.ObjectID) ([]models.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Folder
	for _, f := range r.folders {
		if f.ParentID != nil && *f.ParentID == parentID {
			out = append(out, f)
		}
	}
	sortFoldersByName(out)
	return out, nil
}

func (r *MemoryFolderRepository) UpdateName(_ context.Context, id primitive.ObjectID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok {
		return common.ErrNotFound
	}
	f.Name = name
	f.UpdatedAt = nowUTC()
	r.folders[id] = f
	return nil
}

func (r *MemoryFolderRepository) UpdateParent(_ context.Context, id primitive.ObjectID, parentID *primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok {
		return common.ErrNotFound
	}
	f.ParentID = parentID
	f.UpdatedAt = nowUTC()
	r.folders[id] = f
	return nil
}

func (r *MemoryFolderRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.folders, id)
	return nil
}

type MemoryFileRepository struct {
	mu    sync.RWMutex
	files map[primitive.ObjectID]models.File
}

func NewMemoryFileRepository() *MemoryFileRepository {
	return &MemoryFileRepository{files: make(map[primitive.ObjectID]models.File)}
}

func (r *MemoryFileRepository) Create(_ context.Context, file *models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if file.ID.IsZero() {
		file.ID = primitive.NewObjectID()
	}
	r.files[file.ID] = *file
	return nil
}

func (r *MemoryFileRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &f, nil
}

func (r *MemoryFileRepository) FindByStorageKey(_ context.Context, storageKey string) (*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.files {
		if f.StorageKey == storageKey {
			file := f
			return &file, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *MemoryFileRepository) FindByOwnerAndFolder(_ context.Context, ownerID primitive.ObjectID, folderID *primitive.ObjectID) ([]models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.File
	for _, f := range r.files {
		if f.OwnerID == ownerID && sameParent(f.FolderID, folderID) {
			out = append(out, f)
		}
	}
	sortFilesByName(out)
	return out, nil
}

func (r *MemoryFileRepository) FindByFolder(_ context.Context, folderID primitive.ObjectID) ([]models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.File
	for _, f := range r.files {
		if f.FolderID != nil && *f.FolderID == folderID {
			out = append(out, f)
		}
	}
	sortFilesByName(out)
	return out, nil
}

func (r *MemoryFileRepository) UpdateName(_ context.Context, id primitive.ObjectID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return common.ErrNotFound
	}
	f.Name = name
	f.UpdatedAt = nowUTC()
	r.files[id] = f
	return nil
}

func (r *MemoryFileRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.files, id)
	return nil
}

func (r *MemoryFileRepository) DeleteByFolder(_ context.Context, folderID, ownerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, f := range r.files {
		if f.OwnerID == ownerID && f.FolderID != nil && *f.FolderID == folderID {
			delete(r.files, id)
		}
	}
	return nil
}

func sameParent(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sortFoldersByName(folders []models.Folder) {
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
}

func sortFilesByName(files []models.File) {
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
}
