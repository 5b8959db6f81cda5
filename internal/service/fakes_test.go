package service

import (
	"context"
	"fmt"

	"taskdrive/internal/domain"
	"taskdrive/internal/domain/models"
	"taskdrive/internal/domain/repositories"
)

// In-memory repository fakes. They clone on read and write like a real
// store, so service-side mutations only land through Update.

type memFolderRepo struct {
	byID map[string]*models.Folder
	// files mirrors the schema's files.folder_id foreign key so Delete can
	// cascade the way the real store does.
	files *memFileRepo
}

func newMemFolderRepo() *memFolderRepo {
	return &memFolderRepo{byID: make(map[string]*models.Folder)}
}

func (m *memFolderRepo) Create(_ context.Context, folder *models.Folder) error {
	cp := *folder
	m.byID[folder.ID] = &cp
	return nil
}

func (m *memFolderRepo) GetByID(_ context.Context, id string) (*models.Folder, error) {
	folder, ok := m.byID[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", id)}
	}
	cp := *folder
	return &cp, nil
}

func (m *memFolderRepo) GetByNameAndParent(_ context.Context, ownerID, name string, parentID *string) (*models.Folder, error) {
	for _, folder := range m.byID {
		if folder.OwnerID == ownerID && folder.Name == name && sameID(folder.ParentID, parentID) {
			cp := *folder
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memFolderRepo) Update(_ context.Context, folder *models.Folder) error {
	if _, ok := m.byID[folder.ID]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", folder.ID)}
	}
	cp := *folder
	m.byID[folder.ID] = &cp
	return nil
}

func (m *memFolderRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", id)}
	}
	m.deleteSubtree(id)
	return nil
}

// deleteSubtree removes the folder, its descendant folders and their files,
// matching ON DELETE CASCADE in the schema.
func (m *memFolderRepo) deleteSubtree(id string) {
	var children []string
	for childID, folder := range m.byID {
		if folder.ParentID != nil && *folder.ParentID == id {
			children = append(children, childID)
		}
	}
	for _, childID := range children {
		m.deleteSubtree(childID)
	}
	if m.files != nil {
		m.files.deleteByFolder(id)
	}
	delete(m.byID, id)
}

func (m *memFolderRepo) ListRoot(_ context.Context, ownerID string) ([]models.Folder, error) {
	var out []models.Folder
	for _, folder := range m.byID {
		if folder.OwnerID == ownerID && folder.ParentID == nil {
			out = append(out, *folder)
		}
	}
	return out, nil
}

func (m *memFolderRepo) ListByParent(_ context.Context, parentID string) ([]models.Folder, error) {
	var out []models.Folder
	for _, folder := range m.byID {
		if folder.ParentID != nil && *folder.ParentID == parentID {
			out = append(out, *folder)
		}
	}
	return out, nil
}

type memFileRepo struct {
	byID map[string]*models.File
}

func newMemFileRepo() *memFileRepo {
	return &memFileRepo{byID: make(map[string]*models.File)}
}

func (m *memFileRepo) Create(_ context.Context, file *models.File) error {
	cp := *file
	m.byID[file.ID] = &cp
	return nil
}

func (m *memFileRepo) GetByID(_ context.Context, id string) (*models.File, error) {
	file, ok := m.byID[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", id)}
	}
	cp := *file
	return &cp, nil
}

func (m *memFileRepo) GetByNameInFolder(_ context.Context, ownerID, name string, folderID *string) (*models.File, error) {
	for _, file := range m.byID {
		if file.OwnerID == ownerID && file.Name == name && sameID(file.FolderID, folderID) {
			cp := *file
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memFileRepo) Update(_ context.Context, file *models.File) error {
	if _, ok := m.byID[file.ID]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", file.ID)}
	}
	cp := *file
	m.byID[file.ID] = &cp
	return nil
}

func (m *memFileRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", id)}
	}
	delete(m.byID, id)
	return nil
}

func (m *memFileRepo) deleteByFolder(folderID string) {
	for id, file := range m.byID {
		if file.FolderID != nil && *file.FolderID == folderID {
			delete(m.byID, id)
		}
	}
}

func (m *memFileRepo) ListRoot(_ context.Context, ownerID string) ([]models.File, error) {
	var out []models.File
	for _, file := range m.byID {
		if file.OwnerID == ownerID && file.FolderID == nil {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (m *memFileRepo) ListByFolder(_ context.Context, folderID string) ([]models.File, error) {
	var out []models.File
	for _, file := range m.byID {
		if file.FolderID != nil && *file.FolderID == folderID {
			out = append(out, *file)
		}
	}
	return out, nil
}

type memShareRepo struct {
	byKey map[string]*models.Share
}

func newMemShareRepo() *memShareRepo {
	return &memShareRepo{byKey: make(map[string]*models.Share)}
}

func shareKey(subjectType models.SubjectType, subjectID, granteeID string) string {
	return string(subjectType) + "/" + subjectID + "/" + granteeID
}

func (m *memShareRepo) Upsert(_ context.Context, share *models.Share) error {
	cp := *share
	m.byKey[shareKey(share.SubjectType, share.SubjectID, share.GranteeID)] = &cp
	return nil
}

func (m *memShareRepo) Get(_ context.Context, subjectType models.SubjectType, subjectID, granteeID string) (*models.Share, error) {
	share, ok := m.byKey[shareKey(subjectType, subjectID, granteeID)]
	if !ok {
		return nil, nil
	}
	cp := *share
	return &cp, nil
}

func (m *memShareRepo) Delete(_ context.Context, subjectType models.SubjectType, subjectID, granteeID string) error {
	key := shareKey(subjectType, subjectID, granteeID)
	if _, ok := m.byKey[key]; !ok {
		return &domain.NotFoundError{Message: "share not found"}
	}
	delete(m.byKey, key)
	return nil
}

func (m *memShareRepo) ListBySubject(_ context.Context, subjectType models.SubjectType, subjectID string) ([]models.Share, error) {
	var out []models.Share
	for _, share := range m.byKey {
		if share.SubjectType == subjectType && share.SubjectID == subjectID {
			out = append(out, *share)
		}
	}
	return out, nil
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

var (
	_ repositories.FolderRepository = (*memFolderRepo)(nil)
	_ repositories.FileRepository   = (*memFileRepo)(nil)
	_ repositories.ShareRepository  = (*memShareRepo)(nil)
)
