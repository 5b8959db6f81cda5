package office

import (
	"context"
	"fmt"

	"taskdrive/internal/domain"
	"taskdrive/internal/domain/models"
	"taskdrive/internal/domain/repositories"
)

type fakeFolderRepo struct {
	byID map[string]*models.Folder
}

func (f *fakeFolderRepo) Create(context.Context, *models.Folder) error { return nil }
func (f *fakeFolderRepo) GetByID(_ context.Context, id string) (*models.Folder, error) {
	folder, ok := f.byID[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", id)}
	}
	cp := *folder
	return &cp, nil
}
func (f *fakeFolderRepo) GetByNameAndParent(context.Context, string, string, *string) (*models.Folder, error) {
	return nil, nil
}
func (f *fakeFolderRepo) Update(context.Context, *models.Folder) error { return nil }
func (f *fakeFolderRepo) Delete(context.Context, string) error         { return nil }
func (f *fakeFolderRepo) ListRoot(context.Context, string) ([]models.Folder, error) {
	return nil, nil
}
func (f *fakeFolderRepo) ListByParent(context.Context, string) ([]models.Folder, error) {
	return nil, nil
}

type fakeFileRepo struct {
	byID map[string]*models.File
}

func (f *fakeFileRepo) Create(_ context.Context, file *models.File) error {
	cp := *file
	f.byID[file.ID] = &cp
	return nil
}
func (f *fakeFileRepo) GetByID(_ context.Context, id string) (*models.File, error) {
	file, ok := f.byID[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", id)}
	}
	cp := *file
	return &cp, nil
}
func (f *fakeFileRepo) GetByNameInFolder(context.Context, string, string, *string) (*models.File, error) {
	return nil, nil
}
func (f *fakeFileRepo) Update(_ context.Context, file *models.File) error {
	if _, ok := f.byID[file.ID]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", file.ID)}
	}
	cp := *file
	f.byID[file.ID] = &cp
	return nil
}
func (f *fakeFileRepo) Delete(_ context.Context, id string) error {
	delete(f.byID, id)
	return nil
}
func (f *fakeFileRepo) ListRoot(context.Context, string) ([]models.File, error)     { return nil, nil }
func (f *fakeFileRepo) ListByFolder(context.Context, string) ([]models.File, error) { return nil, nil }

type fakeShareRepo struct {
	byKey map[string]*models.Share
}

func (f *fakeShareRepo) key(subjectType models.SubjectType, subjectID, granteeID string) string {
	return string(subjectType) + "/" + subjectID + "/" + granteeID
}
func (f *fakeShareRepo) Upsert(_ context.Context, share *models.Share) error {
	cp := *share
	f.byKey[f.key(share.SubjectType, share.SubjectID, share.GranteeID)] = &cp
	return nil
}
func (f *fakeShareRepo) Get(_ context.Context, subjectType models.SubjectType, subjectID, granteeID string) (*models.Share, error) {
	share, ok := f.byKey[f.key(subjectType, subjectID, granteeID)]
	if !ok {
		return nil, nil
	}
	cp := *share
	return &cp, nil
}
func (f *fakeShareRepo) Delete(context.Context, models.SubjectType, string, string) error {
	return nil
}
func (f *fakeShareRepo) ListBySubject(context.Context, models.SubjectType, string) ([]models.Share, error) {
	return nil, nil
}

var (
	_ repositories.FolderRepository = (*fakeFolderRepo)(nil)
	_ repositories.FileRepository   = (*fakeFileRepo)(nil)
	_ repositories.ShareRepository  = (*fakeShareRepo)(nil)
)
