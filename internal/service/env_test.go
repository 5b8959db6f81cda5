package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskdrive/internal/blob"
	"taskdrive/internal/domain/models"
)

type testEnv struct {
	folders *memFolderRepo
	files   *memFileRepo
	shares  *memShareRepo
	blobs   *blob.MemoryStore

	resolver  *PermissionResolver
	folderSvc *FolderService
	fileSvc   *FileService
	shareSvc  *ShareService
}

func newTestEnv() *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		folders: newMemFolderRepo(),
		files:   newMemFileRepo(),
		shares:  newMemShareRepo(),
		blobs:   blob.NewMemoryStore(),
	}
	env.folders.files = env.files
	env.resolver = NewPermissionResolver(env.folders, env.files, env.shares)
	env.folderSvc = NewFolderService(env.folders, env.files, env.blobs, env.resolver, logger)
	env.fileSvc = NewFileService(env.files, env.folders, env.blobs, env.resolver, nil, logger)
	env.shareSvc = NewShareService(env.folders, env.files, env.shares, logger)
	return env
}

// seedFolder inserts a folder row directly, bypassing service-side
// permission checks, for arranging fixtures.
func (e *testEnv) seedFolder(t *testing.T, ownerID, name string, parent *models.Folder) *models.Folder {
	t.Helper()

	prefix := rootPrefix(ownerID)
	var parentID *string
	if parent != nil {
		prefix = parent.StorageKeyPrefix
		parentID = &parent.ID
	}

	now := time.Now()
	folder := &models.Folder{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		ParentID:         parentID,
		Name:             name,
		StorageKeyPrefix: childPrefix(prefix, name),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.folders.Create(context.Background(), folder); err != nil {
		t.Fatalf("seed folder: %v", err)
	}
	return folder
}

func (e *testEnv) seedFile(t *testing.T, ownerID, name string, folder *models.Folder, content string) *models.File {
	t.Helper()

	prefix := rootPrefix(ownerID)
	var folderID *string
	if folder != nil {
		prefix = folder.StorageKeyPrefix
		folderID = &folder.ID
	}

	now := time.Now()
	id := uuid.NewString()
	file := &models.File{
		ID:          id,
		OwnerID:     ownerID,
		FolderID:    folderID,
		Name:        name,
		StorageKey:  fileKey(prefix, id, name),
		ByteSize:    int64(len(content)),
		ContentType: "application/octet-stream",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.files.Create(context.Background(), file); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	err := e.blobs.Put(context.Background(), file.StorageKey, strings.NewReader(content), int64(len(content)), file.ContentType)
	if err != nil {
		t.Fatalf("seed blob: %v", err)
	}
	return file
}

func (e *testEnv) grant(t *testing.T, subjectType models.SubjectType, subjectID, granteeID string, perm models.Permission) {
	t.Helper()

	now := time.Now()
	err := e.shares.Upsert(context.Background(), &models.Share{
		SubjectType: subjectType,
		SubjectID:   subjectID,
		GranteeID:   granteeID,
		Permission:  perm,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("seed share: %v", err)
	}
}
