package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"taskdrive/internal/blob"
	"taskdrive/internal/domain"
	"taskdrive/internal/domain/models"
	"taskdrive/internal/domain/repositories"
)

// FormatConverter converts a document fetched from sourceURL between office
// formats and returns a URL for the converted output.
type FormatConverter interface {
	Convert(ctx context.Context, sourceURL, sourceExt, targetExt, key string) (string, error)
}

// FileService owns the file side of the storage tree: upload, download,
// streaming, rename/move, delete and conversion-backed save-as.
type FileService struct {
	files     repositories.FileRepository
	folders   repositories.FolderRepository
	blobs     blob.Store
	perms     *PermissionResolver
	converter FormatConverter
	httpc     *http.Client
	logger    *slog.Logger
}

// NewFileService creates a new file service
func NewFileService(
	files repositories.FileRepository,
	folders repositories.FolderRepository,
	blobs blob.Store,
	perms *PermissionResolver,
	converter FormatConverter,
	logger *slog.Logger,
) *FileService {
	return &FileService{
		files:     files,
		folders:   folders,
		blobs:     blobs,
		perms:     perms,
		converter: converter,
		httpc:     &http.Client{Timeout: 60 * time.Second},
		logger:    logger,
	}
}

// Upload stores bytes under the sanitized original filename.
//
// This is an explicit create-or-overwrite: when a file with the same name
// already exists in the folder for the same owner, its content and metadata
// are refreshed rather than a duplicate created. Overwrite always advances
// updated_at, which retires any live editing-session key for the file.
func (s *FileService) Upload(ctx context.Context, actorID string, folderID *string, filename string, body io.Reader, size int64, contentType string) (*models.File, error) {
	name := sanitizeFilename(filename)
	if name == "" {
		return nil, &domain.ValidationError{Message: "filename must not be empty"}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if folderID != nil && *folderID == "" {
		folderID = nil
	}

	destPrefix := rootPrefix(actorID)
	if folderID != nil {
		folder, err := s.folders.GetByID(ctx, *folderID)
		if err != nil {
			return nil, fmt.Errorf("destination folder: %w", err)
		}
		perm, err := s.perms.ResolveFolder(ctx, folder.ID, actorID)
		if err != nil {
			return nil, err
		}
		if !perm.CanEdit() {
			return nil, &domain.ForbiddenError{Message: "edit access required to upload here"}
		}
		destPrefix = folder.StorageKeyPrefix
	}

	existing, err := s.files.GetByNameInFolder(ctx, actorID, name, folderID)
	if err != nil {
		return nil, err
	}

	var fileID, key string
	if existing != nil {
		key = existing.StorageKey
	} else {
		fileID = uuid.NewString()
		key = fileKey(destPrefix, fileID, name)
	}

	if err := s.blobs.Put(ctx, key, body, size, contentType); err != nil {
		s.logger.Error("blob write failed", "key", key, "error", err)
		return nil, fmt.Errorf("store file content: %w", domain.ErrUpstream)
	}

	now := time.Now()
	if existing != nil {
		existing.ByteSize = size
		existing.ContentType = contentType
		existing.UpdatedAt = now
		if err := s.files.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.logger.Info("file overwritten", "id", existing.ID, "name", name, "byte_size", size)
		return existing, nil
	}

	file := &models.File{
		ID:          fileID,
		OwnerID:     actorID,
		FolderID:    folderID,
		Name:        name,
		StorageKey:  key,
		ByteSize:    size,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.files.Create(ctx, file); err != nil {
		return nil, err
	}

	s.logger.Info("file uploaded",
		"id", file.ID,
		"name", name,
		"owner_id", actorID,
		"folder_id", folderID,
		"byte_size", size,
	)

	return file, nil
}

// GetFile retrieves file metadata, requiring any effective permission.
func (s *FileService) GetFile(ctx context.Context, actorID, id string) (*models.File, error) {
	file, perm, err := s.fileWithPermission(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !perm.CanView() {
		return nil, &domain.ForbiddenError{Message: "no access to this file"}
	}
	return file, nil
}

// Open returns the file's metadata and a reader over its full content.
func (s *FileService) Open(ctx context.Context, actorID, id string) (*models.File, io.ReadCloser, error) {
	file, err := s.GetFile(ctx, actorID, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Get(ctx, file.StorageKey)
	if err != nil {
		s.logger.Error("blob read failed", "key", file.StorageKey, "error", err)
		return nil, nil, fmt.Errorf("read file content: %w", domain.ErrUpstream)
	}
	return file, rc, nil
}

// OpenRange returns a reader over bytes [start, end] inclusive.
func (s *FileService) OpenRange(ctx context.Context, actorID, id string, start, end int64) (*models.File, io.ReadCloser, error) {
	file, err := s.GetFile(ctx, actorID, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.GetRange(ctx, file.StorageKey, start, end)
	if err != nil {
		s.logger.Error("blob range read failed", "key", file.StorageKey, "error", err)
		return nil, nil, fmt.Errorf("read file content: %w", domain.ErrUpstream)
	}
	return file, rc, nil
}

// OpenForEditor serves current bytes to the external editor. The editor
// cannot present user credentials; the session descriptor URL itself is the
// capability, so no permission is resolved here.
func (s *FileService) OpenForEditor(ctx context.Context, id string) (*models.File, io.ReadCloser, error) {
	file, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Get(ctx, file.StorageKey)
	if err != nil {
		s.logger.Error("blob read failed", "key", file.StorageKey, "error", err)
		return nil, nil, fmt.Errorf("read file content: %w", domain.ErrUpstream)
	}
	return file, rc, nil
}

// PresignDownload issues a time-limited capability URL for the file content.
func (s *FileService) PresignDownload(ctx context.Context, actorID, id string, expires time.Duration) (string, error) {
	file, err := s.GetFile(ctx, actorID, id)
	if err != nil {
		return "", err
	}

	url, err := s.blobs.PresignGet(ctx, file.StorageKey, expires)
	if err != nil {
		s.logger.Error("presign failed", "key", file.StorageKey, "error", err)
		return "", fmt.Errorf("presign download: %w", domain.ErrUpstream)
	}
	return url, nil
}

// UpdateFile renames and/or moves a file. The storage key is assigned at
// creation and stays put; only metadata changes.
func (s *FileService) UpdateFile(ctx context.Context, actorID, id string, req *models.UpdateFileRequest) (*models.File, error) {
	if req.Name == nil && req.FolderID == nil {
		return nil, &domain.ValidationError{Message: "at least one field must be provided"}
	}

	file, perm, err := s.fileWithPermission(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !perm.CanEdit() {
		return nil, &domain.ForbiddenError{Message: "edit access required"}
	}

	newName := file.Name
	if req.Name != nil {
		newName = sanitizeFilename(*req.Name)
		if newName == "" {
			return nil, &domain.ValidationError{Message: "filename must not be empty"}
		}
	}

	newFolderID := file.FolderID
	if req.FolderID != nil {
		if *req.FolderID == "" {
			newFolderID = nil
		} else {
			target, err := s.folders.GetByID(ctx, *req.FolderID)
			if err != nil {
				return nil, fmt.Errorf("target folder: %w", err)
			}
			targetPerm, err := s.perms.ResolveFolder(ctx, target.ID, actorID)
			if err != nil {
				return nil, err
			}
			if !targetPerm.CanEdit() {
				return nil, &domain.ForbiddenError{Message: "edit access required on target folder"}
			}
			newFolderID = &target.ID
		}
	}

	sibling, err := s.files.GetByNameInFolder(ctx, file.OwnerID, newName, newFolderID)
	if err != nil {
		return nil, err
	}
	if sibling != nil && sibling.ID != file.ID {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("file '%s' already exists at destination", newName),
			ResourceType: "file",
			ResourceID:   sibling.ID,
		}
	}

	file.Name = newName
	file.FolderID = newFolderID
	file.UpdatedAt = time.Now()

	if err := s.files.Update(ctx, file); err != nil {
		return nil, err
	}

	s.logger.Info("file updated", "id", file.ID, "name", file.Name, "folder_id", file.FolderID)
	return file, nil
}

// DeleteFile removes the file. The blob delete is advisory cleanup; the
// metadata row is deleted regardless.
func (s *FileService) DeleteFile(ctx context.Context, actorID, id string) error {
	file, perm, err := s.fileWithPermission(ctx, actorID, id)
	if err != nil {
		return err
	}
	if !perm.CanEdit() {
		return &domain.ForbiddenError{Message: "edit access required"}
	}

	err = s.blobs.Delete(ctx, file.StorageKey)
	logAdvisory(s.logger, "delete file blob", err, "file_id", id, "key", file.StorageKey)

	if err := s.files.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("file deleted", "id", id, "name", file.Name)
	return nil
}

// SaveAs creates a new file next to the source under a different name,
// converting through the external gateway when the extension changes.
// Conversion failures abort the save; no partial file is ever written.
func (s *FileService) SaveAs(ctx context.Context, actorID, id, newName string) (*models.File, error) {
	newName = sanitizeFilename(newName)
	if newName == "" {
		return nil, &domain.ValidationError{Message: "filename must not be empty"}
	}

	source, perm, err := s.fileWithPermission(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !perm.CanView() {
		return nil, &domain.ForbiddenError{Message: "no access to this file"}
	}

	destPrefix := rootPrefix(source.OwnerID)
	if source.FolderID != nil {
		folder, err := s.folders.GetByID(ctx, *source.FolderID)
		if err != nil {
			return nil, fmt.Errorf("source folder: %w", err)
		}
		folderPerm, err := s.perms.ResolveFolder(ctx, folder.ID, actorID)
		if err != nil {
			return nil, err
		}
		if !folderPerm.CanEdit() {
			return nil, &domain.ForbiddenError{Message: "edit access required to save here"}
		}
		destPrefix = folder.StorageKeyPrefix
	} else if source.OwnerID != actorID {
		return nil, &domain.ForbiddenError{Message: "edit access required to save here"}
	}

	existing, err := s.files.GetByNameInFolder(ctx, source.OwnerID, newName, source.FolderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("file '%s' already exists", newName),
			ResourceType: "file",
			ResourceID:   existing.ID,
		}
	}

	sourceExt := fileExtension(source.Name)
	targetExt := fileExtension(newName)

	var body io.ReadCloser
	if targetExt == sourceExt {
		body, err = s.blobs.Get(ctx, source.StorageKey)
		if err != nil {
			s.logger.Error("blob read failed", "key", source.StorageKey, "error", err)
			return nil, fmt.Errorf("read source content: %w", domain.ErrUpstream)
		}
	} else {
		if s.converter == nil {
			return nil, fmt.Errorf("%w: no conversion gateway configured", domain.ErrConversionFailed)
		}

		sourceURL, err := s.blobs.PresignGet(ctx, source.StorageKey, 10*time.Minute)
		if err != nil {
			s.logger.Error("presign failed", "key", source.StorageKey, "error", err)
			return nil, fmt.Errorf("presign source: %w", domain.ErrUpstream)
		}

		outputURL, err := s.converter.Convert(ctx, sourceURL, sourceExt, targetExt, uuid.NewString())
		if err != nil {
			return nil, err
		}

		body, err = s.fetchURL(ctx, outputURL)
		if err != nil {
			s.logger.Error("converted output download failed", "url", outputURL, "error", err)
			return nil, fmt.Errorf("download converted output: %w", domain.ErrUpstream)
		}
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", domain.ErrUpstream)
	}

	contentType := source.ContentType
	if targetExt != sourceExt {
		contentType = contentTypeForName(newName)
	}

	fileID := uuid.NewString()
	key := fileKey(destPrefix, fileID, newName)
	if err := s.blobs.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		s.logger.Error("blob write failed", "key", key, "error", err)
		return nil, fmt.Errorf("store file content: %w", domain.ErrUpstream)
	}

	now := time.Now()
	file := &models.File{
		ID:          fileID,
		OwnerID:     source.OwnerID,
		FolderID:    source.FolderID,
		Name:        newName,
		StorageKey:  key,
		ByteSize:    int64(len(data)),
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.files.Create(ctx, file); err != nil {
		return nil, err
	}

	s.logger.Info("file saved as",
		"source_id", source.ID,
		"id", file.ID,
		"name", newName,
		"converted", targetExt != sourceExt,
	)

	return file, nil
}

func (s *FileService) fileWithPermission(ctx context.Context, actorID, id string) (*models.File, models.Permission, error) {
	file, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, models.PermissionNone, err
	}
	perm, err := s.perms.ResolveFile(ctx, id, actorID)
	if err != nil {
		return nil, models.PermissionNone, err
	}
	return file, perm, nil
}

func (s *FileService) fetchURL(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.New("unexpected status " + resp.Status)
	}
	return resp.Body, nil
}
