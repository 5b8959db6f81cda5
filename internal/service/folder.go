package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"taskdrive/internal/blob"
	"taskdrive/internal/domain"
	"taskdrive/internal/domain/models"
	"taskdrive/internal/domain/repositories"
)

const maxFolderNameLength = 255

var folderNamePattern = regexp.MustCompile(`^[^/]+$`)

// FolderService owns the folder side of the storage tree: create, rename,
// move, delete and browse.
type FolderService struct {
	folders repositories.FolderRepository
	files   repositories.FileRepository
	blobs   blob.Store
	perms   *PermissionResolver
	logger  *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	blobs blob.Store,
	perms *PermissionResolver,
	logger *slog.Logger,
) *FolderService {
	return &FolderService{
		folders: folders,
		files:   files,
		blobs:   blobs,
		perms:   perms,
		logger:  logger,
	}
}

// CreateFolder creates a folder owned by actorID under the given parent
// (root when req.ParentID is nil). Creating inside someone else's folder
// requires an edit grant on it.
func (s *FolderService) CreateFolder(ctx context.Context, actorID string, req *models.CreateFolderRequest) (*models.Folder, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Normalize empty string to nil for root-level folders
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	parentPrefix := rootPrefix(actorID)
	if req.ParentID != nil {
		parent, err := s.folders.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent folder: %w", err)
		}
		if err := s.requireEdit(ctx, parent.ID, actorID); err != nil {
			return nil, err
		}
		parentPrefix = parent.StorageKeyPrefix
	}

	existing, err := s.folders.GetByNameAndParent(ctx, actorID, req.Name, req.ParentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("folder '%s' already exists", req.Name),
			ResourceType: "folder",
			ResourceID:   existing.ID,
		}
	}

	now := time.Now()
	folder := &models.Folder{
		ID:               uuid.NewString(),
		OwnerID:          actorID,
		ParentID:         req.ParentID,
		Name:             req.Name,
		StorageKeyPrefix: childPrefix(parentPrefix, req.Name),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.folders.Create(ctx, folder); err != nil {
		return nil, err
	}

	// The blob store has no native folder concept; an empty marker object
	// makes the prefix visible. Advisory: a failure here never fails the
	// create.
	err = s.blobs.Put(ctx, folder.StorageKeyPrefix, strings.NewReader(""), 0, "")
	logAdvisory(s.logger, "create folder marker", err, "folder_id", folder.ID, "key", folder.StorageKeyPrefix)

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner_id", actorID,
		"parent_id", req.ParentID,
	)

	return folder, nil
}

// GetFolder retrieves a folder, requiring any effective permission on it.
func (s *FolderService) GetFolder(ctx context.Context, actorID, id string) (*models.Folder, error) {
	folder, err := s.folders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	perm, err := s.perms.ResolveFolder(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if !perm.CanView() {
		return nil, &domain.ForbiddenError{Message: "no access to this folder"}
	}

	return folder, nil
}

// UpdateFolder renames and/or moves a folder.
//
// Moves fail when the target is the folder itself, when the target is a
// descendant of the folder (detected by walking the target's ancestor
// chain), or when the destination already holds a same-named sibling owned
// by the same user.
func (s *FolderService) UpdateFolder(ctx context.Context, actorID, id string, req *models.UpdateFolderRequest) (*models.Folder, error) {
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	folder, err := s.folders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireEdit(ctx, folder.ID, actorID); err != nil {
		return nil, err
	}

	newName := folder.Name
	if req.Name != nil {
		newName = strings.TrimSpace(*req.Name)
	}

	newParentID := folder.ParentID
	if req.ParentID != nil {
		if *req.ParentID == "" {
			newParentID = nil
		} else {
			if *req.ParentID == id {
				return nil, fmt.Errorf("%w: folder cannot become its own parent", domain.ErrInvalidMove)
			}

			target, err := s.folders.GetByID(ctx, *req.ParentID)
			if err != nil {
				return nil, fmt.Errorf("target folder: %w", err)
			}
			if err := s.ensureNotDescendant(ctx, id, target.ID); err != nil {
				return nil, err
			}
			if err := s.requireEdit(ctx, target.ID, actorID); err != nil {
				return nil, err
			}
			newParentID = &target.ID
		}
	}

	sibling, err := s.folders.GetByNameAndParent(ctx, folder.OwnerID, newName, newParentID)
	if err != nil {
		return nil, err
	}
	if sibling != nil && sibling.ID != folder.ID {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("folder '%s' already exists at destination", newName),
			ResourceType: "folder",
			ResourceID:   sibling.ID,
		}
	}

	folder.Name = newName
	folder.ParentID = newParentID
	folder.UpdatedAt = time.Now()

	if err := s.folders.Update(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder updated",
		"id", folder.ID,
		"name", folder.Name,
		"parent_id", folder.ParentID,
	)

	return folder, nil
}

// DeleteFolder deletes a folder and its whole subtree. Blob objects under
// the folder's storage prefix are removed best-effort first; metadata
// deletion proceeds regardless, favoring availability over storage-leak
// prevention. Descendant rows go with the folder via cascading deletes in
// the persistence layer.
func (s *FolderService) DeleteFolder(ctx context.Context, actorID, id string) error {
	folder, err := s.folders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireEdit(ctx, folder.ID, actorID); err != nil {
		return err
	}

	keys, err := s.blobs.ListPrefix(ctx, folder.StorageKeyPrefix)
	logAdvisory(s.logger, "list folder blobs", err, "folder_id", id, "prefix", folder.StorageKeyPrefix)
	if err == nil && len(keys) > 0 {
		failures, err := s.blobs.DeleteBatch(ctx, keys)
		logAdvisory(s.logger, "delete folder blobs", err, "folder_id", id)
		for key, delErr := range failures {
			logAdvisory(s.logger, "delete folder blob", delErr, "folder_id", id, "key", key)
		}
	}

	if err := s.folders.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("folder deleted",
		"id", id,
		"name", folder.Name,
		"owner_id", folder.OwnerID,
	)

	return nil
}

// ListChildren returns the browse view for a folder, or for the requester's
// root when parentID is nil.
//
// Root browsing shows only items the requester owns. Inside a folder the
// requester can access at any level, all children are listed regardless of
// owner: access to a folder implies visibility of its full contents.
func (s *FolderService) ListChildren(ctx context.Context, actorID string, parentID *string) (*models.FolderContents, error) {
	if parentID == nil || *parentID == "" {
		folders, err := s.folders.ListRoot(ctx, actorID)
		if err != nil {
			return nil, err
		}
		files, err := s.files.ListRoot(ctx, actorID)
		if err != nil {
			return nil, err
		}
		return &models.FolderContents{Folders: folders, Files: files}, nil
	}

	folder, err := s.folders.GetByID(ctx, *parentID)
	if err != nil {
		return nil, err
	}

	perm, err := s.perms.ResolveFolder(ctx, folder.ID, actorID)
	if err != nil {
		return nil, err
	}
	if !perm.CanView() {
		return nil, &domain.ForbiddenError{Message: "no access to this folder"}
	}

	folders, err := s.folders.ListByParent(ctx, folder.ID)
	if err != nil {
		return nil, err
	}
	files, err := s.files.ListByFolder(ctx, folder.ID)
	if err != nil {
		return nil, err
	}
	trail, err := s.perms.breadcrumbs(ctx, folder.ID)
	if err != nil {
		return nil, err
	}

	return &models.FolderContents{
		CurrentFolder: folder,
		Breadcrumbs:   trail,
		Folders:       folders,
		Files:         files,
	}, nil
}

// ensureNotDescendant rejects a move of folderID under targetID when
// targetID sits inside folderID's subtree. The walk is bounded only by the
// defensive ancestor cap; the tree itself is acyclic by construction.
func (s *FolderService) ensureNotDescendant(ctx context.Context, folderID, targetID string) error {
	current := targetID
	for depth := 0; depth < maxAncestorDepth; depth++ {
		folder, err := s.folders.GetByID(ctx, current)
		if err != nil {
			return err
		}
		if folder.ParentID == nil {
			return nil
		}
		if *folder.ParentID == folderID {
			return fmt.Errorf("%w: target folder is a descendant", domain.ErrCyclicMove)
		}
		current = *folder.ParentID
	}

	return fmt.Errorf(
		"folder %s: ancestor chain exceeds %d levels, parent links may be corrupted: %w",
		targetID, maxAncestorDepth, domain.ErrUpstream,
	)
}

func (s *FolderService) requireEdit(ctx context.Context, folderID, actorID string) error {
	perm, err := s.perms.ResolveFolder(ctx, folderID, actorID)
	if err != nil {
		return err
	}
	if !perm.CanEdit() {
		return &domain.ForbiddenError{Message: "edit access required"}
	}
	return nil
}

// validateCreateRequest validates a folder creation request
func (s *FolderService) validateCreateRequest(req *models.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, maxFolderNameLength),
			validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
		),
	)
}

// validateUpdateRequest validates a folder update request
func (s *FolderService) validateUpdateRequest(req *models.UpdateFolderRequest) error {
	// At least one field must be provided
	if req.Name == nil && req.ParentID == nil {
		return fmt.Errorf("at least one field must be provided")
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if err := validation.Validate(trimmed,
			validation.Required,
			validation.Length(1, maxFolderNameLength),
			validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
		); err != nil {
			return err
		}
	}

	return nil
}
