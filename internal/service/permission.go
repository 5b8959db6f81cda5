package service

import (
	"context"
	"fmt"

	"taskdrive/internal/domain"
	"taskdrive/internal/domain/models"
	"taskdrive/internal/domain/repositories"
)

// maxAncestorDepth bounds ancestor walks. The tree is acyclic by the move
// invariant, so legitimate chains are only as deep as the tree; the bound
// exists to turn a corrupted parent chain into an error instead of a hang.
// Exceeding it is reported, never silently truncated.
const maxAncestorDepth = 256

// PermissionResolver computes effective access for a user against a folder
// or file from ownership and share grants on the ancestor chain.
type PermissionResolver struct {
	folders repositories.FolderRepository
	files   repositories.FileRepository
	shares  repositories.ShareRepository
}

// NewPermissionResolver creates a new permission resolver
func NewPermissionResolver(
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	shares repositories.ShareRepository,
) *PermissionResolver {
	return &PermissionResolver{
		folders: folders,
		files:   files,
		shares:  shares,
	}
}

// ResolveFolder returns the effective permission of userID on a folder.
//
// Ownership is per-folder: owning the folder itself grants edit, but owning
// an ancestor does not. What inherits down the tree is share grants - the
// walk over parent pointers looks only for a grant to userID on each
// ancestor. PermissionNone is returned when the walk reaches the root
// without a match.
func (r *PermissionResolver) ResolveFolder(ctx context.Context, folderID, userID string) (models.Permission, error) {
	folder, err := r.folders.GetByID(ctx, folderID)
	if err != nil {
		return models.PermissionNone, err
	}

	if folder.OwnerID == userID {
		return models.PermissionEdit, nil
	}

	for depth := 0; depth < maxAncestorDepth; depth++ {
		share, err := r.shares.Get(ctx, models.SubjectFolder, folder.ID, userID)
		if err != nil {
			return models.PermissionNone, err
		}
		if share != nil {
			return share.Permission, nil
		}

		if folder.ParentID == nil {
			return models.PermissionNone, nil
		}

		folder, err = r.folders.GetByID(ctx, *folder.ParentID)
		if err != nil {
			return models.PermissionNone, err
		}
	}

	return models.PermissionNone, fmt.Errorf(
		"folder %s: ancestor chain exceeds %d levels, parent links may be corrupted: %w",
		folderID, maxAncestorDepth, domain.ErrUpstream,
	)
}

// ResolveFile returns the effective permission of userID on a file: edit for
// the owner, else a direct file share, else whatever the containing folder
// resolves to. Files with no parent folder and no direct share resolve to
// PermissionNone for non-owners.
func (r *PermissionResolver) ResolveFile(ctx context.Context, fileID, userID string) (models.Permission, error) {
	file, err := r.files.GetByID(ctx, fileID)
	if err != nil {
		return models.PermissionNone, err
	}

	if file.OwnerID == userID {
		return models.PermissionEdit, nil
	}

	share, err := r.shares.Get(ctx, models.SubjectFile, file.ID, userID)
	if err != nil {
		return models.PermissionNone, err
	}
	if share != nil {
		return share.Permission, nil
	}

	if file.FolderID == nil {
		return models.PermissionNone, nil
	}

	return r.ResolveFolder(ctx, *file.FolderID, userID)
}

// breadcrumbs walks the ancestor chain from folderID to the root and returns
// it root-first.
func (r *PermissionResolver) breadcrumbs(ctx context.Context, folderID string) ([]models.Breadcrumb, error) {
	var trail []models.Breadcrumb

	current := folderID
	for depth := 0; depth < maxAncestorDepth; depth++ {
		folder, err := r.folders.GetByID(ctx, current)
		if err != nil {
			return nil, err
		}
		trail = append(trail, models.Breadcrumb{ID: folder.ID, Name: folder.Name})

		if folder.ParentID == nil {
			// Reverse to root-first order
			for i, j := 0, len(trail)-1; i < j; i, j = i+1, j-1 {
				trail[i], trail[j] = trail[j], trail[i]
			}
			return trail, nil
		}
		current = *folder.ParentID
	}

	return nil, fmt.Errorf(
		"folder %s: ancestor chain exceeds %d levels, parent links may be corrupted: %w",
		folderID, maxAncestorDepth, domain.ErrUpstream,
	)
}
