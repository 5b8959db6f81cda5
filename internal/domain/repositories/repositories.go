package repositories

import (
	"context"

	"taskdrive/internal/domain/models"
)

// FolderRepository persists folder metadata rows.
//
// Implementations must enforce (owner_id, parent_id, name) uniqueness and
// cascade row deletion to descendant folders and files
// (referential-integrity responsibility of the persistence layer).
// Grants on deleted subjects become inert; resolution never sees them.
type FolderRepository interface {
	Create(ctx context.Context, folder *models.Folder) error
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	// GetByNameAndParent returns nil, nil when no matching folder exists.
	GetByNameAndParent(ctx context.Context, ownerID, name string, parentID *string) (*models.Folder, error)
	Update(ctx context.Context, folder *models.Folder) error
	Delete(ctx context.Context, id string) error
	// ListRoot lists root-level folders owned by ownerID. Root browsing only
	// ever shows the requester's own items.
	ListRoot(ctx context.Context, ownerID string) ([]models.Folder, error)
	// ListByParent lists all immediate child folders regardless of owner.
	// Access to a folder implies visibility of its full contents.
	ListByParent(ctx context.Context, parentID string) ([]models.Folder, error)
}

// FileRepository persists file metadata rows.
type FileRepository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id string) (*models.File, error)
	// GetByNameInFolder returns nil, nil when no matching file exists.
	// folderID nil means the owner's root.
	GetByNameInFolder(ctx context.Context, ownerID, name string, folderID *string) (*models.File, error)
	Update(ctx context.Context, file *models.File) error
	Delete(ctx context.Context, id string) error
	ListRoot(ctx context.Context, ownerID string) ([]models.File, error)
	ListByFolder(ctx context.Context, folderID string) ([]models.File, error)
}

// ShareRepository persists access grants.
type ShareRepository interface {
	// Upsert inserts the grant or updates the permission of an existing
	// (subject, grantee) pair.
	Upsert(ctx context.Context, share *models.Share) error
	// Get returns nil, nil when no grant exists for the pair.
	Get(ctx context.Context, subjectType models.SubjectType, subjectID, granteeID string) (*models.Share, error)
	Delete(ctx context.Context, subjectType models.SubjectType, subjectID, granteeID string) error
	ListBySubject(ctx context.Context, subjectType models.SubjectType, subjectID string) ([]models.Share, error)
}
