package models

import (
	"time"
)

type Folder struct {
	ID               string    `json:"id" db:"id"`
	OwnerID          string    `json:"owner_id" db:"owner_id"`
	ParentID         *string   `json:"parent_id" db:"parent_id"` // NULL = root level
	Name             string    `json:"name" db:"name"`
	StorageKeyPrefix string    `json:"-" db:"storage_key_prefix"` // Derived blob path, not exposed
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

type CreateFolderRequest struct {
	ParentID *string `json:"parent_id,omitempty"`
	Name     string  `json:"name"`
}

type UpdateFolderRequest struct {
	ParentID *string `json:"parent_id,omitempty"`
	Name     *string `json:"name,omitempty"`
}

// Breadcrumb is one segment of the ancestor chain shown when browsing a folder.
type Breadcrumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FolderContents is the browse response for a folder (or the root when
// CurrentFolder is nil).
type FolderContents struct {
	CurrentFolder *Folder      `json:"current_folder"`
	Breadcrumbs   []Breadcrumb `json:"breadcrumbs"`
	Folders       []Folder     `json:"folders"`
	Files         []File       `json:"files"`
}
