package models

import (
	"time"
)

type File struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	FolderID    *string   `json:"folder_id" db:"folder_id"` // NULL = owner's root
	Name        string    `json:"name" db:"name"`
	StorageKey  string    `json:"-" db:"storage_key"` // Blob key, not exposed
	ByteSize    int64     `json:"byte_size" db:"byte_size"`
	ContentType string    `json:"content_type" db:"content_type"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type UpdateFileRequest struct {
	FolderID *string `json:"folder_id,omitempty"`
	Name     *string `json:"name,omitempty"`
}

type SaveAsRequest struct {
	Name string `json:"name"`
}
