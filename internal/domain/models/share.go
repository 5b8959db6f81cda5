package models

import (
	"time"
)

// SubjectType identifies what kind of resource a share grant applies to.
type SubjectType string

const (
	SubjectFolder SubjectType = "folder"
	SubjectFile   SubjectType = "file"
)

// Share is one access grant on a folder or file. There is at most one grant
// per (subject, grantee) pair; re-sharing upserts the permission level.
// Ownership is implicit full edit access and is never stored as a share row.
type Share struct {
	SubjectType SubjectType `json:"subject_type" db:"subject_type"`
	SubjectID   string      `json:"subject_id" db:"subject_id"`
	GranteeID   string      `json:"grantee_id" db:"grantee_id"`
	Permission  Permission  `json:"permission" db:"permission"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

type ShareRequest struct {
	UserIDs    []string   `json:"user_ids"`
	Permission Permission `json:"permission"`
}
