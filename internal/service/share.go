package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskdrive/internal/domain"
	"taskdrive/internal/domain/models"
	"taskdrive/internal/domain/repositories"
)

// ShareService is the sharing ledger: add, remove and list access grants on
// folders and files. All operations are owner-only.
type ShareService struct {
	folders repositories.FolderRepository
	files   repositories.FileRepository
	shares  repositories.ShareRepository
	logger  *slog.Logger
}

// NewShareService creates a new share service
func NewShareService(
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	shares repositories.ShareRepository,
	logger *slog.Logger,
) *ShareService {
	return &ShareService{
		folders: folders,
		files:   files,
		shares:  shares,
		logger:  logger,
	}
}

// Share grants the given permission to each user. One grant exists per
// (subject, grantee) pair; re-sharing updates the level. The owner never
// appears in the ledger - ownership is implicit full edit access.
func (s *ShareService) Share(ctx context.Context, actorID string, subjectType models.SubjectType, subjectID string, req *models.ShareRequest) ([]models.Share, error) {
	if len(req.UserIDs) == 0 {
		return nil, &domain.ValidationError{Message: "user_ids must not be empty"}
	}
	if !req.Permission.Valid() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("permission must be %q or %q", models.PermissionView, models.PermissionEdit)}
	}

	ownerID, err := s.subjectOwner(ctx, subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	if ownerID != actorID {
		return nil, &domain.ForbiddenError{Message: "only the owner can manage shares"}
	}

	now := time.Now()
	granted := make([]models.Share, 0, len(req.UserIDs))
	for _, granteeID := range req.UserIDs {
		if granteeID == "" {
			return nil, &domain.ValidationError{Message: "user id must not be empty"}
		}
		if granteeID == ownerID {
			return nil, &domain.ValidationError{Message: "cannot share with the owner"}
		}

		share := models.Share{
			SubjectType: subjectType,
			SubjectID:   subjectID,
			GranteeID:   granteeID,
			Permission:  req.Permission,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.shares.Upsert(ctx, &share); err != nil {
			return nil, err
		}
		granted = append(granted, share)
	}

	s.logger.Info("shares granted",
		"subject_type", subjectType,
		"subject_id", subjectID,
		"grantees", len(granted),
		"permission", req.Permission,
	)

	return granted, nil
}

// Unshare revokes a grant.
func (s *ShareService) Unshare(ctx context.Context, actorID string, subjectType models.SubjectType, subjectID, granteeID string) error {
	ownerID, err := s.subjectOwner(ctx, subjectType, subjectID)
	if err != nil {
		return err
	}
	if ownerID != actorID {
		return &domain.ForbiddenError{Message: "only the owner can manage shares"}
	}

	if err := s.shares.Delete(ctx, subjectType, subjectID, granteeID); err != nil {
		return err
	}

	s.logger.Info("share revoked",
		"subject_type", subjectType,
		"subject_id", subjectID,
		"grantee_id", granteeID,
	)

	return nil
}

// ListShares lists all grants on a folder or file.
func (s *ShareService) ListShares(ctx context.Context, actorID string, subjectType models.SubjectType, subjectID string) ([]models.Share, error) {
	ownerID, err := s.subjectOwner(ctx, subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	if ownerID != actorID {
		return nil, &domain.ForbiddenError{Message: "only the owner can manage shares"}
	}

	return s.shares.ListBySubject(ctx, subjectType, subjectID)
}

func (s *ShareService) subjectOwner(ctx context.Context, subjectType models.SubjectType, subjectID string) (string, error) {
	switch subjectType {
	case models.SubjectFolder:
		folder, err := s.folders.GetByID(ctx, subjectID)
		if err != nil {
			return "", err
		}
		return folder.OwnerID, nil
	case models.SubjectFile:
		file, err := s.files.GetByID(ctx, subjectID)
		if err != nil {
			return "", err
		}
		return file.OwnerID, nil
	default:
		return "", &domain.ValidationError{Message: "unknown share subject type"}
	}
}
