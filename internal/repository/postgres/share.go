package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"taskdrive/internal/domain"
	"taskdrive/internal/domain/models"
	"taskdrive/internal/domain/repositories"
)

// PostgresShareRepository implements the ShareRepository interface
type PostgresShareRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewShareRepository creates a new share repository
func NewShareRepository(config *RepositoryConfig) repositories.ShareRepository {
	return &PostgresShareRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Upsert inserts the grant or refreshes the permission of an existing
// (subject, grantee) pair.
func (r *PostgresShareRepository) Upsert(ctx context.Context, share *models.Share) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (subject_type, subject_id, grantee_id, permission, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (subject_type, subject_id, grantee_id)
		DO UPDATE SET permission = EXCLUDED.permission, updated_at = EXCLUDED.updated_at
	`, r.tables.Shares)

	_, err := r.pool.Exec(ctx, query,
		share.SubjectType,
		share.SubjectID,
		share.GranteeID,
		share.Permission,
		share.CreatedAt,
		share.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert share: %w", err)
	}

	return nil
}

// Get returns the grant for a (subject, grantee) pair, or nil, nil if none.
func (r *PostgresShareRepository) Get(ctx context.Context, subjectType models.SubjectType, subjectID, granteeID string) (*models.Share, error) {
	query := fmt.Sprintf(`
		SELECT subject_type, subject_id, grantee_id, permission, created_at, updated_at
		FROM %s
		WHERE subject_type = $1 AND subject_id = $2 AND grantee_id = $3
	`, r.tables.Shares)

	var share models.Share
	err := r.pool.QueryRow(ctx, query, subjectType, subjectID, granteeID).Scan(
		&share.SubjectType,
		&share.SubjectID,
		&share.GranteeID,
		&share.Permission,
		&share.CreatedAt,
		&share.UpdatedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, nil // No grant, not an error
		}
		return nil, fmt.Errorf("get share: %w", err)
	}

	return &share, nil
}

// Delete removes a grant
func (r *PostgresShareRepository) Delete(ctx context.Context, subjectType models.SubjectType, subjectID, granteeID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE subject_type = $1 AND subject_id = $2 AND grantee_id = $3
	`, r.tables.Shares)

	result, err := r.pool.Exec(ctx, query, subjectType, subjectID, granteeID)
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("share for user %s: %w", granteeID, domain.ErrNotFound)
	}

	return nil
}

// ListBySubject lists all grants on a folder or file
func (r *PostgresShareRepository) ListBySubject(ctx context.Context, subjectType models.SubjectType, subjectID string) ([]models.Share, error) {
	query := fmt.Sprintf(`
		SELECT subject_type, subject_id, grantee_id, permission, created_at, updated_at
		FROM %s
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY created_at ASC
	`, r.tables.Shares)

	rows, err := r.pool.Query(ctx, query, subjectType, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	var shares []models.Share
	for rows.Next() {
		var share models.Share
		err := rows.Scan(
			&share.SubjectType,
			&share.SubjectID,
			&share.GranteeID,
			&share.Permission,
			&share.CreatedAt,
			&share.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, share)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}

	return shares, nil
}
