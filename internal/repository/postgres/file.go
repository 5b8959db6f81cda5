package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"taskdrive/internal/domain"
	"taskdrive/internal/domain/models"
	"taskdrive/internal/domain/repositories"
)

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const fileColumns = "id, owner_id, folder_id, name, storage_key, byte_size, content_type, created_at, updated_at"

func scanFile(row interface{ Scan(dest ...any) error }, file *models.File) error {
	return row.Scan(
		&file.ID,
		&file.OwnerID,
		&file.FolderID,
		&file.Name,
		&file.StorageKey,
		&file.ByteSize,
		&file.ContentType,
		&file.CreatedAt,
		&file.UpdatedAt,
	)
}

// Create creates a new file record
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, folder_id, name, storage_key, byte_size, content_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Files)

	_, err := r.pool.Exec(ctx, query,
		file.ID,
		file.OwnerID,
		file.FolderID,
		file.Name,
		file.StorageKey,
		file.ByteSize,
		file.ContentType,
		file.CreatedAt,
		file.UpdatedAt,
	)

	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("file '%s' already exists", file.Name),
				ResourceType: "file",
			}
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// GetByID retrieves a file by ID
func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, fileColumns, r.tables.Files)

	var file models.File
	err := scanFile(r.pool.QueryRow(ctx, query, id), &file)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return &file, nil
}

// GetByNameInFolder finds a file by name within a folder (nil folderID means
// the owner's root). Returns nil, nil when no matching file exists. This is
// the lookup behind the explicit upsert-by-name upload policy.
func (r *PostgresFileRepository) GetByNameInFolder(ctx context.Context, ownerID, name string, folderID *string) (*models.File, error) {
	var query string
	var args []interface{}

	if folderID == nil {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE owner_id = $1 AND name = $2 AND folder_id IS NULL
		`, fileColumns, r.tables.Files)
		args = append(args, ownerID, name)
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE owner_id = $1 AND name = $2 AND folder_id = $3
		`, fileColumns, r.tables.Files)
		args = append(args, ownerID, name, *folderID)
	}

	var file models.File
	err := scanFile(r.pool.QueryRow(ctx, query, args...), &file)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, nil // Not found, not an error
		}
		return nil, fmt.Errorf("get file by name in folder: %w", err)
	}

	return &file, nil
}

// Update updates a file record
func (r *PostgresFileRepository) Update(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1, name = $2, storage_key = $3, byte_size = $4, content_type = $5, updated_at = $6
		WHERE id = $7
	`, r.tables.Files)

	result, err := r.pool.Exec(ctx, query,
		file.FolderID,
		file.Name,
		file.StorageKey,
		file.ByteSize,
		file.ContentType,
		file.UpdatedAt,
		file.ID,
	)

	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("file '%s' already exists", file.Name),
				ResourceType: "file",
			}
		}
		return fmt.Errorf("update file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", file.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a file row. Any share grants on the file become inert;
// resolution never reads grants for missing subjects.
func (r *PostgresFileRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.Files)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListRoot lists root-level files owned by ownerID
func (r *PostgresFileRepository) ListRoot(ctx context.Context, ownerID string) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND folder_id IS NULL
		ORDER BY name ASC
	`, fileColumns, r.tables.Files)

	return r.queryFiles(ctx, query, ownerID)
}

// ListByFolder lists all files in a folder regardless of owner
func (r *PostgresFileRepository) ListByFolder(ctx context.Context, folderID string) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE folder_id = $1
		ORDER BY name ASC
	`, fileColumns, r.tables.Files)

	return r.queryFiles(ctx, query, folderID)
}

func (r *PostgresFileRepository) queryFiles(ctx context.Context, query string, args ...interface{}) ([]models.File, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		var file models.File
		if err := scanFile(rows, &file); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}
