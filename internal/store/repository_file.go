package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/models"
)

// fileRepository is the PostgreSQL-backed implementation of [FileRepository].
type fileRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewFileRepository constructs a [FileRepository] backed by the provided
// database connection and logger.
func NewFileRepository(db *DB, logger *logger.Logger) FileRepository {
	logger.Debug().Msg("creating file repository")
	return &fileRepository{
		db:     db,
		logger: logger,
	}
}

var fileColumns = []string{"id", "owner_id", "stored_name", "original_name", "mime_type", "size", "created_at"}

func scanFileRow(row rowScanner) (models.FileMetadata, error) {
	var meta models.FileMetadata
	err := row.Scan(
		&meta.ID, &meta.OwnerID, &meta.StoredName, &meta.OriginalName,
		&meta.MimeType, &meta.Size, &meta.CreatedAt,
	)
	return meta, err
}

// CreateFile persists a file metadata record and returns it with
// server-assigned fields (ID, CreatedAt).
//
// The owner reference is checked by the service layer before this call; the
// database foreign key is the backstop. A foreign_key_violation (23503) is
// reported as [ErrOwnerNotFound].
func (r *fileRepository) CreateFile(ctx context.Context, meta models.FileMetadata) (models.FileMetadata, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.Insert("files").
		Columns("owner_id", "stored_name", "original_name", "mime_type", "size").
		Values(meta.OwnerID, meta.StoredName, meta.OriginalName, meta.MimeType, meta.Size).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return models.FileMetadata{}, fmt.Errorf("error building sql query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&meta.ID, &meta.CreatedAt); err != nil {
		log.Err(err).Str("func", "*fileRepository.CreateFile").Int64("owner_id", meta.OwnerID).Msg("file insert failed")

		switch postgresError(err) {
		case pgerrcode.ForeignKeyViolation:
			return models.FileMetadata{}, ErrOwnerNotFound
		default:
			return models.FileMetadata{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	return meta, nil
}

// FindFileByID retrieves a file metadata record by primary key.
// Returns [ErrFileNotFound] for an empty result set.
func (r *fileRepository) FindFileByID(ctx context.Context, id int64) (models.FileMetadata, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.Select(fileColumns...).
		From("files").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.FileMetadata{}, fmt.Errorf("error building sql query: %w", err)
	}

	meta, err := scanFileRow(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FileMetadata{}, ErrFileNotFound
		}
		log.Err(err).Str("func", "*fileRepository.FindFileByID").Int64("id", id).Msg("file lookup failed")
		return models.FileMetadata{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return meta, nil
}

// DeleteFile removes a file metadata record. The caller must have removed
// the blob first — metadata is never deleted while ciphertext still exists.
func (r *fileRepository) DeleteFile(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	query, args, err := psql.Delete("files").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("error building sql query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*fileRepository.DeleteFile").Int64("id", id).Msg("file delete failed")
		return fmt.Errorf("unexpected DB error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}
	if affected == 0 {
		return ErrFileNotFound
	}

	return nil
}

// ListFilesByOwner returns the metadata of every file owned by ownerID,
// newest first.
func (r *fileRepository) ListFilesByOwner(ctx context.Context, ownerID int64) ([]models.FileMetadata, error) {
	return r.listFiles(ctx, psql.Select(fileColumns...).
		From("files").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC"))
}

// ListAllFiles returns every file metadata record, newest first.
func (r *fileRepository) ListAllFiles(ctx context.Context) ([]models.FileMetadata, error) {
	return r.listFiles(ctx, psql.Select(fileColumns...).
		From("files").
		OrderBy("created_at DESC"))
}

func (r *fileRepository) listFiles(ctx context.Context, builder sq.SelectBuilder) ([]models.FileMetadata, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building sql query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*fileRepository.listFiles").Msg("file list failed")
		return nil, fmt.Errorf("unexpected DB error: %w", err)
	}
	defer rows.Close()

	var metas []models.FileMetadata
	for rows.Next() {
		meta, err := scanFileRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		metas = append(metas, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan file rows: %w", err)
	}

	return metas, nil
}
