package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/models"
)

// userColumns are the joined user+role columns every user query selects, in
// scanUserRow order.
var userColumns = []string{
	"u.id", "u.username", "u.email", "u.password_hash", "u.role_id",
	"u.active", "u.created_by", "u.created_at",
	"r.name", "r.description", "r.permissions",
}

// userRepository is the PostgreSQL-backed implementation of [UserRepository].
// Every lookup joins the roles table so callers always receive a principal
// with its role and permission set resolved.
type userRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewUserRepository constructs a [UserRepository] backed by the provided
// database connection and logger.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating user repository")
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanUserRow reads one joined user+role row. The role's permission set is
// stored as JSONB and unmarshalled here.
func scanUserRow(row rowScanner) (models.User, error) {
	var user models.User
	var createdBy sql.NullInt64
	var permissions []byte

	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.RoleID,
		&user.Active, &createdBy, &user.CreatedAt,
		&user.Role.Name, &user.Role.Description, &permissions,
	)
	if err != nil {
		return models.User{}, err
	}

	if createdBy.Valid {
		user.CreatedBy = &createdBy.Int64
	}
	if err := json.Unmarshal(permissions, &user.Role.Permissions); err != nil {
		return models.User{}, fmt.Errorf("decode role permissions: %w", err)
	}
	user.Role.ID = user.RoleID

	return user, nil
}

func (r *userRepository) selectUsers() sq.SelectBuilder {
	return psql.Select(userColumns...).
		From("users u").
		Join("roles r ON r.id = u.role_id")
}

// CreateUser persists a new user record and returns the fully populated
// [models.User] with server-assigned fields (ID, CreatedAt).
//
// Error handling:
//   - PostgreSQL unique_violation (23505) → [ErrIdentifierTaken].
//   - PostgreSQL foreign_key_violation (23503) → [ErrRoleNotFound].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (r *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.Insert("users").
		Columns("username", "email", "password_hash", "role_id", "active", "created_by").
		Values(user.Username, user.Email, user.PasswordHash, user.RoleID, user.Active, user.CreatedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("error building sql query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Str("username", user.Username).Msg("user insert failed")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.User{}, ErrIdentifierTaken
		case pgerrcode.ForeignKeyViolation:
			return models.User{}, ErrRoleNotFound
		default:
			return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	return user, nil
}

// FindUserByIdentifier retrieves the user whose email OR username matches
// identifier. Returns [ErrNoUserWasFound] for an empty result set.
func (r *userRepository) FindUserByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.selectUsers().
		Where(sq.Or{sq.Eq{"u.email": identifier}, sq.Eq{"u.username": identifier}}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("error building sql query: %w", err)
	}

	user, err := scanUserRow(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNoUserWasFound
		}
		log.Err(err).Str("func", "*userRepository.FindUserByIdentifier").Msg("user lookup failed")
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return user, nil
}

// FindUserByID retrieves a user by primary key.
// Returns [ErrNoUserWasFound] for an empty result set.
func (r *userRepository) FindUserByID(ctx context.Context, id int64) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.selectUsers().Where(sq.Eq{"u.id": id}).ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("error building sql query: %w", err)
	}

	user, err := scanUserRow(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNoUserWasFound
		}
		log.Err(err).Str("func", "*userRepository.FindUserByID").Int64("id", id).Msg("user lookup failed")
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return user, nil
}

// UpdateUser applies a partial update built dynamically from the non-nil
// fields of update. A no-op update (all fields nil) returns nil without
// touching the database.
func (r *userRepository) UpdateUser(ctx context.Context, update models.UserUpdate) error {
	log := logger.FromContext(ctx)

	builder := psql.Update("users")
	touched := false

	if update.Username != nil {
		builder = builder.Set("username", *update.Username)
		touched = true
	}
	if update.Email != nil {
		builder = builder.Set("email", *update.Email)
		touched = true
	}
	if update.PasswordHash != nil {
		builder = builder.Set("password_hash", *update.PasswordHash)
		touched = true
	}
	if update.RoleID != nil {
		builder = builder.Set("role_id", *update.RoleID)
		touched = true
	}
	if update.Active != nil {
		builder = builder.Set("active", *update.Active)
		touched = true
	}

	if !touched {
		return nil
	}

	query, args, err := builder.Where(sq.Eq{"id": update.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("error building sql query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.UpdateUser").Int64("id", update.ID).Msg("user update failed")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return ErrIdentifierTaken
		case pgerrcode.ForeignKeyViolation:
			return ErrRoleNotFound
		default:
			return fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}
	if affected == 0 {
		return ErrNoUserWasFound
	}

	return nil
}

// DeleteUser removes a user row. File metadata cascades are the service
// layer's responsibility and must already have happened.
func (r *userRepository) DeleteUser(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	query, args, err := psql.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("error building sql query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.DeleteUser").Int64("id", id).Msg("user delete failed")
		return fmt.Errorf("unexpected DB error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}
	if affected == 0 {
		return ErrNoUserWasFound
	}

	return nil
}

// ListUsers returns users ordered by creation time, optionally restricted to
// those provisioned by createdBy.
func (r *userRepository) ListUsers(ctx context.Context, createdBy *int64) ([]models.User, error) {
	log := logger.FromContext(ctx)

	builder := r.selectUsers().OrderBy("u.created_at DESC")
	if createdBy != nil {
		builder = builder.Where(sq.Eq{"u.created_by": *createdBy})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building sql query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.ListUsers").Msg("user list failed")
		return nil, fmt.Errorf("unexpected DB error: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan user rows: %w", err)
	}

	return users, nil
}
