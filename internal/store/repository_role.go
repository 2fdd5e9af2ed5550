package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/models"
)

// roleRepository is the PostgreSQL-backed implementation of [RoleRepository].
// Roles are seeded by migrations; at runtime they are read-only.
type roleRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewRoleRepository constructs a [RoleRepository] backed by the provided
// database connection and logger.
func NewRoleRepository(db *DB, logger *logger.Logger) RoleRepository {
	logger.Debug().Msg("creating role repository")
	return &roleRepository{
		db:     db,
		logger: logger,
	}
}

// FindRoleByName resolves a role by its name. Names outside the closed
// vocabulary are rejected before touching the database. Returns
// [ErrRoleNotFound] when no record matches.
func (r *roleRepository) FindRoleByName(ctx context.Context, name models.RoleName) (models.Role, error) {
	log := logger.FromContext(ctx)

	if !name.Valid() {
		return models.Role{}, ErrRoleNotFound
	}

	query, args, err := psql.Select("id", "name", "description", "permissions", "created_at").
		From("roles").
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return models.Role{}, fmt.Errorf("error building sql query: %w", err)
	}

	var role models.Role
	var permissions []byte
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &permissions, &role.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Role{}, ErrRoleNotFound
		}
		log.Err(err).Str("func", "*roleRepository.FindRoleByName").Str("role", string(name)).Msg("role lookup failed")
		return models.Role{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := json.Unmarshal(permissions, &role.Permissions); err != nil {
		return models.Role{}, fmt.Errorf("decode role permissions: %w", err)
	}

	// The permission set is validated on the way out as well: a role row
	// carrying values outside the closed enumeration is a data defect.
	if invalid := role.ValidatePermissions(); invalid != "" {
		return models.Role{}, fmt.Errorf("role %q carries unknown permission %q", role.Name, invalid)
	}

	return role, nil
}
