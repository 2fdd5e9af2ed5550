package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/securefms/securefms/internal/crypto"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/store"
	"github.com/securefms/securefms/models"
)

// adminService is the concrete implementation of AdminService. It owns the
// privileged account operations; the blob storage is wired in so that user
// deletion can cascade through file content in the correct order.
type adminService struct {
	users  store.UserRepository
	roles  store.RoleRepository
	files  store.FileRepository
	blobs  store.BlobStorage
	hasher crypto.PasswordHasher

	logger *logger.Logger
}

// NewAdminService constructs the AdminService.
func NewAdminService(users store.UserRepository, roles store.RoleRepository, files store.FileRepository, blobs store.BlobStorage, hasher crypto.PasswordHasher, logger *logger.Logger) AdminService {
	return &adminService{
		users:  users,
		roles:  roles,
		files:  files,
		blobs:  blobs,
		hasher: hasher,
		logger: logger,
	}
}

// CreateUser provisions an account on behalf of the actor. Role assignment
// is gated: an admin may only assign the base user role, only a superadmin
// assigns admin or superadmin. The provisioned account records the actor as
// its creator, which later bounds the admin's management scope.
func (s *adminService) CreateUser(ctx context.Context, actor models.User, req models.CreateUserRequest) (models.User, error) {
	log := logger.FromContext(ctx)

	if err := Authorize(actor, models.PermissionViewUsers); err != nil {
		return models.User{}, err
	}

	if err := validateUsername(req.Username); err != nil {
		return models.User{}, err
	}
	if err := validateEmail(req.Email); err != nil {
		return models.User{}, err
	}
	if err := validateStrongPassword(req.Password); err != nil {
		return models.User{}, err
	}
	if !req.RoleName.Valid() {
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrValidation, req.RoleName)
	}
	if !CanAssignRole(actor.Role.Name, req.RoleName) {
		return models.User{}, fmt.Errorf("%w: role %q may not assign %q", ErrForbidden, actor.Role.Name, req.RoleName)
	}

	role, err := s.roles.FindRoleByName(ctx, req.RoleName)
	if err != nil {
		return models.User{}, fmt.Errorf("role lookup failed: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("password hashing failed: %w", err)
	}

	createdBy := actor.ID
	user, err := s.users.CreateUser(ctx, models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		RoleID:       role.ID,
		Role:         role,
		Active:       true,
		CreatedBy:    &createdBy,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	log.Info().Int64("user_id", user.ID).Int64("actor_id", actor.ID).Str("role", string(role.Name)).Msg("user provisioned")
	return user, nil
}

// UpdateUser applies a partial update to an account within the actor's
// management scope. Role changes are gated by CanAssignRole on both the
// target's current role and the new one, so an admin can neither promote a
// user nor touch an account that already outranks it.
func (s *adminService) UpdateUser(ctx context.Context, actor models.User, userID int64, req models.UpdateUserRequest) (models.User, error) {
	target, err := s.findUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if err := s.authorizeManagement(actor, target); err != nil {
		return models.User{}, err
	}

	update := models.UserUpdate{
		ID:       target.ID,
		Username: req.Username,
		Email:    req.Email,
		Active:   req.Active,
	}

	if req.Username != nil {
		if err := validateUsername(*req.Username); err != nil {
			return models.User{}, err
		}
	}
	if req.Email != nil {
		if err := validateEmail(*req.Email); err != nil {
			return models.User{}, err
		}
	}
	if req.Password != nil {
		if err := validateStrongPassword(*req.Password); err != nil {
			return models.User{}, err
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return models.User{}, fmt.Errorf("password hashing failed: %w", err)
		}
		update.PasswordHash = &hash
	}
	if req.RoleName != nil {
		if !req.RoleName.Valid() {
			return models.User{}, fmt.Errorf("%w: unknown role %q", ErrValidation, *req.RoleName)
		}
		if !CanAssignRole(actor.Role.Name, *req.RoleName) {
			return models.User{}, fmt.Errorf("%w: role %q may not assign %q", ErrForbidden, actor.Role.Name, *req.RoleName)
		}
		role, err := s.roles.FindRoleByName(ctx, *req.RoleName)
		if err != nil {
			return models.User{}, fmt.Errorf("role lookup failed: %w", err)
		}
		update.RoleID = &role.ID
	}

	if err := s.users.UpdateUser(ctx, update); err != nil {
		if errors.Is(err, store.ErrNoUserWasFound) {
			return models.User{}, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return models.User{}, fmt.Errorf("user update failed: %w", err)
	}

	updated, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("user reload after update failed: %w", err)
	}

	logger.FromContext(ctx).Info().Int64("user_id", userID).Int64("actor_id", actor.ID).Msg("user updated")
	return updated, nil
}

// DeleteUser removes the account and everything it owns. The cascade runs
// blob-first per file (the same ordering rule as a single file delete), then
// the metadata rows, and the user row only once no file content remains.
func (s *adminService) DeleteUser(ctx context.Context, actor models.User, userID int64) error {
	log := logger.FromContext(ctx)

	if actor.ID == userID {
		return fmt.Errorf("%w: cannot delete own account", ErrValidation)
	}

	target, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.authorizeManagement(actor, target); err != nil {
		return err
	}

	files, err := s.files.ListFilesByOwner(ctx, target.ID)
	if err != nil {
		return fmt.Errorf("file listing for cascade failed: %w", err)
	}

	for _, meta := range files {
		if err := s.blobs.Remove(ctx, meta.StoredName); err != nil && !errors.Is(err, store.ErrBlobNotFound) {
			return fmt.Errorf("blob removal failed for file %d: %w", meta.ID, err)
		}
		if err := s.files.DeleteFile(ctx, meta.ID); err != nil {
			return fmt.Errorf("file metadata delete failed for file %d: %w", meta.ID, err)
		}
	}

	if err := s.users.DeleteUser(ctx, target.ID); err != nil {
		return fmt.Errorf("user delete failed: %w", err)
	}

	log.Info().Int64("user_id", userID).Int64("actor_id", actor.ID).Int("files_removed", len(files)).Msg("user deleted")
	return nil
}

// ListUsers returns the accounts within the actor's scope: every account
// for a superadmin, only self-provisioned accounts for an admin.
func (s *adminService) ListUsers(ctx context.Context, actor models.User) ([]models.User, error) {
	if err := Authorize(actor, models.PermissionViewUsers); err != nil {
		return nil, err
	}

	var createdBy *int64
	if actor.Role.Name != models.RoleSuperadmin {
		createdBy = &actor.ID
	}

	users, err := s.users.ListUsers(ctx, createdBy)
	if err != nil {
		return nil, fmt.Errorf("user listing failed: %w", err)
	}
	return users, nil
}

// authorizeManagement checks view_users plus the creator-bound scope rule.
func (s *adminService) authorizeManagement(actor models.User, target models.User) error {
	if err := Authorize(actor, models.PermissionViewUsers); err != nil {
		return err
	}
	if !ManagesUser(actor, target) {
		return fmt.Errorf("%w: user %d is outside management scope", ErrForbidden, target.ID)
	}
	return nil
}

func (s *adminService) findUser(ctx context.Context, userID int64) (models.User, error) {
	target, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNoUserWasFound) {
			return models.User{}, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return models.User{}, fmt.Errorf("user lookup failed: %w", err)
	}
	return target, nil
}
