package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/securefms/securefms/internal/crypto"
	"github.com/securefms/securefms/models"
)

// Shared function-field mocks for the service tests. A nil field means
// "succeed with the zero value"; tests override only what they assert on.

var errStorage = errors.New("storage failure")

// ─────────────────────────────────────────────
// Mock: store.UserRepository
// ─────────────────────────────────────────────

type mockUserRepository struct {
	createUserFn           func(ctx context.Context, user models.User) (models.User, error)
	findUserByIdentifierFn func(ctx context.Context, identifier string) (models.User, error)
	findUserByIDFn         func(ctx context.Context, id int64) (models.User, error)
	updateUserFn           func(ctx context.Context, update models.UserUpdate) error
	deleteUserFn           func(ctx context.Context, id int64) error
	listUsersFn            func(ctx context.Context, createdBy *int64) ([]models.User, error)
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, user)
	}
	return user, nil
}

func (m *mockUserRepository) FindUserByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	if m.findUserByIdentifierFn != nil {
		return m.findUserByIdentifierFn(ctx, identifier)
	}
	return models.User{}, nil
}

func (m *mockUserRepository) FindUserByID(ctx context.Context, id int64) (models.User, error) {
	if m.findUserByIDFn != nil {
		return m.findUserByIDFn(ctx, id)
	}
	return models.User{}, nil
}

func (m *mockUserRepository) UpdateUser(ctx context.Context, update models.UserUpdate) error {
	if m.updateUserFn != nil {
		return m.updateUserFn(ctx, update)
	}
	return nil
}

func (m *mockUserRepository) DeleteUser(ctx context.Context, id int64) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepository) ListUsers(ctx context.Context, createdBy *int64) ([]models.User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx, createdBy)
	}
	return nil, nil
}

// ─────────────────────────────────────────────
// Mock: store.RoleRepository
// ─────────────────────────────────────────────

type mockRoleRepository struct {
	findRoleByNameFn func(ctx context.Context, name models.RoleName) (models.Role, error)
}

func (m *mockRoleRepository) FindRoleByName(ctx context.Context, name models.RoleName) (models.Role, error) {
	if m.findRoleByNameFn != nil {
		return m.findRoleByNameFn(ctx, name)
	}
	return models.Role{
		ID:          int64(len(name)),
		Name:        name,
		Permissions: models.DefaultRolePermissions[name],
	}, nil
}

// ─────────────────────────────────────────────
// Mock: store.FileRepository
// ─────────────────────────────────────────────

type mockFileRepository struct {
	createFileFn       func(ctx context.Context, meta models.FileMetadata) (models.FileMetadata, error)
	findFileByIDFn     func(ctx context.Context, id int64) (models.FileMetadata, error)
	deleteFileFn       func(ctx context.Context, id int64) error
	listFilesByOwnerFn func(ctx context.Context, ownerID int64) ([]models.FileMetadata, error)
	listAllFilesFn     func(ctx context.Context) ([]models.FileMetadata, error)
}

func (m *mockFileRepository) CreateFile(ctx context.Context, meta models.FileMetadata) (models.FileMetadata, error) {
	if m.createFileFn != nil {
		return m.createFileFn(ctx, meta)
	}
	meta.ID = 1
	return meta, nil
}

func (m *mockFileRepository) FindFileByID(ctx context.Context, id int64) (models.FileMetadata, error) {
	if m.findFileByIDFn != nil {
		return m.findFileByIDFn(ctx, id)
	}
	return models.FileMetadata{}, nil
}

func (m *mockFileRepository) DeleteFile(ctx context.Context, id int64) error {
	if m.deleteFileFn != nil {
		return m.deleteFileFn(ctx, id)
	}
	return nil
}

func (m *mockFileRepository) ListFilesByOwner(ctx context.Context, ownerID int64) ([]models.FileMetadata, error) {
	if m.listFilesByOwnerFn != nil {
		return m.listFilesByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockFileRepository) ListAllFiles(ctx context.Context) ([]models.FileMetadata, error) {
	if m.listAllFilesFn != nil {
		return m.listAllFilesFn(ctx)
	}
	return nil, nil
}

// ─────────────────────────────────────────────
// Mock: store.BlobStorage
// ─────────────────────────────────────────────

// mockBlobStorage is a working in-memory blob store that additionally
// records the order of operations, so tests can assert write/remove
// ordering relative to metadata calls.
type mockBlobStorage struct {
	blobs map[string][]byte
	ops   []string

	saveErr   error
	loadErr   error
	removeErr error
}

func newMockBlobStorage() *mockBlobStorage {
	return &mockBlobStorage{blobs: make(map[string][]byte)}
}

func (m *mockBlobStorage) Save(_ context.Context, name string, blob []byte) error {
	m.ops = append(m.ops, "save")
	if m.saveErr != nil {
		return m.saveErr
	}
	m.blobs[name] = blob
	return nil
}

func (m *mockBlobStorage) Load(_ context.Context, name string) ([]byte, error) {
	m.ops = append(m.ops, "load")
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	blob, ok := m.blobs[name]
	if !ok {
		return nil, fmt.Errorf("no blob named %s", name)
	}
	return blob, nil
}

// saveDirect seals plaintext with codec and stores it without recording
// an op, to seed test fixtures.
func (m *mockBlobStorage) saveDirect(codec crypto.Codec, name string, plaintext []byte) error {
	blob, err := codec.Encrypt(plaintext)
	if err != nil {
		return err
	}
	m.blobs[name] = blob
	return nil
}

func (m *mockBlobStorage) Remove(_ context.Context, name string) error {
	m.ops = append(m.ops, "remove")
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.blobs, name)
	return nil
}

// ─────────────────────────────────────────────
// Mock: crypto.PasswordHasher
// ─────────────────────────────────────────────

// fakeHasher avoids Argon2 cost in unit tests; the encoding is trivially
// reversible and only meaningful inside this package's tests.
type fakeHasher struct {
	hashErr error
}

func (f *fakeHasher) Hash(plain string) (string, error) {
	if f.hashErr != nil {
		return "", f.hashErr
	}
	return "hashed:" + plain, nil
}

func (f *fakeHasher) Verify(plain, encoded string) (bool, error) {
	return encoded == "hashed:"+plain, nil
}
