package service

import (
	"github.com/securefms/securefms/internal/config"
	"github.com/securefms/securefms/internal/crypto"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/otp"
	"github.com/securefms/securefms/internal/store"
)

// Services aggregates every service the transport layer depends on.
type Services struct {
	Auth  AuthService
	Files FileService
	Admin AdminService
}

// NewServices wires the service layer over the storages and the shared
// crypto collaborators.
func NewServices(storages *store.Storages, otpManager *otp.Manager, codec crypto.Codec, hasher crypto.PasswordHasher, cfg config.App, logger *logger.Logger) *Services {
	return &Services{
		Auth:  NewAuthService(storages.Users, storages.Roles, otpManager, hasher, cfg, logger),
		Files: NewFileService(storages.Files, storages.Users, storages.Blobs, codec, logger),
		Admin: NewAdminService(storages.Users, storages.Roles, storages.Files, storages.Blobs, hasher, logger),
	}
}
