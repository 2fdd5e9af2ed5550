package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/securefms/securefms/internal/config"
	"github.com/securefms/securefms/internal/crypto"
	myHTTP "github.com/securefms/securefms/internal/handler/http"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/notify"
	"github.com/securefms/securefms/internal/otp"
	"github.com/securefms/securefms/internal/server"
	"github.com/securefms/securefms/internal/service"
	"github.com/securefms/securefms/internal/store"
	"github.com/securefms/securefms/internal/workers"
	"github.com/securefms/securefms/migrations"
	"github.com/securefms/securefms/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("securefms-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewConnectPostgres(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}
	defer db.Close()

	if err := migrations.Migrate(db.DB); err != nil {
		log.Fatal().Err(err).Msg("error running migrations")
	}

	storages, err := store.NewStorages(ctx, db, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}

	encryptionKey, err := crypto.KeyFromHex(cfg.App.FileEncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("error decoding file encryption key")
	}
	codec, err := crypto.NewAESCodec(encryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating file codec")
	}
	hasher := crypto.NewArgon2Hasher()

	var notifier notify.Notifier
	if cfg.Notifier.Mode == "mail" {
		notifier = notify.NewMailNotifier(cfg.Notifier, log)
	} else {
		notifier = notify.NewLogNotifier(log)
	}

	otpManager := otp.NewManager(storages.Challenges, storages.Users, notifier, log)
	services := service.NewServices(storages, otpManager, codec, hasher, cfg.App, log)

	if err := bootstrapSuperadmin(ctx, storages, hasher, cfg.App, log); err != nil {
		log.Fatal().Err(err).Msg("error bootstrapping superadmin account")
	}

	workers.NewWorkers(ctx, storages.Challenges, cfg.Workers, log).Run()

	handler := myHTTP.NewHandler(services, cfg.Server, log)
	srv, err := server.NewServer(handler.Init(), cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

// bootstrapSuperadmin provisions the initial superadmin account on first
// start. It only runs when a bootstrap password is configured and is a
// no-op once the account exists.
func bootstrapSuperadmin(ctx context.Context, storages *store.Storages, hasher crypto.PasswordHasher, cfg config.App, log *logger.Logger) error {
	if cfg.BootstrapAdminPassword == "" {
		return nil
	}

	if _, err := storages.Users.FindUserByIdentifier(ctx, "superadmin"); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNoUserWasFound) {
		return fmt.Errorf("superadmin lookup failed: %w", err)
	}

	role, err := storages.Roles.FindRoleByName(ctx, models.RoleSuperadmin)
	if err != nil {
		return fmt.Errorf("superadmin role lookup failed: %w", err)
	}

	hash, err := hasher.Hash(cfg.BootstrapAdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap password hashing failed: %w", err)
	}

	user, err := storages.Users.CreateUser(ctx, models.User{
		Username:     "superadmin",
		Email:        "superadmin@localhost",
		PasswordHash: hash,
		RoleID:       role.ID,
		Role:         role,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("superadmin creation failed: %w", err)
	}

	log.Info().Int64("user_id", user.ID).Msg("bootstrap superadmin account created")
	return nil
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
