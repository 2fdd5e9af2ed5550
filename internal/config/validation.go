package config

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a descriptive error
// otherwise. Key material is validated for shape only; values are never
// included in error messages.
func (cfg *StructuredConfig) validate() error {
	var errs []error

	if cfg.App.TokenSignKey == "" {
		errs = append(errs, errors.New("token sign key is required"))
	}

	if cfg.App.FileEncryptionKey == "" {
		errs = append(errs, errors.New("file encryption key is required"))
	} else if key, err := hex.DecodeString(cfg.App.FileEncryptionKey); err != nil {
		errs = append(errs, errors.New("file encryption key must be hex-encoded"))
	} else if len(key) != 32 {
		errs = append(errs, fmt.Errorf("file encryption key must be 32 bytes, got %d", len(key)))
	}

	switch cfg.Storage.Files.Backend {
	case "fs", "s3":
	default:
		errs = append(errs, fmt.Errorf("unknown files backend %q", cfg.Storage.Files.Backend))
	}

	switch cfg.Storage.Challenges.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown challenges backend %q", cfg.Storage.Challenges.Backend))
	}

	if cfg.Storage.Challenges.Backend == "redis" && cfg.Storage.Redis.Addr == "" {
		errs = append(errs, errors.New("redis address is required for the redis challenge backend"))
	}

	if cfg.Storage.Files.Backend == "s3" && cfg.Storage.S3.Bucket == "" {
		errs = append(errs, errors.New("s3 bucket is required for the s3 files backend"))
	}

	if cfg.Notifier.Mode == "mail" && cfg.Notifier.Endpoint == "" {
		errs = append(errs, errors.New("notifier endpoint is required in mail mode"))
	}

	return errors.Join(errs...)
}
