package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-d database DSN
//	-files-dir blob storage directory (filesystem backend)
//	-files-backend blob storage backend ("fs" or "s3")
//	-challenges-backend OTP challenge store backend ("memory" or "redis")
//	-token-sign-key token signing key
//	-token-issuer token issuer name
//	-token-duration token duration (e.g., "24h")
//	-file-encryption-key hex-encoded 256-bit file encryption key
//	-request-timeout request timeout (e.g., "30s")
//	-notifier-mode OTP delivery mode ("mail" or "log")
//	-notifier-endpoint mail gateway URL
//	-reap-interval challenge reaper sweep interval
func ParseFlags() *StructuredConfig {
	var serverAddress string
	var databaseDSN string
	var filesDir string
	var filesBackend string
	var challengesBackend string
	var tokenSignKey string
	var tokenIssuer string
	var tokenDuration time.Duration
	var fileEncryptionKey string
	var requestTimeout time.Duration
	var notifierMode string
	var notifierEndpoint string
	var reapInterval time.Duration

	flag.StringVar(&serverAddress, "a", "", "Net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&filesDir, "files-dir", "", "Blob storage directory")
	flag.StringVar(&filesBackend, "files-backend", "", "Blob storage backend (fs|s3)")
	flag.StringVar(&challengesBackend, "challenges-backend", "", "Challenge store backend (memory|redis)")
	flag.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	flag.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	flag.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 24h)")
	flag.StringVar(&fileEncryptionKey, "file-encryption-key", "", "Hex-encoded 256-bit file encryption key")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s)")
	flag.StringVar(&notifierMode, "notifier-mode", "", "OTP delivery mode (mail|log)")
	flag.StringVar(&notifierEndpoint, "notifier-endpoint", "", "Mail gateway URL")
	flag.DurationVar(&reapInterval, "reap-interval", 0, "Challenge reaper sweep interval")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			TokenSignKey:      tokenSignKey,
			TokenIssuer:       tokenIssuer,
			TokenDuration:     tokenDuration,
			FileEncryptionKey: fileEncryptionKey,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Files: Files{
				Backend: filesBackend,
				Dir:     filesDir,
			},
			Challenges: Challenges{
				Backend: challengesBackend,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress,
			RequestTimeout: requestTimeout,
		},
		Notifier: Notifier{
			Mode:     notifierMode,
			Endpoint: notifierEndpoint,
		},
		Workers: Workers{
			ReapInterval: reapInterval,
		},
	}
}
