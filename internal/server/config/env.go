package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// parseEnv overlays values from process environment variables. Only
// variables that are set are applied; an empty value counts as set.
func parseEnv(config *Config) error {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	str := func(key string, dst *string) {
		if k.Exists(key) {
			*dst = k.String(key)
		}
	}

	str("HTTP_ADDR", &config.HTTPAddr)
	str("DATABASE_URL", &config.DatabaseDSN)
	str("JWT_SECRET_KEY", &config.SecretKey)
	str("JWT_ALGORITHM", &config.JWTAlgorithm)
	str("UPLOAD_DIR", &config.UploadDir)
	str("STORAGE_BACKEND", &config.StorageBackend)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("LOG_LEVEL", &config.LogLevel)
	str("LOG_FORMAT", &config.LogFormat)
	str("LOG_BACKEND", &config.LogBackend)

	if k.Exists("JWT_ACCESS_TOKEN_EXPIRE_MINUTES") {
		n, err := strconv.Atoi(k.String("JWT_ACCESS_TOKEN_EXPIRE_MINUTES"))
		if err != nil {
			return fmt.Errorf("JWT_ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
		}
		config.AccessTokenValidityDuration = time.Duration(n) * time.Minute
	}

	if k.Exists("MAX_UPLOAD_SIZE") {
		n, err := strconv.ParseInt(k.String("MAX_UPLOAD_SIZE"), 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_SIZE: %w", err)
		}
		config.MaxUploadSize = n
	}

	if k.Exists("BCRYPT_COST") {
		n, err := strconv.Atoi(k.String("BCRYPT_COST"))
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		config.BcryptCost = n
	}

	if k.Exists("LOGIN_RATE_LIMIT") {
		n, err := strconv.Atoi(k.String("LOGIN_RATE_LIMIT"))
		if err != nil {
			return fmt.Errorf("LOGIN_RATE_LIMIT: %w", err)
		}
		config.LoginRateLimit = n
	}

	if k.Exists("SHUTDOWN_TIMEOUT") {
		d, err := time.ParseDuration(k.String("SHUTDOWN_TIMEOUT"))
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		config.ShutdownTimeout = d
	}

	if k.Exists("CORS_ORIGINS") {
		config.CORSOrigins = splitOrigins(k.String("CORS_ORIGINS"))
	}

	return nil
}

// splitOrigins parses a comma separated origin list, trimming blanks.
func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
