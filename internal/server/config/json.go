package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/csvbrowser/internal/flagx"
	"github.com/goccy/go-json"
)

// Duration accepts either a Go duration string ("30m") or an integer number
// of nanoseconds when unmarshalled from JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}

	if unq, err := strconv.Unquote(s); err == nil {
		v, err := time.ParseDuration(unq)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", unq, err)
		}
		d.Duration = v
		return nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %s: %w", s, err)
	}
	d.Duration = time.Duration(n)
	return nil
}

// JsonConfig is the on-disk shape of the optional config file. Pointer and
// zero-value fields that are absent leave the current Config untouched.
type JsonConfig struct {
	HTTPAddr                    string    `json:"http_addr"`
	DatabaseDSN                 string    `json:"database_dsn"`
	SecretKey                   string    `json:"secret_key"`
	JWTAlgorithm                string    `json:"jwt_algorithm"`
	AccessTokenValidityDuration *Duration `json:"access_token_validity_duration"`
	UploadDir                   string    `json:"upload_dir"`
	MaxUploadSize               int64     `json:"max_upload_size"`
	CORSOrigins                 []string  `json:"cors_origins"`
	StorageBackend              string    `json:"storage_backend"`
	S3RootUser                  string    `json:"s3_root_user"`
	S3RootPassword              string    `json:"s3_root_password"`
	S3Bucket                    string    `json:"s3_bucket"`
	S3Region                    string    `json:"s3_region"`
	S3BaseEndpoint              string    `json:"s3_base_endpoint"`
	BcryptCost                  int       `json:"bcrypt_cost"`
	LoginRateLimit              *int      `json:"login_rate_limit"`
	LogLevel                    string    `json:"log_level"`
	LogFormat                   string    `json:"log_format"`
	LogBackend                  string    `json:"log_backend"`
	ShutdownTimeout             *Duration `json:"shutdown_timeout"`
}

// parseJson overlays values from the file named by -c/-config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.JWTAlgorithm, c.JWTAlgorithm)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setString(&config.UploadDir, c.UploadDir)
	if c.MaxUploadSize != 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.LoginRateLimit != nil {
		config.LoginRateLimit = *c.LoginRateLimit
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogBackend, c.LogBackend)
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
