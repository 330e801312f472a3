package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-d", "sqlite://x.db", "-s", "secret",
				"-j", "HS512", "-t", "15", "-u", "/data", "-b", "s3",
			},
			expected: &Config{
				HTTPAddr:                    "127.0.0.1:9090",
				DatabaseDSN:                 "sqlite://x.db",
				SecretKey:                   "secret",
				JWTAlgorithm:                "HS512",
				AccessTokenValidityDuration: 15 * time.Minute,
				UploadDir:                   "/data",
				StorageBackend:              "s3",
			},
		},
		{
			name: "config flag and unknown flags ignored",
			args: []string{"-c", "cfg.json", "-x", "1", "-a", ":1"},
			expected: &Config{
				HTTPAddr:                    ":1",
				AccessTokenValidityDuration: 30 * time.Minute,
			},
		},
		{
			name:    "non numeric minutes",
			args:    []string{"-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{AccessTokenValidityDuration: 30 * time.Minute}

			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestParseFlags_KeepsSubMinuteDurationWhenUnset(t *testing.T) {
	config := &Config{AccessTokenValidityDuration: 90 * time.Second}
	require.NoError(t, parseFlags(config, []string{"-a", ":1"}))
	assert.Equal(t, 90*time.Second, config.AccessTokenValidityDuration)
}
