package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/csvbrowser/internal/common"
	"github.com/dmitrijs2005/csvbrowser/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, alg string, ttl time.Duration, now time.Time) *TokenService {
	t.Helper()
	s, err := NewTokenService([]byte("super-secret"), alg, ttl)
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func TestIssueAndDecode_Success(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newService(t, "HS256", 30*time.Minute, now)

	tok, err := s.Issue("alice", models.RoleAdmin)
	require.NoError(t, err)

	id, err := s.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.UserName)
	assert.Equal(t, models.RoleAdmin, id.Role)
	assert.True(t, id.ExpiresAt.Equal(now.Add(30*time.Minute)))
}

func TestDecode_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	ttl := 10 * time.Minute
	s := newService(t, "HS256", ttl, issued)

	tok, err := s.Issue("bob", models.RoleUser)
	require.NoError(t, err)

	exp := issued.Add(ttl)
	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"well before", issued.Add(time.Minute), nil},
		{"expiry minus 1s", exp.Add(-time.Second), nil},
		{"at expiry", exp, common.ErrTokenExpired},
		{"expiry plus 1s", exp.Add(time.Second), common.ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tt.at
			s.now = func() time.Time { return at }
			_, err := s.Decode(tok)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newService(t, "HS256", time.Hour, now)
	tok, err := s.Issue("u2", models.RoleUser)
	require.NoError(t, err)

	other, err := NewTokenService([]byte("wrong-secret"), "HS256", time.Hour)
	require.NoError(t, err)

	_, err = other.Decode(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestDecode_AlgorithmMismatch(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s512 := newService(t, "HS512", time.Hour, now)
	tok, err := s512.Issue("u", models.RoleUser)
	require.NoError(t, err)

	s256 := newService(t, "HS256", time.Hour, now)
	_, err = s256.Decode(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestDecode_NoneAlgorithmRejected(t *testing.T) {
	t.Parallel()

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "admin",
	})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	s := newService(t, "HS256", time.Hour, time.Now())
	_, err = s.Decode(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestDecode_MissingClaims(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	s := newService(t, "HS256", time.Hour, time.Now())

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "a"},
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = s.Decode(noExp)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = s.Decode(noSub)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestDecode_MalformedString(t *testing.T) {
	t.Parallel()

	s := newService(t, "HS256", time.Hour, time.Now())
	_, err := s.Decode("not.a.jwt")
	assert.True(t, errors.Is(err, common.ErrInvalidToken))
}

func TestNewTokenService_Rejects(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService([]byte("k"), "RS256", time.Hour)
	assert.Error(t, err)
	_, err = NewTokenService(nil, "HS256", time.Hour)
	assert.Error(t, err)
	_, err = NewTokenService([]byte("k"), "HS256", 0)
	assert.Error(t, err)
}
