package services

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/csvbrowser/internal/common"
	"github.com/dmitrijs2005/csvbrowser/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup_CreatesUserRole(t *testing.T) {
	e := newEnv(t)
	s := e.authService(t)
	ctx := context.Background()

	u, err := s.Signup(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Positive(t, u.ID)
	assert.Equal(t, "alice", u.UserName)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	stored, err := e.rm.Users(e.db).GetByUserName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.ID)
	assert.True(t, e.hasher.Verify("s3cret", stored.PasswordHash))
}

func TestSignup_Duplicate(t *testing.T) {
	e := newEnv(t)
	s := e.authService(t)
	ctx := context.Background()

	_, err := s.Signup(ctx, "alice", "one")
	require.NoError(t, err)

	_, err = s.Signup(ctx, "alice", "two")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	users, err := e.rm.Users(e.db).List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestSignup_Validation(t *testing.T) {
	e := newEnv(t)
	s := e.authService(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "pw"},
		{"blank username", "   ", "pw"},
		{"empty password", "bob", ""},
		{"too long password", "bob", strings.Repeat("x", 73)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Signup(context.Background(), tt.username, tt.password)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestCreateAdmin(t *testing.T) {
	e := newEnv(t)
	s := e.authService(t)

	u, err := s.CreateAdmin(context.Background(), "root", "pw")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	s := e.authService(t)
	ctx := context.Background()

	_, err := s.Signup(ctx, "alice", "s3cret")
	require.NoError(t, err)

	tok, err := s.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)

	id, err := e.tokens.Decode(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.UserName)
	assert.Equal(t, models.RoleUser, id.Role)

	_, err = s.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestLogin_TokensDiffer(t *testing.T) {
	e := newEnv(t)
	s := e.authService(t)
	ctx := context.Background()

	_, err := s.Signup(ctx, "alice", "pw")
	require.NoError(t, err)

	a, err := s.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	b, err := s.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	for _, tok := range []string{a.AccessToken, b.AccessToken} {
		_, err := e.tokens.Decode(tok)
		assert.NoError(t, err)
	}
}
