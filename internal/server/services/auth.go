// Package services contains server-side business logic: account signup and
// login, the authorization gate, the CSV file store and the user directory.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/csvbrowser/internal/common"
	"github.com/dmitrijs2005/csvbrowser/internal/logging"
	"github.com/dmitrijs2005/csvbrowser/internal/server/auth"
	"github.com/dmitrijs2005/csvbrowser/internal/server/models"
	"github.com/dmitrijs2005/csvbrowser/internal/server/repositories/repomanager"
)

// TokenTypeBearer is the OAuth2 token_type returned on login.
const TokenTypeBearer = "bearer"

// AccessToken is the result of a successful login.
type AccessToken struct {
	AccessToken string
	TokenType   string
}

// AuthService provides authentication-related operations:
// - Signup: create "user" accounts
// - CreateAdmin: create "admin" accounts (seeding only)
// - Login: verify credentials and mint a session token
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenService
	log         logging.Logger

	// dummyHash is compared against on unknown usernames so that login
	// timing does not reveal whether an account exists.
	dummyHash string
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher,
	tokens *auth.TokenService, log logging.Logger) (*AuthService, error) {

	dummy, err := hasher.Hash("csvbrowser-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		log:         log,
		dummyHash:   dummy,
	}, nil
}

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username must not be empty", common.ErrorValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: password must not be empty", common.ErrorValidation)
	}
	return nil
}

// Signup registers a new account. The role is always "user" regardless of
// what the client asked for.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*models.User, error) {
	return s.create(ctx, username, password, models.RoleUser)
}

// CreateAdmin registers an account with the admin role.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*models.User, error) {
	return s.create(ctx, username, password, models.RoleAdmin)
}

func (s *AuthService) create(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{UserName: username, PasswordHash: hash, Role: role})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		s.log.Error(ctx, "create user", "username", username, "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "user created", "user_id", u.ID, "role", string(u.Role))
	return u, nil
}

// Login verifies the password and, on success, returns a new bearer token.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AccessToken, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUserName(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrorUnauthorized
		}
		s.log.Error(ctx, "login lookup", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	token, err := s.tokens.Issue(user.UserName, user.Role)
	if err != nil {
		s.log.Error(ctx, "issue token", "error", err)
		return nil, common.ErrorInternal
	}

	return &AccessToken{AccessToken: token, TokenType: TokenTypeBearer}, nil
}
