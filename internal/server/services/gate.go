package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/csvbrowser/internal/common"
	"github.com/dmitrijs2005/csvbrowser/internal/logging"
	"github.com/dmitrijs2005/csvbrowser/internal/server/auth"
	"github.com/dmitrijs2005/csvbrowser/internal/server/models"
	"github.com/dmitrijs2005/csvbrowser/internal/server/repositories/repomanager"
)

// Gate resolves bearer tokens to accounts. It keeps no session state: every
// call verifies the token and re-reads the account, so a deleted account or
// a changed role takes effect on the very next request.
type Gate struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	log         logging.Logger
}

func NewGate(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService, log logging.Logger) *Gate {
	return &Gate{db: db, repomanager: m, tokens: tokens, log: log}
}

// Authenticate fails with common.ErrorUnauthorized when the token is
// missing, malformed, expired, signed with another key, or names an account
// that no longer exists.
func (g *Gate) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	id, err := g.tokens.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	user, err := g.repomanager.Users(g.db).GetByUserName(ctx, id.UserName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		g.log.Error(ctx, "gate lookup", "error", err)
		return nil, common.ErrorInternal
	}

	return user, nil
}

// RequireRole is a pure predicate: admins satisfy every role, users only
// the user role.
func RequireRole(u *models.User, role models.Role) (*models.User, error) {
	if u == nil {
		return nil, common.ErrorUnauthorized
	}
	if role == models.RoleAdmin && u.Role != models.RoleAdmin {
		return nil, common.ErrorForbidden
	}
	if !u.Role.Valid() {
		return nil, common.ErrorForbidden
	}
	return u, nil
}
