// Package seedadmin implements the interactive operator command that
// creates an administrator account.
package seedadmin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/csvbrowser/internal/common"
	"github.com/dmitrijs2005/csvbrowser/internal/server/auth"
	"github.com/dmitrijs2005/csvbrowser/internal/server/models"
)

// DefaultUserName is used when the operator just presses Enter.
const DefaultUserName = "admin"

var ErrEmptyPassword = errors.New("password must not be empty")

// AdminCreator is satisfied by *services.AuthService.
type AdminCreator interface {
	CreateAdmin(ctx context.Context, username, password string) (*models.User, error)
}

// Run prompts for a username and password and creates the admin account.
// An existing account with that name is reported, not treated as failure.
func Run(ctx context.Context, creator AdminCreator, in *bufio.Reader, out io.Writer) error {
	username, err := GetSimpleText(in, fmt.Sprintf("Admin username [%s]", DefaultUserName), out)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if username == "" {
		username = DefaultUserName
	}

	pw, err := GetPassword("Admin password", out)
	if err != nil {
		return err
	}
	defer clear(pw)

	if len(pw) == 0 {
		return ErrEmptyPassword
	}
	if len(pw) > auth.MaxPasswordBytes {
		fmt.Fprintf(out, "Warning: password is %d bytes, bcrypt accepts at most %d\n", len(pw), auth.MaxPasswordBytes)
	}

	u, err := creator.CreateAdmin(ctx, username, string(pw))
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			fmt.Fprintf(out, "User %q already exists\n", username)
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(out, "Admin user %q created (id=%d)\n", u.UserName, u.ID)
	return nil
}
