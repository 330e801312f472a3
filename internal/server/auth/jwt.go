// Package auth issues and verifies session tokens and password credentials.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/csvbrowser/internal/common"
	"github.com/dmitrijs2005/csvbrowser/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the username in "sub" and the role at issue time.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserName  string
	Role      models.Role
	ExpiresAt time.Time
}

// TokenService signs and verifies HMAC JWTs.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

var signingMethods = map[string]jwt.SigningMethod{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

func NewTokenService(secret []byte, algorithm string, ttl time.Duration) (*TokenService, error) {
	method, ok := signingMethods[algorithm]
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}
	if len(secret) == 0 {
		return nil, errors.New("empty jwt secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("non-positive token ttl %s", ttl)
	}
	return &TokenService{secret: secret, method: method, ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime given to issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue mints a token for userName that expires TTL from now.
func (s *TokenService) Issue(userName string, role models.Role) (string, error) {
	now := s.now()

	token := jwt.NewWithClaims(s.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role: string(role),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature, algorithm and expiry. A token is expired from
// the instant in its exp claim onward.
func (s *TokenService) Decode(tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, common.ErrInvalidToken
	}

	exp := claims.ExpiresAt.Time
	if !s.now().Before(exp) {
		return nil, common.ErrTokenExpired
	}

	return &Identity{UserName: claims.Subject, Role: models.Role(claims.Role), ExpiresAt: exp}, nil
}
