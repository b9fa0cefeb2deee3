package core

// auth.go issues and checks bearer tokens.
//
// Tokens are HS256 JWTs carrying the user id (sub) and the user's token
// version (ver). Logout bumps the stored version, which invalidates every
// token issued before it without keeping a revocation list.

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/seduc-am/planoacao/internal/logging"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Version int `json:"ver"`
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		// Spend the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if !u.Ativo {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, exp, err := s.issueToken(u)
	if err != nil {
		return LoginResult{}, err
	}
	logging.FromContext(ctx).Info("user logged in", "user_id", u.ID)
	return LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// dummyHash is compared against when the email is unknown.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("planoacao-dummy"), bcrypt.MinCost)

func (s *Service) issueToken(u User) (string, time.Time, error) {
	if len(s.opts.JWTSecret) == 0 {
		return "", time.Time{}, errors.New("jwt secret not configured")
	}
	now := s.clock.Now()
	exp := now.Add(s.opts.TokenTTL)

	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Version: u.TokenVersion,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.JWTSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Authenticate resolves a bearer token to an active user. Expired or
// malformed tokens, unknown or inactive users and tokens issued before the
// last logout all yield ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, token string) (User, error) {
	if len(s.opts.JWTSecret) == 0 {
		return User{}, errors.New("jwt secret not configured")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	claims := &jwtClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.opts.JWTSecret, nil
	})
	if err != nil || !parsed.Valid {
		return User{}, ErrUnauthorized
	}

	id, ok := ParseID(claims.Subject)
	if !ok {
		return User{}, ErrUnauthorized
	}
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrUnauthorized
	}
	if err != nil {
		return User{}, fmt.Errorf("load user %d: %w", id, err)
	}
	if !u.Ativo || u.TokenVersion != claims.Version {
		return User{}, ErrUnauthorized
	}
	return u, nil
}

// Logout revokes every token of the user.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	_, err := s.store.UpdateUser(ctx, userID, func(u *User) error {
		u.TokenVersion++
		u.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return fmt.Errorf("logout user %d: %w", userID, err)
	}
	logging.FromContext(ctx).Info("user logged out", "target_user_id", userID)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
