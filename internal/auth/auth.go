// Package auth holds session identity: the mock SSO login and the tokens that
// carry the identity across requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/capitalize-ai/coursechat/internal/model"
)

var (
	// ErrUnknownRole is returned when logging in with a role that has no account.
	ErrUnknownRole = errors.New("unknown role")
	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = errors.New("invalid token")
)

var mockUsers = map[model.UserRole]model.User{
	model.RoleStudent: {
		ID:    "student-1",
		Name:  "John Doe",
		Email: "doej@rpi.edu",
		Role:  model.RoleStudent,
	},
	model.RoleProfessor: {
		ID:    "prof-1",
		Name:  "Dr. Smith",
		Email: "smithd@rpi.edu",
		Role:  model.RoleProfessor,
	},
}

// SSO is the mock single sign-on provider.
type SSO struct {
	delay time.Duration
}

// NewSSO creates a mock SSO that answers after delay.
func NewSSO(delay time.Duration) *SSO {
	return &SSO{delay: delay}
}

// Login returns the account for role.
func (s *SSO) Login(ctx context.Context, role model.UserRole) (model.User, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return model.User{}, ctx.Err()
		case <-timer.C:
		}
	}

	user, ok := mockUsers[role]
	if !ok {
		return model.User{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return user, nil
}

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	Name  string         `json:"name"`
	Email string         `json:"email"`
	Role  model.UserRole `json:"role"`
}

// Issuer mints and verifies session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer signing with an HMAC secret.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue mints a token for user.
func (i *Issuer) Issue(user model.User) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expires, nil
}

// Parse verifies a token and returns the user it carries.
func (i *Issuer) Parse(tokenString string) (model.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return model.User{}, ErrInvalidToken
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return model.User{}, ErrInvalidToken
	}

	return model.User{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}
