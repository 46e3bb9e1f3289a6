// Package auth issues and verifies session tokens. There is no real
// credential verification: the credential pair itself is the identity, and
// the user id derives deterministically from it so the same pair always
// resolves to the same user.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"tesoro/internal/core"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingCredentials = errors.New("username and email are required")
)

// userNamespace is fixed so user ids stay stable across deployments.
var userNamespace = uuid.MustParse("3f2d8a1c-7e4b-4f0a-9c6d-2b8e5a91d4f7")

type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	ttl    time.Duration
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

// UserID derives the deterministic id for a credential pair. Emails compare
// case-insensitively; usernames are display names and stay verbatim.
func UserID(username, email string) string {
	seed := username + "\n" + strings.ToLower(strings.TrimSpace(email))
	return uuid.NewSHA1(userNamespace, []byte(seed)).String()
}

// Login resolves the credential pair to its user and issues a signed token.
func (s *Service) Login(username, email string) (core.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return core.User{}, "", ErrMissingCredentials
	}

	user := core.User{
		ID:       UserID(username, email),
		Username: username,
		Email:    email,
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return core.User{}, "", fmt.Errorf("sign token: %w", err)
	}
	return user, signed, nil
}

// Verify checks the signature and expiry and returns the embedded user.
func (s *Service) Verify(tokenString string) (core.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return core.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return core.User{}, ErrInvalidToken
	}
	return core.User{
		ID:       claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
