package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/net/idna"

	"github.com/octobees/venue-finder/internal/auth"
)

var (
	// ErrInvalidCredentials is returned when the email or password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOperatorDisabled is returned when no operator account is configured.
	ErrOperatorDisabled = errors.New("operator login is not configured")
)

// AuthService checks the configured operator account and issues tokens.
type AuthService struct {
	email        string
	passwordHash string
	jwt          *auth.JWTManager
}

// NewAuthService constructs a new AuthService for a single operator account.
func NewAuthService(email, passwordHash string, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		email:        normalizeEmail(email),
		passwordHash: strings.TrimSpace(passwordHash),
		jwt:          jwtManager,
	}
}

// Login validates credentials and returns a JWT carrying the operator role.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.email == "" || s.passwordHash == "" {
		return "", ErrOperatorDisabled
	}
	if email == "" || password == "" {
		return "", errors.New("email and password must not be empty")
	}

	if normalizeEmail(email) != s.email {
		return "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(s.passwordHash, password) {
		return "", ErrInvalidCredentials
	}

	return s.jwt.GenerateToken(s.email, s.email, auth.RoleOperator)
}

// normalizeEmail lowercases the address and converts an internationalized
// domain to its ASCII form so both spellings match.
func normalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	if ascii, err := idna.Lookup.ToASCII(domain); err == nil {
		domain = ascii
	}
	return local + "@" + domain
}
