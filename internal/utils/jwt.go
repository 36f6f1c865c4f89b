package utils

import (
	"fmt"  // Error wrapping
	"time" // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library

	"notes_system/internal/domain" // Error kinds
)

// TokenTTL is the lifetime of every issued token.
const TokenTTL = 24 * time.Hour

// TokenService issues and validates HS256 bearer tokens whose subject is a user's email.
// The signing key is fixed at construction and never rotated.
type TokenService struct {
	secret []byte           // Symmetric signing key
	ttl    time.Duration    // Token lifetime
	now    func() time.Time // Clock, replaceable in tests
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret []byte) *TokenService {
	return &TokenService{secret: secret, ttl: TokenTTL, now: time.Now}
}

// WithClock returns a copy of the service that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// Issue creates a signed token for subject, expiring TokenTTL from now.
func (s *TokenService) Issue(subject string) (string, error) {
	issuedAt := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,                                // Token subject (email)
		IssuedAt:  jwt.NewNumericDate(issuedAt),           // Issued at current time
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)), // Expiration
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	signed, err := token.SignedString(s.secret)                // Sign the token with the secret
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ExtractSubject verifies the signature and structure of token and returns its subject.
// Expiry is not checked here; use IsValid for that.
func (s *TokenService) ExtractSubject(tokenStr string) (string, error) {
	claims, err := s.parse(tokenStr, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsValid reports whether token has a valid signature and has not expired.
func (s *TokenService) IsValid(tokenStr string) bool {
	_, err := s.parse(tokenStr, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	return err == nil
}

func (s *TokenService) parse(tokenStr string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		return s.secret, nil // Return the secret key for validation
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
