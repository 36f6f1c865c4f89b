package middleware

import (
	"context"  // Context for store lookups
	"errors"   // Error kind checks
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library

	"notes_system/internal/domain" // Domain models and error kinds
)

// Context keys set on authenticated requests
const (
	IdentityKey = "identity" // Authenticated user's email
	UserIDKey   = "userID"   // Authenticated user's id
)

// Rejection messages, sent as plain text with 401
const (
	MsgMissingToken  = "Missing or invalid Authorization header"
	MsgExpiredToken  = "Token has expired or is invalid. Please log in again."
	MsgInvalidToken  = "Invalid token. Please log in again."
	MsgEmailMismatch = "Token is invalid due to email mismatch. Please log in again."
)

// TokenVerifier reads and validates bearer tokens.
type TokenVerifier interface {
	ExtractSubject(token string) (string, error)
	IsValid(token string) bool
}

// UserFinder resolves a token subject to a stored user.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// AuthOptions tune which requests may pass without a token.
type AuthOptions struct {
	PublicPrefixes    []string // Path prefixes that skip authentication entirely
	AllowMissingToken bool     // Let requests without an Authorization header through unauthenticated
}

// Authenticator validates bearer tokens against the token service and the user store.
type Authenticator struct {
	tokens TokenVerifier
	users  UserFinder
	opts   AuthOptions
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens TokenVerifier, users UserFinder, opts AuthOptions) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, opts: opts}
}

// Handler is the global auth middleware. Public paths pass untouched; every other path needs a
// valid bearer token unless AllowMissingToken is set and the header is absent.
func (a *Authenticator) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip authentication for public paths
		if a.isPublic(c.Request.URL.Path) {
			c.Next()
			return
		}
		token, ok := bearerToken(c)
		if !ok {
			if a.opts.AllowMissingToken {
				c.Next() // Proceed unauthenticated
				return
			}
			reject(c, MsgMissingToken)
			return
		}
		a.authenticate(c, token)
	}
}

// Require always demands a valid bearer token, regardless of public prefixes.
func (a *Authenticator) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Already authenticated by Handler
		if _, ok := c.Get(IdentityKey); ok {
			c.Next()
			return
		}
		token, ok := bearerToken(c)
		if !ok {
			reject(c, MsgMissingToken)
			return
		}
		a.authenticate(c, token)
	}
}

func (a *Authenticator) authenticate(c *gin.Context, token string) {
	email, err := a.tokens.ExtractSubject(token) // Signature and structure check
	if err != nil {
		reject(c, MsgExpiredToken)
		return
	}
	user, err := a.users.GetByEmail(c.Request.Context(), email) // Subject must reference a live user
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logrus.WithFields(logrus.Fields{
			"subject": email,       // Token subject
			"error":   err.Error(), // Error message
		}).Error("Token user lookup failed")
	}
	if err != nil || !a.tokens.IsValid(token) {
		reject(c, MsgInvalidToken)
		return
	}
	if email != user.Email {
		reject(c, MsgEmailMismatch)
		return
	}
	c.Set(IdentityKey, user.Email) // Store email in context
	c.Set(UserIDKey, user.ID)      // Store userID in context
	c.Next()                       // Proceed to the next handler
}

func (a *Authenticator) isPublic(path string) bool {
	for _, prefix := range a.opts.PublicPrefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Identity returns the authenticated email and user id, if any.
func Identity(c *gin.Context) (email string, userID uint, ok bool) {
	email = c.GetString(IdentityKey)
	userID = c.GetUint(UserIDKey)
	return email, userID, email != ""
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization") // Get Authorization header
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}

func reject(c *gin.Context, msg string) {
	c.String(http.StatusUnauthorized, msg)
	c.Abort()
}
