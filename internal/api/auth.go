package api

import (
	"errors"   // Error kind checks
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library

	"notes_system/internal/domain"     // Importing domain models
	"notes_system/internal/events"     // Lifecycle events
	"notes_system/internal/middleware" // Request identity
	"notes_system/internal/store"      // Persistence
	"notes_system/internal/utils"      // Token service
)

// Request struct for registration
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`    // Username must be provided
	Email    string `json:"email" binding:"required,email"` // Email must be provided and well formed
	Password string `json:"password" binding:"required"`    // Password must be provided
}

// Request struct for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Message string       `json:"message"` // Outcome message
	Token   string       `json:"token"`   // JWT token
	User    *domain.User `json:"user"`    // User summary (id, username, email)
}

// RegisterHandler creates a user and returns a token for it
func RegisterHandler(users *store.UserStore, tokens *utils.TokenService, pub events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.String(http.StatusBadRequest, "Invalid request")
			return
		}
		ctx := c.Request.Context()
		// Check if username already exists
		if taken, err := users.ExistsByUsername(ctx, req.Username); err != nil {
			registrationFailed(c, err)
			return
		} else if taken {
			c.String(http.StatusBadRequest, "Username already exists")
			return
		}
		// Check if email already exists
		if taken, err := users.ExistsByEmail(ctx, req.Email); err != nil {
			registrationFailed(c, err)
			return
		} else if taken {
			c.String(http.StatusBadRequest, "Email already exists")
			return
		}
		// Create the user; the store hashes the password
		user, err := users.Create(ctx, domain.UserInput{Username: req.Username, Email: req.Email, Password: req.Password})
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				// Lost a race with a concurrent registration
				c.String(http.StatusBadRequest, domain.Message(err))
				return
			}
			registrationFailed(c, err)
			return
		}
		// Generate JWT token keyed by email
		token, err := tokens.Issue(user.Email)
		if err != nil {
			registrationFailed(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,       // User ID
			"username": user.Username, // Username
		}).Info("User registered")
		publish(c, pub, events.New(events.UserRegistered, user.ID, 0))
		// Return success response
		c.JSON(http.StatusCreated, AuthResponse{Message: "User registered successfully", Token: token, User: user})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(users *store.UserStore, tokens *utils.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.String(http.StatusBadRequest, "Invalid request")
			return
		}
		// Same answer for unknown username and wrong password
		user, err := users.Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidCredentials) {
				c.String(http.StatusUnauthorized, domain.Message(err))
				return
			}
			loginFailed(c, err)
			return
		}
		// Generate JWT token keyed by email, the subject the auth middleware resolves
		token, err := tokens.Issue(user.Email)
		if err != nil {
			loginFailed(c, err)
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Message: "Login successful", Token: token, User: user})
	}
}

// ProfileHandler returns the authenticated user
func ProfileHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, _, ok := middleware.Identity(c) // Get identity from context
		if !ok {
			c.String(http.StatusUnauthorized, middleware.MsgMissingToken)
			return
		}
		user, err := users.GetByEmail(c.Request.Context(), email)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.String(http.StatusUnauthorized, middleware.MsgInvalidToken)
				return
			}
			internalError(c, "Failed to load profile", err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// registrationFailed keeps the legacy behaviour of echoing the internal error to the client.
func registrationFailed(c *gin.Context, err error) {
	logrus.WithField("error", err.Error()).Error("Registration failed")
	c.String(http.StatusInternalServerError, "Registration failed: "+err.Error())
}

// loginFailed keeps the legacy behaviour of echoing the internal error to the client.
func loginFailed(c *gin.Context, err error) {
	logrus.WithField("error", err.Error()).Error("Login failed")
	c.String(http.StatusInternalServerError, "Login failed: "+err.Error())
}
