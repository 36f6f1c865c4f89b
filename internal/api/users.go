package api

import (
	"errors"   // Error kind checks
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"notes_system/internal/domain" // Importing domain models
	"notes_system/internal/events" // Lifecycle events
	"notes_system/internal/store"  // Persistence
)

// CreateUserRequest is the body of POST /api/users
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`    // Username must be provided
	Email    string `json:"email" binding:"required,email"` // Email must be provided
	Password string `json:"password" binding:"required"`    // Plaintext password, hashed by the store
}

// UpdateUserRequest is the body of PUT /api/users/:id
type UpdateUserRequest struct {
	Username string `json:"username" binding:"required"`    // New username
	Email    string `json:"email" binding:"required,email"` // New email
	Password string `json:"password"`                       // New password, empty keeps the current one
}

// ListUsersHandler returns all users
func ListUsersHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := users.List(c.Request.Context())
		if err != nil {
			internalError(c, "Failed to fetch users", err)
			return
		}
		if list == nil {
			list = []domain.User{} // Encode as [] rather than null
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetUserHandler returns a user by id
func GetUserHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			c.String(http.StatusBadRequest, "Invalid user id")
			return
		}
		user, err := users.GetByID(c.Request.Context(), id)
		respondUser(c, user, err)
	}
}

// GetUserByUsernameHandler returns a user by username
func GetUserByUsernameHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.GetByUsername(c.Request.Context(), c.Param("username"))
		respondUser(c, user, err)
	}
}

// GetUserByEmailHandler returns a user by email
func GetUserByEmailHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.GetByEmail(c.Request.Context(), c.Param("email"))
		respondUser(c, user, err)
	}
}

// CreateUserHandler creates a user directly, bypassing registration
func CreateUserHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, "Invalid request")
			return
		}
		user, err := users.Create(c.Request.Context(), domain.UserInput{Username: req.Username, Email: req.Email, Password: req.Password})
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				c.String(http.StatusBadRequest, domain.Message(err))
				return
			}
			internalError(c, "Failed to create user", err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

// UpdateUserHandler overwrites a user's username, email and password
func UpdateUserHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			c.String(http.StatusBadRequest, "Invalid user id")
			return
		}
		var req UpdateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, "Invalid request")
			return
		}
		user, err := users.Update(c.Request.Context(), id, domain.UserInput{Username: req.Username, Email: req.Email, Password: req.Password})
		if err != nil {
			// Missing user and taken username/email both answer 400
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
				c.String(http.StatusBadRequest, domain.Message(err))
				return
			}
			internalError(c, "Failed to update user", err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// DeleteUserHandler removes a user and its notes
func DeleteUserHandler(users *store.UserStore, pub events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			c.String(http.StatusBadRequest, "Invalid user id")
			return
		}
		if err := users.Delete(c.Request.Context(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.String(http.StatusNotFound, domain.Message(err))
				return
			}
			internalError(c, "Failed to delete user", err)
			return
		}
		publish(c, pub, events.New(events.UserDeleted, id, 0))
		c.String(http.StatusOK, "User deleted successfully")
	}
}

// UsernameExistsHandler reports whether a username is taken
func UsernameExistsHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		exists, err := users.ExistsByUsername(c.Request.Context(), c.Param("username"))
		respondExists(c, exists, err)
	}
}

// EmailExistsHandler reports whether an email is taken
func EmailExistsHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		exists, err := users.ExistsByEmail(c.Request.Context(), c.Param("email"))
		respondExists(c, exists, err)
	}
}

func respondUser(c *gin.Context, user *domain.User, err error) {
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.String(http.StatusNotFound, domain.Message(err))
			return
		}
		internalError(c, "Failed to fetch user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func respondExists(c *gin.Context, exists bool, err error) {
	if err != nil {
		internalError(c, "Failed to check user", err)
		return
	}
	c.JSON(http.StatusOK, exists)
}
