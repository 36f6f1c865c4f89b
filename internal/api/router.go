package api

import (
	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library

	"notes_system/internal/events"     // Lifecycle events
	"notes_system/internal/metrics"    // Prometheus metrics
	"notes_system/internal/middleware" // Custom middleware
	"notes_system/internal/store"      // Persistence
	"notes_system/internal/utils"      // Token service
)

// Deps are the collaborators the HTTP layer is built from
type Deps struct {
	DB          *gorm.DB               // Used by the health check
	Users       *store.UserStore       // User persistence
	Notes       *store.NoteStore       // Note persistence
	Tokens      *utils.TokenService    // Token issuing and validation
	Events      events.Publisher       // Lifecycle events, may be nil
	Metrics     *metrics.Metrics       // Request metrics, may be nil
	Auth        middleware.AuthOptions // Public paths and missing-token policy
	CORSOrigins []string               // Allowed browser origins
}

// NewRouter builds the Gin engine with every route and middleware
func NewRouter(d Deps) *gin.Engine {
	r := gin.New() // Gin router instance
	r.Use(gin.Recovery(), middleware.CORS(d.CORSOrigins), middleware.RequestLogger())

	// Metrics are recorded for every request, including rejected ones
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	authn := middleware.NewAuthenticator(d.Tokens, d.Users, d.Auth)
	r.Use(authn.Handler()) // Protect every non-public path

	r.GET("/health", HealthHandler(d.DB)) // Health endpoint

	// Auth routes
	authGroup := r.Group("/api/auth")
	authGroup.POST("/register", RegisterHandler(d.Users, d.Tokens, d.Events)) // Registration endpoint
	authGroup.POST("/login", LoginHandler(d.Users, d.Tokens))                 // Login endpoint
	authGroup.GET("/profile", authn.Require(), ProfileHandler(d.Users))       // Current user endpoint

	// User routes
	userGroup := r.Group("/api/users")
	userGroup.GET("", ListUsersHandler(d.Users))                                // List users
	userGroup.POST("", CreateUserHandler(d.Users))                              // Create user
	userGroup.GET("/:id", GetUserHandler(d.Users))                              // Get user by id
	userGroup.PUT("/:id", UpdateUserHandler(d.Users))                           // Update user
	userGroup.DELETE("/:id", DeleteUserHandler(d.Users, d.Events))              // Delete user and notes
	userGroup.GET("/username/:username", GetUserByUsernameHandler(d.Users))     // Get user by username
	userGroup.GET("/email/:email", GetUserByEmailHandler(d.Users))              // Get user by email
	userGroup.GET("/exists/username/:username", UsernameExistsHandler(d.Users)) // Username taken?
	userGroup.GET("/exists/email/:email", EmailExistsHandler(d.Users))          // Email taken?

	// Note routes
	noteGroup := r.Group("/api/notes")
	noteGroup.GET("/user/:userId", GetNotesByUserHandler(d.Notes))        // Notes of a user
	noteGroup.POST("/user/:userId", CreateNoteHandler(d.Notes, d.Events)) // Create note for a user
	noteGroup.GET("/:id", GetNoteHandler(d.Notes))                        // Get note
	noteGroup.PUT("/:id", UpdateNoteHandler(d.Notes, d.Events))           // Update note
	noteGroup.DELETE("/:id", DeleteNoteHandler(d.Notes, d.Events))        // Delete note

	return r
}
