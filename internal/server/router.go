package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jarboard/backend/internal/handlers"
	"github.com/jarboard/backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	UserHandler    *handlers.UserHandler
	JarHandler     *handlers.JarHandler
	TagHandler     *handlers.TagHandler
	TodoHandler    *handlers.TodoHandler
	NoteHandler    *handlers.NoteHandler
	SuggestHandler *handlers.SuggestHandler
	StreamHandler  *handlers.StreamHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("jarboard-backend"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.PUT("/user/dashboard-layout", cfg.UserHandler.UpdateDashboardLayout)
	// Jars
	protected.POST("/jars", cfg.JarHandler.Create)
	protected.GET("/jars", cfg.JarHandler.List)
	protected.GET("/jars/:id", cfg.JarHandler.Get)
	protected.PUT("/jars/:id", cfg.JarHandler.UpdateDescription)
	protected.DELETE("/jars/:id", cfg.JarHandler.Delete)
	// Tags
	protected.POST("/tags", cfg.TagHandler.Create)
	protected.GET("/tags", cfg.TagHandler.List)
	protected.GET("/tags/:id", cfg.TagHandler.Get)
	protected.PUT("/tags/:id", cfg.TagHandler.UpdateDescription)
	protected.DELETE("/tags/:id", cfg.TagHandler.Delete)
	// Todos
	protected.POST("/todos", cfg.TodoHandler.Create)
	protected.GET("/todos", cfg.TodoHandler.List)
	protected.GET("/todos/:id", cfg.TodoHandler.Get)
	protected.PUT("/todos/:id", cfg.TodoHandler.Update)
	protected.PUT("/todos/:id/completed", cfg.TodoHandler.SetCompleted)
	protected.PUT("/todos/:id/links", cfg.TodoHandler.SetLinks)
	protected.DELETE("/todos/:id", cfg.TodoHandler.Delete)
	// Notes
	protected.POST("/notes", cfg.NoteHandler.Create)
	protected.GET("/notes", cfg.NoteHandler.List)
	protected.GET("/notes/:id", cfg.NoteHandler.Get)
	protected.PUT("/notes/:id", cfg.NoteHandler.Update)
	protected.DELETE("/notes/:id", cfg.NoteHandler.Delete)
	// Mention autocomplete
	protected.POST("/suggest", cfg.SuggestHandler.Suggest)
	// SSE
	protected.GET("/stream", cfg.StreamHandler.Stream)

	return router
}
