package api

import (
	"github.com/File-Sharing-BondBridg/Photo-Service/cmd/middleware"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/auth"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/logger"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/sessions"
	"github.com/gin-gonic/gin"
)

// Deps is everything the routes need. Auth is nil when login is disabled.
type Deps struct {
	Photos *handlers.Handler
	Auth   *AuthDeps
	Log    *logger.Logger
}

type AuthDeps struct {
	Handler  *handlers.AuthHandler
	Provider auth.IdentityProvider
	Store    sessions.Store
	Cookie   *sessions.Cookie
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	h := deps.Photos

	r.GET("/health", handlers.HealthCheck)

	var gate []gin.HandlerFunc
	if a := deps.Auth; a != nil {
		r.Use(middleware.LoadSession(a.Store, a.Cookie, deps.Log))

		r.GET("/login", a.Handler.Login)
		r.GET("/oauth2callback", a.Handler.Callback)
		r.GET("/logout", a.Handler.Logout)

		gate = append(gate, middleware.RequireAuth(a.Provider, deps.Log))
	}

	r.GET("/", h.Index)

	pages := r.Group("/", gate...)
	{
		pages.GET("/upload-form", h.UploadForm)
		pages.GET("/upload", h.UploadForm)
		pages.POST("/upload", h.Upload)

		pages.GET("/gallery", h.Gallery)
		pages.GET("/album/:name", h.Album)
		pages.GET("/albums", h.Albums)

		pages.GET("/create-album", h.CreateAlbumForm)
		pages.POST("/create-album", h.CreateAlbum)
		pages.POST("/delete", h.DeleteFile)
		pages.POST("/delete-album", h.DeleteAlbum)

		pages.GET("/uploads/*filepath", h.Serve)
		pages.GET("/download/*filepath", h.Download)
	}

	// CORS runs before the gate so preflight requests never need credentials
	api := r.Group("/api", append([]gin.HandlerFunc{corsMiddleware()}, gate...)...)
	{
		api.GET("/files", h.ListFiles)
		api.GET("/albums", h.ListAlbums)
		api.OPTIONS("/*any", func(*gin.Context) {})
	}
}
