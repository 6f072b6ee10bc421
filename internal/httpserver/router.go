package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	mwauth "github.com/Skotchmaster/social_feed/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/social_feed/internal/middleware/logging"
)

type Deps struct {
	Handlers *Handlers
	Auth     mwauth.Authenticator
}

func New(base *slog.Logger, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	e.Use(loggingmw.RequestLogger(base))
	e.Use(middleware.BodyLimit("1M"))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	h := d.Handlers
	requireLogin := mwauth.RequireLogin(d.Auth)

	e.GET("/health/live", h.Live)
	e.GET("/health/ready", h.Ready)

	api := e.Group("/api")

	api.POST("/signup", h.Signup)
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)

	user := api.Group("/user", requireLogin)
	user.GET("", h.Me)
	user.PUT("", h.UpdateMe)
	user.PUT("/:id", h.UpdateMe)
	user.DELETE("", h.DeleteMe)
	user.DELETE("/:id", h.DeleteMe)

	api.GET("/posts", h.ListPosts)
	api.GET("/posts/search", h.SearchPosts)
	api.GET("/posts/:id", h.GetPost)
	api.GET("/posts/:id/comments", h.ListComments)
	api.POST("/posts", h.CreatePost, requireLogin)
	api.DELETE("/posts/:id", h.DeletePost, requireLogin)
	api.POST("/posts/:id/comments", h.CreateComment, requireLogin)
	api.POST("/posts/:id/likes", h.Like, requireLogin)
	api.DELETE("/posts/:id/likes", h.Unlike, requireLogin)

	api.DELETE("/comments/:id", h.DeleteComment, requireLogin)

	api.GET("/tutorials", h.ListTutorials)
	api.POST("/tutorials", h.CreateTutorial, requireLogin)
	api.DELETE("/tutorials/:id", h.DeleteTutorial, requireLogin)

	api.GET("/news", h.ListNews)
}
