// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/swarnim921/Smart-Resume/internal/auth"
	"github.com/swarnim921/Smart-Resume/internal/handler"
	"github.com/swarnim921/Smart-Resume/internal/middleware"
	"github.com/swarnim921/Smart-Resume/internal/model"
)

// Deps carries everything Register mounts. OAuth may be nil, in which case
// the provider routes are not registered. RateLimit and Cache default to
// no-ops.
type Deps struct {
	Auth    *handler.AuthHandler
	Users   *handler.UserHandler
	OAuth   *handler.OAuthHandler
	Version handler.VersionHandler
	Store   handler.Pinger
	Tokens  middleware.TokenParser

	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }

// Register mounts every route.
func Register(e *echo.Echo, d Deps) {
	limit := d.RateLimit
	if limit == nil {
		limit = noop
	}
	cache := d.Cache
	if cache == nil {
		cache = noop
	}

	e.GET("/healthz", handler.Health)
	if d.Store != nil {
		e.GET("/readyz", handler.Ready(d.Store))
	}
	e.GET("/api/version", d.Version.Get, cache)

	a := e.Group("/auth")
	a.POST("/signup/candidate", d.Auth.Signup(auth.SignupCandidate))
	a.POST("/signup/recruiter", d.Auth.Signup(auth.SignupRecruiter))
	a.POST("/signin", d.Auth.Signin, limit)
	a.POST("/verify", d.Auth.Verify, limit)
	a.POST("/resend-code", d.Auth.Resend, limit)

	if d.OAuth != nil {
		e.GET("/oauth2/authorize/google", d.OAuth.Authorize)
		e.GET("/login/oauth2/code/google", d.OAuth.Callback)
	}

	e.POST("/api/admin/create-initial", d.Users.CreateInitialAdmin, limit)

	bearer := middleware.BearerAuth(d.Tokens)

	me := e.Group("/api/users", bearer)
	me.GET("/me", d.Users.Me)
	me.DELETE("/me", d.Users.DeleteMe)

	admin := e.Group("/api/admin", bearer, middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", d.Users.List)
	admin.POST("/update-role", d.Users.UpdateRole)
	admin.DELETE("/users/:email", d.Users.Delete)
}
