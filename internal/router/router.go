// Package router wires HTTP routes to handlers and applies the auth,
// role-guard, rate-limit and cache middleware per route group.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/coachware/fitness-coaching-backend/internal/config"
	"github.com/coachware/fitness-coaching-backend/internal/handler"
	"github.com/coachware/fitness-coaching-backend/internal/middleware"
	"github.com/coachware/fitness-coaching-backend/internal/model"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Sessions *handler.SessionHandler
	Clients  *handler.ClientHandler
	Coaches  *handler.CoachHandler
	Kids     *handler.KidHandler
	Calendar *handler.CalendarHandler
	Team     *handler.TeamHandler
}

// RegisterRoutes registers the unauthenticated endpoints, currently only
// the health check used by load balancers.
func RegisterRoutes(e *echo.Echo, db *sql.DB, rdb *redis.Client) {
	e.GET("/healthz", handler.Health(db, rdb))
}

// RegisterAuth mounts the credential endpoints under /v1/auth.  The whole
// group is rate limited: login and refresh are the brute-force surface.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	g.Use(middleware.RateLimit(rl, rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterAPI mounts every authenticated endpoint under /v1.  JWTAuth runs
// for the whole group; role guards are applied per route.
func RegisterAPI(e *echo.Echo, h Handlers, jwtSecret string, cache config.CacheConfig, rdb *redis.Client) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleTeam)
	staffOrCoach := middleware.RequireRole(model.RoleAdmin, model.RoleTeam, model.RoleCoach)
	clientOnly := middleware.RequireRole(model.RoleClient)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))

	// Account self-service.
	v1.GET("/auth/me", h.Auth.Me)
	v1.POST("/auth/change-password", h.Auth.ChangePassword)
	v1.POST("/auth/logout-all", h.Auth.LogoutAll)

	// Sessions.
	v1.POST("/sessions", h.Sessions.Create)
	v1.GET("/sessions", h.Sessions.List)
	v1.GET("/sessions/upcoming", h.Sessions.Upcoming)
	v1.POST("/sessions/check-availability", h.Sessions.CheckAvailability)
	v1.GET("/sessions/:id", h.Sessions.Get)
	v1.PATCH("/sessions/:id", h.Sessions.Update, staffOrCoach)
	v1.POST("/sessions/:id/status", h.Sessions.UpdateStatus, staffOrCoach)
	v1.POST("/sessions/:id/cancel", h.Sessions.Cancel)
	v1.POST("/sessions/:id/feedback", h.Sessions.AddFeedback, clientOnly)

	// Client profiles.
	v1.POST("/clients", h.Clients.Create)
	v1.GET("/clients", h.Clients.List, staffOrCoach)
	v1.GET("/clients/me", h.Clients.Me, clientOnly)
	v1.GET("/clients/:id", h.Clients.Get)
	v1.PATCH("/clients/:id", h.Clients.Update)
	v1.POST("/clients/:id/assign-coach", h.Team.AssignCoach, staff)

	// Coach profiles.  The listing is the hottest read, so it sits behind
	// the Redis response cache.
	v1.GET("/coaches", h.Coaches.List, middleware.ResponseCache(cache, rdb))
	v1.GET("/coaches/me", h.Coaches.Me, middleware.RequireRole(model.RoleCoach))
	v1.GET("/coaches/:id", h.Coaches.Get)
	v1.GET("/coaches/:id/stats", h.Sessions.Stats, staffOrCoach)
	v1.POST("/coaches", h.Coaches.Create, staffOrCoach)
	v1.PATCH("/coaches/:id", h.Coaches.Update, staffOrCoach)

	// Kids.
	v1.POST("/kids", h.Kids.Create, clientOnly)
	v1.GET("/kids", h.Kids.List, middleware.RequireRole(model.RoleClient, model.RoleAdmin, model.RoleTeam))
	v1.GET("/kids/:id", h.Kids.Get)

	// Calendar connections.
	v1.POST("/calendar/connect", h.Calendar.Connect)
	v1.GET("/calendar/status", h.Calendar.Status)
	v1.POST("/calendar/sync", h.Calendar.Sync)

	// User administration.
	admin := v1.Group("/admin", staff)
	admin.GET("/users", h.Team.ListUsers)
	admin.GET("/users/:id", h.Team.GetUser)
	admin.PATCH("/users/:id/status", h.Team.UpdateUserStatus)
}
