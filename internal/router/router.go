// Package router maps the HTTP surface onto handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/olekventi/chatly/internal/auth"
	"github.com/olekventi/chatly/internal/config"
	"github.com/olekventi/chatly/internal/handler"
	"github.com/olekventi/chatly/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the account and session endpoints. The open auth
// surface sits behind the token-bucket throttle; everything under /v1
// requires a user access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, acc *handler.AccountHandler, issuer *auth.TokenIssuer, throttle config.ThrottleConfig, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	g.Use(middleware.NewAuthThrottle(throttle, rdb))
	g.POST("/register", a.Register)
	g.POST("/verify-registration", a.VerifyRegistration)
	g.POST("/login", a.Login)
	// Refresh and logout authenticate with the refresh token itself; by
	// the time either is called the access token is usually expired.
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.POST("/forgot-password", acc.ForgotPassword)
	g.POST("/reset-password", acc.ResetPassword)

	authed := e.Group("/v1")
	authed.Use(middleware.UserAuth(issuer))
	authed.GET("/me", a.Me)
	authed.POST("/account/change", acc.Change)
	authed.POST("/account/verify-change", acc.VerifyChange)
}

// RegisterClient wires the anonymous-principal surface: token issuance
// is open (throttled), the contact form needs a client token.
func RegisterClient(e *echo.Echo, h *handler.ClientHandler, issuer *auth.TokenIssuer, throttle config.ThrottleConfig, rdb *redis.Client) {
	e.POST("/v1/client/token", h.Token, middleware.NewAuthThrottle(throttle, rdb))

	g := e.Group("/v1/client")
	g.Use(middleware.ClientAuth(issuer))
	g.POST("/contact", h.ContactForm)
}

// RegisterRooms wires room management. Every route requires a user
// access token; per-capability checks live in the service layer.
func RegisterRooms(e *echo.Echo, h *handler.RoomHandler, issuer *auth.TokenIssuer) {
	g := e.Group("/v1/rooms")
	g.Use(middleware.UserAuth(issuer))
	g.POST("", h.Create)
	g.DELETE("/:room_id", h.Delete)
	g.POST("/:room_id/enter", h.Enter)
	g.POST("/:room_id/members", h.AddMember)
	g.DELETE("/:room_id/members/:member_id", h.RemoveMember)
	g.POST("/:room_id/leave", h.Leave)
	g.PUT("/:room_id/members/:member_id/rights", h.ChangeRights)
	g.GET("/:room_id/rights", h.MyRights)
	g.GET("/:room_id/authorize/message-delete", h.AuthorizeMessageDelete)
}
