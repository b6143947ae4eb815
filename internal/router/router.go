// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Moost999/BidUI/internal/handler"
	"github.com/Moost999/BidUI/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes. Unauthenticated
// operations live under /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// /refresh rotates the refresh token; /refresh-access only reissues the
	// short-lived access token.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh token in the body (single session) or
	// a bearer token (all sessions), so it stays outside the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("BIDDER", "ORGANIZER"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints: festivals,
// auction line-ups with live leading amounts, and settlement results.
// Guests can watch a bidding war without an account.
func RegisterPublic(e *echo.Echo, f *handler.FestivalHandler) {
	e.GET("/v1/festivals", f.List)
	e.GET("/v1/festivals/:festival_id/auctions", f.Auctions)
	e.GET("/v1/auctions/:auction_id", f.Auction)
	e.GET("/v1/auctions/:auction_id/options/:option_key/leading", f.OptionLeading)
	e.GET("/v1/auctions/:auction_id/results", f.Results)
}
