package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Moost999/BidUI/internal/handler"
	"github.com/Moost999/BidUI/internal/middleware"
)

// RegisterOrganizer registers the organizer endpoints under /v1/admin.
// Only users with the ORGANIZER role may publish festivals and auctions,
// close bidding or settle options.
func RegisterOrganizer(e *echo.Echo, a *handler.AdminAuctionHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ORGANIZER"))

	g.POST("/festivals", a.CreateFestival)
	g.POST("/festivals/:festival_id/auctions", a.CreateAuction)
	g.POST("/auctions/:auction_id/close", a.Close)
	g.POST("/auctions/:auction_id/options/:option_key/settle", a.Settle)
}
