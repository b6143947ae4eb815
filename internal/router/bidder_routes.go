package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Moost999/BidUI/internal/config"
	"github.com/Moost999/BidUI/internal/handler"
	"github.com/Moost999/BidUI/internal/middleware"
)

// RegisterBidder registers the bidder endpoints under /v1. Placing a bid
// runs through the Redis token bucket so one user cannot flood an option
// during a bidding war; reads and withdrawals are not limited.
func RegisterBidder(e *echo.Echo, b *handler.BidHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("BIDDER"))

	limited := g.Group("")
	limited.Use(middleware.NewTokenBucket(rlCfg, rdb))
	limited.POST("/auctions/:auction_id/options/:option_key/bids", b.Place)

	g.DELETE("/auctions/:auction_id/options/:option_key/bids", b.Withdraw)
	g.GET("/points", b.Points)
	g.GET("/bids", b.MyBids)
}
