package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/Moost999/BidUI/internal/auction"
	"github.com/Moost999/BidUI/internal/cache"
	"github.com/Moost999/BidUI/internal/config"
	"github.com/Moost999/BidUI/internal/database"
	"github.com/Moost999/BidUI/internal/handler"
	"github.com/Moost999/BidUI/internal/queue"
	"github.com/Moost999/BidUI/internal/repository"
	"github.com/Moost999/BidUI/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	festivals := repository.NewFestivalRepo(db)
	settlements := repository.NewSettlementRepo(db)

	// The engine holds all live bidding state in memory; the database is
	// the durable record it is rebuilt from at startup.
	engine := auction.NewEngine(auction.NewLedger())
	if err := seedEngine(engine, users, festivals); err != nil {
		log.Fatalf("seed engine: %v", err)
	}

	// Redis is optional: a nil client disables the leading cache and the
	// bid rate limiter, everything else runs unchanged.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, leading cache and rate limiting disabled")
	}
	leading := cache.NewLeadingCache(rdb, 30*time.Second)

	// Notification consumer writes bid/outbid/settled toasts to
	// logs/notifications.log. It reconnects on its own; a dead broker
	// never blocks bidding.
	go func() {
		if err := queue.StartBidEventConsumer(); err != nil {
			log.Printf("bid event consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	authH := handler.NewAuthHandler(cfg, users, tokens, engine)
	bidH := handler.NewBidHandler(engine, leading)
	festH := handler.NewFestivalHandler(festivals, settlements, engine, leading)
	adminH := handler.NewAdminAuctionHandler(cfg, festivals, settlements, engine, leading)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, festH)
	router.RegisterBidder(e, bidH, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)
	router.RegisterOrganizer(e, adminH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// seedEngine rebuilds the in-memory state from the durable record: every
// active user's point grant and every published auction with its line-up.
// Auctions recorded CLOSED are closed again in the catalog so no bids slip
// in after a restart.
func seedEngine(engine *auction.Engine, users *repository.UserRepo, festivals *repository.FestivalRepo) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	us, err := users.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, u := range us {
		if u.PointsGranted > 0 {
			engine.Ledger().Grant(u.ID, u.PointsGranted)
		}
	}

	auctions, err := festivals.ListAuctions(ctx)
	if err != nil {
		return err
	}
	for _, a := range auctions {
		options, err := festivals.ListOptions(ctx, a.ID)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(options))
		for _, o := range options {
			keys = append(keys, o.OptionKey)
		}
		engine.Catalog().Register(a.ID, a.FestivalID, a.Capacity, keys)
		if a.Status == string(auction.StatusClosed) {
			if err := engine.CloseAuction(a.ID); err != nil {
				return err
			}
		}
	}
	log.Printf("seeded engine: %d users, %d auctions", len(us), len(auctions))
	return nil
}
