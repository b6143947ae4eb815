package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Moost999/BidUI/internal/auction"
	"github.com/Moost999/BidUI/internal/cache"
	"github.com/Moost999/BidUI/internal/config"
	"github.com/Moost999/BidUI/internal/model"
	"github.com/Moost999/BidUI/internal/queue"
	"github.com/Moost999/BidUI/internal/repository"
	queue_publisher "github.com/Moost999/BidUI/internal/service"
)

// AdminAuctionHandler serves the organizer endpoints: publishing festivals
// and auctions, closing bidding and settling options. Writes go to the
// database first, then the engine; the engine alone decides the outcome of
// close and settle, and the database mirrors it afterwards.
type AdminAuctionHandler struct {
	Cfg         config.Config
	Festivals   *repository.FestivalRepo
	Settlements *repository.SettlementRepo
	Engine      *auction.Engine
	Leading     *cache.LeadingCache
}

func NewAdminAuctionHandler(cfg config.Config, f *repository.FestivalRepo, s *repository.SettlementRepo, e *auction.Engine, lc *cache.LeadingCache) *AdminAuctionHandler {
	return &AdminAuctionHandler{Cfg: cfg, Festivals: f, Settlements: s, Engine: e, Leading: lc}
}

type createFestivalReq struct {
	Name   string `json:"name"`
	Slogan string `json:"slogan"`
}

// CreateFestival publishes a new festival.
func (h *AdminAuctionHandler) CreateFestival(c echo.Context) error {
	var req createFestivalReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Festivals.CreateFestival(ctx, strings.TrimSpace(req.Name), strings.TrimSpace(req.Slogan))
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "festival already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create festival failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

type createAuctionReq struct {
	Title    string `json:"title"`
	Capacity int    `json:"capacity"`
	Options  []struct {
		OptionKey string `json:"option_key"`
		Label     string `json:"label"`
	} `json:"options"`
}

// CreateAuction publishes an auction with its option line-up and registers
// it with the engine so bidding opens immediately. Capacity defaults to
// the configured per-user option limit when omitted.
func (h *AdminAuctionHandler) CreateAuction(c echo.Context) error {
	festivalID, err := strconv.ParseUint(c.Param("festival_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid festival id"})
	}

	var req createAuctionReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Title) == "" || len(req.Options) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and options required"})
	}
	capacity := req.Capacity
	if capacity <= 0 {
		capacity = h.Cfg.AuctionCapacity
	}

	options := make([]model.AuctionOption, 0, len(req.Options))
	keys := make([]string, 0, len(req.Options))
	for _, o := range req.Options {
		key := strings.TrimSpace(o.OptionKey)
		if key == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "option_key required"})
		}
		options = append(options, model.AuctionOption{OptionKey: key, Label: o.Label})
		keys = append(keys, key)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	auctionID, err := h.Festivals.CreateAuction(ctx, festivalID, strings.TrimSpace(req.Title), capacity, options)
	if err != nil {
		switch err {
		case repository.ErrFestivalNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "festival not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "duplicate option key"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create auction failed"})
		}
	}

	h.Engine.Catalog().Register(auctionID, festivalID, capacity, keys)

	return c.JSON(http.StatusCreated, echo.Map{"id": auctionID, "status": string(auction.StatusOpen)})
}

// Close transitions the auction to CLOSED in the engine, then mirrors the
// transition to the database. After this no bids can be placed or
// withdrawn; settlement remains possible.
func (h *AdminAuctionHandler) Close(c echo.Context) error {
	auctionID, err := strconv.ParseUint(c.Param("auction_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}

	if err := h.Engine.CloseAuction(auctionID); err != nil {
		return auctionError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Festivals.MarkClosed(ctx, auctionID); err != nil {
		// The engine already closed; the mirror catches up on next settle.
		c.Logger().Errorf("mark closed failed for auction %d: %v", auctionID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"id": auctionID, "status": string(auction.StatusClosed)})
}

type settleReq struct {
	WinnerSlots int `json:"winner_slots"`
}

// Settle runs the settlement for one option: the top bids win and their
// points are spent, every other bid is refunded. Settling a still-open
// auction closes it first. Results are persisted and announced on the
// event queue after the engine commits them.
func (h *AdminAuctionHandler) Settle(c echo.Context) error {
	auctionID, err := strconv.ParseUint(c.Param("auction_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}
	optionKey := c.Param("option_key")

	var req settleReq
	_ = c.Bind(&req)
	slots := req.WinnerSlots
	if slots <= 0 {
		slots = h.Cfg.WinnerSlots
	}

	results, err := h.Engine.Settle(auctionID, optionKey, slots)
	if err != nil {
		return auctionError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Festivals.MarkClosed(ctx, auctionID); err != nil {
		c.Logger().Errorf("mark closed failed for auction %d: %v", auctionID, err)
	}
	h.Leading.Invalidate(ctx, auctionID, optionKey)

	rows := make([]model.Settlement, 0, len(results))
	winners := make([]queue.SettledWinner, 0, len(results))
	var totalSpent int64
	for _, r := range results {
		rows = append(rows, model.Settlement{
			AuctionID: auctionID,
			OptionKey: optionKey,
			UserID:    r.UserID,
			Amount:    r.Amount,
			Rank:      r.Rank,
		})
		winners = append(winners, queue.SettledWinner{Rank: r.Rank, UserID: r.UserID, Amount: r.Amount})
		totalSpent += r.Amount
	}
	if err := h.Settlements.InsertResults(ctx, rows); err != nil {
		// Points already moved; the ranking can be re-derived from the
		// engine's books, so report but do not fail the settlement.
		c.Logger().Errorf("persist settlement failed for auction %d option %q: %v", auctionID, optionKey, err)
	}

	_ = queue_publisher.PublishAuctionSettled(c.Request().Context(), queue.AuctionSettledEvent{
		Kind:       queue.KindAuctionSettled,
		AuctionID:  auctionID,
		OptionKey:  optionKey,
		Winners:    winners,
		SettledAt:  time.Now().UTC().Format(time.RFC3339),
		TotalSpent: totalSpent,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"auction_id": auctionID,
		"option_key": optionKey,
		"winners":    results,
	})
}
