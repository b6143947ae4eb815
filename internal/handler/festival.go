package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Moost999/BidUI/internal/auction"
	"github.com/Moost999/BidUI/internal/cache"
	"github.com/Moost999/BidUI/internal/repository"
)

// FestivalHandler serves the public browse endpoints: festivals, their
// auction line-ups and live leading amounts. Descriptive data comes from
// the database, live amounts from the engine through the leading cache.
type FestivalHandler struct {
	Festivals   *repository.FestivalRepo
	Settlements *repository.SettlementRepo
	Engine      *auction.Engine
	Leading     *cache.LeadingCache
}

func NewFestivalHandler(f *repository.FestivalRepo, s *repository.SettlementRepo, e *auction.Engine, lc *cache.LeadingCache) *FestivalHandler {
	return &FestivalHandler{Festivals: f, Settlements: s, Engine: e, Leading: lc}
}

// List returns all festivals.
func (h *FestivalHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	festivals, err := h.Festivals.ListFestivals(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"festivals": festivals})
}

// Auctions returns a festival's auctions with status from the engine,
// which is authoritative for OPEN/CLOSED while the process is running.
func (h *FestivalHandler) Auctions(c echo.Context) error {
	festivalID, err := strconv.ParseUint(c.Param("festival_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid festival id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	auctions, err := h.Festivals.ListAuctionsByFestival(ctx, festivalID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	for i := range auctions {
		if st, err := h.Engine.Catalog().Status(auctions[i].ID); err == nil {
			auctions[i].Status = string(st)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"auctions": auctions})
}

type optionView struct {
	OptionKey string `json:"option_key"`
	Label     string `json:"label"`
	Leading   int64  `json:"leading"`
	Bids      int    `json:"bids"`
}

// Auction returns one auction with its option line-up, each option
// annotated with its current leading amount and bid count. Leading amounts
// are read through the cache; a miss falls back to the engine and warms
// the cache for the next reader.
func (h *FestivalHandler) Auction(c echo.Context) error {
	auctionID, err := strconv.ParseUint(c.Param("auction_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Festivals.GetAuction(ctx, auctionID)
	if err != nil {
		if err == repository.ErrAuctionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "auction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if st, err := h.Engine.Catalog().Status(a.ID); err == nil {
		a.Status = string(st)
	}

	options, err := h.Festivals.ListOptions(ctx, auctionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	views := make([]optionView, 0, len(options))
	for _, opt := range options {
		v := optionView{OptionKey: opt.OptionKey, Label: opt.Label}
		if leading, ok := h.Leading.GetLeading(ctx, auctionID, opt.OptionKey); ok {
			v.Leading = leading
		} else if leading, err := h.Engine.Leading(auctionID, opt.OptionKey); err == nil {
			v.Leading = leading
			h.Leading.SetLeading(ctx, auctionID, opt.OptionKey, leading)
		}
		if bids, err := h.Engine.Bids(auctionID, opt.OptionKey); err == nil {
			v.Bids = len(bids)
		}
		views = append(views, v)
	}

	return c.JSON(http.StatusOK, echo.Map{"auction": a, "options": views})
}

// OptionLeading returns one option's current leading amount, cache-first.
func (h *FestivalHandler) OptionLeading(c echo.Context) error {
	auctionID, err := strconv.ParseUint(c.Param("auction_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}
	optionKey := c.Param("option_key")

	ctx := c.Request().Context()
	if leading, ok := h.Leading.GetLeading(ctx, auctionID, optionKey); ok {
		return c.JSON(http.StatusOK, echo.Map{"option_key": optionKey, "leading": leading})
	}
	leading, err := h.Engine.Leading(auctionID, optionKey)
	if err != nil {
		return auctionError(c, err)
	}
	h.Leading.SetLeading(ctx, auctionID, optionKey, leading)
	return c.JSON(http.StatusOK, echo.Map{"option_key": optionKey, "leading": leading})
}

// Results returns the persisted settlement ranking for an auction.
func (h *FestivalHandler) Results(c echo.Context) error {
	auctionID, err := strconv.ParseUint(c.Param("auction_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	results, err := h.Settlements.ListByAuction(ctx, auctionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"results": results})
}
