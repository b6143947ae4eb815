package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Moost999/BidUI/internal/auction"
	"github.com/Moost999/BidUI/internal/cache"
	"github.com/Moost999/BidUI/internal/queue"
	queue_publisher "github.com/Moost999/BidUI/internal/service"
)

// BidHandler serves the bidder-facing endpoints: placing and withdrawing
// bids and reading one's own standing. All point movement happens inside
// the engine; this layer only translates HTTP to engine calls, refreshes
// the leading cache and emits notification events.
type BidHandler struct {
	Engine  *auction.Engine
	Leading *cache.LeadingCache
}

func NewBidHandler(e *auction.Engine, lc *cache.LeadingCache) *BidHandler {
	return &BidHandler{Engine: e, Leading: lc}
}

type placeBidReq struct {
	Amount int64 `json:"amount"`
}

// Place submits a bid on one option. A second bid by the same user on the
// same option replaces the first; the engine only ever reserves the
// difference. Event publication and cache refresh are best-effort: the bid
// is already accepted when they run.
func (h *BidHandler) Place(c echo.Context) error {
	uid, err := contextUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	auctionID, err := strconv.ParseUint(c.Param("auction_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}
	optionKey := c.Param("option_key")

	var req placeBidReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	placement, err := h.Engine.PlaceBid(auctionID, optionKey, uid, req.Amount)
	if err != nil {
		return auctionError(c, err)
	}

	h.Leading.SetLeading(c.Request().Context(), auctionID, optionKey, placement.Leading)

	ev := queue.BidEvent{
		Kind:         queue.KindBidPlaced,
		AuctionID:    auctionID,
		OptionKey:    optionKey,
		UserID:       uid,
		Amount:       req.Amount,
		Leading:      placement.Leading,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
		OutbidUserID: placement.OutbidUserID,
		OutbidAmount: placement.OutbidAmount,
	}
	if placement.OutbidUserID != 0 {
		ev.Kind = queue.KindBidOutbid
	}
	_ = queue_publisher.PublishBidEvent(c.Request().Context(), ev)

	return c.JSON(http.StatusCreated, echo.Map{
		"auction_id": auctionID,
		"option_key": optionKey,
		"amount":     req.Amount,
		"leading":    placement.Leading,
		"balance":    h.Engine.Balance(uid),
	})
}

// Withdraw cancels the caller's bid on an option and releases its points.
func (h *BidHandler) Withdraw(c echo.Context) error {
	uid, err := contextUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	auctionID, err := strconv.ParseUint(c.Param("auction_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}
	optionKey := c.Param("option_key")

	if err := h.Engine.WithdrawBid(auctionID, optionKey, uid); err != nil {
		return auctionError(c, err)
	}
	// The new leading amount needs a recount, let readers repopulate it.
	h.Leading.Invalidate(c.Request().Context(), auctionID, optionKey)

	return c.JSON(http.StatusOK, echo.Map{
		"auction_id": auctionID,
		"option_key": optionKey,
		"balance":    h.Engine.Balance(uid),
	})
}

// Points returns the caller's full point account.
func (h *BidHandler) Points(c echo.Context) error {
	uid, err := contextUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	acct, ok := h.Engine.Ledger().Snapshot(uid)
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{"granted": 0, "balance": 0, "reserved": 0, "spent": 0})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"granted":  acct.Granted,
		"balance":  acct.Balance,
		"reserved": acct.Reserved,
		"spent":    acct.Spent,
	})
}

// MyBids lists the caller's active bids across every auction, with the
// current leading amount next to each so the UI can flag outbid positions.
func (h *BidHandler) MyBids(c echo.Context) error {
	uid, err := contextUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	type myBid struct {
		AuctionID uint64 `json:"auction_id"`
		OptionKey string `json:"option_key"`
		Amount    int64  `json:"amount"`
		Leading   int64  `json:"leading"`
		IsLeading bool   `json:"is_leading"`
	}
	var out []myBid
	for _, auctionID := range h.Engine.Catalog().IDs() {
		keys, err := h.Engine.Catalog().OptionKeys(auctionID)
		if err != nil {
			continue
		}
		for _, key := range keys {
			bids, err := h.Engine.Bids(auctionID, key)
			if err != nil {
				continue
			}
			leading, _ := h.Engine.Leading(auctionID, key)
			for _, b := range bids {
				if b.UserID != uid {
					continue
				}
				out = append(out, myBid{
					AuctionID: auctionID,
					OptionKey: key,
					Amount:    b.Amount,
					Leading:   leading,
					IsLeading: b.Amount == leading,
				})
			}
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"bids": out})
}
