package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Moost999/BidUI/internal/auction"
)

// auctionError maps engine errors onto HTTP responses with a stable error
// code so clients can branch without parsing messages. Unknown errors are
// reported as 500 with a generic body.
func auctionError(c echo.Context, err error) error {
	type mapping struct {
		target error
		status int
		code   string
	}
	mappings := []mapping{
		{auction.ErrNoSuchAuction, http.StatusNotFound, "auction_not_found"},
		{auction.ErrNoSuchOption, http.StatusNotFound, "option_not_found"},
		{auction.ErrNoSuchBid, http.StatusNotFound, "bid_not_found"},
		{auction.ErrAuctionClosed, http.StatusConflict, "auction_closed"},
		{auction.ErrAlreadyClosed, http.StatusConflict, "already_closed"},
		{auction.ErrAlreadySettled, http.StatusConflict, "already_settled"},
		{auction.ErrBidTooLow, http.StatusUnprocessableEntity, "bid_too_low"},
		{auction.ErrInsufficientPoints, http.StatusUnprocessableEntity, "insufficient_points"},
		{auction.ErrCapacityExceeded, http.StatusUnprocessableEntity, "capacity_exceeded"},
		{auction.ErrSettlementFailed, http.StatusConflict, "settlement_failed"},
	}
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return c.JSON(m.status, echo.Map{"error": m.code, "message": err.Error()})
		}
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "unexpected error"})
}
