package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/Moost999/BidUI/internal/utils"
)

// The bucket key must identify the authenticated bidder. JWT numeric
// claims decode as float64, which is exactly what JWTAuth stores under
// "user_id"; a limiter that only accepted strings would silently key
// every bidder as "anon" and make them share one bucket.
func TestCurrentUserID_AuthenticatedBidder(t *testing.T) {
	access, err := utils.NewAccessToken("test-secret", 42, "BIDDER", 5)
	assert.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auctions/1/options/main/bids", nil)
	req.Header.Set("Authorization", "Bearer "+access.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got string
	h := JWTAuth("test-secret")(func(c echo.Context) error {
		got = currentUserID(c)
		return nil
	})
	assert.NoError(t, h(c))
	check.Equal(t, "42", got)
}

func TestCurrentUserID_ClaimShapes(t *testing.T) {
	e := echo.New()
	newCtx := func() echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return e.NewContext(req, httptest.NewRecorder())
	}

	c := newCtx()
	c.Set("user_id", float64(7))
	check.Equal(t, "7", currentUserID(c))

	c = newCtx()
	c.Set("user_id", "19")
	check.Equal(t, "19", currentUserID(c))

	// No identity in context falls back to the shared bucket.
	check.Equal(t, "anon", currentUserID(newCtx()))
}
