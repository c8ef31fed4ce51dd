package betfair

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Usmankhan866/BetfairBot/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Betfair.AppKey = "test-key"
	cfg.Betfair.SessionToken = "test-token"
	cfg.Betfair.RestURL = srv.URL
	cfg.Betfair.AccountURL = srv.URL
	cfg.Betfair.IdentityURL = srv.URL

	c, err := NewClient(cfg, zap.NewNop())
	require.NoError(t, err)
	return c, srv
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	cfg := &config.Config{}
	_, err := NewClient(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestListUpcomingRaces(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listMarketCatalogue/", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Application"))
		assert.Equal(t, "test-token", r.Header.Get("X-Authentication"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		filter := req["filter"].(map[string]any)
		assert.Equal(t, []any{"WIN"}, filter["marketTypeCodes"])

		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"marketId":        "1.234",
			"marketName":      "R4 1200m Hcap",
			"marketStartTime": "2026-08-29T05:30:00.000Z",
			"event":           map[string]any{"id": "33", "name": "Flemington"},
			"runners": []map[string]any{
				{"selectionId": 101, "runnerName": "Lucky Star"},
				{"selectionId": 102, "runnerName": "Night Train"},
			},
		}})
	})

	cards, err := c.ListUpcomingRaces(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, cards, 1)

	assert.Equal(t, "1.234", cards[0].Meta.MarketID)
	assert.Equal(t, "Flemington", cards[0].Meta.EventName)
	assert.Equal(t, 2, cards[0].Meta.RunnerCount)
	require.Len(t, cards[0].Runners, 2)
	assert.Equal(t, int64(101), cards[0].Runners[0].SelectionID)
	assert.Equal(t, "Lucky Star", cards[0].Runners[0].Name)
}

func TestMarketBook_MissingLaddersAreNotErrors(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listMarketBook/", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"marketId": "1.234",
			"status":   "OPEN",
			"runners": []map[string]any{
				{
					"selectionId": 101,
					"ex": map[string]any{
						"availableToBack": []map[string]any{{"price": 1.62, "size": 100.0}},
						"availableToLay":  []map[string]any{{"price": 3.0, "size": 55.0}},
					},
				},
				{
					// thin market: no offers on either side
					"selectionId": 102,
					"ex":          map[string]any{},
				},
			},
		}})
	})

	prices, err := c.MarketBook(context.Background(), "1.234")
	require.NoError(t, err)

	p101 := prices[101]
	assert.True(t, p101.HasBack)
	assert.Equal(t, 1.62, p101.BackPrice)
	assert.True(t, p101.HasLay)
	assert.Equal(t, 3.0, p101.LayPrice)

	p102 := prices[102]
	assert.False(t, p102.HasBack)
	assert.False(t, p102.HasLay)
}

func TestPlaceMarketID(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		filter := req["filter"].(map[string]any)

		if calls == 1 {
			assert.Equal(t, []any{"1.234"}, filter["marketIds"])
			_ = json.NewEncoder(w).Encode([]map[string]any{{
				"marketId": "1.234",
				"event":    map[string]any{"id": "33"},
			}})
			return
		}
		assert.Equal(t, []any{"33"}, filter["eventIds"])
		assert.Equal(t, []any{"PLACE"}, filter["marketTypeCodes"])
		_ = json.NewEncoder(w).Encode([]map[string]any{{"marketId": "1.235"}})
	})

	id, err := c.PlaceMarketID(context.Background(), "1.234")
	require.NoError(t, err)
	assert.Equal(t, "1.235", id)
	assert.Equal(t, 2, calls)
}

func TestPlaceBet_Success(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/placeOrders/", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "1.235", req["marketId"])
		inst := req["instructions"].([]any)[0].(map[string]any)
		assert.Equal(t, "BACK", inst["side"])
		assert.Equal(t, "LIMIT", inst["orderType"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "SUCCESS",
			"instructionReports": []map[string]any{{
				"status":              "SUCCESS",
				"betId":               "bet-42",
				"placedDate":          "2026-08-29T05:31:00.000Z",
				"sizeMatched":         2.0,
				"averagePriceMatched": 1.62,
			}},
		})
	})

	res, err := c.PlaceBet(context.Background(), "1.235", 101, 2.0, 1.62)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "bet-42", res.BetID)
	assert.Equal(t, 2.0, res.SizeMatch)
	assert.Equal(t, 1.62, res.AvgPrice)
}

func TestPlaceBet_ExchangeRejection(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "FAILURE",
			"errorCode": "INSUFFICIENT_FUNDS",
		})
	})

	res, err := c.PlaceBet(context.Background(), "1.235", 101, 2.0, 1.62)
	require.NoError(t, err, "exchange rejection is a result, not an error")
	assert.False(t, res.Success)
	assert.Equal(t, "INSUFFICIENT_FUNDS", res.ErrorCode)
}

func TestRPC_HTTPError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session expired", http.StatusForbidden)
	})

	_, err := c.ListUpcomingRaces(context.Background(), 2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestKeepAlive(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/keepAlive", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-Authentication"))
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "SUCCESS"})
	})
	assert.NoError(t, c.KeepAlive(context.Background()))
}

func TestKeepAlive_Rejected(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "FAIL", "error": "INVALID_SESSION_INFORMATION"})
	})
	err := c.KeepAlive(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_SESSION_INFORMATION")
}

func TestAccountFunds(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getAccountFunds/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"availableToBetBalance": 123.45})
	})

	bal, err := c.AccountFunds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 123.45, bal)
}
