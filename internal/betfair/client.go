package betfair

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Usmankhan866/BetfairBot/internal/config"
	imetrics "github.com/Usmankhan866/BetfairBot/internal/metrics"
	"github.com/Usmankhan866/BetfairBot/internal/types"
)

// Client talks to the Betfair exchange REST API using a pre-generated
// session token. It is the only place exchange JSON is parsed; everything
// past this boundary works with well-formed records.
type Client struct {
	cfg  *config.Config
	log  *zap.Logger
	http *http.Client
}

func NewClient(cfg *config.Config, log *zap.Logger) (*Client, error) {
	if cfg.Betfair.AppKey == "" || cfg.Betfair.SessionToken == "" {
		return nil, fmt.Errorf("betfair: app_key and session_token are required")
	}
	return &Client{cfg: cfg, log: log, http: &http.Client{Timeout: 6 * time.Second}}, nil
}

// RaceCard is a WIN market catalogue entry with its runners.
type RaceCard struct {
	Meta    types.RaceMeta
	Runners []types.RunnerMeta
}

// PricePoint is the best available back and lay price for one selection.
// Empty ladders leave the presence flag false; that is a normal condition
// (thin market), distinct from a malformed response.
type PricePoint struct {
	BackPrice float64
	HasBack   bool
	LayPrice  float64
	HasLay    bool
}

type marketFilter struct {
	EventTypeIDs    []string          `json:"eventTypeIds,omitempty"`
	EventIDs        []string          `json:"eventIds,omitempty"`
	MarketIDs       []string          `json:"marketIds,omitempty"`
	MarketCountries []string          `json:"marketCountries,omitempty"`
	MarketTypeCodes []string          `json:"marketTypeCodes,omitempty"`
	MarketStartTime map[string]string `json:"marketStartTime,omitempty"`
}

type catalogueResp struct {
	MarketID        string `json:"marketId"`
	MarketName      string `json:"marketName"`
	MarketStartTime string `json:"marketStartTime"`
	Event           struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"event"`
	Runners []struct {
		SelectionID int64  `json:"selectionId"`
		RunnerName  string `json:"runnerName"`
	} `json:"runners"`
}

// ListUpcomingRaces returns AU thoroughbred WIN markets starting within
// the next hoursAhead hours, with runner descriptions.
func (c *Client) ListUpcomingRaces(ctx context.Context, hoursAhead int) ([]RaceCard, error) {
	from := time.Now().UTC()
	to := from.Add(time.Duration(hoursAhead) * time.Hour)

	req := map[string]any{
		"filter": marketFilter{
			EventTypeIDs:    []string{"7"}, // horse racing
			MarketCountries: []string{"AU"},
			MarketTypeCodes: []string{"WIN"},
			MarketStartTime: map[string]string{
				"from": from.Format("2006-01-02T15:04:05Z"),
				"to":   to.Format("2006-01-02T15:04:05Z"),
			},
		},
		"maxResults":       100,
		"marketProjection": []string{"RUNNER_DESCRIPTION", "EVENT", "MARKET_START_TIME"},
	}

	var cats []catalogueResp
	if err := c.rpc(ctx, "listMarketCatalogue", req, &cats); err != nil {
		return nil, err
	}

	out := make([]RaceCard, 0, len(cats))
	for _, cat := range cats {
		card := RaceCard{
			Meta: types.RaceMeta{
				MarketID:    cat.MarketID,
				EventName:   cat.Event.Name,
				RunnerCount: len(cat.Runners),
			},
		}
		if ts, err := time.Parse(time.RFC3339, cat.MarketStartTime); err == nil {
			card.Meta.MarketStart = ts
		}
		for _, r := range cat.Runners {
			card.Runners = append(card.Runners, types.RunnerMeta{
				SelectionID: r.SelectionID,
				Name:        r.RunnerName,
			})
		}
		out = append(out, card)
	}
	return out, nil
}

// PlaceMarketID resolves the PLACE market belonging to the same event as
// the given WIN market. Returns ("", nil) when the event has none.
func (c *Client) PlaceMarketID(ctx context.Context, winMarketID string) (string, error) {
	var winCats []catalogueResp
	req := map[string]any{
		"filter":           marketFilter{MarketIDs: []string{winMarketID}},
		"maxResults":       1,
		"marketProjection": []string{"EVENT"},
	}
	if err := c.rpc(ctx, "listMarketCatalogue", req, &winCats); err != nil {
		return "", err
	}
	if len(winCats) == 0 {
		return "", fmt.Errorf("betfair: win market %s not found", winMarketID)
	}

	var placeCats []catalogueResp
	req = map[string]any{
		"filter": marketFilter{
			EventIDs:        []string{winCats[0].Event.ID},
			MarketTypeCodes: []string{"PLACE"},
		},
		"maxResults": 1,
	}
	if err := c.rpc(ctx, "listMarketCatalogue", req, &placeCats); err != nil {
		return "", err
	}
	if len(placeCats) == 0 {
		return "", nil
	}
	return placeCats[0].MarketID, nil
}

type bookResp struct {
	MarketID string `json:"marketId"`
	Status   string `json:"status"`
	Runners  []struct {
		SelectionID int64 `json:"selectionId"`
		Ex          struct {
			AvailableToBack []struct {
				Price float64 `json:"price"`
				Size  float64 `json:"size"`
			} `json:"availableToBack"`
			AvailableToLay []struct {
				Price float64 `json:"price"`
				Size  float64 `json:"size"`
			} `json:"availableToLay"`
		} `json:"ex"`
	} `json:"runners"`
}

// MarketBook fetches best offers for every selection in a market.
func (c *Client) MarketBook(ctx context.Context, marketID string) (map[int64]PricePoint, error) {
	req := map[string]any{
		"marketIds":       []string{marketID},
		"priceProjection": map[string]any{"priceData": []string{"EX_BEST_OFFERS"}},
	}
	var books []bookResp
	if err := c.rpc(ctx, "listMarketBook", req, &books); err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("betfair: empty market book for %s", marketID)
	}

	prices := make(map[int64]PricePoint, len(books[0].Runners))
	for _, r := range books[0].Runners {
		var p PricePoint
		if len(r.Ex.AvailableToBack) > 0 {
			p.BackPrice = r.Ex.AvailableToBack[0].Price
			p.HasBack = true
		}
		if len(r.Ex.AvailableToLay) > 0 {
			p.LayPrice = r.Ex.AvailableToLay[0].Price
			p.HasLay = true
		}
		prices[r.SelectionID] = p
	}
	return prices, nil
}

type placeOrdersResp struct {
	Status             string `json:"status"`
	ErrorCode          string `json:"errorCode"`
	InstructionReports []struct {
		Status            string  `json:"status"`
		ErrorCode         string  `json:"errorCode"`
		BetID             string  `json:"betId"`
		PlacedDate        string  `json:"placedDate"`
		SizeMatched       float64 `json:"sizeMatched"`
		AveragePriceMatch float64 `json:"averagePriceMatched"`
	} `json:"instructionReports"`
}

// PlaceBet submits a BACK limit order. Exchange-level rejections come back
// as an unsuccessful BetResult, not an error; only transport and decode
// failures are errors.
func (c *Client) PlaceBet(ctx context.Context, marketID string, selectionID int64, stake, price float64) (types.BetResult, error) {
	req := map[string]any{
		"marketId": marketID,
		"instructions": []map[string]any{{
			"orderType":   "LIMIT",
			"selectionId": selectionID,
			"side":        "BACK",
			"limitOrder": map[string]any{
				"size":            stake,
				"price":           price,
				"persistenceType": "LAPSE",
			},
		}},
	}

	var resp placeOrdersResp
	if err := c.rpc(ctx, "placeOrders", req, &resp); err != nil {
		return types.BetResult{}, err
	}

	if resp.Status != "SUCCESS" || len(resp.InstructionReports) == 0 {
		code := resp.ErrorCode
		if code == "" {
			code = "UNKNOWN"
		}
		c.log.Warn("bet placement rejected",
			zap.String("market_id", marketID),
			zap.String("error_code", code),
		)
		return types.BetResult{Success: false, ErrorCode: code}, nil
	}

	rep := resp.InstructionReports[0]
	if rep.Status != "SUCCESS" {
		return types.BetResult{Success: false, ErrorCode: rep.ErrorCode}, nil
	}

	res := types.BetResult{
		Success:   true,
		BetID:     rep.BetID,
		SizeMatch: rep.SizeMatched,
		AvgPrice:  rep.AveragePriceMatch,
	}
	if ts, err := time.Parse(time.RFC3339, rep.PlacedDate); err == nil {
		res.PlacedAt = ts
	}
	return res, nil
}

type fundsResp struct {
	AvailableToBetBalance float64 `json:"availableToBetBalance"`
}

// AccountFunds returns the balance available for betting. The accounts
// API lives on its own base URL.
func (c *Client) AccountFunds(ctx context.Context) (float64, error) {
	var f fundsResp
	start := time.Now()
	err := c.doRPC(ctx, c.cfg.Betfair.AccountURL+"/getAccountFunds/", map[string]any{}, &f)
	imetrics.ExchangeLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		imetrics.ExchangeErrors.Inc()
		return 0, err
	}
	return f.AvailableToBetBalance, nil
}

type keepAliveResp struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// KeepAlive extends the session token's lifetime. Call it well inside
// the session timeout; a failed call means the token has likely expired
// and every subsequent request will be rejected.
func (c *Client) KeepAlive(ctx context.Context) error {
	var r keepAliveResp
	if err := c.doRPC(ctx, c.cfg.Betfair.IdentityURL+"/keepAlive", nil, &r); err != nil {
		return err
	}
	if r.Status != "SUCCESS" {
		return fmt.Errorf("betfair: keep-alive rejected: %s", r.Error)
	}
	return nil
}

func (c *Client) rpc(ctx context.Context, method string, body, out any) error {
	start := time.Now()
	err := c.doRPC(ctx, c.cfg.Betfair.RestURL+"/"+method+"/", body, out)
	imetrics.ExchangeLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		imetrics.ExchangeErrors.Inc()
	}
	return err
}

func (c *Client) doRPC(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("X-Application", c.cfg.Betfair.AppKey)
	req.Header.Set("X-Authentication", c.cfg.Betfair.SessionToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("betfair: %s %d: %s", endpoint, resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
