package marketdata

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Usmankhan866/BetfairBot/internal/betfair"
	"github.com/Usmankhan866/BetfairBot/internal/config"
	"github.com/Usmankhan866/BetfairBot/internal/types"
)

// RaceSnapshot is a combined view of the win and place books for one race
// at a point in time.
type RaceSnapshot struct {
	Race          types.RaceMeta
	PlaceMarketID string
	Runners       []types.RunnerQuote
	Ts            time.Time
}

// Discoverer lists qualifying races; satisfied by *discovery.Service.
type Discoverer interface {
	Discover(ctx context.Context) ([]betfair.RaceCard, error)
}

// BookSource fetches market prices; satisfied by *betfair.Client.
type BookSource interface {
	PlaceMarketID(ctx context.Context, winMarketID string) (string, error)
	MarketBook(ctx context.Context, marketID string) (map[int64]betfair.PricePoint, error)
}

// Run polls the exchange on the configured interval and emits one
// snapshot per unprocessed race. Each race is snapshotted once per run;
// transient fetch failures leave the race eligible for the next pass.
func Run(ctx context.Context, cfg *config.Config, disc Discoverer, src BookSource, out chan<- RaceSnapshot, log *zap.Logger) {
	t := time.NewTicker(cfg.CheckInterval())
	defer t.Stop()

	processed := make(map[string]struct{}, 64)

	// first pass immediately, then on the ticker
	scan(ctx, cfg, disc, src, processed, out, log)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			scan(ctx, cfg, disc, src, processed, out, log)
		}
	}
}

func scan(ctx context.Context, cfg *config.Config, disc Discoverer, src BookSource, processed map[string]struct{}, out chan<- RaceSnapshot, log *zap.Logger) {
	cards, err := disc.Discover(ctx)
	if err != nil {
		log.Warn("marketdata: race discovery failed", zap.Error(err))
		return
	}

	for _, card := range cards {
		if ctx.Err() != nil {
			return
		}
		if _, ok := processed[card.Meta.MarketID]; ok {
			continue
		}
		snap, ok := snapshot(ctx, card, src, processed, log)
		if !ok {
			continue
		}
		// a race only counts as processed once its snapshot is delivered;
		// a drop here behaves like any other transient failure
		select {
		case out <- snap:
			processed[card.Meta.MarketID] = struct{}{}
		default:
			log.Warn("marketdata: snapshot channel full; dropping",
				zap.String("market_id", card.Meta.MarketID))
		}
	}
}

func snapshot(ctx context.Context, card betfair.RaceCard, src BookSource, processed map[string]struct{}, log *zap.Logger) (RaceSnapshot, bool) {
	marketID := card.Meta.MarketID

	placeID, err := src.PlaceMarketID(ctx, marketID)
	if err != nil {
		log.Warn("marketdata: place market lookup failed",
			zap.String("market_id", marketID), zap.Error(err))
		return RaceSnapshot{}, false
	}
	if placeID == "" {
		// no place market for this event; nothing to ever bet into
		log.Info("marketdata: no place market",
			zap.String("market_id", marketID),
			zap.String("event", card.Meta.EventName))
		processed[marketID] = struct{}{}
		return RaceSnapshot{}, false
	}

	winBook, err := src.MarketBook(ctx, marketID)
	if err != nil {
		log.Warn("marketdata: win book fetch failed",
			zap.String("market_id", marketID), zap.Error(err))
		return RaceSnapshot{}, false
	}
	placeBook, err := src.MarketBook(ctx, placeID)
	if err != nil {
		log.Warn("marketdata: place book fetch failed",
			zap.String("market_id", placeID), zap.Error(err))
		return RaceSnapshot{}, false
	}

	runners := make([]types.RunnerQuote, 0, len(card.Runners))
	for _, rm := range card.Runners {
		q := types.RunnerQuote{SelectionID: rm.SelectionID, Name: rm.Name}
		if p, ok := winBook[rm.SelectionID]; ok && p.HasLay {
			q.WinLayPrice = p.LayPrice
			q.HasWinLay = true
		}
		if p, ok := placeBook[rm.SelectionID]; ok && p.HasBack {
			q.PlaceBack = p.BackPrice
			q.HasPlaceBack = true
		}
		runners = append(runners, q)
	}

	return RaceSnapshot{
		Race:          card.Meta,
		PlaceMarketID: placeID,
		Runners:       runners,
		Ts:            time.Now(),
	}, true
}
